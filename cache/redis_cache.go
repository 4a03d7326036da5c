// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cache

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gomodule/redigo/redis"
	jsoniter "github.com/json-iterator/go"
	"github.com/watcha-fr/synapse-sub000/model/types"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RedisCache struct {
	pools    []*redis.Pool
	poolSize int
	ttl      int
}

func (rc *RedisCache) Prepare(uris []string, ttlSeconds int) (err error) {
	if len(uris) == 0 {
		return fmt.Errorf("redis cache needs at least one uri")
	}
	rc.poolSize = len(uris)
	rc.pools = make([]*redis.Pool, rc.poolSize)
	for i := 0; i < rc.poolSize; i++ {
		addr := uris[i]
		rc.pools[i] = &redis.Pool{
			MaxIdle:     10,
			MaxActive:   200,
			Wait:        true,
			IdleTimeout: 240 * time.Second,
			Dial:        func() (redis.Conn, error) { return redis.DialURL(addr) },
		}
	}
	rc.ttl = ttlSeconds
	return nil
}

func (rc *RedisCache) pool() *redis.Pool {
	slot := rand.Intn(rc.poolSize)
	return rc.pools[slot]
}

func (rc *RedisCache) SafeDo(commandName string, args ...interface{}) (reply interface{}, err error) {
	conn := rc.pool().Get()
	defer conn.Close()
	reply, err = conn.Do(commandName, args...)
	return reply, err
}

func (rc *RedisCache) Close() error {
	for _, p := range rc.pools {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}

func externalAccountKey(userID string) string {
	return fmt.Sprintf("%s:%s", "external_account", userID)
}

// GetExternalAccount returns nil, nil on a cache miss.
func (rc *RedisCache) GetExternalAccount(userID string) (*types.ExternalAccount, error) {
	data, err := redis.Bytes(rc.SafeDo("get", externalAccountKey(userID)))
	if err == redis.ErrNil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var account types.ExternalAccount
	if err := json.Unmarshal(data, &account); err != nil {
		log.Warnf("dropping unreadable cached account user:%s err:%v", userID, err)
		return nil, rc.DelExternalAccount(userID)
	}
	return &account, nil
}

func (rc *RedisCache) SetExternalAccount(userID string, account *types.ExternalAccount) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}
	_, err = rc.SafeDo("set", externalAccountKey(userID), data, "EX", rc.ttl)
	return err
}

func (rc *RedisCache) DelExternalAccount(userID string) error {
	_, err := rc.SafeDo("del", externalAccountKey(userID))
	return err
}
