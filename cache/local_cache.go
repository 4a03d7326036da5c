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
	"sync"
	"time"

	"github.com/watcha-fr/synapse-sub000/model/types"
)

// LocalCache keeps accounts in process memory, used when no redis is
// configured.
type LocalCache struct {
	ttl   time.Duration
	items sync.Map
	now   func() time.Time
}

type localItem struct {
	account types.ExternalAccount
	expire  time.Time
}

func NewLocalCache(ttlSeconds int) *LocalCache {
	return &LocalCache{
		ttl: time.Duration(ttlSeconds) * time.Second,
		now: time.Now,
	}
}

func (lc *LocalCache) GetExternalAccount(userID string) (*types.ExternalAccount, error) {
	val, ok := lc.items.Load(userID)
	if !ok {
		return nil, nil
	}
	item := val.(*localItem)
	if lc.now().After(item.expire) {
		lc.items.Delete(userID)
		return nil, nil
	}
	account := item.account
	return &account, nil
}

func (lc *LocalCache) SetExternalAccount(userID string, account *types.ExternalAccount) error {
	lc.items.Store(userID, &localItem{account: *account, expire: lc.now().Add(lc.ttl)})
	return nil
}

func (lc *LocalCache) DelExternalAccount(userID string) error {
	lc.items.Delete(userID)
	return nil
}
