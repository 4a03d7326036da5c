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

package keycloak

import (
	"context"

	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

type AccountCache interface {
	GetExternalAccount(userID string) (*types.ExternalAccount, error)
	SetExternalAccount(userID string, account *types.ExternalAccount) error
}

// Directory maps chat users to their identity provider account. Chat users
// are matched on their localpart, the account id is the username the file
// sharing service knows them as.
type Directory struct {
	client     *Client
	cache      AccountCache
	serverName string
}

func NewDirectory(client *Client, cache AccountCache, serverName string) *Directory {
	return &Directory{
		client:     client,
		cache:      cache,
		serverName: serverName,
	}
}

// ExternalAccount returns nil, nil for users without an account, which
// includes every user of another homeserver.
func (d *Directory) ExternalAccount(ctx context.Context, userID string) (*types.ExternalAccount, error) {
	if common.GetDomainByUserID(userID) != d.serverName {
		return nil, nil
	}

	account, err := d.cache.GetExternalAccount(userID)
	if err != nil {
		log.Warnf("account cache read failed user:%s err:%v", userID, err)
	} else if account != nil {
		return account, nil
	}

	user, err := d.client.GetUserByUsername(ctx, common.GetLocalpart(userID))
	if remote.Is(err, remote.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	account = &types.ExternalAccount{Username: user.ID, IsPartner: user.IsPartner()}
	if err := d.cache.SetExternalAccount(userID, account); err != nil {
		log.Warnf("account cache write failed user:%s err:%v", userID, err)
	}
	return account, nil
}
