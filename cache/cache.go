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

import "github.com/watcha-fr/synapse-sub000/model/types"

// AccountCache keeps the external account of chat users, so that membership
// changes do not all hit the identity provider.
type AccountCache interface {
	GetExternalAccount(userID string) (*types.ExternalAccount, error)
	SetExternalAccount(userID string, account *types.ExternalAccount) error
	DelExternalAccount(userID string) error
}

var (
	_ AccountCache = (*RedisCache)(nil)
	_ AccountCache = (*LocalCache)(nil)
)
