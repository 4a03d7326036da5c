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

package model_test

import (
	"github.com/watcha-fr/synapse-sub000/storage/implements/nextcloud"
	"github.com/watcha-fr/synapse-sub000/storage/model"
)

var (
	_ model.NextcloudDatabase = (*nextcloud.Database)(nil)
	_ model.DBMonitor         = (*nextcloud.Database)(nil)
)
