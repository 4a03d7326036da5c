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

package model

import (
	"net/http"

	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
)

// ServerVersion is set at link time.
var ServerVersion = "dev"

type Version struct {
	Server Server `json:"server"`
}

type Server struct {
	Version string `json:"version"`
	Name    string `json:"name"`
}

func GetVersionResp() util.JSONResponse {
	return util.JSONResponse{Code: http.StatusOK, JSON: GetVersion()}
}

func GetVersion() *Version {
	return &Version{Server{ServerVersion, "watcha-nextcloud"}}
}
