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

package common

import (
	"io/ioutil"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func UnmarshalJSON(req *http.Request, iface interface{}) error {
	content, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if len(content) == 0 {
		return nil
	}

	return json.Unmarshal(content, iface)
}

// GetDomainByUserID returns the server name part of a matrix user id.
func GetDomainByUserID(userID string) string {
	if i := strings.IndexByte(userID, ':'); i >= 0 {
		return userID[i+1:]
	}
	return ""
}

// GetLocalpart returns the localpart of a matrix user id, "@alice:example.org"
// gives "alice".
func GetLocalpart(userID string) string {
	localpart := strings.TrimPrefix(userID, "@")
	if i := strings.IndexByte(localpart, ':'); i >= 0 {
		localpart = localpart[:i]
	}
	return localpart
}
