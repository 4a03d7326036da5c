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

package routing

import (
	"net/http"

	"github.com/watcha-fr/synapse-sub000/clientapi/httputil"
	"github.com/watcha-fr/synapse-sub000/common/jsonerror"
	"github.com/watcha-fr/synapse-sub000/external/keycloak"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

type addUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsPartner bool   `json:"is_partner"`
}

type addUserResponse struct {
	Username string `json:"username"`
}

// AddUser implements POST /_watcha/admin/users
func AddUser(req *http.Request, admin UserAdmin) util.JSONResponse {
	var r addUserRequest
	if resErr := httputil.UnmarshalJSONRequest(req, &r); resErr != nil {
		return *resErr
	}
	if r.Username == "" {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.MissingParam("username is required"),
		}
	}

	user := &keycloak.User{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Enabled:   true,
	}
	if r.IsPartner {
		user.Attributes = map[string][]string{keycloak.PartnerAttribute: {"true"}}
	}

	err := admin.AddUser(req.Context(), user)
	if remote.Is(err, remote.Conflict) {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.New("M_USER_IN_USE", "user "+r.Username+" already exists"),
		}
	}
	if err != nil {
		return httputil.LogThenError(req, err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: addUserResponse{Username: r.Username},
	}
}

// DeleteUser implements DELETE /_watcha/admin/users/{username}
func DeleteUser(
	req *http.Request, admin UserAdmin, accounts AccountCache, serverName, username string,
) util.JSONResponse {
	user, err := admin.GetUserByUsername(req.Context(), username)
	if err == nil {
		err = admin.DeleteUser(req.Context(), user.ID)
	}
	if remote.Is(err, remote.NotFound) {
		return util.JSONResponse{
			Code: http.StatusNotFound,
			JSON: jsonerror.NotFound("user " + username + " does not exist"),
		}
	}
	if err != nil {
		return httputil.LogThenError(req, err)
	}

	userID := "@" + username + ":" + serverName
	if err := accounts.DelExternalAccount(userID); err != nil {
		log.Warnw("failed to forget external account", log.KeysAndValues{"user_id", userID, "error", err})
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: struct{}{}}
}
