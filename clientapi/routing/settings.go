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
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
)

type roomSettingsRequest struct {
	NextcloudShare *string `json:"nextcloudShare"`
}

// UpdateShare implements PUT /_watcha/rooms/{roomID}/settings
func UpdateShare(req *http.Request, watcha Watcha, requester *types.Requester, roomID string) util.JSONResponse {
	var r roomSettingsRequest
	if resErr := httputil.UnmarshalJSONRequest(req, &r); resErr != nil {
		return *resErr
	}
	if r.NextcloudShare == nil {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.MissingParam("nextcloudShare is required"),
		}
	}

	if err := watcha.UpdateShare(req.Context(), requester, roomID, *r.NextcloudShare); err != nil {
		return httputil.HandlerErrorResponse(req, err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: struct{}{},
	}
}
