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

	"github.com/watcha-fr/synapse-sub000/binding"
	"github.com/watcha-fr/synapse-sub000/clientapi/httputil"
	"github.com/watcha-fr/synapse-sub000/common/jsonerror"
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
)

type calendarsResponse struct {
	Calendars []types.Calendar `json:"calendars"`
}

type reorderRequest struct {
	Order *int `json:"order"`
}

type calendarShareResponse struct {
	ID         string `json:"id,omitempty"`
	IsPersonal bool   `json:"is_personal"`
}

// ListCalendars implements GET /_watcha/calendars
func ListCalendars(req *http.Request, watcha Watcha, requester *types.Requester) util.JSONResponse {
	calendars, err := watcha.ListCalendars(req.Context(), requester)
	if err != nil {
		return httputil.HandlerErrorResponse(req, err)
	}
	if calendars == nil {
		calendars = []types.Calendar{}
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: calendarsResponse{Calendars: calendars},
	}
}

// GetCalendar implements GET /_watcha/calendars/{calendarID}
func GetCalendar(req *http.Request, watcha Watcha, requester *types.Requester, calendarID string) util.JSONResponse {
	calendar, err := watcha.GetCalendar(req.Context(), requester, calendarID)
	if err != nil {
		return httputil.HandlerErrorResponse(req, err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: calendar,
	}
}

// ReorderCalendar implements PUT /_watcha/calendars/{calendarID}/reorder
func ReorderCalendar(req *http.Request, watcha Watcha, requester *types.Requester, calendarID string) util.JSONResponse {
	var r reorderRequest
	if resErr := httputil.UnmarshalJSONRequest(req, &r); resErr != nil {
		return *resErr
	}
	if r.Order == nil || *r.Order < 0 {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.InvalidParam("order must be a non-negative integer"),
		}
	}

	if err := watcha.ReorderCalendar(req.Context(), requester, calendarID, *r.Order); err != nil {
		return httputil.HandlerErrorResponse(req, err)
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: struct{}{},
	}
}

// UpdateCalendarShare implements PUT /_watcha/rooms/{roomID}/calendar_share/{stateKey}
func UpdateCalendarShare(
	req *http.Request, watcha Watcha, requester *types.Requester, roomID, stateKey string,
) util.JSONResponse {
	if !binding.ValidComponentsKey(stateKey) {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.InvalidParam("unknown calendar share key " + stateKey),
		}
	}
	var r binding.CalendarShareRequest
	if resErr := httputil.UnmarshalJSONRequest(req, &r); resErr != nil {
		return *resErr
	}

	share, err := watcha.UpdateCalendarShare(req.Context(), requester, roomID, stateKey, &r)
	if err != nil {
		return httputil.HandlerErrorResponse(req, err)
	}
	res := calendarShareResponse{}
	if share != nil {
		res = calendarShareResponse{ID: share.CalendarID, IsPersonal: share.IsPersonal}
	}
	return util.JSONResponse{
		Code: http.StatusOK,
		JSON: res,
	}
}
