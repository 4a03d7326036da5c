// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package routing

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/watcha-fr/synapse-sub000/binding"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/common/config"
	"github.com/watcha-fr/synapse-sub000/external/keycloak"
	"github.com/watcha-fr/synapse-sub000/model"
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const pathPrefixWatcha = "/_watcha"

// Watcha is implemented by *binding.Handler.
type Watcha interface {
	UpdateShare(ctx context.Context, requester *types.Requester, roomID, shareURL string) error
	UpdateCalendarShare(
		ctx context.Context, requester *types.Requester, roomID, stateKey string, req *binding.CalendarShareRequest,
	) (*types.CalendarShare, error)
	ListCalendars(ctx context.Context, requester *types.Requester) ([]types.Calendar, error)
	GetCalendar(ctx context.Context, requester *types.Requester, calendarID string) (*types.Calendar, error)
	ReorderCalendar(ctx context.Context, requester *types.Requester, calendarID string, order int) error
	OnMembershipChanged(ctx context.Context, userID, roomID, membership string) error
	OnRoomRenamed(ctx context.Context, roomID string) error
}

// UserAdmin is implemented by *keycloak.Client.
type UserAdmin interface {
	AddUser(ctx context.Context, user *keycloak.User) error
	DeleteUser(ctx context.Context, id string) error
	GetUserByUsername(ctx context.Context, username string) (*keycloak.User, error)
}

type AccountCache interface {
	DelExternalAccount(userID string) error
}

// Setup registers HTTP handlers with the given ServeMux.
func Setup(
	apiMux *mux.Router,
	cfg *config.Watcha,
	watcha Watcha,
	resolver common.TokenResolver,
	admin UserAdmin,
	accounts AccountCache,
) {
	apiMux.Handle(pathPrefixWatcha+"/version",
		common.MakeExternalAPI("version", func(req *http.Request) util.JSONResponse {
			return model.GetVersionResp()
		}),
	).Methods(http.MethodGet, http.MethodOptions)

	r0 := apiMux.PathPrefix(pathPrefixWatcha).Subrouter()
	hooks := &hookProcessor{watcha: watcha}

	r0.Handle("/rooms/{roomID}/settings",
		common.MakeAuthAPI("update_share", resolver, func(req *http.Request, requester *types.Requester) util.JSONResponse {
			return UpdateShare(req, watcha, requester, mux.Vars(req)["roomID"])
		}),
	).Methods(http.MethodPut, http.MethodOptions)

	r0.Handle("/rooms/{roomID}/calendar_share/{stateKey}",
		common.MakeAuthAPI("update_calendar_share", resolver, func(req *http.Request, requester *types.Requester) util.JSONResponse {
			vars := mux.Vars(req)
			return UpdateCalendarShare(req, watcha, requester, vars["roomID"], vars["stateKey"])
		}),
	).Methods(http.MethodPut, http.MethodOptions)

	r0.Handle("/calendars",
		common.MakeAuthAPI("list_calendars", resolver, func(req *http.Request, requester *types.Requester) util.JSONResponse {
			return ListCalendars(req, watcha, requester)
		}),
	).Methods(http.MethodGet, http.MethodOptions)

	r0.Handle("/calendars/{calendarID}",
		common.MakeAuthAPI("get_calendar", resolver, func(req *http.Request, requester *types.Requester) util.JSONResponse {
			return GetCalendar(req, watcha, requester, mux.Vars(req)["calendarID"])
		}),
	).Methods(http.MethodGet, http.MethodOptions)

	r0.Handle("/calendars/{calendarID}/reorder",
		common.MakeAuthAPI("reorder_calendar", resolver, func(req *http.Request, requester *types.Requester) util.JSONResponse {
			return ReorderCalendar(req, watcha, requester, mux.Vars(req)["calendarID"])
		}),
	).Methods(http.MethodPut, http.MethodOptions)

	r0.Handle("/hooks/membership",
		common.MakeHookAPI("hook_membership", cfg.Settings.HookSecret, hooks.OnMembership),
	).Methods(http.MethodPost)

	r0.Handle("/hooks/room_name",
		common.MakeHookAPI("hook_room_name", cfg.Settings.HookSecret, hooks.OnRoomName),
	).Methods(http.MethodPost)

	r0.Handle("/admin/users",
		common.MakeHookAPI("admin_add_user", cfg.Settings.HookSecret, func(req *http.Request) util.JSONResponse {
			return AddUser(req, admin)
		}),
	).Methods(http.MethodPost)

	r0.Handle("/admin/users/{username}",
		common.MakeHookAPI("admin_delete_user", cfg.Settings.HookSecret, func(req *http.Request) util.JSONResponse {
			return DeleteUser(req, admin, accounts, cfg.Matrix.ServerName, mux.Vars(req)["username"])
		}),
	).Methods(http.MethodDelete)
}
