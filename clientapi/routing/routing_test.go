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
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watcha-fr/synapse-sub000/binding"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/common/config"
	"github.com/watcha-fr/synapse-sub000/external/keycloak"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

type fakeResolver map[string]string

func (r fakeResolver) WhoAmI(ctx context.Context, accessToken string) (string, error) {
	return r[accessToken], nil
}

type fakeWatcha struct {
	mu     sync.Mutex
	calls  []string
	err    error
	share  *types.CalendarShare
	events chan string
}

func (f *fakeWatcha) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeWatcha) UpdateShare(ctx context.Context, requester *types.Requester, roomID, shareURL string) error {
	return f.record("UpdateShare " + requester.UserID + " " + roomID + " " + shareURL)
}

func (f *fakeWatcha) UpdateCalendarShare(
	ctx context.Context, requester *types.Requester, roomID, stateKey string, req *binding.CalendarShareRequest,
) (*types.CalendarShare, error) {
	err := f.record("UpdateCalendarShare " + requester.UserID + " " + roomID + " " + stateKey + " " + req.ID)
	return f.share, err
}

func (f *fakeWatcha) ListCalendars(ctx context.Context, requester *types.Requester) ([]types.Calendar, error) {
	if err := f.record("ListCalendars " + requester.UserID); err != nil {
		return nil, err
	}
	return []types.Calendar{{ID: "7", DisplayName: "Personal", Components: []string{"VEVENT"}, IsPersonal: true}}, nil
}

func (f *fakeWatcha) GetCalendar(ctx context.Context, requester *types.Requester, calendarID string) (*types.Calendar, error) {
	if err := f.record("GetCalendar " + requester.UserID + " " + calendarID); err != nil {
		return nil, err
	}
	return &types.Calendar{ID: calendarID, DisplayName: "Personal"}, nil
}

func (f *fakeWatcha) ReorderCalendar(ctx context.Context, requester *types.Requester, calendarID string, order int) error {
	return f.record("ReorderCalendar " + requester.UserID + " " + calendarID)
}

func (f *fakeWatcha) OnMembershipChanged(ctx context.Context, userID, roomID, membership string) error {
	f.events <- "OnMembershipChanged " + userID + " " + roomID + " " + membership
	return f.err
}

func (f *fakeWatcha) OnRoomRenamed(ctx context.Context, roomID string) error {
	f.events <- "OnRoomRenamed " + roomID
	return f.err
}

type fakeAdmin struct {
	added   []*keycloak.User
	deleted []string
	users   map[string]string
	addErr  error
}

func (f *fakeAdmin) AddUser(ctx context.Context, user *keycloak.User) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, user)
	return nil
}

func (f *fakeAdmin) DeleteUser(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAdmin) GetUserByUsername(ctx context.Context, username string) (*keycloak.User, error) {
	id, ok := f.users[username]
	if !ok {
		return nil, &remote.RemoteError{Service: "keycloak", Operation: "get_user", Code: 404, Outcome: remote.NotFound}
	}
	return &keycloak.User{ID: id, Username: username}, nil
}

type fakeAccounts []string

func (f *fakeAccounts) DelExternalAccount(userID string) error {
	*f = append(*f, userID)
	return nil
}

type testServer struct {
	router   *mux.Router
	watcha   *fakeWatcha
	admin    *fakeAdmin
	accounts *fakeAccounts
}

func newTestServer() *testServer {
	cfg := &config.Watcha{}
	cfg.Matrix.ServerName = "example.org"
	cfg.Settings.HookSecret = "secret"

	s := &testServer{
		router:   mux.NewRouter(),
		watcha:   &fakeWatcha{events: make(chan string, 4)},
		admin:    &fakeAdmin{users: map[string]string{"alice": "kc-alice"}},
		accounts: &fakeAccounts{},
	}
	resolver := fakeResolver{"alice-token": "@alice:example.org"}
	Setup(s.router, cfg, s.watcha, resolver, s.admin, s.accounts)
	return s
}

func (s *testServer) do(method, target, body string, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var res map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &res)
	return rec, res
}

var (
	asAlice  = []string{"Authorization", "Bearer alice-token"}
	withHook = []string{common.HookSecretHeader, "secret"}
)

func TestVersion(t *testing.T) {
	s := newTestServer()
	rec, res := s.do(http.MethodGet, "/_watcha/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "watcha-nextcloud", res["server"].(map[string]interface{})["name"])
}

func TestUpdateShareRoute(t *testing.T) {
	s := newTestServer()
	path := "/_watcha/rooms/!room1:example.org/settings"

	rec, _ := s.do(http.MethodPut, path, `{"nextcloudShare":"https://cloud/?dir=/a"}`, asAlice...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"UpdateShare @alice:example.org !room1:example.org https://cloud/?dir=/a"}, s.watcha.calls)

	rec, res := s.do(http.MethodPut, path, `{"nextcloudShare":""}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "M_MISSING_TOKEN", res["errcode"])

	rec, res = s.do(http.MethodPut, path, `{"nextcloudShare":""}`, "Authorization", "Bearer bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "M_UNKNOWN_TOKEN", res["errcode"])

	rec, res = s.do(http.MethodPut, path, `{}`, asAlice...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "M_MISSING_PARAM", res["errcode"])

	rec, res = s.do(http.MethodPut, path, `{"nextcloudShare":`, asAlice...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "M_BAD_JSON", res["errcode"])
	assert.Len(t, s.watcha.calls, 1)
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		errcode string
	}{
		{&binding.ConsistencyError{Code: 404, ErrCode: "M_NOT_FOUND", Msg: "folder /a does not exist"}, 404, "M_NOT_FOUND"},
		{&binding.ConsistencyError{Code: 400, ErrCode: "W_CALENDAR_CONFLICT", Msg: "conflict"}, 400, "W_CALENDAR_CONFLICT"},
		{&binding.AuthError{Msg: "not in room"}, 403, "M_FORBIDDEN"},
		{&binding.HandlerError{Err: errors.New("nextcloud down")}, 500, "M_UNKNOWN"},
	}
	for _, tt := range tests {
		s := newTestServer()
		s.watcha.err = tt.err
		rec, res := s.do(http.MethodPut, "/_watcha/rooms/!room1:example.org/settings", `{"nextcloudShare":"x"}`, asAlice...)
		assert.Equal(t, tt.code, rec.Code)
		assert.Equal(t, tt.errcode, res["errcode"])
	}
}

func TestCalendarRoutes(t *testing.T) {
	s := newTestServer()

	rec, res := s.do(http.MethodGet, "/_watcha/calendars", "", asAlice...)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, res["calendars"], 1)

	rec, res = s.do(http.MethodGet, "/_watcha/calendars/7", "", asAlice...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Personal", res["displayname"])

	rec, _ = s.do(http.MethodPut, "/_watcha/calendars/7/reorder", `{"order":2}`, asAlice...)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, res = s.do(http.MethodPut, "/_watcha/calendars/7/reorder", `{}`, asAlice...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "M_INVALID_PARAM", res["errcode"])

	assert.Equal(t, []string{
		"ListCalendars @alice:example.org",
		"GetCalendar @alice:example.org 7",
		"ReorderCalendar @alice:example.org 7",
	}, s.watcha.calls)
}

func TestCalendarShareRoute(t *testing.T) {
	s := newTestServer()
	s.watcha.share = &types.CalendarShare{StateKey: "VEVENT", CalendarID: "12", IsPersonal: true}

	rec, res := s.do(http.MethodPut, "/_watcha/rooms/!room1:example.org/calendar_share/VJOURNAL", `{}`, asAlice...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "M_INVALID_PARAM", res["errcode"])
	assert.Empty(t, s.watcha.calls)

	rec, res = s.do(http.MethodPut, "/_watcha/rooms/!room1:example.org/calendar_share/VEVENT",
		`{"id":"12","is_personal":true}`, asAlice...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12", res["id"])
	assert.Equal(t, true, res["is_personal"])
	assert.Equal(t, []string{"UpdateCalendarShare @alice:example.org !room1:example.org VEVENT 12"}, s.watcha.calls)
}

func waitEvent(t *testing.T, events chan string) string {
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("hook was not dispatched")
		return ""
	}
}

func TestHooks(t *testing.T) {
	s := newTestServer()
	s.watcha.err = errors.New("nextcloud down")

	rec, _ := s.do(http.MethodPost, "/_watcha/hooks/membership",
		`{"user_id":"@bob:example.org","room_id":"!room1:example.org","membership":"join"}`, withHook...)
	assert.Equal(t, http.StatusOK, rec.Code, "failures never reach the chat server")
	assert.Equal(t, "OnMembershipChanged @bob:example.org !room1:example.org join", waitEvent(t, s.watcha.events))

	rec, _ = s.do(http.MethodPost, "/_watcha/hooks/room_name", `{"room_id":"!room1:example.org"}`, withHook...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OnRoomRenamed !room1:example.org", waitEvent(t, s.watcha.events))

	rec, res := s.do(http.MethodPost, "/_watcha/hooks/membership", `{"room_id":"!room1:example.org"}`, withHook...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "M_MISSING_PARAM", res["errcode"])

	rec, res = s.do(http.MethodPost, "/_watcha/hooks/room_name", `{"room_id":"!room1:example.org"}`,
		common.HookSecretHeader, "wrong")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "M_FORBIDDEN", res["errcode"])
	assert.Empty(t, s.watcha.events)
}

func TestHookLogFieldsCopied(t *testing.T) {
	shared := make(log.KeysAndValues, 2, 8)
	shared[0], shared[1] = "req.id", "abc"
	req := httptest.NewRequest(http.MethodPost, "/_watcha/hooks/room_name", nil)
	req = req.WithContext(util.ContextWithLogFields(req.Context(), shared))

	p := &hookProcessor{}
	seen := make(chan log.KeysAndValues, 8)
	for i := 0; i < 8; i++ {
		p.dispatch(req, "hook_room_name", func(ctx context.Context) error {
			seen <- util.GetLogFields(ctx)
			return errors.New("nextcloud down")
		})
	}
	p.wg.Wait()
	close(seen)

	for fields := range seen {
		assert.Equal(t, log.KeysAndValues{"req.id", "abc", "hook", "hook_room_name"}, fields)
	}
	assert.Equal(t, make(log.KeysAndValues, 6), shared[2:cap(shared)], "request fields are never written to")
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer()

	rec, res := s.do(http.MethodPost, "/_watcha/admin/users",
		`{"username":"carol","email":"carol@example.org","is_partner":true}`, withHook...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "carol", res["username"])
	require.Len(t, s.admin.added, 1)
	assert.True(t, s.admin.added[0].IsPartner())
	assert.True(t, s.admin.added[0].Enabled)

	s.admin.addErr = &remote.RemoteError{Service: "keycloak", Operation: "add_user", Code: 409, Outcome: remote.Conflict}
	rec, res = s.do(http.MethodPost, "/_watcha/admin/users", `{"username":"carol"}`, withHook...)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "M_USER_IN_USE", res["errcode"])

	rec, _ = s.do(http.MethodDelete, "/_watcha/admin/users/alice", "", withHook...)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"kc-alice"}, s.admin.deleted)
	assert.Equal(t, fakeAccounts{"@alice:example.org"}, *s.accounts)

	rec, res = s.do(http.MethodDelete, "/_watcha/admin/users/nobody", "", withHook...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "M_NOT_FOUND", res["errcode"])

	rec, _ = s.do(http.MethodDelete, "/_watcha/admin/users/alice", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
