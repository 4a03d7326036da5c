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

package binding

import (
	"context"
	"fmt"
	"strings"

	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
)

func remoteErr(outcome remote.Outcome) error {
	return &remote.RemoteError{Service: "nextcloud", Operation: "test", Code: 999, Message: "injected", Outcome: outcome}
}

// fakeNextcloud records every call as "Op arg1 arg2...". Failures are
// injected by full call string or by op name.
type fakeNextcloud struct {
	calls       []string
	errs        map[string]error
	shareSeq    int
	calendarSeq int
	calendars   map[string]*types.Calendar
}

func newFakeNextcloud() *fakeNextcloud {
	return &fakeNextcloud{
		errs:      make(map[string]error),
		calendars: make(map[string]*types.Calendar),
	}
}

func (f *fakeNextcloud) record(op string, args ...string) error {
	call := strings.Join(append([]string{op}, args...), " ")
	f.calls = append(f.calls, call)
	if err, ok := f.errs[call]; ok {
		return err
	}
	return f.errs[op]
}

func (f *fakeNextcloud) count(op string) int {
	n := 0
	for _, call := range f.calls {
		if call == op || strings.HasPrefix(call, op+" ") {
			n++
		}
	}
	return n
}

func (f *fakeNextcloud) reset() {
	f.calls = nil
}

func (f *fakeNextcloud) AddGroup(ctx context.Context, groupID, displayName string) error {
	return f.record("AddGroup", groupID, displayName)
}

func (f *fakeNextcloud) SetGroupDisplayName(ctx context.Context, groupID, displayName string) error {
	return f.record("SetGroupDisplayName", groupID, displayName)
}

func (f *fakeNextcloud) DeleteGroup(ctx context.Context, groupID string) error {
	return f.record("DeleteGroup", groupID)
}

func (f *fakeNextcloud) AddUserToGroup(ctx context.Context, username, groupID string) error {
	return f.record("AddUserToGroup", username, groupID)
}

func (f *fakeNextcloud) RemoveUserFromGroup(ctx context.Context, username, groupID string) error {
	return f.record("RemoveUserFromGroup", username, groupID)
}

func (f *fakeNextcloud) CreateShare(ctx context.Context, path, groupID string) (string, error) {
	if err := f.record("CreateShare", path, groupID); err != nil {
		return "", err
	}
	f.shareSeq++
	return fmt.Sprintf("share_%d", f.shareSeq), nil
}

func (f *fakeNextcloud) DeleteShare(ctx context.Context, shareID string) error {
	return f.record("DeleteShare", shareID)
}

func (f *fakeNextcloud) RenameShare(ctx context.Context, shareID, label string) error {
	return f.record("RenameShare", shareID, label)
}

func (f *fakeNextcloud) ListCalendars(ctx context.Context, username string) ([]types.Calendar, error) {
	if err := f.record("ListCalendars", username); err != nil {
		return nil, err
	}
	var calendars []types.Calendar
	for _, c := range f.calendars {
		calendars = append(calendars, *c)
	}
	return calendars, nil
}

func (f *fakeNextcloud) GetCalendar(ctx context.Context, username, calendarID string) (*types.Calendar, error) {
	if err := f.record("GetCalendar", username, calendarID); err != nil {
		return nil, err
	}
	c, ok := f.calendars[calendarID]
	if !ok {
		return nil, remoteErr(remote.NotFound)
	}
	return c, nil
}

func (f *fakeNextcloud) CreateCalendar(ctx context.Context, displayName string, components []string) (string, error) {
	if err := f.record("CreateCalendar", displayName, strings.Join(components, ",")); err != nil {
		return "", err
	}
	f.calendarSeq++
	id := fmt.Sprintf("cal_%d", f.calendarSeq)
	f.calendars[id] = &types.Calendar{ID: id, DisplayName: displayName, Components: components}
	return id, nil
}

func (f *fakeNextcloud) DeleteCalendar(ctx context.Context, calendarID string) error {
	if err := f.record("DeleteCalendar", calendarID); err != nil {
		return err
	}
	delete(f.calendars, calendarID)
	return nil
}

func (f *fakeNextcloud) ReorderCalendar(ctx context.Context, username, calendarID string, order int) error {
	return f.record("ReorderCalendar", username, calendarID, fmt.Sprint(order))
}

func (f *fakeNextcloud) ShareCalendar(ctx context.Context, calendarID, groupID, displayName string) error {
	return f.record("ShareCalendar", calendarID, groupID, displayName)
}

func (f *fakeNextcloud) RenameCalendarShare(ctx context.Context, calendarID, groupID, displayName string) error {
	return f.record("RenameCalendarShare", calendarID, groupID, displayName)
}

func (f *fakeNextcloud) UnshareCalendar(ctx context.Context, calendarID, groupID string) error {
	return f.record("UnshareCalendar", calendarID, groupID)
}

type sentEvent struct {
	Sender   string
	Type     string
	StateKey string
	Content  string
}

// fakeRooms applies sent state events to the state it serves.
type fakeRooms struct {
	state   types.RoomState
	sent    []sentEvent
	now     int64
	sendErr error
}

func newFakeRooms(events ...*types.StateEvent) *fakeRooms {
	return &fakeRooms{state: types.NewRoomState(events), now: 1000}
}

func (f *fakeRooms) CurrentState(ctx context.Context, roomID string) (types.RoomState, error) {
	return f.state, nil
}

func (f *fakeRooms) SendStateEvent(
	ctx context.Context, requester *types.Requester, roomID, evType, stateKey string, content []byte,
) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.now++
	f.sent = append(f.sent, sentEvent{requester.UserID, evType, stateKey, string(content)})
	f.state.Set(&types.StateEvent{
		Type:      evType,
		StateKey:  stateKey,
		Sender:    requester.UserID,
		Timestamp: f.now,
		Content:   content,
	})
	return nil
}

type fakeUsers map[string]*types.ExternalAccount

func (f fakeUsers) ExternalAccount(ctx context.Context, userID string) (*types.ExternalAccount, error) {
	return f[userID], nil
}

type fakeStore struct {
	bindings map[string]types.RoomBinding
}

func newFakeStore() *fakeStore {
	return &fakeStore{bindings: make(map[string]types.RoomBinding)}
}

func (s *fakeStore) GetBinding(ctx context.Context, roomID string) (*types.RoomBinding, error) {
	b, ok := s.bindings[roomID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *fakeStore) UpsertBinding(ctx context.Context, roomID, directoryPath, shareID string) error {
	s.bindings[roomID] = types.RoomBinding{RoomID: roomID, DirectoryPath: directoryPath, ShareID: shareID}
	return nil
}

func (s *fakeStore) DeleteBinding(ctx context.Context, roomID string) error {
	delete(s.bindings, roomID)
	return nil
}

func memberEvent(userID, displayName, membership string, ts int64) *types.StateEvent {
	content := fmt.Sprintf(`{"membership":%q}`, membership)
	if displayName != "" {
		content = fmt.Sprintf(`{"membership":%q,"displayname":%q}`, membership, displayName)
	}
	return &types.StateEvent{
		Type:      types.EventRoomMember,
		StateKey:  userID,
		Sender:    userID,
		Timestamp: ts,
		Content:   []byte(content),
	}
}

func calendarShareEvent(stateKey, sender, calendarID string, isPersonal bool, ts int64) *types.StateEvent {
	return &types.StateEvent{
		Type:      types.EventCalendarShare,
		StateKey:  stateKey,
		Sender:    sender,
		Timestamp: ts,
		Content:   []byte(fmt.Sprintf(`{"id":%q,"is_personal":%t}`, calendarID, isPersonal)),
	}
}

const (
	alice = "@alice:example.org"
	bob   = "@bob:example.org"
	carol = "@carol:example.org"
	room1 = "!room1:example.org"
)

type fixture struct {
	handler   *Handler
	nextcloud *fakeNextcloud
	rooms     *fakeRooms
	store     *fakeStore
	users     fakeUsers
}

var service = &types.Requester{UserID: "@watcha:example.org", AccessToken: "service-token"}

// newFixture serves a room where alice and bob are joined, both with a
// nextcloud account.
func newFixture(events ...*types.StateEvent) *fixture {
	if len(events) == 0 {
		events = []*types.StateEvent{
			memberEvent(alice, "Alice", types.MembershipJoin, 1),
			memberEvent(bob, "Bob", types.MembershipJoin, 2),
		}
	}
	f := &fixture{
		nextcloud: newFakeNextcloud(),
		rooms:     newFakeRooms(events...),
		store:     newFakeStore(),
		users: fakeUsers{
			alice: {Username: "kc-alice"},
			bob:   {Username: "kc-bob"},
		},
	}
	f.handler = NewHandler(Settings{Service: service}, f.store, f.nextcloud, f.rooms, f.users)
	return f
}

func requester(userID string) *types.Requester {
	return &types.Requester{UserID: userID, AccessToken: "token-" + userID}
}
