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

	"github.com/tidwall/sjson"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

// CalendarShareRequest is the body of a calendar share update. An empty
// request unshares, a display name alone creates a shared calendar and an id
// shares one of the requester's calendars.
type CalendarShareRequest struct {
	ID          string `json:"id,omitempty"`
	IsPersonal  bool   `json:"is_personal,omitempty"`
	DisplayName string `json:"displayname,omitempty"`
}

func (r *CalendarShareRequest) IsUnshare() bool {
	return r.ID == "" && r.DisplayName == ""
}

// activeShares returns the calendar shares of the room, ignoring events whose
// state key names no known components.
func activeShares(state types.RoomState) []types.CalendarShare {
	var shares []types.CalendarShare
	for _, share := range state.CalendarShares() {
		if !ValidComponentsKey(share.StateKey) {
			log.Debugw("ignoring calendar share with unknown key", log.KeysAndValues{
				"state_key", share.StateKey, "sender", share.Sender,
			})
			continue
		}
		shares = append(shares, share)
	}
	return shares
}

func findShare(shares []types.CalendarShare, stateKey string) *types.CalendarShare {
	for i := range shares {
		if shares[i].StateKey == stateKey {
			return &shares[i]
		}
	}
	return nil
}

// UpdateCalendarShare changes what is shared under stateKey in the room and
// records it in the room state as requester.
func (h *Handler) UpdateCalendarShare(
	ctx context.Context, requester *types.Requester, roomID, stateKey string, req *CalendarShareRequest,
) (share *types.CalendarShare, err error) {
	span, ctx := common.StartSpanFromContext(ctx, "UpdateCalendarShare")
	defer func() {
		common.FinishSpan(span, err)
		observe("UpdateCalendarShare", err)
	}()
	span.SetTag("room_id", roomID)
	span.SetTag("state_key", stateKey)

	if !ValidComponentsKey(stateKey) {
		return nil, invalidParam("unknown calendar share key %q", stateKey)
	}
	state, err := h.rooms.CurrentState(ctx, roomID)
	if err != nil {
		return nil, internal(err, "read state of %s", roomID)
	}
	if err := h.checkMember(state, roomID, requester.UserID); err != nil {
		return nil, err
	}
	shares := activeShares(state)
	current := findShare(shares, stateKey)

	if req.IsUnshare() {
		if current != nil {
			if err := h.unshareCalendar(ctx, roomID, current.CalendarID, len(shares) == 1); err != nil {
				return nil, err
			}
		}
		if err := h.rooms.SendStateEvent(ctx, requester, roomID, types.EventCalendarShare, stateKey, []byte("{}")); err != nil {
			return nil, internal(err, "clear calendar share %s of %s", stateKey, roomID)
		}
		return nil, nil
	}

	components := DeserializeComponents(stateKey)
	var otherKeys []string
	for _, s := range shares {
		if s.StateKey != stateKey {
			otherKeys = append(otherKeys, s.StateKey)
		}
	}
	if intersects(components, DeserializeManyComponents(otherKeys)) {
		return nil, calendarConflict("calendar components %s are already shared in %s", stateKey, roomID)
	}

	var calendarID string
	var isPersonal bool
	if req.ID != "" {
		calendar, err := h.ownCalendar(ctx, requester, req.ID)
		if err != nil {
			return nil, err
		}
		if len(calendar.Components) > 0 && componentsKey(calendar.Components) != stateKey {
			return nil, invalidParam("calendar %s holds %v, not %s", req.ID, calendar.Components, stateKey)
		}
		calendarID, isPersonal = calendar.ID, calendar.IsPersonal
	} else {
		calendarID, err = h.nextcloud.CreateCalendar(ctx, req.DisplayName, components)
		if err != nil {
			return nil, internal(err, "create calendar %q", req.DisplayName)
		}
		defer func() {
			if err != nil {
				h.deleteCalendar(ctx, roomID, calendarID)
			}
		}()
	}

	if current != nil && current.CalendarID != calendarID {
		if err := h.unshareCalendar(ctx, roomID, current.CalendarID, false); err != nil {
			return nil, err
		}
	}
	if err := h.shareCalendar(ctx, roomID, state, calendarID); err != nil {
		return nil, err
	}

	content, _ := sjson.SetBytes([]byte("{}"), "id", calendarID)
	content, _ = sjson.SetBytes(content, "is_personal", isPersonal)
	if err := h.rooms.SendStateEvent(ctx, requester, roomID, types.EventCalendarShare, stateKey, content); err != nil {
		return nil, internal(err, "record calendar share %s of %s", stateKey, roomID)
	}
	log.Infow("calendar shared with room", log.KeysAndValues{
		"room_id", roomID, "calendar_id", calendarID, "state_key", stateKey,
	})
	return &types.CalendarShare{
		StateKey:   stateKey,
		CalendarID: calendarID,
		IsPersonal: isPersonal,
		Sender:     requester.UserID,
	}, nil
}

// deleteCalendar drops a calendar created for a share that did not go
// through.
func (h *Handler) deleteCalendar(ctx context.Context, roomID, calendarID string) {
	if err := deleteCalendarPolicy.Apply(h.nextcloud.DeleteCalendar(ctx, calendarID)); err != nil {
		log.Warnw("failed to delete calendar, it is left orphaned", log.KeysAndValues{
			"room_id", roomID, "calendar_id", calendarID, "error", err,
		})
	}
}

// componentsKey is SerializeComponents returning "" instead of panicking, for
// component lists read from nextcloud.
func componentsKey(components []string) (key string) {
	defer func() {
		if recover() != nil {
			key = ""
		}
	}()
	return SerializeComponents(components)
}

// shareCalendar gives the members of the room access to the calendar
// through the calendar group of the room.
func (h *Handler) shareCalendar(ctx context.Context, roomID string, state types.RoomState, calendarID string) error {
	groupID := CalendarGroupID(roomID)
	displayName := GroupDisplayName(state)

	if err := addGroupPolicy.Apply(h.nextcloud.AddGroup(ctx, groupID, displayName)); err != nil {
		return internal(err, "create calendar group %s", groupID)
	}
	if err := h.nextcloud.SetGroupDisplayName(ctx, groupID, displayName); err != nil {
		log.Warnw("failed to set calendar group display name", log.KeysAndValues{
			"room_id", roomID, "group_id", groupID, "error", err,
		})
	}
	if err := h.addMembers(ctx, groupID, state); err != nil {
		return err
	}

	err := shareCalendarPolicy.Apply(h.nextcloud.ShareCalendar(ctx, calendarID, groupID, displayName))
	if remote.Is(err, remote.NotFound) {
		return notFound("calendar %s does not exist", calendarID)
	}
	if err != nil {
		return internal(err, "share calendar %s with %s", calendarID, groupID)
	}
	return nil
}

// unshareCalendar tears the calendar group down too when deleteGroup is set,
// which callers do for the last calendar shared with the room.
func (h *Handler) unshareCalendar(ctx context.Context, roomID, calendarID string, deleteGroup bool) error {
	groupID := CalendarGroupID(roomID)
	if err := unshareCalendarPolicy.Apply(h.nextcloud.UnshareCalendar(ctx, calendarID, groupID)); err != nil {
		return internal(err, "unshare calendar %s from %s", calendarID, groupID)
	}
	if deleteGroup {
		h.deleteGroup(ctx, roomID, groupID)
	}
	return nil
}

// UpdateCalendarAccess grants or revokes userID's access to the calendars
// shared with the room after a membership change.
func (h *Handler) UpdateCalendarAccess(ctx context.Context, userID, roomID, membership string) (err error) {
	span, ctx := common.StartSpanFromContext(ctx, "UpdateCalendarAccess")
	defer func() {
		common.FinishSpan(span, err)
		observe("UpdateCalendarAccess", err)
	}()
	span.SetTag("room_id", roomID)

	username, err := h.externalUsername(ctx, userID)
	if err != nil {
		return internal(err, "resolve external account of %s", userID)
	}
	if username == "" {
		return nil
	}
	return h.updateCalendarAccess(ctx, username, userID, roomID, membership)
}

func (h *Handler) updateCalendarAccess(ctx context.Context, username, userID, roomID, membership string) error {
	state, err := h.rooms.CurrentState(ctx, roomID)
	if err != nil {
		return internal(err, "read state of %s", roomID)
	}
	shares := activeShares(state)
	if len(shares) == 0 {
		return nil
	}
	groupID := CalendarGroupID(roomID)

	switch membership {
	case types.MembershipJoin, types.MembershipInvite:
		if err := addMemberPolicy.Apply(h.nextcloud.AddUserToGroup(ctx, username, groupID)); err != nil {
			return internal(err, "add %s to calendar group %s", username, groupID)
		}
		return nil
	}

	// Personal calendars leave the room with their owner.
	active := len(shares)
	for _, share := range shares {
		if share.Sender != userID || !share.IsPersonal {
			continue
		}
		err := h.rooms.SendStateEvent(ctx, h.cfg.Service, roomID, types.EventCalendarShare, share.StateKey, []byte("{}"))
		if err != nil {
			return internal(err, "clear calendar share %s of %s", share.StateKey, roomID)
		}
		if err := h.unshareCalendar(ctx, roomID, share.CalendarID, active == 1); err != nil {
			return err
		}
		active--
	}
	if active == 0 {
		return nil
	}
	if err := removeMemberPolicy.Apply(h.nextcloud.RemoveUserFromGroup(ctx, username, groupID)); err != nil {
		return internal(err, "remove %s from calendar group %s", username, groupID)
	}
	return nil
}

func (h *Handler) requesterUsername(ctx context.Context, requester *types.Requester) (string, error) {
	username, err := h.externalUsername(ctx, requester.UserID)
	if err != nil {
		return "", internal(err, "resolve external account of %s", requester.UserID)
	}
	if username == "" {
		return "", &AuthError{Msg: "user " + requester.UserID + " has no nextcloud account"}
	}
	return username, nil
}

func (h *Handler) ownCalendar(ctx context.Context, requester *types.Requester, calendarID string) (*types.Calendar, error) {
	username, err := h.requesterUsername(ctx, requester)
	if err != nil {
		return nil, err
	}
	calendar, err := h.nextcloud.GetCalendar(ctx, username, calendarID)
	switch {
	case remote.Is(err, remote.NotFound):
		return nil, notFound("calendar %s does not exist", calendarID)
	case remote.Is(err, remote.InsufficientPrivilege):
		return nil, &AuthError{Msg: "calendar " + calendarID + " is not accessible"}
	case err != nil:
		return nil, internal(err, "get calendar %s", calendarID)
	}
	return calendar, nil
}

func (h *Handler) ListCalendars(ctx context.Context, requester *types.Requester) (calendars []types.Calendar, err error) {
	span, ctx := common.StartSpanFromContext(ctx, "ListCalendars")
	defer func() {
		common.FinishSpan(span, err)
		observe("ListCalendars", err)
	}()

	username, err := h.requesterUsername(ctx, requester)
	if err != nil {
		return nil, err
	}
	calendars, err = h.nextcloud.ListCalendars(ctx, username)
	if remote.Is(err, remote.NotFound) {
		return []types.Calendar{}, nil
	}
	if err != nil {
		return nil, internal(err, "list calendars of %s", requester.UserID)
	}
	return calendars, nil
}

func (h *Handler) GetCalendar(
	ctx context.Context, requester *types.Requester, calendarID string,
) (calendar *types.Calendar, err error) {
	span, ctx := common.StartSpanFromContext(ctx, "GetCalendar")
	defer func() {
		common.FinishSpan(span, err)
		observe("GetCalendar", err)
	}()

	return h.ownCalendar(ctx, requester, calendarID)
}

func (h *Handler) ReorderCalendar(ctx context.Context, requester *types.Requester, calendarID string, order int) (err error) {
	span, ctx := common.StartSpanFromContext(ctx, "ReorderCalendar")
	defer func() {
		common.FinishSpan(span, err)
		observe("ReorderCalendar", err)
	}()

	username, err := h.requesterUsername(ctx, requester)
	if err != nil {
		return err
	}
	err = h.nextcloud.ReorderCalendar(ctx, username, calendarID, order)
	if remote.Is(err, remote.NotFound) {
		return notFound("calendar %s does not exist", calendarID)
	}
	if err != nil {
		return internal(err, "reorder calendar %s", calendarID)
	}
	return nil
}
