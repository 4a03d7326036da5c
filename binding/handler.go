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
	"net/url"

	"github.com/tidwall/sjson"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	"github.com/watcha-fr/synapse-sub000/storage/model"
	"go.uber.org/multierr"
)

// Outcomes each nextcloud call treats as success.
var (
	addGroupPolicy        = remote.Expect(remote.Conflict)
	deleteGroupPolicy     = remote.Expect(remote.NotFound)
	addMemberPolicy       = remote.Expect(remote.NotFound)
	removeMemberPolicy    = remote.Expect(remote.NotFound)
	deleteSharePolicy     = remote.Expect(remote.NotFound)
	shareCalendarPolicy   = remote.Expect(remote.Conflict)
	unshareCalendarPolicy = remote.Expect(remote.NotFound)
	deleteCalendarPolicy  = remote.Expect(remote.NotFound)
)

type Settings struct {
	// When false, partners are kept out of nextcloud groups.
	ExternalAuthenticationForPartners bool
	// Service sends the state events no user asked for.
	Service *types.Requester
}

// Handler keeps nextcloud groups, folder shares and calendar shares in line
// with the rooms they are bound to. It holds no state between calls: every
// operation re-reads the binding and the room state and re-applies the
// remote changes idempotently.
type Handler struct {
	cfg       Settings
	store     model.NextcloudDatabase
	nextcloud NextcloudAPI
	rooms     RoomAPI
	users     UserDirectory
}

func NewHandler(
	cfg Settings,
	store model.NextcloudDatabase,
	nextcloud NextcloudAPI,
	rooms RoomAPI,
	users UserDirectory,
) *Handler {
	return &Handler{
		cfg:       cfg,
		store:     store,
		nextcloud: nextcloud,
		rooms:     rooms,
		users:     users,
	}
}

// externalUsername returns "" when the user takes no part in nextcloud
// groups, either for lack of an account or by partner policy.
func (h *Handler) externalUsername(ctx context.Context, userID string) (string, error) {
	account, err := h.users.ExternalAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	if account == nil {
		log.Debugw("user has no external account", log.KeysAndValues{"user_id", userID})
		return "", nil
	}
	if account.IsPartner && !h.cfg.ExternalAuthenticationForPartners {
		log.Debugw("partner kept out of nextcloud groups", log.KeysAndValues{"user_id", userID})
		return "", nil
	}
	return account.Username, nil
}

func (h *Handler) checkMember(state types.RoomState, roomID, userID string) error {
	ev := state.Get(types.EventRoomMember, userID)
	if ev == nil || ev.Get("membership").String() != types.MembershipJoin {
		return &AuthError{Msg: "user " + userID + " is not in room " + roomID}
	}
	return nil
}

// addMembers adds every joined or invited member of the room to groupID.
// Members nextcloud does not know are skipped.
func (h *Handler) addMembers(ctx context.Context, groupID string, state types.RoomState) error {
	for _, member := range state.Members(types.MembershipJoin, types.MembershipInvite) {
		username, err := h.externalUsername(ctx, member.UserID)
		if err != nil {
			return internal(err, "resolve external account of %s", member.UserID)
		}
		if username == "" {
			continue
		}
		err = h.nextcloud.AddUserToGroup(ctx, username, groupID)
		if err != nil && addMemberPolicy.Tolerates(err) {
			log.Infow("member skipped, no nextcloud account", log.KeysAndValues{
				"user_id", member.UserID, "group_id", groupID,
			})
			continue
		}
		if err != nil {
			return internal(err, "add %s to group %s", member.UserID, groupID)
		}
	}
	return nil
}

// Bind shares the folder at path with the members of the room, replacing the
// share the room had before.
func (h *Handler) Bind(
	ctx context.Context, requester *types.Requester, roomID, path string,
) (binding *types.RoomBinding, err error) {
	span, ctx := common.StartSpanFromContext(ctx, "Bind")
	defer func() {
		common.FinishSpan(span, err)
		observe("Bind", err)
	}()
	span.SetTag("room_id", roomID)

	state, err := h.rooms.CurrentState(ctx, roomID)
	if err != nil {
		return nil, internal(err, "read state of %s", roomID)
	}
	prior, err := h.store.GetBinding(ctx, roomID)
	if err != nil {
		return nil, internal(err, "read binding of %s", roomID)
	}

	groupID := GroupID(roomID)
	displayName := GroupDisplayName(state)

	if err := addGroupPolicy.Apply(h.nextcloud.AddGroup(ctx, groupID, displayName)); err != nil {
		return nil, internal(err, "create group %s", groupID)
	}
	// AddGroup is a no-op on an existing group, so the name is set again.
	if err := h.nextcloud.SetGroupDisplayName(ctx, groupID, displayName); err != nil {
		log.Warnw("failed to set group display name", log.KeysAndValues{
			"room_id", roomID, "group_id", groupID, "error", err,
		})
	}
	if err := h.addMembers(ctx, groupID, state); err != nil {
		if prior == nil {
			h.deleteGroup(ctx, roomID, groupID)
		}
		return nil, err
	}

	if prior != nil && prior.ShareID != "" {
		h.deleteShare(ctx, roomID, prior.ShareID)
	}

	shareID, err := h.nextcloud.CreateShare(ctx, path, groupID)
	if err != nil {
		if unbindErr := h.Unbind(ctx, roomID); unbindErr != nil {
			log.Errorw("failed to unbind room after share failure", log.KeysAndValues{
				"room_id", roomID, "error", unbindErr,
			})
		}
		if remote.Is(err, remote.NotFound) {
			return nil, notFound("folder %s does not exist", path)
		}
		return nil, internal(err, "share %s with group %s", path, groupID)
	}

	if err := h.nextcloud.RenameShare(ctx, shareID, displayName); err != nil {
		log.Warnw("failed to label share", log.KeysAndValues{
			"room_id", roomID, "share_id", shareID, "error", err,
		})
	}

	if err := h.store.UpsertBinding(ctx, roomID, path, shareID); err != nil {
		return nil, internal(err, "save binding of %s", roomID)
	}
	log.Infow("room bound to folder", log.KeysAndValues{
		"room_id", roomID, "path", path, "share_id", shareID, "requester", requester.UserID,
	})
	return &types.RoomBinding{RoomID: roomID, DirectoryPath: path, ShareID: shareID}, nil
}

// Unbind removes the folder share, the group and the binding of the room.
// Unbinding an unbound room succeeds.
func (h *Handler) Unbind(ctx context.Context, roomID string) (err error) {
	span, ctx := common.StartSpanFromContext(ctx, "Unbind")
	defer func() {
		common.FinishSpan(span, err)
		observe("Unbind", err)
	}()
	span.SetTag("room_id", roomID)

	binding, err := h.store.GetBinding(ctx, roomID)
	if err != nil {
		return internal(err, "read binding of %s", roomID)
	}
	if binding != nil && binding.ShareID != "" {
		h.deleteShare(ctx, roomID, binding.ShareID)
	}
	h.deleteGroup(ctx, roomID, GroupID(roomID))

	if err := h.store.DeleteBinding(ctx, roomID); err != nil {
		return internal(err, "delete binding of %s", roomID)
	}
	log.Infow("room unbound", log.KeysAndValues{"room_id", roomID})
	return nil
}

func (h *Handler) deleteShare(ctx context.Context, roomID, shareID string) {
	if err := deleteSharePolicy.Apply(h.nextcloud.DeleteShare(ctx, shareID)); err != nil {
		log.Warnw("failed to delete share", log.KeysAndValues{
			"room_id", roomID, "share_id", shareID, "error", err,
		})
	}
}

func (h *Handler) deleteGroup(ctx context.Context, roomID, groupID string) {
	if err := deleteGroupPolicy.Apply(h.nextcloud.DeleteGroup(ctx, groupID)); err != nil {
		log.Warnw("failed to delete group", log.KeysAndValues{
			"room_id", roomID, "group_id", groupID, "error", err,
		})
	}
}

// UpdateShare applies a change of the nextcloudShare room setting made by
// requester. An empty shareURL unbinds the room, otherwise the folder named
// by its dir query parameter is bound.
func (h *Handler) UpdateShare(ctx context.Context, requester *types.Requester, roomID, shareURL string) (err error) {
	span, ctx := common.StartSpanFromContext(ctx, "UpdateShare")
	defer func() {
		common.FinishSpan(span, err)
		observe("UpdateShare", err)
	}()
	span.SetTag("room_id", roomID)

	state, err := h.rooms.CurrentState(ctx, roomID)
	if err != nil {
		return internal(err, "read state of %s", roomID)
	}
	if err := h.checkMember(state, roomID, requester.UserID); err != nil {
		return err
	}

	if shareURL == "" {
		if err := h.Unbind(ctx, roomID); err != nil {
			return err
		}
	} else {
		path, err := directoryPath(shareURL)
		if err != nil {
			return err
		}
		if _, err := h.Bind(ctx, requester, roomID, path); err != nil {
			return err
		}
	}

	content, _ := sjson.SetBytes([]byte("{}"), "nextcloudShare", shareURL)
	if err := h.rooms.SendStateEvent(ctx, requester, roomID, types.EventRoomSettings, "", content); err != nil {
		return internal(err, "send room settings of %s", roomID)
	}
	return nil
}

func directoryPath(shareURL string) (string, error) {
	u, err := url.Parse(shareURL)
	if err != nil {
		return "", invalidParam("malformed nextcloud share url %q", shareURL)
	}
	path := u.Query().Get("dir")
	if path == "" {
		return "", invalidParam("nextcloud share url %q has no dir parameter", shareURL)
	}
	return path, nil
}

// OnMembershipChanged updates the nextcloud groups of the room after a
// membership change of userID. Failures are logged and returned together;
// none of them stops the other updates.
func (h *Handler) OnMembershipChanged(ctx context.Context, userID, roomID, membership string) (err error) {
	span, ctx := common.StartSpanFromContext(ctx, "OnMembershipChanged")
	defer func() {
		common.FinishSpan(span, err)
		observe("OnMembershipChanged", err)
	}()
	span.SetTag("room_id", roomID)
	span.SetTag("membership", membership)

	username, err := h.externalUsername(ctx, userID)
	if err != nil {
		return internal(err, "resolve external account of %s", userID)
	}
	if username == "" {
		return nil
	}

	var errs error
	binding, err := h.store.GetBinding(ctx, roomID)
	if err != nil {
		errs = multierr.Append(errs, internal(err, "read binding of %s", roomID))
	} else if binding != nil {
		errs = multierr.Append(errs, h.syncGroupMember(ctx, username, GroupID(roomID), membership))
	}
	errs = multierr.Append(errs, h.updateCalendarAccess(ctx, username, userID, roomID, membership))

	if errs != nil {
		log.Warnw("membership sync incomplete", log.KeysAndValues{
			"room_id", roomID, "user_id", userID, "membership", membership, "error", errs,
		})
	}
	return errs
}

func (h *Handler) syncGroupMember(ctx context.Context, username, groupID, membership string) error {
	switch membership {
	case types.MembershipJoin, types.MembershipInvite:
		if err := addMemberPolicy.Apply(h.nextcloud.AddUserToGroup(ctx, username, groupID)); err != nil {
			return internal(err, "add %s to group %s", username, groupID)
		}
	default:
		if err := removeMemberPolicy.Apply(h.nextcloud.RemoveUserFromGroup(ctx, username, groupID)); err != nil {
			return internal(err, "remove %s from group %s", username, groupID)
		}
	}
	return nil
}

// OnRoomRenamed pushes the new room name to the group, the folder share and
// every calendar shared with the room.
func (h *Handler) OnRoomRenamed(ctx context.Context, roomID string) (err error) {
	span, ctx := common.StartSpanFromContext(ctx, "OnRoomRenamed")
	defer func() {
		common.FinishSpan(span, err)
		observe("OnRoomRenamed", err)
	}()
	span.SetTag("room_id", roomID)

	state, err := h.rooms.CurrentState(ctx, roomID)
	if err != nil {
		return internal(err, "read state of %s", roomID)
	}
	displayName := GroupDisplayName(state)

	var errs error
	binding, err := h.store.GetBinding(ctx, roomID)
	if err != nil {
		errs = multierr.Append(errs, internal(err, "read binding of %s", roomID))
	} else if binding != nil {
		if err := h.nextcloud.SetGroupDisplayName(ctx, GroupID(roomID), displayName); err != nil {
			errs = multierr.Append(errs, internal(err, "rename group of %s", roomID))
		}
		if err := h.nextcloud.RenameShare(ctx, binding.ShareID, displayName); err != nil {
			errs = multierr.Append(errs, internal(err, "rename share %s", binding.ShareID))
		}
	}

	shares := activeShares(state)
	if len(shares) > 0 {
		calendarGroupID := CalendarGroupID(roomID)
		if err := h.nextcloud.SetGroupDisplayName(ctx, calendarGroupID, displayName); err != nil {
			errs = multierr.Append(errs, internal(err, "rename calendar group of %s", roomID))
		}
		for _, share := range shares {
			err := h.nextcloud.RenameCalendarShare(ctx, share.CalendarID, calendarGroupID, displayName)
			if err != nil {
				errs = multierr.Append(errs, internal(err, "rename share of calendar %s", share.CalendarID))
			}
		}
	}

	if errs != nil {
		log.Warnw("room rename not fully propagated", log.KeysAndValues{
			"room_id", roomID, "error", errs,
		})
	}
	return errs
}
