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

package nextcloud

import (
	"context"
	"net/http"
	"net/url"

	"github.com/watcha-fr/synapse-sub000/external/remote"
)

const (
	groupsPath = "/ocs/v1.php/cloud/groups"
	usersPath  = "/ocs/v1.php/cloud/users"
)

var (
	addGroupCodes = baseCodes.With(remote.CodeTable{
		101: remote.Unknown,  // invalid input data
		102: remote.Conflict, // group already exists
		103: remote.Unknown,  // failed to add the group
	})
	setGroupDisplayNameCodes = baseCodes.With(remote.CodeTable{
		101: remote.Unknown, // not supported by backend
	})
	deleteGroupCodes = baseCodes.With(remote.CodeTable{
		101: remote.NotFound, // group does not exist
		102: remote.Unknown,  // failed to delete group
	})
	groupMemberCodes = baseCodes.With(remote.CodeTable{
		101: remote.Unknown,               // no group specified
		102: remote.Unknown,               // group does not exist
		103: remote.NotFound,              // user does not exist
		104: remote.InsufficientPrivilege, // insufficient privileges
		105: remote.Unknown,               // failed to change membership
	})
)

func (c *Client) AddGroup(ctx context.Context, groupID, displayName string) error {
	_, err := c.call(ctx, "add_group", addGroupCodes, http.MethodPost, groupsPath, map[string]string{
		"groupid":     groupID,
		"displayname": displayName,
	})
	return err
}

func (c *Client) SetGroupDisplayName(ctx context.Context, groupID, displayName string) error {
	_, err := c.call(ctx, "set_group_displayname", setGroupDisplayNameCodes,
		http.MethodPut, groupsPath+"/"+url.PathEscape(groupID), map[string]string{
			"key":   "displayname",
			"value": displayName,
		})
	return err
}

func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	_, err := c.call(ctx, "delete_group", deleteGroupCodes,
		http.MethodDelete, groupsPath+"/"+url.PathEscape(groupID), nil)
	return err
}

func (c *Client) AddUserToGroup(ctx context.Context, username, groupID string) error {
	_, err := c.call(ctx, "add_user_to_group", groupMemberCodes,
		http.MethodPost, usersPath+"/"+url.PathEscape(username)+"/groups", map[string]string{
			"groupid": groupID,
		})
	return err
}

func (c *Client) RemoveUserFromGroup(ctx context.Context, username, groupID string) error {
	_, err := c.call(ctx, "remove_user_from_group", groupMemberCodes,
		http.MethodDelete, usersPath+"/"+url.PathEscape(username)+"/groups", map[string]string{
			"groupid": groupID,
		})
	return err
}
