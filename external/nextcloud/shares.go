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
	"strconv"

	"github.com/watcha-fr/synapse-sub000/external/remote"
)

const sharesPath = "/ocs/v1.php/apps/files_sharing/api/v1/shares"

// share type of a share with a group
const shareTypeGroup = "1"

var (
	createShareCodes = baseCodes.With(remote.CodeTable{
		400: remote.Unknown,
		403: remote.InsufficientPrivilege,
		404: remote.NotFound, // file or folder does not exist
	})
	updateShareCodes = baseCodes.With(remote.CodeTable{
		400: remote.Unknown,
		404: remote.NotFound,
	})
	deleteShareCodes = baseCodes.With(remote.CodeTable{
		404: remote.NotFound,
	})
)

// CreateShare shares path with a group and returns the share id.
func (c *Client) CreateShare(ctx context.Context, path, groupID string) (string, error) {
	data, err := c.call(ctx, "create_share", createShareCodes, http.MethodPost, sharesPath, map[string]string{
		"path":        path,
		"shareType":   shareTypeGroup,
		"shareWith":   groupID,
		"permissions": strconv.Itoa(c.sharePermissions),
	})
	if err != nil {
		return "", err
	}
	return dataID("create_share", data)
}

func (c *Client) DeleteShare(ctx context.Context, shareID string) error {
	_, err := c.call(ctx, "delete_share", deleteShareCodes,
		http.MethodDelete, sharesPath+"/"+url.PathEscape(shareID), nil)
	return err
}

// RenameShare sets the label members see on the shared folder.
func (c *Client) RenameShare(ctx context.Context, shareID, label string) error {
	_, err := c.call(ctx, "rename_share", updateShareCodes,
		http.MethodPut, sharesPath+"/"+url.PathEscape(shareID), map[string]string{
			"label": label,
		})
	return err
}
