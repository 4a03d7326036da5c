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
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
)

const calendarsPath = "/ocs/v2.php/apps/watcha_integrator/api/v1/calendars"

var (
	listCalendarsCodes = baseCodes.With(remote.CodeTable{
		404: remote.NotFound,
	})
	getCalendarCodes = baseCodes.With(remote.CodeTable{
		403: remote.InsufficientPrivilege,
		404: remote.NotFound,
	})
	createCalendarCodes = baseCodes.With(remote.CodeTable{
		400: remote.Unknown,
	})
	shareCalendarCodes = baseCodes.With(remote.CodeTable{
		404: remote.NotFound,
		409: remote.Conflict, // already shared with the group
	})
	calendarCodes = baseCodes.With(remote.CodeTable{
		404: remote.NotFound,
	})
)

func calendarPath(calendarID string) string {
	return calendarsPath + "/" + url.PathEscape(calendarID)
}

// parseCalendar reads a calendar object. Ids may be sent as numbers and
// components as a comma separated string.
func parseCalendar(data gjson.Result) types.Calendar {
	cal := types.Calendar{
		ID:          data.Get("id").String(),
		URI:         data.Get("uri").String(),
		DisplayName: data.Get("displayname").String(),
		IsPersonal:  data.Get("is_personal").Bool(),
		Order:       int(data.Get("order").Int()),
		Color:       data.Get("color").String(),
		Components:  []string{},
	}
	components := data.Get("components")
	if components.IsArray() {
		for _, c := range components.Array() {
			cal.Components = append(cal.Components, c.String())
		}
	} else if components.String() != "" {
		cal.Components = strings.Split(components.String(), ",")
	}
	return cal
}

// ListCalendars returns the calendars owned by or shared with username.
func (c *Client) ListCalendars(ctx context.Context, username string) ([]types.Calendar, error) {
	data, err := c.call(ctx, "list_calendars", listCalendarsCodes, http.MethodGet, calendarsPath, map[string]string{
		"user": username,
	})
	if err != nil {
		return nil, err
	}
	calendars := []types.Calendar{}
	for _, cal := range data.Array() {
		calendars = append(calendars, parseCalendar(cal))
	}
	return calendars, nil
}

func (c *Client) GetCalendar(ctx context.Context, username, calendarID string) (*types.Calendar, error) {
	data, err := c.call(ctx, "get_calendar", getCalendarCodes, http.MethodGet, calendarPath(calendarID), map[string]string{
		"user": username,
	})
	if err != nil {
		return nil, err
	}
	cal := parseCalendar(data)
	return &cal, nil
}

// CreateCalendar creates a calendar owned by the admin account, meant to be
// shared with a room, and returns its id.
func (c *Client) CreateCalendar(ctx context.Context, displayName string, components []string) (string, error) {
	data, err := c.call(ctx, "create_calendar", createCalendarCodes, http.MethodPost, calendarsPath, map[string]string{
		"uri":         uuid.New().String(),
		"displayname": displayName,
		"components":  strings.Join(components, ","),
	})
	if err != nil {
		return "", err
	}
	return dataID("create_calendar", data)
}

// DeleteCalendar removes a calendar created by CreateCalendar.
func (c *Client) DeleteCalendar(ctx context.Context, calendarID string) error {
	_, err := c.call(ctx, "delete_calendar", calendarCodes, http.MethodDelete, calendarPath(calendarID), nil)
	return err
}

func (c *Client) ReorderCalendar(ctx context.Context, username, calendarID string, order int) error {
	_, err := c.call(ctx, "reorder_calendar", calendarCodes, http.MethodPut, calendarPath(calendarID)+"/order", map[string]string{
		"user":  username,
		"order": strconv.Itoa(order),
	})
	return err
}

func (c *Client) ShareCalendar(ctx context.Context, calendarID, groupID, displayName string) error {
	_, err := c.call(ctx, "share_calendar", shareCalendarCodes, http.MethodPost, calendarPath(calendarID)+"/shares", map[string]string{
		"groupid":     groupID,
		"displayname": displayName,
	})
	return err
}

// RenameCalendarShare changes the name group members see for a shared calendar.
func (c *Client) RenameCalendarShare(ctx context.Context, calendarID, groupID, displayName string) error {
	_, err := c.call(ctx, "rename_calendar_share", calendarCodes,
		http.MethodPut, calendarPath(calendarID)+"/shares/"+url.PathEscape(groupID), map[string]string{
			"displayname": displayName,
		})
	return err
}

func (c *Client) UnshareCalendar(ctx context.Context, calendarID, groupID string) error {
	_, err := c.call(ctx, "unshare_calendar", calendarCodes,
		http.MethodDelete, calendarPath(calendarID)+"/shares/"+url.PathEscape(groupID), nil)
	return err
}
