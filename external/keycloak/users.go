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

package keycloak

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/watcha-fr/synapse-sub000/external/remote"
)

// PartnerAttribute marks accounts of users from outside the organisation.
const PartnerAttribute = "is_partner"

type User struct {
	ID         string              `json:"id,omitempty"`
	Username   string              `json:"username"`
	Email      string              `json:"email,omitempty"`
	FirstName  string              `json:"firstName,omitempty"`
	LastName   string              `json:"lastName,omitempty"`
	Enabled    bool                `json:"enabled"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

func (u *User) IsPartner() bool {
	values := u.Attributes[PartnerAttribute]
	return len(values) > 0 && values[0] == "true"
}

// AddUser creates an account, a Conflict RemoteError is returned when the
// username or email is taken.
func (c *Client) AddUser(ctx context.Context, user *User) error {
	_, err := c.call(ctx, "add_user", statusCodes, func(req *resty.Request) *resty.Request {
		return req.SetBody(user)
	}, http.MethodPost, "/users")
	return err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.call(ctx, "delete_user", statusCodes, nil, http.MethodDelete, "/users/"+url.PathEscape(id))
	return err
}

// GetUserByUsername returns a NotFound RemoteError when no account matches.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	resp, err := c.call(ctx, "get_user", statusCodes, func(req *resty.Request) *resty.Request {
		return req.SetQueryParams(map[string]string{
			"username": username,
			"exact":    "true",
		})
	}, http.MethodGet, "/users")
	if err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(resp.Body(), &users); err != nil {
		return nil, &remote.TransportError{Service: serviceName, Operation: "get_user", Err: err}
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, &remote.RemoteError{
		Service:   serviceName,
		Operation: "get_user",
		Code:      http.StatusNotFound,
		Message:   "no user named " + username,
		Outcome:   remote.NotFound,
	}
}
