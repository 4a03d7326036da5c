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
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	"go.uber.org/atomic"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const serviceName = "keycloak"

// Keycloak answers with plain HTTP statuses.
var statusCodes = remote.CodeTable{
	http.StatusUnauthorized: remote.InsufficientPrivilege,
	http.StatusForbidden:    remote.InsufficientPrivilege,
	http.StatusNotFound:     remote.NotFound,
	http.StatusConflict:     remote.Conflict,
}

// Client calls the admin REST API of one realm with a client credentials
// grant. The bearer token is cached until the server rejects it.
type Client struct {
	http         *common.HttpClient
	realm        string
	clientID     string
	clientSecret string
	token        *atomic.String
}

func NewClient(baseURL, realm, clientID, clientSecret string, timeoutSeconds int64) *Client {
	httpClient := common.NewHttpClient(baseURL)
	httpClient.SetTimeout(timeoutSeconds)
	return &Client{
		http:         httpClient,
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		token:        atomic.NewString(""),
	}
}

func (c *Client) adminPath(path string) string {
	return "/admin/realms/" + c.realm + path
}

// Token returns the cached access token, fetching one when none is cached.
func (c *Client) Token(ctx context.Context) (string, error) {
	if token := c.token.Load(); token != "" {
		return token, nil
	}
	return c.refreshToken(ctx)
}

func (c *Client) refreshToken(ctx context.Context) (token string, err error) {
	start := time.Now()
	defer func() { remote.Observe(serviceName, "token", start, err) }()

	resp, err := c.http.R(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.clientID,
			"client_secret": c.clientSecret,
		}).
		Post("/realms/" + c.realm + "/protocol/openid-connect/token")
	if err != nil {
		return "", &remote.TransportError{Service: serviceName, Operation: "token", Err: err}
	}
	if resp.IsError() {
		return "", c.remoteError("token", statusCodes, resp)
	}
	token = gjson.GetBytes(resp.Body(), "access_token").String()
	if token == "" {
		return "", &remote.RemoteError{
			Service:   serviceName,
			Operation: "token",
			Code:      resp.StatusCode(),
			Message:   "no access_token in token response",
			Outcome:   remote.Unknown,
		}
	}
	c.token.Store(token)
	return token, nil
}

// call issues an authenticated admin request. A 401 drops the cached token
// and the request is sent once more with a fresh one.
func (c *Client) call(
	ctx context.Context, op string, table remote.CodeTable,
	build func(req *resty.Request) *resty.Request, method, path string,
) (resp *resty.Response, err error) {
	start := time.Now()
	defer func() {
		remote.Observe(serviceName, op, start, err)
		if err != nil {
			log.Warnw("keycloak call failed", log.KeysAndValues{
				"op", op, "method", method, "path", path, "error", err,
			})
		}
	}()

	var token string
	for attempt := 0; attempt < 2; attempt++ {
		token, err = c.Token(ctx)
		if err != nil {
			return nil, err
		}
		req := c.http.R(ctx).SetAuthToken(token)
		if build != nil {
			req = build(req)
		}
		resp, err = req.Execute(method, c.adminPath(path))
		if err != nil {
			return nil, &remote.TransportError{Service: serviceName, Operation: op, Err: err}
		}
		if resp.StatusCode() != http.StatusUnauthorized {
			break
		}
		c.token.CompareAndSwap(token, "")
	}

	if resp.IsError() {
		return nil, c.remoteError(op, table, resp)
	}
	return resp, nil
}

func (c *Client) remoteError(op string, table remote.CodeTable, resp *resty.Response) *remote.RemoteError {
	body := resp.Body()
	message := gjson.GetBytes(body, "errorMessage").String()
	if message == "" {
		message = gjson.GetBytes(body, "error_description").String()
	}
	if message == "" {
		message = resp.Status()
	}
	return remote.NewRemoteError(serviceName, op, table, resp.StatusCode(), message)
}
