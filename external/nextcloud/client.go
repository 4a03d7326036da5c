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
	"time"

	"github.com/tidwall/gjson"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/external/remote"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

const serviceName = "nextcloud"

// OCS status codes meaning success, v1 and v2 endpoints respectively.
const (
	statusOKv1 = 100
	statusOKv2 = 200
)

// Codes every OCS endpoint may answer with.
var baseCodes = remote.CodeTable{
	997: remote.InsufficientPrivilege,
	998: remote.NotFound,
}

// Client talks to the OCS admin API of a nextcloud instance with a static
// admin account.
type Client struct {
	http             *common.HttpClient
	sharePermissions int
}

func NewClient(baseURL, username, password string, timeoutSeconds int64, sharePermissions int) *Client {
	httpClient := common.NewHttpClient(baseURL)
	httpClient.SetBasicAuth(username, password)
	httpClient.SetTimeout(timeoutSeconds)
	httpClient.SetHeaders(map[string]string{
		"OCS-APIRequest": "true",
		"Accept":         "application/json",
	})
	return &Client{
		http:             httpClient,
		sharePermissions: sharePermissions,
	}
}

// call issues one OCS request and returns the ocs.data of a successful reply.
// Parameters go to the query string for GET and DELETE, to the form body
// otherwise.
func (c *Client) call(
	ctx context.Context, op string, table remote.CodeTable,
	method, path string, params map[string]string,
) (data gjson.Result, err error) {
	start := time.Now()
	defer func() {
		remote.Observe(serviceName, op, start, err)
		if err != nil {
			log.Warnw("nextcloud call failed", log.KeysAndValues{
				"op", op, "method", method, "path", path, "error", err,
			})
		}
	}()

	req := c.http.R(ctx).SetQueryParam("format", "json")
	if method == http.MethodGet || method == http.MethodDelete {
		req.SetQueryParams(params)
	} else if len(params) > 0 {
		req.SetFormData(params)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return gjson.Result{}, &remote.TransportError{Service: serviceName, Operation: op, Err: err}
	}

	body := resp.Body()
	meta := gjson.GetBytes(body, "ocs.meta")
	if !meta.Exists() {
		return gjson.Result{}, &remote.RemoteError{
			Service:   serviceName,
			Operation: op,
			Code:      resp.StatusCode(),
			Message:   resp.Status(),
			Outcome:   remote.Unknown,
		}
	}

	code := int(meta.Get("statuscode").Int())
	if code == statusOKv1 || code == statusOKv2 {
		return gjson.GetBytes(body, "ocs.data"), nil
	}
	return gjson.Result{}, remote.NewRemoteError(serviceName, op, table, code, meta.Get("message").String())
}

// dataID returns the id of the object a call created. A successful reply
// without one is an Unknown outcome.
func dataID(op string, data gjson.Result) (string, error) {
	id := data.Get("id").String()
	if id == "" {
		return "", &remote.RemoteError{
			Service:   serviceName,
			Operation: op,
			Code:      statusOKv1,
			Message:   "reply carries no id",
			Outcome:   remote.Unknown,
		}
	}
	return id, nil
}
