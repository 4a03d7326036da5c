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

package matrix

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/watcha-fr/synapse-sub000/external/remote"
	"github.com/watcha-fr/synapse-sub000/model/types"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

const serviceName = "matrix"

var statusCodes = remote.CodeTable{
	http.StatusUnauthorized: remote.InsufficientPrivilege,
	http.StatusForbidden:    remote.InsufficientPrivilege,
	http.StatusNotFound:     remote.NotFound,
}

// Client talks to the homeserver through the client-server API, as the
// service account unless a requester is given.
type Client struct {
	homeserverURL string
	service       *types.Requester
	http          *http.Client
}

func NewClient(homeserverURL string, service *types.Requester, timeoutSeconds int64) *Client {
	return &Client{
		homeserverURL: homeserverURL,
		service:       service,
		http:          &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
	}
}

func (c *Client) as(requester *types.Requester) (*mautrix.Client, error) {
	if requester == nil {
		requester = c.service
	}
	cli, err := mautrix.NewClient(c.homeserverURL, id.UserID(requester.UserID), requester.AccessToken)
	if err != nil {
		return nil, err
	}
	cli.Client = c.http
	return cli, nil
}

func wrapError(op string, err error) error {
	var resp *http.Response
	var message string

	var httpErr mautrix.HTTPError
	var httpErrPtr *mautrix.HTTPError
	switch {
	case errors.As(err, &httpErrPtr) && httpErrPtr != nil:
		resp, message = httpErrPtr.Response, httpErrPtr.Error()
	case errors.As(err, &httpErr):
		resp, message = httpErr.Response, httpErr.Error()
	}
	if resp == nil {
		return &remote.TransportError{Service: serviceName, Operation: op, Err: err}
	}
	return remote.NewRemoteError(serviceName, op, statusCodes, resp.StatusCode, message)
}

// WhoAmI resolves an access token to its user.
func (c *Client) WhoAmI(ctx context.Context, accessToken string) (userID string, err error) {
	start := time.Now()
	defer func() { remote.Observe(serviceName, "whoami", start, err) }()

	cli, err := c.as(&types.Requester{AccessToken: accessToken})
	if err != nil {
		return "", err
	}
	resp, err := cli.Whoami(ctx)
	if err != nil {
		return "", wrapError("whoami", err)
	}
	return resp.UserID.String(), nil
}

// CurrentState reads the whole current state of the room. The service
// account must be in the room.
func (c *Client) CurrentState(ctx context.Context, roomID string) (state types.RoomState, err error) {
	start := time.Now()
	defer func() { remote.Observe(serviceName, "state", start, err) }()

	cli, err := c.as(nil)
	if err != nil {
		return nil, err
	}
	stateMap, err := cli.State(ctx, id.RoomID(roomID))
	if err != nil {
		return nil, wrapError("state", err)
	}

	state = make(types.RoomState)
	for evType, byKey := range stateMap {
		for stateKey, evt := range byKey {
			state.Set(&types.StateEvent{
				Type:      evType.Type,
				StateKey:  stateKey,
				Sender:    evt.Sender.String(),
				Timestamp: evt.Timestamp,
				Content:   evt.Content.VeryRaw,
			})
		}
	}
	return state, nil
}

// SendStateEvent sends the state event as requester, or as the service
// account when requester is nil.
func (c *Client) SendStateEvent(
	ctx context.Context, requester *types.Requester, roomID, evType, stateKey string, content []byte,
) (err error) {
	start := time.Now()
	defer func() { remote.Observe(serviceName, "send_state", start, err) }()

	cli, err := c.as(requester)
	if err != nil {
		return err
	}
	eventType := event.Type{Type: evType, Class: event.StateEventType}
	resp, err := cli.SendStateEvent(ctx, id.RoomID(roomID), eventType, stateKey, json.RawMessage(content))
	if err != nil {
		return wrapError("send_state", err)
	}
	log.Infow("state event sent", log.KeysAndValues{
		"room_id", roomID, "type", evType, "state_key", stateKey, "event_id", resp.EventID.String(),
	})
	return nil
}
