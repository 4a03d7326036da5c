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

package routing

import (
	"context"
	"net/http"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/watcha-fr/synapse-sub000/clientapi/httputil"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/common/jsonerror"
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

// hookProcessor answers the chat server hooks at once and applies them in
// the background, so nextcloud never slows the chat down.
type hookProcessor struct {
	watcha Watcha
	wg     sync.WaitGroup
}

// OnMembership implements POST /_watcha/hooks/membership
func (p *hookProcessor) OnMembership(req *http.Request) util.JSONResponse {
	var ev types.MembershipEvent
	if resErr := httputil.UnmarshalJSONRequest(req, &ev); resErr != nil {
		return *resErr
	}
	if ev.UserID == "" || ev.RoomID == "" || ev.Membership == "" {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.MissingParam("user_id, room_id and membership are required"),
		}
	}

	p.dispatch(req, "hook_membership", func(ctx context.Context) error {
		return p.watcha.OnMembershipChanged(ctx, ev.UserID, ev.RoomID, ev.Membership)
	})
	return util.JSONResponse{Code: http.StatusOK, JSON: struct{}{}}
}

// OnRoomName implements POST /_watcha/hooks/room_name
func (p *hookProcessor) OnRoomName(req *http.Request) util.JSONResponse {
	var ev types.RoomNameEvent
	if resErr := httputil.UnmarshalJSONRequest(req, &ev); resErr != nil {
		return *resErr
	}
	if ev.RoomID == "" {
		return util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.MissingParam("room_id is required"),
		}
	}

	p.dispatch(req, "hook_room_name", func(ctx context.Context) error {
		return p.watcha.OnRoomRenamed(ctx, ev.RoomID)
	})
	return util.JSONResponse{Code: http.StatusOK, JSON: struct{}{}}
}

func (p *hookProcessor) dispatch(req *http.Request, name string, f func(ctx context.Context) error) {
	var opts []opentracing.StartSpanOption
	if parent := common.SpanFromContext(req.Context()); parent != nil {
		opts = append(opts, opentracing.FollowsFrom(parent.Context()))
	}
	span := opentracing.StartSpan(name, opts...)
	fields := append(util.GetLogFields(req.Context()), "hook", name)
	ctx := common.ContextWithSpan(util.ContextWithLogFields(context.Background(), fields), span)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		var err error
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("hook panicked", append(util.GetLogFields(ctx), "panic", r))
			}
			common.FinishSpan(span, err)
		}()

		err = f(ctx)
		if err != nil {
			log.Warnw("hook not fully applied", append(util.GetLogFields(ctx), "error", err))
		}
	}()
}
