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

package consumer

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/go-nats"
	"github.com/watcha-fr/synapse-sub000/common"
	"github.com/watcha-fr/synapse-sub000/common/config"
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const queueGroup = "watcha-nextcloud"

// Result is sent back when the publisher asked for a reply.
type Result struct {
	Success bool   `json:"success"`
	ErrMsg  string `json:"errmsg,omitempty"`
}

// HookTarget is implemented by *binding.Handler.
type HookTarget interface {
	OnMembershipChanged(ctx context.Context, userID, roomID, membership string) error
	OnRoomRenamed(ctx context.Context, roomID string) error
}

type publisher interface {
	PubObjWithContext(ctx context.Context, topic string, obj interface{}) error
}

// HookConsumer consumes the membership and room name notifications the chat
// server publishes on nats, as an alternative to the HTTP hooks.
type HookConsumer struct {
	cfg       *config.Watcha
	rpcClient *common.RpcClient
	pub       publisher
	target    HookTarget
}

func NewHookConsumer(cfg *config.Watcha, client *common.RpcClient, target HookTarget) *HookConsumer {
	return &HookConsumer{
		cfg:       cfg,
		rpcClient: client,
		pub:       client,
		target:    target,
	}
}

func (s *HookConsumer) Start() error {
	if err := s.rpcClient.ReplyGrpWithContext(s.cfg.Nats.MembershipSubject, queueGroup, s.onMembership); err != nil {
		return err
	}
	return s.rpcClient.ReplyGrpWithContext(s.cfg.Nats.RoomNameSubject, queueGroup, s.onRoomName)
}

func (s *HookConsumer) onMembership(ctx context.Context, msg *nats.Msg) {
	var ev types.MembershipEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		log.Errorf("HookConsumer: parse failure %v, data:%s", err, string(msg.Data))
		return
	}
	if ev.UserID == "" || ev.RoomID == "" || ev.Membership == "" {
		log.Warnf("HookConsumer: incomplete membership event %s", string(msg.Data))
		return
	}

	ctx = util.ContextWithLogFields(ctx, log.KeysAndValues{
		"user_id", ev.UserID, "room_id", ev.RoomID, "membership", ev.Membership,
	})
	s.done(ctx, msg, s.target.OnMembershipChanged(ctx, ev.UserID, ev.RoomID, ev.Membership))
}

func (s *HookConsumer) onRoomName(ctx context.Context, msg *nats.Msg) {
	var ev types.RoomNameEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		log.Errorf("HookConsumer: parse failure %v, data:%s", err, string(msg.Data))
		return
	}
	if ev.RoomID == "" {
		log.Warnf("HookConsumer: incomplete room name event %s", string(msg.Data))
		return
	}

	ctx = util.ContextWithLogFields(ctx, log.KeysAndValues{"room_id", ev.RoomID})
	s.done(ctx, msg, s.target.OnRoomRenamed(ctx, ev.RoomID))
}

func (s *HookConsumer) done(ctx context.Context, msg *nats.Msg, err error) {
	result := Result{Success: err == nil}
	if err != nil {
		result.ErrMsg = err.Error()
		log.Warnw("hook not fully applied", append(util.GetLogFields(ctx), "subject", msg.Subject, "error", err))
	}
	if msg.Reply == "" {
		return
	}
	if err := s.pub.PubObjWithContext(ctx, msg.Reply, result); err != nil {
		log.Errorf("HookConsumer: reply to %s failed %v", msg.Reply, err)
	}
}
