// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package common

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/nats-io/go-nats"
	"github.com/opentracing/opentracing-go"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

const MagicNum = 0xF0F0F0F0
const MagicNumBytes = 4     // size of uint32
const HeaderLengthBytes = 4 // size of uint32
// MaxSpanBytesLength is at least 136 for jaeger, if a span carrier length exceed this value, it will be discarded
const MaxSpanBytesLength = 1024

type MsgHandlerWithContext func(ctx context.Context, msg *nats.Msg)

type RpcClient struct {
	url  string
	conn *nats.Conn
	subs sync.Map
}

func NewRpcClient(url string) *RpcClient {
	return &RpcClient{url: url}
}

func (nc *RpcClient) Start() error {
	conn, err := nats.Connect(nc.url,
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(nc.reconnectCb),
		nats.DisconnectHandler(func(conn *nats.Conn) {
			log.Warnf("RpcClient: disconnected from %s", nc.url)
		}),
	)
	if err != nil {
		return err
	}
	nc.conn = conn
	return nil
}

func (nc *RpcClient) reconnectCb(conn *nats.Conn) {
	log.Warnf("RpcClient: reconnected to %s", conn.ConnectedUrl())
}

// Close drains the subscriptions then closes the connection.
func (nc *RpcClient) Close() {
	if nc.conn == nil {
		return
	}
	nc.subs.Range(func(key, value interface{}) bool {
		value.(*nats.Subscription).Unsubscribe() // nolint: errcheck
		nc.subs.Delete(key)
		return true
	})
	nc.conn.Close()
}

// PubObjWithContext publishes obj as JSON, framed with the span of ctx.
func (nc *RpcClient) PubObjWithContext(ctx context.Context, topic string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	span, _ := StartSpanFromContext(ctx, fmt.Sprintf("PubWithContext[%s]", topic))
	defer span.Finish()
	return nc.conn.Publish(topic, FrameNatsData(span, data))
}

// ReplyGrpWithContext subscribes handler to topic inside queue group grp, so
// that replicas of the process share the messages.
func (nc *RpcClient) ReplyGrpWithContext(topic, grp string, handler MsgHandlerWithContext) error {
	if _, ok := nc.subs.Load(topic); ok {
		return fmt.Errorf("RpcClient: %s already subscribed", topic)
	}
	sub, err := nc.conn.QueueSubscribe(topic, grp, NatsWrapHandlerWithContext(fmt.Sprintf("t[%s]:g[%s]", topic, grp), handler))
	if err != nil {
		return err
	}
	nc.subs.Store(topic, sub)
	return nil
}

func Uint32ToBytes(i uint32) []byte {
	var buf = make([]byte, 4)
	binary.BigEndian.PutUint32(buf, i)
	return buf
}

func BytesToUint32(i []byte) uint32 {
	return binary.BigEndian.Uint32(i)
}

// FrameNatsData prefixes data with the serialized span, the layout read back
// by ParseNatsData. Data is sent bare when the span does not fit.
func FrameNatsData(span opentracing.Span, data []byte) []byte {
	carrier := opentracing.HTTPHeadersCarrier(make(map[string][]string))
	if err := opentracing.GlobalTracer().Inject(span.Context(), opentracing.HTTPHeaders, carrier); err != nil {
		return data
	}
	header, err := json.Marshal(carrier)
	if err != nil || len(header) == 0 || len(header) > MaxSpanBytesLength {
		return data
	}

	var buffer bytes.Buffer
	buffer.Write(Uint32ToBytes(MagicNum))
	buffer.Write(Uint32ToBytes(uint32(len(header))))
	buffer.Write(header)
	buffer.Write(data)
	return buffer.Bytes()
}

func ParseNatsData(data []byte) ([]byte, opentracing.HTTPHeadersCarrier) {
	if len(data) < MagicNumBytes+HeaderLengthBytes {
		return data, nil
	}
	if BytesToUint32(data[:MagicNumBytes]) != MagicNum {
		return data, nil
	}
	headerLen := BytesToUint32(data[MagicNumBytes : MagicNumBytes+HeaderLengthBytes])
	if headerLen == 0 || headerLen > MaxSpanBytesLength {
		return data, nil
	}
	start := uint32(MagicNumBytes + HeaderLengthBytes)
	if uint32(len(data)) < start+headerLen {
		return data, nil
	}

	var header opentracing.HTTPHeadersCarrier
	if err := json.Unmarshal(data[start:start+headerLen], &header); err != nil {
		return data, nil
	}

	return data[start+headerLen:], header
}

func NatsWrapHandlerWithContext(metricName string, handler MsgHandlerWithContext) nats.MsgHandler {
	return func(msg *nats.Msg) {
		data, header := ParseNatsData(msg.Data)
		var span opentracing.Span
		if header == nil {
			span = opentracing.StartSpan(metricName)
		} else {
			msg.Data = data
			span = StartSpanFromHeaders(metricName, header)
		}
		defer span.Finish()

		ctx := ContextWithSpan(context.Background(), span)
		handler(ctx, msg)
	}
}
