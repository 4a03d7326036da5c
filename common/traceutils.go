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

package common

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// store a span into context.Context, so it can be passed to other place
func ContextWithSpan(ctx context.Context, span opentracing.Span) context.Context {
	return opentracing.ContextWithSpan(ctx, span)
}

// restore a span from context.Context, so it can be the parent of another child or follow span
func SpanFromContext(ctx context.Context) opentracing.Span {
	return opentracing.SpanFromContext(ctx)
}

// create a child span from the span stored in context.Context
func StartSpanFromContext(ctx context.Context, operationName string,
	opts ...opentracing.StartSpanOption) (opentracing.Span, context.Context) {
	if parentSpan := SpanFromContext(ctx); parentSpan != nil {
		opts = append(opts, opentracing.ChildOf(parentSpan.Context()))
	}
	span := opentracing.StartSpan(operationName, opts...)
	return span, ContextWithSpan(ctx, span)
}

// FinishSpan tags span as failed when err is not nil, then finishes it.
func FinishSpan(span opentracing.Span, err error) {
	if err != nil {
		ext.Error.Set(span, true)
		span.SetTag("error.message", err.Error())
	}
	span.Finish()
}

// StartSpanFromHeaders starts a span following the one serialized in carrier,
// used when a message arrives through nats.
func StartSpanFromHeaders(operationName string, carrier opentracing.HTTPHeadersCarrier) opentracing.Span {
	tracer := opentracing.GlobalTracer()
	clientContext, err := tracer.Extract(opentracing.HTTPHeaders, carrier)
	if err != nil {
		return tracer.StartSpan(operationName)
	}
	return tracer.StartSpan(operationName, opentracing.FollowsFrom(clientContext))
}
