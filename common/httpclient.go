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
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/opentracing/opentracing-go"
)

//default headers
var defaultHeaders = map[string]string{
	"Content-Type": "application/json",
	"Accept":       "application/json",
}

type HttpClient struct {
	client  *resty.Client
	headers map[string]string
}

//set transport
func createTransport(localAddr net.Addr) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 15 * time.Second,
	}
	if localAddr != nil {
		dialer.LocalAddr = localAddr
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   200,
	}
}

// NewHttpClient returns a client rooted at baseURL; relative urls passed to
// the request methods are resolved against it.
func NewHttpClient(baseURL string) *HttpClient {
	client := resty.NewWithClient(&http.Client{
		//default transport
		Transport: createTransport(nil),
		//default timeout
		Timeout: 15 * time.Second,
	})
	client.SetBaseURL(baseURL)
	return &HttpClient{
		client:  client,
		headers: defaultHeaders,
	}
}

//set headers
func (h *HttpClient) SetHeaders(headers map[string]string) {
	h.headers = headers
	if h.headers == nil {
		h.headers = defaultHeaders
	}
}

//set static basic auth, sent on every request
func (h *HttpClient) SetBasicAuth(username, password string) {
	h.client.SetBasicAuth(username, password)
}

//set timeout
func (h *HttpClient) SetTimeout(timeout int64) {
	h.client.SetTimeout(time.Duration(timeout) * time.Second)
}

// R starts a request bound to ctx. The span found in ctx, if any, is
// propagated through the request headers.
func (h *HttpClient) R(ctx context.Context) *resty.Request {
	req := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers)
	if span := opentracing.SpanFromContext(ctx); span != nil {
		carrier := opentracing.HTTPHeadersCarrier(req.Header)
		opentracing.GlobalTracer().Inject(span.Context(), opentracing.HTTPHeaders, carrier) // nolint: errcheck
	}
	return req
}
