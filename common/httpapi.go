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
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/watcha-fr/synapse-sub000/common/jsonerror"
	"github.com/watcha-fr/synapse-sub000/model/types"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
	hm "github.com/watcha-fr/synapse-sub000/skunkworks/monitor/go-client/httpmonitor"
)

// HookSecretHeader carries the secret shared with the chat server hooks.
const HookSecretHeader = "X-Watcha-Hook-Secret"

// TokenResolver resolves an access token to the user owning it.
type TokenResolver interface {
	WhoAmI(ctx context.Context, accessToken string) (string, error)
}

// MakeAuthAPI turns a util.JSONRequestHandler function into an http.Handler which checks the access token in the request.
func MakeAuthAPI(
	metricsName string, resolver TokenResolver,
	f func(*http.Request, *types.Requester) util.JSONResponse,
) http.Handler {
	h := func(req *http.Request) util.JSONResponse {
		token, err := ExtractAccessToken(req)
		if err != nil {
			log.Infof("missing token req:%s", req.RequestURI)
			return util.JSONResponse{
				Code: http.StatusUnauthorized,
				JSON: jsonerror.MissingToken(err.Error()),
			}
		}

		userID, err := resolver.WhoAmI(req.Context(), token)
		if err != nil || userID == "" {
			log.Infof("unknown token req:%s err:%v", req.RequestURI, err)
			return util.JSONResponse{
				Code: http.StatusUnauthorized,
				JSON: jsonerror.UnknownToken("Unrecognised access token"),
			}
		}

		req = req.WithContext(util.AppendLogFields(req.Context(), "user_id", userID))
		return f(req, &types.Requester{UserID: userID, AccessToken: token})
	}
	return MakeExternalAPI(metricsName, h)
}

// MakeHookAPI turns a util.JSONRequestHandler function into an http.Handler
// reserved to callers presenting the hook secret.
func MakeHookAPI(metricsName string, secret string, f func(*http.Request) util.JSONResponse) http.Handler {
	h := func(req *http.Request) util.JSONResponse {
		presented := req.Header.Get(HookSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			return util.JSONResponse{
				Code: http.StatusForbidden,
				JSON: jsonerror.Forbidden("Invalid hook secret"),
			}
		}
		return f(req)
	}
	return MakeExternalAPI(metricsName, h)
}

// MakeExternalAPI turns a util.JSONRequestHandler function into an http.Handler.
// This is used for APIs that are called from the internet.
// If we are passed a tracing context in the request headers then we use that
// as the parent of any tracing spans we create.
func MakeExternalAPI(metricsName string, f func(*http.Request) util.JSONResponse) http.Handler {
	h := util.MakeJSONAPI(util.NewJSONRequestHandler(f))
	withSpan := func(w http.ResponseWriter, req *http.Request) {
		carrier := opentracing.HTTPHeadersCarrier(req.Header)
		tracer := opentracing.GlobalTracer()
		clientContext, err := tracer.Extract(opentracing.HTTPHeaders, carrier)
		var span opentracing.Span
		if err != nil {
			span = tracer.StartSpan(metricsName)
		} else {
			span = tracer.StartSpan(metricsName, ext.RPCServerOption(clientContext))
		}
		defer span.Finish()
		req = req.WithContext(opentracing.ContextWithSpan(req.Context(), span))
		h.ServeHTTP(w, req)
	}

	return hm.Wrap(metricsName, withSpan)
}

// ExtractAccessToken reads the token from the query string or the
// Authorization header.
func ExtractAccessToken(req *http.Request) (string, error) {
	// cf https://github.com/matrix-org/synapse/blob/v0.19.2/synapse/api/auth.py#L631
	queryToken := req.URL.Query().Get("access_token")
	if queryToken != "" {
		return queryToken, nil
	}

	authBearer := req.Header.Get("Authorization")
	if authBearer != "" {
		parts := strings.SplitN(authBearer, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", fmt.Errorf("invalid Authorization header")
		}
		return parts[1], nil
	}

	return "", fmt.Errorf("missing access token")
}

// WrapHandlerInCORS adds CORS headers to all responses, including all error
// responses.
// Handles OPTIONS requests directly.
func WrapHandlerInCORS(h http.Handler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			// Its easiest just to always return a 200 OK for everything. Whether
			// this is technically correct or not is a question, but in the end this
			// is what a lot of other people do (including synapse) and the clients
			// are perfectly happy with it.
			w.WriteHeader(http.StatusOK)
		} else {
			h.ServeHTTP(w, r)
		}
	})
}
