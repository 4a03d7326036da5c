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

package httputil

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/watcha-fr/synapse-sub000/binding"
	"github.com/watcha-fr/synapse-sub000/common/jsonerror"
	util "github.com/watcha-fr/synapse-sub000/skunkworks/gomatrixutil"
	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UnmarshalJSONRequest into the given interface pointer. Returns an error JSON response if
// there was a problem unmarshalling. Calling this function consumes the request body.
func UnmarshalJSONRequest(req *http.Request, iface interface{}) *util.JSONResponse {
	content, _ := ioutil.ReadAll(req.Body)
	if len(content) == 0 {
		return &util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.NotJSON("The request body is empty"),
		}
	}

	if err := json.Unmarshal(content, iface); err != nil {
		return &util.JSONResponse{
			Code: http.StatusBadRequest,
			JSON: jsonerror.BadJSON("The request body could not be decoded into valid JSON. " + err.Error()),
		}
	}
	return nil
}

// LogThenError logs the given error and returns a generic 500 internal error response.
func LogThenError(req *http.Request, err error) util.JSONResponse {
	fields := util.GetLogFields(req.Context())
	fields = append(fields, log.KeysAndValues{"error", err}...)
	log.Errorw("request failed", fields)
	return jsonerror.InternalServerError()
}

func LogThenErrorCtx(ctx context.Context, err error) (int, *jsonerror.MatrixError) {
	fields := util.GetLogFields(ctx)
	fields = append(fields, log.KeysAndValues{"error", err}...)
	log.Errorw("request failed", fields)
	return http.StatusInternalServerError, jsonerror.Unknown("Internal Server Error")
}

// HandlerErrorResponse turns an error of the binding handler into the
// response shown to the client.
func HandlerErrorResponse(req *http.Request, err error) util.JSONResponse {
	var consistencyErr *binding.ConsistencyError
	var authErr *binding.AuthError
	switch {
	case errors.As(err, &consistencyErr):
		return util.JSONResponse{
			Code: consistencyErr.Code,
			JSON: jsonerror.New(consistencyErr.ErrCode, consistencyErr.Msg),
		}
	case errors.As(err, &authErr):
		return util.JSONResponse{
			Code: http.StatusForbidden,
			JSON: jsonerror.Forbidden(authErr.Msg),
		}
	}
	return LogThenError(req, err)
}
