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

package binding

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ConsistencyError rejects a request that would break a local invariant.
// It is shown to the caller as is and never retried.
type ConsistencyError struct {
	Code    int
	ErrCode string
	Msg     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Msg)
}

func invalidParam(format string, args ...interface{}) *ConsistencyError {
	return &ConsistencyError{http.StatusBadRequest, "M_INVALID_PARAM", fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *ConsistencyError {
	return &ConsistencyError{http.StatusNotFound, "M_NOT_FOUND", fmt.Sprintf(format, args...)}
}

func calendarConflict(format string, args ...interface{}) *ConsistencyError {
	return &ConsistencyError{http.StatusBadRequest, "W_CALENDAR_CONFLICT", fmt.Sprintf(format, args...)}
}

// HandlerError is a failure of a collaborator that aborted an operation.
type HandlerError struct {
	Err error
}

func internal(err error, format string, args ...interface{}) *HandlerError {
	return &HandlerError{Err: errors.Wrapf(err, format, args...)}
}

func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func (e *HandlerError) Cause() error {
	return errors.Cause(e.Err)
}

// AuthError denies a requester access to a room or a calendar.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return e.Msg
}
