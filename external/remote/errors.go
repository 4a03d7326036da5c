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

package remote

import (
	"errors"
	"fmt"
)

// TransportError reports a failure to talk to a remote service at all:
// connection refused, timeout, unreadable body.
type TransportError struct {
	Service   string
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Service, e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError reports that the remote service answered and refused the call.
// Code is the raw status of the service, kept for Unknown outcomes.
type RemoteError struct {
	Service   string
	Operation string
	Code      int
	Message   string
	Outcome   Outcome
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %s (code %d): %s", e.Service, e.Operation, e.Outcome, e.Code, e.Message)
}

// NewRemoteError classifies code through table.
func NewRemoteError(service, operation string, table CodeTable, code int, message string) *RemoteError {
	return &RemoteError{
		Service:   service,
		Operation: operation,
		Code:      code,
		Message:   message,
		Outcome:   table.Classify(code),
	}
}

// OutcomeOf returns Success for nil, the classified outcome of a RemoteError
// and Unknown for anything else, transport failures included.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Success
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Outcome
	}
	return Unknown
}

// IsTransport reports whether err wraps a TransportError.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// Is reports whether err is a RemoteError with outcome o.
func Is(err error, o Outcome) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Outcome == o
}
