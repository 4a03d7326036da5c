package util

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/watcha-fr/synapse-sub000/skunkworks/log"
	"github.com/watcha-fr/synapse-sub000/skunkworks/util/id"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONResponse represents an HTTP response which contains a JSON body.
type JSONResponse struct {
	// HTTP status code.
	Code int
	// JSON represents the JSON that should be serialized and sent to the client
	JSON interface{}
	// Headers represent any headers that should be sent to the client
	Headers map[string]string
}

// Is2xx returns true if the Code is between 200 and 299.
func (r JSONResponse) Is2xx() bool {
	return r.Code/100 == 2
}

// MessageResponse returns a JSONResponse with a 'message' key containing the given text.
func MessageResponse(code int, msg string) JSONResponse {
	return JSONResponse{
		Code: code,
		JSON: struct {
			Message string `json:"message"`
		}{msg},
	}
}

// JSONRequestHandler represents an interface that must be satisfied in order to respond to incoming
// HTTP requests with JSON.
type JSONRequestHandler interface {
	OnIncomingRequest(req *http.Request) JSONResponse
}

// jsonRequestHandlerWrapper is a wrapper to allow in-line functions to conform to util.JSONRequestHandler
type jsonRequestHandlerWrapper struct {
	function func(req *http.Request) JSONResponse
}

// OnIncomingRequest implements util.JSONRequestHandler
func (r *jsonRequestHandlerWrapper) OnIncomingRequest(req *http.Request) JSONResponse {
	return r.function(req)
}

// NewJSONRequestHandler converts the given OnIncomingRequest function into a JSONRequestHandler
func NewJSONRequestHandler(f func(req *http.Request) JSONResponse) JSONRequestHandler {
	return &jsonRequestHandlerWrapper{f}
}

// Protect panicking HTTP requests from taking down the entire process, and log them using
// the correct logger, returning a 500 with a JSON response rather than abruptly closing the
// connection.
func Protect(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if r := recover(); r != nil {
				fields := GetLogFields(req.Context())
				fields = append(fields, log.KeysAndValues{"panic", r}...)
				log.Errorw(fmt.Sprintf("Request panicked!\n%s", debug.Stack()), fields)
				respond(w, req, MessageResponse(500, "Internal Server Error"))
			}
		}()
		handler(w, req)
	}
}

// RequestWithLogging sets up standard logging for http.Requests.
// The request ID, method and path are attached to the Context as log fields.
func RequestWithLogging(req *http.Request) *http.Request {
	reqID := id.NextSeq()
	ctx := ContextWithLogFields(req.Context(), log.KeysAndValues{
		"req.method", req.Method, "req.path", req.URL.Path, "req.id", reqID,
	})

	ctx = context.WithValue(ctx, ctxValueRequestID, reqID)
	req = req.WithContext(ctx)

	log.Infow("Incoming request", GetLogFields(req.Context()))

	return req
}

// MakeJSONAPI creates an HTTP handler which always responds to incoming requests with JSON responses.
func MakeJSONAPI(handler JSONRequestHandler) http.HandlerFunc {
	return Protect(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		req = RequestWithLogging(req)

		if req.Method == http.MethodOptions {
			SetCORSHeaders(w)
			w.WriteHeader(http.StatusOK)
			return
		}

		res := handler.OnIncomingRequest(req)
		log.Debugf("MakeJSONAPI handle use %v", time.Since(start))

		// Set common headers returned regardless of the outcome of the request
		w.Header().Set("Content-Type", "application/json")
		SetCORSHeaders(w)

		respond(w, req, res)
	})
}

func respond(w http.ResponseWriter, req *http.Request, res JSONResponse) {
	fields := GetLogFields(req.Context())

	for h, val := range res.Headers {
		w.Header().Set(h, val)
	}

	resBytes, err := json.Marshal(res.JSON)
	if err != nil {
		log.Errorw("Failed to marshal JSONResponse", log.KeysAndValues{"error", err})
		// this should never fail to be marshalled so drop err to the floor
		res = MessageResponse(500, "Internal Server Error")
		resBytes, _ = json.Marshal(res.JSON)
	}

	w.WriteHeader(res.Code)
	fields = append(fields, log.KeysAndValues{"code", res.Code}...)
	log.Infow(fmt.Sprintf("Responding (%d bytes)", len(resBytes)), fields)
	w.Write(resBytes) // nolint: errcheck
}

// SetCORSHeaders sets unrestricted origin Access-Control headers on the response writer
func SetCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
}
