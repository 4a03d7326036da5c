package util

import (
	"context"

	log "github.com/watcha-fr/synapse-sub000/skunkworks/log"
)

type contextKeys string

const (
	ctxValueRequestID = contextKeys("requestid")
	ctxValueLogFields = contextKeys("logFields")
)

// GetRequestID returns the request ID associated with this context, or the empty string.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxValueRequestID).(string)
	return id
}

// GetLogFields returns a copy of the log fields attached to ctx, so callers may append to it.
func GetLogFields(ctx context.Context) log.KeysAndValues {
	fields, ok := ctx.Value(ctxValueLogFields).(log.KeysAndValues)
	if !ok {
		return log.KeysAndValues{"context", "missing"}
	}
	out := make(log.KeysAndValues, len(fields), len(fields)+4)
	copy(out, fields)
	return out
}

func ContextWithLogFields(ctx context.Context, fields log.KeysAndValues) context.Context {
	return context.WithValue(ctx, ctxValueLogFields, fields)
}

// AppendLogFields returns a context whose log fields are the existing ones plus kv.
func AppendLogFields(ctx context.Context, kv ...interface{}) context.Context {
	fields, _ := ctx.Value(ctxValueLogFields).(log.KeysAndValues)
	merged := make(log.KeysAndValues, 0, len(fields)+len(kv))
	merged = append(merged, fields...)
	merged = append(merged, kv...)
	return ContextWithLogFields(ctx, merged)
}
