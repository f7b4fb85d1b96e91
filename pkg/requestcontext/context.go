// Package requestcontext carries request-scoped values through context so
// services and stores can read them without importing net/http.
//
// Middleware sets the values; tests inject them directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	organizerKey key = iota
	clientIPKey
	requestIDKey
	requestTimeKey
)

func stringValue(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// Organizer returns the subject that passed the session gate, or "".
func Organizer(ctx context.Context) string {
	return stringValue(ctx, organizerKey)
}

func WithOrganizer(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, organizerKey, subject)
}

// ClientIP returns the caller address resolved by the ClientMetadata middleware.
func ClientIP(ctx context.Context) string {
	return stringValue(ctx, clientIPKey)
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now returns the time pinned for the request, or time.Now outside HTTP
// (CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
