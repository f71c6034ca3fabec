package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/irsalhamdi/e-learning/api/web"
)

const (
	RequestIDHeader = "X-Request-Id"

	requestIDLengthLimit = 128
)

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

var (
	reqSeq    int64
	reqPrefix = newPrefix()
)

func newPrefix() string {
	var buf [5]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "elearn"
	}
	return hex.EncodeToString(buf[:])
}

// RequestID tags the request with the id sent by the client, or a fresh
// process-unique one, and echoes it in the response.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := r.Header.Get(RequestIDHeader)
			switch {
			case id == "":
				id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqSeq, 1))
			case len(id) > requestIDLengthLimit:
				id = id[:requestIDLengthLimit]
			}

			w.Header().Set(RequestIDHeader, id)
			ctx = context.WithValue(ctx, reqIDKey, id)

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func ContextRequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey).(string)
	return id
}
