// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/onnanoko/internal/platform/ctxutil"
)

// requestState is shared by the middlewares of one request. Later handlers
// work on request copies, so values they learn travel back through it.
type requestState struct {
	userID string
}

type stateKey struct{}

func stateFrom(ctx context.Context) *requestState {
	state, _ := ctx.Value(stateKey{}).(*requestState)
	return state
}

// responseRecorder keeps the status and size of the response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (recorder *responseRecorder) WriteHeader(code int) {
	if recorder.status == 0 {
		recorder.status = code
	}
	recorder.ResponseWriter.WriteHeader(code)
}

func (recorder *responseRecorder) Write(data []byte) (int, error) {
	if recorder.status == 0 {
		recorder.status = http.StatusOK
	}
	written, err := recorder.ResponseWriter.Write(data)
	recorder.bytes += written
	return written, err
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (recorder *responseRecorder) Unwrap() http.ResponseWriter {
	return recorder.ResponseWriter
}

/*
StructuredLogger puts a request scoped logger in the context and writes one
"http_request_finished" line per request.

The line is logged at error level for 5xx, warn for 4xx and info otherwise.
It carries the user id when [Authenticate] accepted a token further down the
chain.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			started := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			state := &requestState{}
			ctx := context.WithValue(ctxutil.WithLogger(request.Context(), requestLogger), stateKey{}, state)
			recorder := &responseRecorder{ResponseWriter: writer}

			next.ServeHTTP(recorder, request.WithContext(ctx))

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			attrs := []any{
				slog.Int("status", status),
				slog.Int("bytes", recorder.bytes),
				slog.Int64("latency_ms", time.Since(started).Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			}
			if state.userID != "" {
				attrs = append(attrs, slog.String("user_id", state.userID))
			}

			requestLogger.Log(ctx, level, "http_request_finished", attrs...)
		})
	}
}
