// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package middleware holds the handlers wrapped around every API route.

The router installs them in this order: [RequestID], [StructuredLogger],
[RateLimit], [PanicRecovery], [Authenticate] and, when configured, [CORS].
Refusals are written through the respond package, so a throttled or crashed
request gets the same JSON envelope as a handler error.
*/
package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/taibuivan/onnanoko/internal/platform/constants"
)

// RealIP returns the client address. X-Real-IP wins over the first
// X-Forwarded-For hop; the socket address is the fallback.
func RealIP(request *http.Request) string {
	if ip := strings.TrimSpace(request.Header.Get(constants.HeaderXRealIP)); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
