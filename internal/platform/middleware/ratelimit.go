// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
	"github.com/taibuivan/onnanoko/internal/platform/respond"
)

// visitors holds one token bucket per client address.
type visitors struct {
	mu      sync.Mutex
	buckets map[string]*visitor
	limit   rate.Limit
	burst   int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// allow takes a token for ip. When the bucket is empty it returns the wait
// until the next token.
func (v *visitors) allow(ip string, now time.Time) (bool, time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, found := v.buckets[ip]
	if !found {
		entry = &visitor{limiter: rate.NewLimiter(v.limit, v.burst)}
		v.buckets[ip] = entry
	}
	entry.lastSeen = now

	if entry.limiter.AllowN(now, 1) {
		return true, 0
	}

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, time.Second
	}
	wait := reservation.DelayFrom(now)
	reservation.CancelAt(now)
	return false, wait
}

// sweep forgets clients idle for longer than ttl.
func (v *visitors) sweep(now time.Time, ttl time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for ip, entry := range v.buckets {
		if now.Sub(entry.lastSeen) > ttl {
			delete(v.buckets, ip)
		}
	}
}

// RateLimit throttles each client address with the default budget.
func RateLimit(ctx context.Context) func(http.Handler) http.Handler {
	return Throttle(ctx, rate.Limit(constants.DefaultRateLimitRPS), constants.DefaultRateLimitBurst)
}

/*
Throttle allows limit requests per second per client address, with bursts up
to burst. A refused request gets 429 RATE_LIMITED and a Retry-After header.

Idle clients are forgotten by a sweeper that stops when ctx is done.
*/
func Throttle(ctx context.Context, limit rate.Limit, burst int) func(http.Handler) http.Handler {
	clients := &visitors{buckets: make(map[string]*visitor), limit: limit, burst: burst}

	go func() {
		ticker := time.NewTicker(constants.RateLimitCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				clients.sweep(now, constants.RateLimitClientTTL)
			case <-ctx.Done():
				return
			}
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			allowed, wait := clients.allow(RealIP(request), time.Now())
			if !allowed {
				seconds := max(1, int(math.Ceil(wait.Seconds())))
				writer.Header().Set("Retry-After", strconv.Itoa(seconds))
				respond.Error(writer, request, apperr.RateLimited(seconds))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
