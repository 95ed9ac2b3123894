// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/taibuivan/onnanoko/internal/platform/constants"
)

// OriginPolicy is what [CORS] reads from the configuration. Satisfied by
// *config.Config.
type OriginPolicy interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

// trustedDomain is always allowed, with its subdomains.
const trustedDomain = "onnanoko.app"

/*
CORS answers cross-origin requests.

An origin is allowed when its host is [trustedDomain], one of the configured
domains, or a subdomain of either. Development allows every origin. A
preflight is answered with 204 here and never reaches the router.
*/
func CORS(policy OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			header := writer.Header()
			header.Add("Vary", constants.HeaderOrigin)

			if policy.IsDevelopment() || originAllowed(origin, policy.AllowedOrigins()) {
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-ID")
				header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
			}

			if request.Method == http.MethodOptions && request.Header.Get("Access-Control-Request-Method") != "" {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// originAllowed compares the origin host with each domain on a label
// boundary, so "evilonnanoko.app" does not pass as "onnanoko.app".
func originAllowed(origin string, domains []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	for _, domain := range append([]string{trustedDomain}, domains...) {
		domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "."))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
