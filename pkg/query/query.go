// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued URL query and form parameters.
package query

import "strings"

// StringSlice parses a single comma-separated query string
// into a trimmed slice of strings. Empty entries are dropped.
func StringSlice(val string) []string {
	if val == "" {
		return nil
	}
	var res []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
