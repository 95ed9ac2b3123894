// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant conversions for query parameters and
form values.

Do not use this package if distinguishing between malformed data and zero values
is important in your domain logic; use [strconv] directly instead.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntD converts a string to an int, returning def if parsing fails or the string is empty.
func ToIntD(str string, def int) int {
	str = strings.TrimSpace(str)
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}

	return def
}

// ToBool parses a boolean form value. Besides [strconv.ParseBool] spellings it
// accepts "on" and "yes", which HTML checkboxes and CLI flags send.
func ToBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true
	}

	v, _ := strconv.ParseBool(strings.TrimSpace(s))
	return v
}

// ToFloatPtr parses an optional decimal. Empty or malformed input is nil.
func ToFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
