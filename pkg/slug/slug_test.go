// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slug_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/onnanoko/pkg/slug"
)

func TestFrom(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Chika Fujiwara", "chika-fujiwara"},
		{"  Kaguya-sama: Love is War  ", "kaguya-sama-love-is-war"},
		{"Rem & Ram", "rem-ram"},
		{"Émilia", "emilia"},
		{"snake_case_name", "snake-case-name"},
		{"Hatsune Miku (初音ミク)", "hatsune-miku"},
		{"---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}

/*
TestFrom_MaxLength caps derived slugs at the column width. A 100 character
name can still expand past it through compatibility decomposition.
*/
func TestFrom_MaxLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"expanding_symbols", strings.Repeat("㎒", 100), strings.Repeat("mhz", 40)},
		{"trailing_hyphen_dropped", strings.Repeat("ab ", 50), strings.TrimSuffix(strings.Repeat("ab-", 40), "-")},
		{"exact_fit", strings.Repeat("x", slug.MaxLength), strings.Repeat("x", slug.MaxLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slug.From(tt.input)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), slug.MaxLength)
		})
	}
}
