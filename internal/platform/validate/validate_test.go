// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "name", "Onnanoko", false},
		{"empty_string", "name", "", true},
		{"whitespace_only", "name", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "VALIDATION_ERROR", ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_email", "test@example.com", true},
		{"invalid_format", "invalid-email", false},
		{"missing_domain", "test@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)

			if tt.isValid {
				assert.False(t, v.HasErrors())
			} else {
				assert.True(t, v.HasErrors())
			}
		})
	}
}

/*
TestValidator_Chain tests the fluent API (chaining multiple rules).
*/
func TestValidator_Chain(t *testing.T) {
	v := &validate.Validator{}

	// Multi-rule validation
	err := v.
		Required("username", "tai").
		MinLen("username", "tai", 3).
		MaxLen("username", "tai", 10).
		Email("email", "tai@onnanoko.app").
		Err()

	assert.NoError(t, err)
	assert.False(t, v.HasErrors())
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("username", "").       // Fails
		MinLen("username", "a", 5).     // Fails
		Email("email", "not-an-email"). // Fails
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)

	// Should accumulate all 3 errors
	assert.Len(t, ae.Details, 3)
}

/*
TestStruct_TagValidation checks that tag failures carry JSON field names.
*/
func TestStruct_TagValidation(t *testing.T) {
	type payload struct {
		Action string   `json:"action" validate:"required,oneof=approve reject"`
		IDs    []string `json:"ids" validate:"required,min=1,dive,uuid"`
	}

	err := validate.Struct(payload{Action: "archive"})
	require.Error(t, err)

	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)

	fields := map[string]string{}
	for _, detail := range ae.Details {
		fields[detail.Field] = detail.Message
	}
	assert.Equal(t, "Must be one of: approve, reject", fields["action"])
	assert.Contains(t, fields, "ids")

	assert.NoError(t, validate.Struct(payload{
		Action: "approve",
		IDs:    []string{"0191d6a0-7c4e-7cc2-8a6b-1c2d3e4f5a6b"},
	}))
}

/*
TestValidator_UUIDsAndNonNegative covers the list and numeric helpers.
*/
func TestValidator_UUIDsAndNonNegative(t *testing.T) {
	negative := -1.5
	positive := 160.0

	v := &validate.Validator{}
	v.UUIDs("tag_ids", []string{"0191d6a0-7c4e-7cc2-8a6b-1c2d3e4f5a6b", "nope"}).
		NonNegative("height_cm", &negative).
		NonNegative("weight_kg", &positive).
		NonNegative("bust_cm", nil)

	ae := apperr.As(v.Err())
	require.NotNil(t, ae)
	require.Len(t, ae.Details, 2)
	assert.Equal(t, "tag_ids", ae.Details[0].Field)
	assert.Equal(t, "height_cm", ae.Details[1].Field)
}
