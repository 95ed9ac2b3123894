// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/onnanoko/pkg/uuid"
)

func TestNew_IsOrderedAndValid(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.Len(t, first, 36)
	assert.Equal(t, "7", first[14:15])
	assert.LessOrEqual(t, first[:13], second[:13])
	assert.False(t, uuid.Valid("not-a-uuid"))
}
