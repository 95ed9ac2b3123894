// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/onnanoko/internal/platform/sec"
)

/*
TestTokenService_RoundTrip signs and verifies an access token.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	service := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "onnanoko.test")

	token, err := service.GenerateAccessToken("user-1", "haruka", string(sec.RoleStaff), time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "haruka", claims.Username)
	assert.Equal(t, "staff", claims.Role)

	// Expired tokens are rejected
	expired, err := service.GenerateAccessToken("user-1", "haruka", "member", -time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(expired)
	assert.Error(t, err)

	// Tokens from another issuer are rejected
	other := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "someone.else")
	foreign, err := other.GenerateAccessToken("user-1", "haruka", "member", time.Minute)
	require.NoError(t, err)
	_, err = service.VerifyToken(foreign)
	assert.Error(t, err)
}

/*
TestUserRole_Hierarchy checks staff and superuser derivation from roles.
*/
func TestUserRole_Hierarchy(t *testing.T) {
	assert.True(t, sec.RoleAdmin.IsStaff())
	assert.True(t, sec.RoleAdmin.IsSuperuser())
	assert.True(t, sec.RoleStaff.IsStaff())
	assert.False(t, sec.RoleStaff.IsSuperuser())
	assert.False(t, sec.RoleMember.IsStaff())
	assert.False(t, sec.UserRole("").IsStaff())
	assert.False(t, sec.UserRole("root").Valid())
}

/*
TestPasswordAndTokenHashing covers bcrypt and the opaque-token helpers.
*/
func TestPasswordAndTokenHashing(t *testing.T) {
	hash, err := sec.HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, sec.CheckPasswordHash("correct horse", hash))
	assert.False(t, sec.CheckPasswordHash("battery staple", hash))

	token, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 43)
	assert.Equal(t, sec.HashToken(token), sec.HashToken(token))
	assert.Len(t, sec.HashToken(token), 64)
}
