package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "qrpresence-test"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("s1", RoleStudent, "Jane Doe", "11 WISDOM", "+1555", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.Subject)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.Equal(t, "Jane Doe", claims.Name)
	assert.Equal(t, "11 WISDOM", claims.Section)
	assert.Equal(t, "+1555", claims.ParentNumber)
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, _, err := Issue("s1", RoleAdmin, "", "", "", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "other-key", testIssuer)
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := Issue("s1", RoleAdmin, "", "", "", "someone-else", testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, testKey, testIssuer)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, _, err := Issue("s1", RoleAdmin, "", "", "", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, testKey, testIssuer)
	assert.Error(t, err)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	token, _, err := Issue("s1", "superuser", "", "", "", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, testKey, testIssuer)
	assert.Error(t, err)
}
