package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(now time.Time) Signer {
	s := NewSigner("test-key", "clubhub", 15*time.Minute, 24*time.Hour)
	s.now = func() time.Time { return now }
	return s
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	s := testSigner(now)

	pair, err := s.Issue("user-1", "coordinator")
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), pair.AccessExp)

	claims, err := s.Parse(pair.AccessToken, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "coordinator", claims.Role)
	assert.Equal(t, "clubhub", claims.Issuer)

	claims, err = s.Parse(pair.RefreshToken, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, KindRefresh, claims.Kind)
}

func TestParseRejectsWrongKind(t *testing.T) {
	s := testSigner(time.Now())
	pair, err := s.Issue("user-1", "student")
	require.NoError(t, err)

	_, err = s.Parse(pair.RefreshToken, KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Now()
	s := testSigner(now)
	pair, err := s.Issue("user-1", "student")
	require.NoError(t, err)

	later := testSigner(now.Add(time.Hour))
	_, err = later.Parse(pair.AccessToken, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := testSigner(now)
	other.Key = "another-key"
	_, err = other.Parse(pair.AccessToken, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherIssuer := testSigner(now)
	otherIssuer.Issuer = "someone-else"
	_, err = otherIssuer.Parse(pair.AccessToken, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("not-a-token", KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
