package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManagerIssueAndParse(t *testing.T) {
	manager := NewManager("secret", time.Hour, "classroom-api")

	signed, expiresAt, err := manager.Issue(42, RoleStudent)
	require.NoError(t, err)
	require.NotEmpty(t, signed)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := manager.Parse(signed)
	require.NoError(t, err)
	require.Equal(t, RoleStudent, claims.Role)

	id, err := claims.SubjectID()
	require.NoError(t, err)
	require.Equal(t, uint(42), id)
}

func TestManagerRejectsForeignAndExpiredTokens(t *testing.T) {
	manager := NewManager("secret", time.Minute, "classroom-api")
	other := NewManager("other-secret", time.Minute, "classroom-api")

	signed, _, err := other.Issue(1, RoleStudent)
	require.NoError(t, err)
	_, err = manager.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)

	signed, _, err = manager.Issue(1, RoleStudent)
	require.NoError(t, err)
	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = manager.Parse(signed)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = manager.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
