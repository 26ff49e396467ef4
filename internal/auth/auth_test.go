package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/careslot/internal/auth"
)

func TestJWTRoundTrip(t *testing.T) {
	a := auth.NewJWTAuthenticator("test-secret")

	for _, role := range []auth.Role{auth.RolePatient, auth.RolePractitioner, auth.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			want := auth.Claims{Role: role, SubjectID: uuid.New()}

			token, err := a.Issue(want, time.Hour)
			require.NoError(t, err)

			got, err := a.Authenticate(token)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestAuthenticateRejects(t *testing.T) {
	a := auth.NewJWTAuthenticator("test-secret")

	t.Run("garbage token", func(t *testing.T) {
		_, err := a.Authenticate("not-a-jwt")
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := auth.NewJWTAuthenticator("different-secret")
		token, err := other.Issue(auth.Claims{Role: auth.RolePatient, SubjectID: uuid.New()}, time.Hour)
		require.NoError(t, err)

		_, err = a.Authenticate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := a.Issue(auth.Claims{Role: auth.RolePatient, SubjectID: uuid.New()}, -time.Minute)
		require.NoError(t, err)

		_, err = a.Authenticate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
	})
}

func TestStaticAdminVerifier(t *testing.T) {
	v := auth.NewStaticAdminVerifier("admin@careslot.dev", "s3cret")

	assert.True(t, v.Verify("admin@careslot.dev", "s3cret"))
	assert.False(t, v.Verify("admin@careslot.dev", "wrong"))
	assert.False(t, v.Verify("other@careslot.dev", "s3cret"))

	t.Run("empty configured credentials never match", func(t *testing.T) {
		empty := auth.NewStaticAdminVerifier("", "")
		assert.False(t, empty.Verify("", ""))
	})
}
