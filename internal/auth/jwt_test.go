package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func TestManager_ExpiryBoundary(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager("test-secret", time.Hour, WithClock(clock.Now))

	token, expiresAt, err := m.Issue(42, "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), expiresAt)

	clock.t = clock.t.Add(59 * time.Minute)
	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "sam@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = m.Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
}

func TestManager_RejectsOtherSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, _, err := issuer.Issue(1, "a@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_RejectsTamperedAndForeignTokens(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, _, err := m.Issue(1, "a@example.com")
	require.NoError(t, err)

	_, err = m.Validate(token + "x")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = m.Validate("not.a.token")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	// alg "none" must never be accepted.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Validate(unsigned)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_RequiresExpiry(t *testing.T) {
	m := NewManager("secret", time.Hour)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.Validate(noExp)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_EmptyTokenIsMissing(t *testing.T) {
	m := NewManager("secret", time.Hour)

	_, err := m.Validate("   ")
	assert.True(t, errors.Is(err, ErrMissingToken))
}

func TestTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case_insensitive_scheme", header: "bearer abc", want: "abc"},
		{name: "empty", header: "", wantErr: ErrMissingToken},
		{name: "scheme_only", header: "Bearer ", wantErr: ErrMissingToken},
		{name: "basic_auth", header: "Basic dXNlcjpwYXNz", wantErr: ErrMissingToken},
		{name: "no_scheme", header: "abc.def.ghi", wantErr: ErrMissingToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TokenFromHeader(tt.header)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
