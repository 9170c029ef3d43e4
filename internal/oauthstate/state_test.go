package oauthstate

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitsync/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSignVerifyRoundTrip(t *testing.T) {
	signer := NewSigner(testSecret)

	raw, err := signer.Sign(Claims{UserID: 42, AttemptID: "attempt-1", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)

	claims, err := signer.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, "attempt-1", claims.AttemptID)
}

func TestVerifyRejects(t *testing.T) {
	signer := NewSigner(testSecret)
	valid, err := signer.Sign(Claims{UserID: 42, AttemptID: "attempt-1", ExpiresAt: time.Now().Add(time.Minute)})
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := signer.Verify("not-a-token")
		require.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("unsigned base64 json", func(t *testing.T) {
		legacy := base64.URLEncoding.EncodeToString([]byte(`{"id":42}`))
		_, err := signer.Verify(legacy)
		require.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewSigner("ffffffffffffffffffffffffffffffff")
		_, err := other.Verify(valid)
		require.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(valid, ".")
		require.Len(t, parts, 3)
		forged := base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"oauth_state","sub":"7","jti":"attempt-1","exp":9999999999}`))
		_, err := signer.Verify(parts[0] + "." + forged + "." + parts[2])
		require.ErrorIs(t, err, model.ErrInvalidState)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := signer.Sign(Claims{UserID: 42, AttemptID: "attempt-2", ExpiresAt: time.Now().Add(time.Minute)})
		require.NoError(t, err)

		signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		t.Cleanup(func() { signer.now = time.Now })

		_, err = signer.Verify(raw)
		require.ErrorIs(t, err, model.ErrInvalidState)
	})
}

func TestSignRequiresIdentity(t *testing.T) {
	signer := NewSigner(testSecret)

	_, err := signer.Sign(Claims{UserID: 0, AttemptID: "a", ExpiresAt: time.Now().Add(time.Minute)})
	require.Error(t, err)

	_, err = signer.Sign(Claims{UserID: 1, ExpiresAt: time.Now().Add(time.Minute)})
	require.Error(t, err)
}
