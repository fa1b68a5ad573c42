package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("7b0c6c8e-card")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	id, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "7b0c6c8e-card", id)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	signer := NewSignedURLSigner("secret", time.Minute).WithClock(func() time.Time { return now })
	token, _, err := signer.Generate("card-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, _, err = signer.Parse(token)
	require.EqualError(t, err, "token expired")
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("card-1")
	require.NoError(t, err)

	_, _, err = NewSignedURLSigner("other", time.Hour).Parse(token)
	require.Error(t, err)

	_, _, err = signer.Parse("card-2" + token[len("card-1"):])
	require.Error(t, err)

	_, _, err = signer.Generate("")
	require.Error(t, err)
}
