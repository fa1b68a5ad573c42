package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner creates and validates share tokens for stored artifacts.
// A token is "{id}.{unix expiry}.{hex hmac}".
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the time source.
func (s *SignedURLSigner) WithClock(now func() time.Time) *SignedURLSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// Generate returns a signed token referencing the artifact id.
func (s *SignedURLSigner) Generate(id string) (string, time.Time, error) {
	if id == "" || strings.Contains(id, ".") {
		return "", time.Time{}, fmt.Errorf("invalid artifact id")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{id, ts, s.sign(id, ts)}, "."), expiresAt, nil
}

// Parse validates a token and returns the artifact id and expiry.
func (s *SignedURLSigner) Parse(token string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("invalid token format")
	}
	id, ts, signature := parts[0], parts[1], parts[2]

	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	if !hmac.Equal([]byte(s.sign(id, ts)), []byte(signature)) {
		return "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	expiresAt := time.Unix(expUnix, 0)
	if !s.now().Before(expiresAt) {
		return "", time.Time{}, fmt.Errorf("token expired")
	}
	return id, expiresAt, nil
}

func (s *SignedURLSigner) sign(id, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(id + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
