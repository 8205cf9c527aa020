package tokens

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/peterphenikaa/zen8labs-auth/internal/config"
)

func seg(b []byte) string { return base64.RawURLEncoding.EncodeToString(b) }

func newSigner(secret string, ttl time.Duration) *Signer {
	return NewSigner(config.JWTConfig{Secret: secret, Issuer: "zen8labs-auth", AccessTokenTTL: ttl})
}

func TestSign_ValidAndClaims(t *testing.T) {
	s := newSigner("test-secret-32-bytes-should-be-long-enough", 2*time.Minute)

	tokenStr, err := s.Sign("user-123")
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	claims, err := s.Decode(tokenStr)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("unexpected sub claim: got=%v want=user-123", claims.Subject)
	}
	if claims.Issuer != "zen8labs-auth" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
	left := claims.ExpiresIn(time.Now())
	if left < 118 || left > 120 {
		t.Fatalf("expected ~120s remaining, got %d", left)
	}
}

func TestDecode_Expired(t *testing.T) {
	now := time.Now()
	s := newSigner("another-secret-32-bytes-longgggg", time.Second).WithClock(func() time.Time { return now })
	tokenStr, err := s.Sign("u2")
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	s.WithClock(func() time.Time { return now.Add(2 * time.Second) })
	_, err = s.Decode(tokenStr)
	if !errors.Is(err, ErrTokenExpired) || !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestDecode_WrongSecretFails(t *testing.T) {
	tokenStr, err := newSigner("secret-one-32-bytes-xxxxxxxxxxxxxxxx", 2*time.Minute).Sign("u3")
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	_, err = newSigner("different-secret-xxxxxxxxxxxxxxxx", 2*time.Minute).Decode(tokenStr)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected decode to fail with wrong secret, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := newSigner("x", time.Minute).Decode("not.a.jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected decode to fail for malformed token")
	}
}

func TestDecode_AlgNoneRejected(t *testing.T) {
	payload := `{"sub":"u-none","iss":"zen8labs-auth","exp":9999999999}`
	headerEnc := seg([]byte(`{"alg":"none"}`))
	payloadEnc := seg([]byte(payload))
	tok := headerEnc + "." + payloadEnc + "."
	if _, err := newSigner("x", time.Minute).Decode(tok); err == nil {
		t.Fatalf("expected decode to reject alg=none token")
	}
}

func TestDecode_OtherHMACRejected(t *testing.T) {
	secret := "hs512-secret-xxxxxxxxxxxxxxxxxxxxxx"
	claims := jwt.RegisteredClaims{
		Subject:   "u-512",
		Issuer:    "zen8labs-auth",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := newSigner(secret, time.Minute).Decode(tok); err == nil {
		t.Fatalf("expected HS512 token to be rejected")
	}
}

func TestDecode_TamperedPayload(t *testing.T) {
	s := newSigner("tamper-test-secret-32-bytes-xxxxxxx", 5*time.Minute)
	tokenStr, err := s.Sign("user-t")
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := base64.RawURLEncoding.DecodeString(parts[1])
	parts[1] = seg([]byte(strings.Replace(string(payloadBytes), "user-t", "attacker", 1)))
	if _, err := s.Decode(strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

func TestSign_EmptySubject(t *testing.T) {
	if _, err := newSigner("x", time.Minute).Sign(""); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}
