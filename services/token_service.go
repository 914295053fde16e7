package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mediqr-dev/mediqr/domain"
)

// DefaultAuthTokenTTL is the lifetime of auth tokens issued on signup/login.
const DefaultAuthTokenTTL = 7 * 24 * time.Hour

// SessionClaims is the signed payload of a session token: the subset of the
// session a scanner needs before it re-checks the server-side row.
type SessionClaims struct {
	SessionID  string            `json:"sessionId"`
	AccessType domain.AccessType `json:"accessType"`
	PatientID  string            `json:"patientId,omitempty"`
	jwt.RegisteredClaims
}

// AuthClaims is the signed payload of a long-lived identity token.
type AuthClaims struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
	Name   string      `json:"name,omitempty"`
	Email  string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies the two token kinds with a single shared
// HMAC secret. Tokens are stateless and self-expiring so a scanner needs no
// prior registration; revocation is handled by the session store re-check in
// SessionService, not here.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService creates a new TokenService instance.
func NewTokenService(secret []byte, issuer string) *TokenService {
	return &TokenService{
		secret: secret,
		issuer: issuer,
		now:    time.Now,
	}
}

// IssueSessionToken signs a session token expiring after ttl. Both the
// token's exp and the stored session's expiresAt derive from the same
// duration, so the two expiry clocks cannot disagree beyond clock skew.
func (s *TokenService) IssueSessionToken(session *domain.Session, ttl time.Duration) (string, error) {
	now := s.now()
	claims := SessionClaims{
		SessionID:  session.ID,
		AccessType: session.AccessType,
		PatientID:  session.PatientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.PatientID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        session.ID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken parses and verifies a session token. Any failure
// (signature mismatch, malformed payload, expiry) maps to
// domain.ErrTokenInvalid; callers never learn which check failed.
func (s *TokenService) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session id", domain.ErrTokenInvalid)
	}
	return claims, nil
}

// IssueAuthToken signs a long-lived identity token for a signed-in user.
func (s *TokenService) IssueAuthToken(identity *domain.Identity, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultAuthTokenTTL
	}
	now := s.now()
	claims := AuthClaims{
		UserID: identity.UserID,
		Role:   identity.Role,
		Name:   identity.Name,
		Email:  identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign auth token: %w", err)
	}
	return signed, nil
}

// VerifyAuthToken parses and verifies an auth token.
func (s *TokenService) VerifyAuthToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	if err := s.verify(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: missing identity claims", domain.ErrTokenInvalid)
	}
	return claims, nil
}

func (s *TokenService) verify(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}
