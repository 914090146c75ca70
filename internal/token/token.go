// Package token issues and verifies the signed bearer tokens used by the API.
//
// Two token types exist. Access tokens are short lived and trusted until they
// expire. Refresh tokens carry a unique jti and can be revoked individually;
// a revoked jti stays revoked in the configured RevocationStore.
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type is the value of the "type" claim.
type Type string

const (
	Access  Type = "access"
	Refresh Type = "refresh"
)

var (
	// ErrTokenInvalid covers malformed tokens, bad signatures, unexpected
	// algorithms and expired tokens.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrWrongTokenType is returned when a valid token has another type.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrTokenRevoked is returned for refresh tokens whose jti was revoked.
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims is the claim set carried by every token.
type Claims struct {
	Type Type `json:"type"`
	jwt.RegisteredClaims
}

// RevocationStore persists revoked refresh-token ids. Revoke must be
// idempotent.
type RevocationStore interface {
	Revoke(ctx context.Context, jti, subject string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Recorder receives issuance and revocation counts. *metrics.Metrics
// satisfies it.
type Recorder interface {
	TokenIssued(tokenType string)
	TokenRevoked()
}

// Options configures a Service.
type Options struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
	// Recorder is optional.
	Recorder Recorder
}

// Service signs and verifies tokens with a single HMAC key.
type Service struct {
	key        []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	store      RevocationStore
	rec        Recorder
	parser     *jwt.Parser
}

// New validates opts and builds a Service. Only HMAC algorithms are
// accepted, and parsing rejects any token whose header names a different
// algorithm than the configured one.
func New(opts Options, store RevocationStore) (*Service, error) {
	if opts.Secret == "" {
		return nil, errors.New("token: secret is required")
	}
	if store == nil {
		return nil, errors.New("token: revocation store is required")
	}
	alg := strings.ToUpper(strings.TrimSpace(opts.Algorithm))
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token: unsupported algorithm %q", opts.Algorithm)
	}
	if opts.AccessTTL <= 0 || opts.RefreshTTL <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Service{
		key:        []byte(opts.Secret),
		method:     method,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        now,
		store:      store,
		rec:        opts.Recorder,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// AccessTTL is the lifetime of access tokens.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// IssueAccess signs an access token for subject.
func (s *Service) IssueAccess(subject string) (string, error) {
	return s.issue(subject, Access, "", s.accessTTL)
}

// IssueRefresh signs a refresh token for subject with a fresh jti.
func (s *Service) IssueRefresh(subject string) (string, error) {
	return s.issue(subject, Refresh, uuid.NewString(), s.refreshTTL)
}

func (s *Service) issue(subject string, typ Type, jti string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token: empty subject")
	}
	now := s.now().UTC()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	if s.rec != nil {
		s.rec.TokenIssued(string(typ))
	}
	return signed, nil
}

// Decode verifies signature and expiry, then the token type. Refresh tokens
// are also checked against the revocation set.
func (s *Service) Decode(ctx context.Context, raw string, expect Type) (*Claims, error) {
	claims, err := s.verify(raw, expect)
	if err != nil {
		return nil, err
	}
	if expect == Refresh {
		revoked, err := s.store.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("token: revocation lookup: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// verify performs every stateless check. It never skips signature
// verification.
func (s *Service) verify(raw string, expect Type) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenInvalid
	}
	claims := &Claims{}
	tok, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Type != expect {
		return nil, ErrWrongTokenType
	}
	if expect == Refresh && claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
// The refresh token itself stays usable.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, *Claims, error) {
	claims, err := s.Decode(ctx, refreshToken, Refresh)
	if err != nil {
		return "", nil, err
	}
	access, err := s.IssueAccess(claims.Subject)
	if err != nil {
		return "", nil, err
	}
	return access, claims, nil
}

// Revoke adds the jti of refreshToken to the revocation set. Revoking an
// already revoked token succeeds.
func (s *Service) Revoke(ctx context.Context, refreshToken string) (*Claims, error) {
	claims, err := s.verify(refreshToken, Refresh)
	if err != nil {
		return nil, err
	}
	if err := s.store.Revoke(ctx, claims.ID, claims.Subject, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("token: revoke: %w", err)
	}
	if s.rec != nil {
		s.rec.TokenRevoked()
	}
	return claims, nil
}
