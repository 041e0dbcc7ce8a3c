package utils // package utils provides token signing, password hashing and input checks

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the two token classes.  Both are signed the same way;
// they differ in lifetime and in which operations accept them.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and missing claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for a correctly signed token past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the signed payload.  The subject, jti, expiry and kind are all
// covered by the HS256 signature.
type Claims struct {
	jwt.RegisteredClaims
	Kind Kind `json:"type"`
}

// Token is a decoded (or freshly minted) token.
type Token struct {
	Raw       string
	Subject   string
	JTI       string
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Lifetime returns ExpiresAt - IssuedAt.
func (t Token) Lifetime() time.Duration { return t.ExpiresAt.Sub(t.IssuedAt) }

// TokenCodec mints and parses HS256 JWTs with a process-wide secret.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
	newID  func() string
}

// NewTokenCodec returns a codec signing with secret.  now may be nil.
func NewTokenCodec(secret string, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{secret: []byte(secret), now: now, newID: uuid.NewString}
}

// Mint signs a new token for subject with a fresh jti.  Timestamps are
// truncated to whole seconds, matching the JWT NumericDate precision, so
// ExpiresAt - IssuedAt equals lifetime for whole-second lifetimes.
func (c *TokenCodec) Mint(subject string, kind Kind, lifetime time.Duration) (Token, error) {
	issued := c.now().UTC().Truncate(time.Second)
	exp := issued.Add(lifetime)
	jti := c.newID()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return Token{}, fmt.Errorf("signing %s token: %w", kind, err)
	}
	return Token{
		Raw:       signed,
		Subject:   subject,
		JTI:       jti,
		Kind:      kind,
		IssuedAt:  issued,
		ExpiresAt: exp,
	}, nil
}

// Decode verifies the signature and checks now < exp.  A well-formed token
// whose only fault is its age yields ErrExpiredToken; everything else yields
// ErrInvalidToken.
func (c *TokenCodec) Decode(raw string) (Token, error) {
	return c.decode(raw, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
}

// DecodeIgnoringExpiry verifies the signature and structure but accepts a
// token past its expiry.  The caller decides what an expired token means.
func (c *TokenCodec) DecodeIgnoringExpiry(raw string) (Token, error) {
	return c.decode(raw, jwt.WithoutClaimsValidation())
}

// Expired reports whether t is past its expiry at the codec's current time.
func (c *TokenCodec) Expired(t Token) bool {
	return !c.now().Before(t.ExpiresAt)
}

func (c *TokenCodec) decode(raw string, opts ...jwt.ParserOption) (Token, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Token{}, ErrExpiredToken
		}
		return Token{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return Token{}, fmt.Errorf("%w: missing required claim", ErrInvalidToken)
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return Token{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidToken, claims.Kind)
	}

	t := Token{
		Raw:       raw,
		Subject:   claims.Subject,
		JTI:       claims.ID,
		Kind:      claims.Kind,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		t.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return t, nil
}
