package crypto

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gatekeep/gatekeep-go/internal/apperror"
	"github.com/gatekeep/gatekeep-go/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "gatekeep"
	tokenAudience = "gatekeep-api"
)

// ErrMissingSecret is returned when a TokenCodec is built without a secret.
var ErrMissingSecret = errors.New("token signing secret is not configured")

// claims is the JWT body for a session token.
type claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// TokenCodec issues and verifies HS256 session tokens. It holds the only
// reference to the signing secret and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// TokenOption customizes a TokenCodec.
type TokenOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec creates a TokenCodec signing with secret.
func NewTokenCodec(secret string, opts ...TokenOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	c := &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Issue signs a token for the given identity that expires after ttl.
// Times are truncated to whole seconds, the resolution of JWT dates.
func (c *TokenCodec) Issue(userID int64, email string, ttl time.Duration) (string, error) {
	issuedAt := c.now().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
		UserID: userID,
		Email:  email,
	})

	return token.SignedString(c.secret)
}

// Verify checks the token's structure, signature and expiry, in that order,
// and returns its payload.
func (c *TokenCodec) Verify(tokenString string) (model.TokenPayload, error) {
	if err := checkSegments(tokenString); err != nil {
		return model.TokenPayload{}, err
	}

	var cl claims
	_, err := jwt.ParseWithClaims(tokenString, &cl, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return model.TokenPayload{}, classifyTokenError(err)
	}

	if cl.UserID == 0 || cl.IssuedAt == nil {
		return model.TokenPayload{}, apperror.New(apperror.MalformedToken, "Malformed token")
	}

	return model.TokenPayload{
		UserID:    cl.UserID,
		Email:     cl.Email,
		IssuedAt:  cl.IssuedAt.Time.UTC(),
		ExpiresAt: cl.ExpiresAt.Time.UTC(),
	}, nil
}

// checkSegments rejects tokens whose segments are not canonical base64url.
// Strict decoding matters for the signature: its last character carries
// unused bits, and a lenient decoder maps two different strings to one MAC.
func checkSegments(tokenString string) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return apperror.New(apperror.MalformedToken, "Malformed token")
	}

	enc := base64.RawURLEncoding.Strict()
	for _, part := range parts[:2] {
		if _, err := enc.DecodeString(part); err != nil {
			return apperror.Wrap(apperror.MalformedToken, "Malformed token", err)
		}
	}
	if _, err := enc.DecodeString(parts[2]); err != nil {
		return apperror.Wrap(apperror.InvalidSignature, "Invalid token signature", err)
	}

	return nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperror.Wrap(apperror.MalformedToken, "Malformed token", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperror.Wrap(apperror.InvalidSignature, "Invalid token signature", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperror.Wrap(apperror.ExpiredToken, "Token has expired", err)
	default:
		// foreign issuer/audience or missing registered claims
		return apperror.Wrap(apperror.MalformedToken, "Malformed token", err)
	}
}
