package library

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenServiceImpl signs HS256 tokens with a process wide key
type TokenServiceImpl struct {
	signingKey             []byte
	issuer                 string
	tokenExpiration        time.Duration
	confirmationExpiration time.Duration
	now                    func() time.Time
	logger                 Logger
}

// TokenServiceOption customizes the token service
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock injects a clock, used by tests
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		ts.logger = normalizeLogger(logger)
	}
}

// NewTokenService creates a new TokenService from config
func NewTokenService(cfg Config, opts ...TokenServiceOption) *TokenServiceImpl {
	ts := &TokenServiceImpl{
		signingKey:             []byte(cfg.GetSigningKey()),
		issuer:                 cfg.GetIssuer(),
		tokenExpiration:        cfg.GetTokenExpiration(),
		confirmationExpiration: cfg.GetConfirmationExpiration(),
		now:                    time.Now,
		logger:                 defLogger{},
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// IssueAccountToken signs an access token for a regular account
func (ts *TokenServiceImpl) IssueAccountToken(accountID uuid.UUID) (string, error) {
	return ts.Issue(&Claims{
		Kind:      TokenKindAccess,
		AccountID: accountID.String(),
	}, ts.tokenExpiration)
}

// IssueAdminToken signs an access token for an admin account
func (ts *TokenServiceImpl) IssueAdminToken(adminID uuid.UUID) (string, error) {
	return ts.Issue(&Claims{
		Kind:    TokenKindAccess,
		AdminID: adminID.String(),
	}, ts.tokenExpiration)
}

// IssueConfirmationToken signs a token bound to username and email
func (ts *TokenServiceImpl) IssueConfirmationToken(username, email string) (string, error) {
	return ts.Issue(&Claims{
		Kind:            TokenKindConfirmation,
		PendingUsername: username,
		PendingEmail:    email,
	}, ts.confirmationExpiration)
}

// Issue fills the registered claims and signs
func (ts *TokenServiceImpl) Issue(claims *Claims, ttl time.Duration) (string, error) {
	if claims == nil {
		return "", internalError(fmt.Errorf("claims must not be nil"), "failed to sign token")
	}

	now := ts.now()
	claims.Issuer = ts.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", internalError(err, "failed to sign token")
	}
	return signed, nil
}

// Decode verifies signature, algorithm, expiry and issuer. Any failure is
// ErrInvalidAuthToken.
func (ts *TokenServiceImpl) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidAuthToken
	}

	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)
	if err != nil {
		ts.logger.Debug("token decode failed", "error", err)
		return nil, ErrInvalidAuthToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidAuthToken
	}
	return claims, nil
}
