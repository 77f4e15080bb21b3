package library

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind separates access tokens from email confirmation tokens
type TokenKind string

const (
	TokenKindAccess       TokenKind = "access"
	TokenKindConfirmation TokenKind = "confirmation"
)

// Claims is the payload of every token we sign
type Claims struct {
	jwt.RegisteredClaims
	Kind            TokenKind `json:"typ"`
	AccountID       string    `json:"aid,omitempty"`
	AdminID         string    `json:"adm,omitempty"`
	PendingUsername string    `json:"pun,omitempty"`
	PendingEmail    string    `json:"pem,omitempty"`
}

// Caller returns the identity an access token speaks for. It does not
// load admin permissions.
func (c *Claims) Caller() (Caller, error) {
	if c == nil || c.Kind != TokenKindAccess {
		return Anonymous(), ErrInvalidAuthToken
	}

	switch {
	case c.AdminID != "" && c.AccountID == "":
		id, err := uuid.Parse(c.AdminID)
		if err != nil {
			return Anonymous(), ErrInvalidAuthToken
		}
		return Caller{Kind: CallerAdmin, ID: id}, nil
	case c.AccountID != "" && c.AdminID == "":
		id, err := uuid.Parse(c.AccountID)
		if err != nil {
			return Anonymous(), ErrInvalidAuthToken
		}
		return UserCaller(id), nil
	default:
		return Anonymous(), ErrInvalidAuthToken
	}
}
