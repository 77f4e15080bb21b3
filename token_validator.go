package library

import (
	"context"
)

// TokenCallerResolver decodes access tokens and checks the caller against
// the store on every request.
type TokenCallerResolver struct {
	tokens   TokenService
	accounts Accounts
	admins   Admins
	logger   Logger
}

// NewCallerResolver returns a CallerResolver
func NewCallerResolver(tokens TokenService, accounts Accounts, admins Admins, logger Logger) *TokenCallerResolver {
	return &TokenCallerResolver{
		tokens:   tokens,
		accounts: accounts,
		admins:   admins,
		logger:   normalizeLogger(logger),
	}
}

// Resolve returns the caller behind token. A deleted account or admin
// resolves to ErrInvalidCredentials, a banned account to ErrAccountBanned.
func (r *TokenCallerResolver) Resolve(ctx context.Context, token string) (Caller, error) {
	if token == "" {
		return Anonymous(), ErrMissingToken
	}

	claims, err := r.tokens.Decode(token)
	if err != nil {
		return Anonymous(), ErrInvalidAuthToken
	}

	caller, err := claims.Caller()
	if err != nil {
		return Anonymous(), err
	}

	if !caller.IsAdmin() {
		return r.resolveUser(ctx, caller)
	}

	admin, err := r.admins.GetByID(ctx, caller.ID)
	if err != nil {
		if IsNotFound(err) {
			return Anonymous(), ErrInvalidCredentials
		}
		r.logger.Error("resolve admin caller", "error", err)
		return Anonymous(), err
	}

	return AdminCaller(admin.ID, admin.Permissions), nil
}

func (r *TokenCallerResolver) resolveUser(ctx context.Context, caller Caller) (Caller, error) {
	account, err := r.accounts.GetByID(ctx, caller.ID)
	if err != nil {
		if IsNotFound(err) {
			return Anonymous(), ErrInvalidCredentials
		}
		r.logger.Error("resolve user caller", "error", err)
		return Anonymous(), err
	}

	if account.Banned {
		return Anonymous(), ErrAccountBanned
	}

	return UserCaller(account.ID), nil
}
