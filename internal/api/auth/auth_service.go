package auth

import (
	"context"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

var _ Oracle = (*OracleImpl)(nil)

// Oracle answers identity questions for the request in ctx.
type Oracle interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*types.CurrentUser, bool)
	UserIDFromToken(ctx context.Context) (string, bool)
	// StateKey is the key for state held on the caller's behalf.
	StateKey(ctx context.Context) (string, bool)
}

// OracleImpl reads the identity that Identify placed on the context.
type OracleImpl struct{}

func NewOracle() *OracleImpl {
	return &OracleImpl{}
}

func (o *OracleImpl) IsAuthenticated(ctx context.Context) bool {
	_, ok := CurrentUserFromContext(ctx)
	return ok
}

func (o *OracleImpl) CurrentUser(ctx context.Context) (*types.CurrentUser, bool) {
	return CurrentUserFromContext(ctx)
}

func (o *OracleImpl) UserIDFromToken(ctx context.Context) (string, bool) {
	user, ok := CurrentUserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.ID, true
}

func (o *OracleImpl) StateKey(ctx context.Context) (string, bool) {
	user, ok := CurrentUserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.StateKey(), true
}
