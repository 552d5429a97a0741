package services

import (
	"context"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/auth"
)

// TokenParser validates a bearer credential.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// UserByID loads an identity.
type UserByID interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Verifier turns a bearer credential into a stored identity.
type Verifier struct {
	tokens TokenParser
	users  UserByID
}

func NewVerifier(tokens TokenParser, users UserByID) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify checks the credential's signature and expiry and loads the identity
// it names. The stored record is authoritative for role and tenant; a token
// whose tenant no longer matches the record is rejected.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "")
	}

	claims, err := v.tokens.Parse(token)
	if err != nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "Not authorized, token failed")
	}

	user, err := v.users.FindByID(ctx, claims.UserID)
	if repositories.IsNotFound(err) {
		return nil, apperr.New(apperr.KindUnauthenticated, "Not authorized, user not found")
	}
	if err != nil {
		return nil, apperr.Wrap("auth.Verify", err)
	}

	if !sameStore(claims.StoreID, user.StoreID) {
		return nil, apperr.New(apperr.KindUnauthenticated, "Not authorized, token failed")
	}
	return user, nil
}

func sameStore(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
