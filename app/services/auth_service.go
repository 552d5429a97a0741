package services

import (
	"context"
	"strings"

	"github.com/dimitrisnimas/Online-Delivery-App/app/models"
	"github.com/dimitrisnimas/Online-Delivery-App/app/repositories"
	"github.com/dimitrisnimas/Online-Delivery-App/app/scope"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/apperr"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/auth"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/database"
	"github.com/dimitrisnimas/Online-Delivery-App/pkg/validate"
)

// UserStore persists identities.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindInStore(ctx context.Context, storeID, email string) (*models.User, error)
	FindSuperAdmin(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	ListStaff(ctx context.Context, storeID string) ([]models.User, error)
}

// TokenIssuer signs credentials.
type TokenIssuer interface {
	Issue(s auth.Subject) (string, error)
}

// Credentials is the register / login / staff body.
type Credentials struct {
	Name     string      `json:"name" validate:"required,max=255"`
	Email    string      `json:"email" validate:"required,email,max=255"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     models.Role `json:"role,omitempty"`
}

// Session is an identity with a freshly issued token.
type Session struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Role         models.Role `json:"role"`
	StoreID      *string     `json:"storeId"`
	IsSuperAdmin bool        `json:"isSuperAdmin"`
	Token        string      `json:"token,omitempty"`
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
}

func NewAuthService(users UserStore, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a CUSTOMER of the resolved store.
func (s *AuthService) Register(ctx context.Context, sc scope.Scope, in Credentials) (*Session, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	user, err := s.createTenantUser(ctx, sc.StoreID(), in, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	return s.session(user)
}

// Login checks credentials against the resolved store's users, or against
// the platform superadmins when no store was resolved. Unknown email and
// wrong password answer the same way.
func (s *AuthService) Login(ctx context.Context, sc scope.Scope, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	var (
		user *models.User
		err  error
	)
	if sc.HasStore() {
		user, err = s.users.FindInStore(ctx, sc.StoreID(), email)
	} else {
		user, err = s.users.FindSuperAdmin(ctx, email)
	}
	if err != nil && !repositories.IsNotFound(err) {
		return nil, apperr.Wrap("auth.Login", err)
	}
	if user == nil || !auth.CheckPassword(user.Password, password) {
		return nil, apperr.New(apperr.KindUnauthenticated, "Invalid email or password")
	}
	return s.session(user)
}

// Me describes the caller.
func (s *AuthService) Me(sc scope.Scope) (*Session, error) {
	if sc.Identity == nil {
		return nil, apperr.New(apperr.KindUnauthenticated, "")
	}
	return describe(sc.Identity), nil
}

// CreateStaff adds a STAFF (or ADMIN) user to the resolved store.
func (s *AuthService) CreateStaff(ctx context.Context, sc scope.Scope, in Credentials) (*Session, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	role := in.Role
	switch role {
	case "":
		role = models.RoleStaff
	case models.RoleStaff, models.RoleAdmin:
	default:
		return nil, apperr.New(apperr.KindInvalid, "Role must be STAFF or ADMIN")
	}

	user, err := s.createTenantUser(ctx, sc.StoreID(), in, role)
	if err != nil {
		return nil, err
	}
	return describe(user), nil
}

// ListStaff lists the STAFF and ADMIN users of the resolved store.
func (s *AuthService) ListStaff(ctx context.Context, sc scope.Scope) ([]*Session, error) {
	if !sc.HasStore() {
		return nil, apperr.New(apperr.KindTenantRequired, "")
	}
	users, err := s.users.ListStaff(ctx, sc.StoreID())
	if err != nil {
		return nil, apperr.Wrap("auth.ListStaff", err)
	}
	out := make([]*Session, len(users))
	for i := range users {
		out[i] = describe(&users[i])
	}
	return out, nil
}

// CreateSuperAdmin provisions a platform identity.
func (s *AuthService) CreateSuperAdmin(ctx context.Context, in Credentials) (*Session, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	if _, err := s.users.FindSuperAdmin(ctx, email); err == nil {
		return nil, apperr.New(apperr.KindConflict, "User already exists")
	} else if !repositories.IsNotFound(err) {
		return nil, apperr.Wrap("auth.CreateSuperAdmin", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap("auth.CreateSuperAdmin", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Password:     hash,
		Role:         models.RoleAdmin,
		IsSuperAdmin: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Wrap("auth.CreateSuperAdmin", err)
	}
	return describe(user), nil
}

func (s *AuthService) createTenantUser(ctx context.Context, storeID string, in Credentials, role models.Role) (*models.User, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	if _, err := s.users.FindInStore(ctx, storeID, email); err == nil {
		return nil, apperr.New(apperr.KindConflict, "User already exists")
	} else if !repositories.IsNotFound(err) {
		return nil, apperr.Wrap("auth.createUser", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap("auth.createUser", err)
	}

	user := &models.User{
		StoreID:  &storeID,
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hash,
		Role:     role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsDuplicate(err) {
			return nil, apperr.New(apperr.KindConflict, "User already exists")
		}
		return nil, apperr.Wrap("auth.createUser", err)
	}
	return user, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(auth.Subject{
		ID:         user.ID,
		Role:       string(user.Role),
		StoreID:    user.StoreID,
		SuperAdmin: user.IsSuperAdmin,
	})
	if err != nil {
		return nil, apperr.Wrap("auth.session", err)
	}
	out := describe(user)
	out.Token = token
	return out, nil
}

func describe(u *models.User) *Session {
	return &Session{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		StoreID:      u.StoreID,
		IsSuperAdmin: u.IsSuperAdmin,
	}
}

// check runs the validate tags of in. The first failure becomes the message;
// every field failure is kept for the response.
func check(in interface{}) error {
	if errs := validate.Struct(in); len(errs) > 0 {
		return apperr.Invalid(errs.Error(), errs.Map())
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
