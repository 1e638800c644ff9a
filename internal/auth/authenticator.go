package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrAuthenticationFailed is returned for both unknown emails and wrong
// passwords so callers cannot tell the two apart.
var ErrAuthenticationFailed = errors.New("authentication failed")

type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(email string, role user.Role) (string, time.Time, error)
}

type Session struct {
	Token     string
	Email     string
	Role      user.Role
	ExpiresAt time.Time
}

type Authenticator struct {
	users  UserFinder
	hasher PasswordHasher
	tokens TokenIssuer

	// compared against when the email is unknown, so both failure paths pay
	// for one bcrypt comparison
	dummyHash string
}

// NewAuthenticator fails if the dummy hash cannot be produced, since without
// it an unknown email would answer faster than a wrong password.
func NewAuthenticator(users UserFinder, hasher PasswordHasher, tokens TokenIssuer) (*Authenticator, error) {
	dummy, err := hasher.Hash("userhub-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	if dummy == "" {
		return nil, errors.New("prepare dummy hash: hasher returned an empty hash")
	}

	return &Authenticator{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

func (a *Authenticator) Login(ctx context.Context, email, password string) (Session, error) {
	ctx, span := otel.Tracer("userhub/auth").Start(ctx, "auth.login")
	defer span.End()

	found, err := a.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			a.hasher.Verify(password, a.dummyHash)
			span.SetAttributes(attribute.String("auth.result", "failed"))
			return Session{}, ErrAuthenticationFailed
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "user lookup failed")
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}

	if !a.hasher.Verify(password, found.PasswordHash) {
		span.SetAttributes(attribute.String("auth.result", "failed"))
		return Session{}, ErrAuthenticationFailed
	}

	token, expiresAt, err := a.tokens.Issue(found.Email, found.Role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		return Session{}, err
	}

	span.SetAttributes(
		attribute.String("auth.result", "ok"),
		attribute.String("user.role", found.Role.String()),
	)

	return Session{
		Token:     token,
		Email:     found.Email,
		Role:      found.Role,
		ExpiresAt: expiresAt,
	}, nil
}
