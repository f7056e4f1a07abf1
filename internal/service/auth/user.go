package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/lexicon-backend/internal/domain"
	"github.com/heartmarshall/lexicon-backend/pkg/ctxutil"
)

// CreateUser creates an account with a password. Returns ErrAlreadyExists
// if the email or username is taken.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	input.normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth.CreateUser: %w", err)
	}

	now := s.clock()
	user, err := s.users.Create(ctx, domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("auth.CreateUser: %w", err)
	}

	s.log.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", user.Role.String()),
	)

	return user, nil
}

// CurrentUser returns the user attached to the request context.
func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.CurrentUser: %w", err)
	}
	return user, nil
}

// SetUserRole changes the role of a user. When called on behalf of a
// request, the caller must be an admin and may not demote themselves.
func (s *Service) SetUserRole(ctx context.Context, targetUserID uuid.UUID, role domain.UserRole) (*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.NewValidationError("role", "must be viewer, editor or admin")
	}

	if callerID, ok := ctxutil.UserIDFromCtx(ctx); ok {
		if !domain.UserRole(ctxutil.UserRoleFromCtx(ctx)).IsAdmin() {
			return nil, domain.ErrForbidden
		}
		if callerID == targetUserID && role != domain.UserRoleAdmin {
			return nil, domain.NewValidationError("role", "cannot demote yourself")
		}
	}

	if err := s.users.UpdateRole(ctx, targetUserID, role); err != nil {
		return nil, fmt.Errorf("auth.SetUserRole: %w", err)
	}

	user, err := s.users.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("auth.SetUserRole: %w", err)
	}

	s.log.InfoContext(ctx, "user role updated",
		slog.String("target_user_id", targetUserID.String()),
		slog.String("new_role", role.String()),
	)

	return user, nil
}

// SetUserRoleByEmail looks the user up by email and changes its role.
func (s *Service) SetUserRoleByEmail(ctx context.Context, email string, role domain.UserRole) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("auth.SetUserRoleByEmail: %w", err)
	}
	return s.SetUserRole(ctx, user.ID, role)
}
