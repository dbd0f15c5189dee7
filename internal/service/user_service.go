package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/events"
	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RegisterInput is the payload accepted by Register.
type RegisterInput struct {
	Name     string `validate:"required,min=2,max=100"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
}

// ProfileInput carries a full profile replacement.
type ProfileInput struct {
	Name  string `validate:"required,min=2,max=100"`
	Email string `validate:"required,email,max=254"`
}

// ProfilePatch carries a partial profile update; nil fields are left as-is.
type ProfilePatch struct {
	Name  *string `validate:"omitempty,min=2,max=100"`
	Email *string `validate:"omitempty,email,max=254"`
}

// Session is a freshly issued login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// ProfileReplaced reports the outcome of a full profile replacement.
type ProfileReplaced struct {
	User      *model.User
	SignedOut bool
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Get(ctx context.Context, id string) (*model.User, error)
	PatchProfile(ctx context.Context, id string, in ProfilePatch) (*model.User, error)
	ReplaceProfile(ctx context.Context, id string, in ProfileInput) (*ProfileReplaced, error)
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, limit, offset int) ([]model.User, int, error)
	UpdateAccess(ctx context.Context, actorID, id string, role *string, isActive *bool) (*model.User, error)
	Promote(ctx context.Context, email string) error
}

type userService struct {
	users     repository.UserRepository
	subs      repository.SubscriptionRepository
	prefs     PreferencesService
	payments  PaymentsGateway
	tokens    *auth.TokenManager
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewUserService(users repository.UserRepository, subs repository.SubscriptionRepository, prefs PreferencesService, payments PaymentsGateway, tokens *auth.TokenManager, publisher events.Publisher, logger zerolog.Logger) UserService {
	return &userService{
		users:     users,
		subs:      subs,
		prefs:     prefs,
		payments:  payments,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger.With().Str("service", "UserService").Logger(),
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = model.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		s.logger.Error().Err(err).Msg("Failed to create user")
		return nil, err
	}

	if _, err := s.prefs.Get(ctx, u.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID).Msg("Failed to seed default preferences")
	}
	s.publish(ctx, events.New(events.TypeUserRegistered, u, nil))

	s.logger.Info().Str("user_id", u.ID).Msg("User registered")
	return u, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *userService) PatchProfile(ctx context.Context, id string, in ProfilePatch) (*model.User, error) {
	if in.Email != nil {
		normalized := model.NormalizeEmail(*in.Email)
		in.Email = &normalized
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name, email := current.Name, current.Email
	if in.Name != nil {
		name = *in.Name
	}
	if in.Email != nil {
		email = *in.Email
	}
	return s.updateProfile(ctx, id, name, email)
}

// ReplaceProfile runs three steps in order: update the row, revoke every
// session when the email changed, then announce the change. Steps two and
// three are safe to repeat. A failure after the first step leaves the row
// updated and is returned to the caller.
func (s *userService) ReplaceProfile(ctx context.Context, id string, in ProfileInput) (*ProfileReplaced, error) {
	in.Email = model.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.updateProfile(ctx, id, in.Name, in.Email)
	if err != nil {
		return nil, err
	}

	log := s.logger.With().Str("user_id", id).Logger()
	result := &ProfileReplaced{User: updated}
	if current.Email != updated.Email {
		version, err := s.users.BumpTokenVersion(ctx, id)
		if err != nil {
			log.Error().Err(err).Msg("Profile updated but revoking sessions failed")
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
		updated.TokenVersion = version
		result.SignedOut = true
	}

	e := events.New(events.TypeProfileUpdated, updated, map[string]string{
		"previous_email": current.Email,
	})
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Error().Err(err).Msg("Profile updated but publishing the change failed")
		return nil, fmt.Errorf("publish profile update: %w", err)
	}

	log.Info().Bool("signed_out", result.SignedOut).Msg("Profile replaced")
	return result, nil
}

func (s *userService) updateProfile(ctx context.Context, id, name, email string) (*model.User, error) {
	u, err := s.users.UpdateProfile(ctx, id, name, email)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to update profile")
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Delete cancels any live Stripe subscription before removing the account.
// Nothing is deleted if the cancellation fails.
func (s *userService) Delete(ctx context.Context, id string) error {
	sub, err := s.subs.GetSubscription(ctx, id)
	if err != nil {
		return err
	}
	if sub != nil && sub.StripeSubscriptionID != "" && sub.Status != model.SubscriptionCanceled {
		if err := s.payments.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
			s.logger.Error().Err(err).Str("user_id", id).Str("subscription_id", sub.StripeSubscriptionID).Msg("Failed to cancel subscription before account deletion")
			return err
		}
	}

	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to delete user")
		return err
	}
	s.logger.Info().Str("user_id", id).Msg("User deleted")
	return nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	users, total, err := s.users.ListUsers(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		return nil, 0, err
	}
	for i := range users {
		users[i].Role = model.NormalizeRole(users[i].Role)
	}
	return users, total, nil
}

func (s *userService) UpdateAccess(ctx context.Context, actorID, id string, role *string, isActive *bool) (*model.User, error) {
	if role != nil {
		normalized := model.NormalizeRole(*role)
		if normalized != model.RoleAdmin && normalized != model.RoleUser {
			return nil, invalidf("role must be one of [admin user]")
		}
		role = &normalized
	}
	if actorID == id {
		if role != nil && *role != model.RoleAdmin {
			return nil, invalidf("admins cannot remove their own admin role")
		}
		if isActive != nil && !*isActive {
			return nil, invalidf("admins cannot deactivate themselves")
		}
	}

	u, err := s.users.UpdateAccess(ctx, id, role, isActive)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("Failed to update user access")
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	u.Role = model.NormalizeRole(u.Role)
	return u, nil
}

func (s *userService) Promote(ctx context.Context, email string) error {
	err := s.users.PromoteByEmail(ctx, model.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func (s *userService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn().Err(err).Str("event_type", e.Type).Str("user_id", e.UserID).Msg("Failed to publish event")
	}
}
