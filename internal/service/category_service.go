package service

import (
	"context"
	"errors"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CategoryInput is the payload for creating or replacing a category.
type CategoryInput struct {
	Name      string `validate:"required,min=1,max=50"`
	Type      string `validate:"required,oneof=INCOME EXPENSE"`
	Color     string `validate:"required,hexcolor"`
	Icon      string `validate:"max=50"`
	IsDefault bool
}

type CategoryService interface {
	List(ctx context.Context, userID string) ([]model.Category, error)
	Create(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error)
	Update(ctx context.Context, actor Actor, id string, in CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type categoryService struct {
	repo   repository.CategoryRepository
	quota  freeTierQuota
	logger zerolog.Logger
}

func NewCategoryService(repo repository.CategoryRepository, subs SubscriptionService, settings repository.SettingsRepository, logger zerolog.Logger) CategoryService {
	return &categoryService{
		repo:   repo,
		quota:  freeTierQuota{subs: subs, settings: settings},
		logger: logger.With().Str("service", "CategoryService").Logger(),
	}
}

func (s *categoryService) List(ctx context.Context, userID string) ([]model.Category, error) {
	categories, err := s.repo.ListVisible(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list categories")
		return nil, err
	}
	return categories, nil
}

// Create adds a category for the actor, or a system default when an admin
// asks for one. Free-tier users are limited to max_categories own categories.
func (s *categoryService) Create(ctx context.Context, actor Actor, in CategoryInput) (*model.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.IsDefault && !actor.Admin {
		return nil, ErrForbidden
	}

	c := &model.Category{
		ID:    uuid.NewString(),
		Name:  in.Name,
		Type:  in.Type,
		Color: in.Color,
		Icon:  in.Icon,
	}
	limit := 0
	if !in.IsDefault {
		owner := actor.UserID
		c.UserID = &owner

		var err error
		limit, err = s.quota.limit(ctx, actor.UserID, func(st *model.SystemSettings) int { return st.MaxCategories })
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.CreateCategory(ctx, c, limit); err != nil {
		if errors.Is(err, repository.ErrLimitExceeded) {
			s.logger.Info().Str("user_id", actor.UserID).Int("limit", limit).Msg("Category quota reached")
			return nil, &QuotaExceededError{Resource: ResourceCategories, Limit: limit}
		}
		s.logger.Error().Err(err).Str("user_id", actor.UserID).Msg("Failed to create category")
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, actor Actor, id string, in CategoryInput) (*model.Category, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	c.Name, c.Type, c.Color, c.Icon = in.Name, in.Type, in.Color, in.Icon

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		if errors.Is(err, repository.ErrInUse) {
			return nil, ErrCategoryTypeLocked
		}
		s.logger.Error().Err(err).Str("category_id", id).Msg("Failed to update category")
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error().Err(err).Str("category_id", id).Msg("Failed to delete category")
		return err
	}
	return nil
}

// editable loads a category the actor may change. Other users' categories are
// reported as missing; defaults need an admin.
func (s *categoryService) editable(ctx context.Context, actor Actor, id string) (*model.Category, error) {
	c, err := s.repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.VisibleTo(actor.UserID) {
		return nil, ErrNotFound
	}
	if c.IsDefault() && !actor.Admin {
		return nil, ErrForbidden
	}
	return c, nil
}
