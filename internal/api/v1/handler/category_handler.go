package handler

import (
	"context"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/service"

	"github.com/rs/zerolog"
)

type CategoryHandler struct {
	categoryService service.CategoryService
	logger          zerolog.Logger
}

func NewCategoryHandler(categoryService service.CategoryService, logger zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, logger: logger}
}

// ListCategories returns the caller's categories followed by the system defaults
func (h *CategoryHandler) ListCategories(ctx context.Context, input *operation.ListCategoriesInput) (*operation.ListCategoriesOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := h.categoryService.List(ctx, claims.UserID())
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	resp := make([]dto.CategoryResponseDTO, len(categories))
	for i := range categories {
		resp[i] = dto.NewCategoryResponse(&categories[i])
	}
	return &operation.ListCategoriesOutput{Body: resp}, nil
}

func (h *CategoryHandler) CreateCategory(ctx context.Context, input *operation.CreateCategoryInput) (*operation.CreateCategoryOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	category, err := h.categoryService.Create(ctx, actorOf(claims), categoryInput(input.Body))
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.CreateCategoryOutput{Body: dto.NewCategoryResponse(category)}, nil
}

func (h *CategoryHandler) UpdateCategory(ctx context.Context, input *operation.UpdateCategoryInput) (*operation.UpdateCategoryOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	category, err := h.categoryService.Update(ctx, actorOf(claims), input.CategoryID, categoryInput(input.Body))
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.UpdateCategoryOutput{Body: dto.NewCategoryResponse(category)}, nil
}

func (h *CategoryHandler) DeleteCategory(ctx context.Context, input *operation.DeleteCategoryInput) (*operation.DeleteCategoryOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.categoryService.Delete(ctx, actorOf(claims), input.CategoryID); err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.DeleteCategoryOutput{}, nil
}

func categoryInput(body dto.CategoryDTO) service.CategoryInput {
	return service.CategoryInput{
		Name:      body.Name,
		Type:      body.Type,
		Color:     body.Color,
		Icon:      body.Icon,
		IsDefault: body.IsDefault,
	}
}
