package operation

import "fintrack/internal/api/v1/dto"

type ListCategoriesInput struct{}

type ListCategoriesOutput struct {
	Body []dto.CategoryResponseDTO `json:"body"`
}

type CreateCategoryInput struct {
	Body dto.CategoryDTO `json:"body"`
}

type CreateCategoryOutput struct {
	Body dto.CategoryResponseDTO `json:"body"`
}

type UpdateCategoryInput struct {
	CategoryID string          `path:"categoryId" format:"uuid" doc:"Category ID"`
	Body       dto.CategoryDTO `json:"body"`
}

type UpdateCategoryOutput struct {
	Body dto.CategoryResponseDTO `json:"body"`
}

type DeleteCategoryInput struct {
	CategoryID string `path:"categoryId" format:"uuid" doc:"Category ID"`
}

type DeleteCategoryOutput struct {
	// 204 No Content
}
