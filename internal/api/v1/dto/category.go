package dto

import (
	"time"

	"fintrack/internal/model"
)

// CategoryDTO is used for category create and update requests
type CategoryDTO struct {
	Name      string `json:"name" minLength:"1" maxLength:"50"`
	Type      string `json:"type" enum:"INCOME,EXPENSE"`
	Color     string `json:"color" pattern:"^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$" doc:"Hex color, e.g. #22c55e"`
	Icon      string `json:"icon,omitempty" maxLength:"50"`
	IsDefault bool   `json:"is_default,omitempty" doc:"Create a system default visible to every user (admin only)"`
}

// CategoryResponseDTO is returned in API responses for categories
type CategoryResponseDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewCategoryResponse(c *model.Category) CategoryResponseDTO {
	return CategoryResponseDTO{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Color:     c.Color,
		Icon:      c.Icon,
		IsDefault: c.IsDefault(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
