package dto

import (
	"time"

	"fintrack/internal/model"
)

// PlanCreateDTO is used for incoming plan creation requests
type PlanCreateDTO struct {
	Name          string   `json:"name" minLength:"2" maxLength:"60"`
	Description   string   `json:"description,omitempty" maxLength:"500"`
	Price         string   `json:"price" pattern:"^[0-9]+(\\.[0-9]{1,2})?$"`
	Currency      string   `json:"currency,omitempty" minLength:"3" maxLength:"3" doc:"Defaults to brl"`
	Interval      string   `json:"interval,omitempty" enum:"month,year" doc:"Defaults to month"`
	StripePriceID string   `json:"stripe_price_id" pattern:"^price_"`
	Features      []string `json:"features,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// PlanUpdateDTO is used for partial plan updates
type PlanUpdateDTO struct {
	Name          *string   `json:"name,omitempty" minLength:"2" maxLength:"60"`
	Description   *string   `json:"description,omitempty" maxLength:"500"`
	Price         *string   `json:"price,omitempty" pattern:"^[0-9]+(\\.[0-9]{1,2})?$"`
	Currency      *string   `json:"currency,omitempty" minLength:"3" maxLength:"3"`
	Interval      *string   `json:"interval,omitempty" enum:"month,year"`
	StripePriceID *string   `json:"stripe_price_id,omitempty" pattern:"^price_"`
	Features      *[]string `json:"features,omitempty"`
	IsActive      *bool     `json:"is_active,omitempty"`
}

// PlanResponseDTO is returned in API responses for plans
type PlanResponseDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Price         string    `json:"price"`
	Currency      string    `json:"currency"`
	Interval      string    `json:"interval"`
	StripePriceID string    `json:"stripe_price_id"`
	Features      []string  `json:"features"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewPlanResponse(p *model.Plan) PlanResponseDTO {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	return PlanResponseDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         Money(p.Price),
		Currency:      p.Currency,
		Interval:      p.Interval,
		StripePriceID: p.StripePriceID,
		Features:      features,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
