package operation

import "fintrack/internal/api/v1/dto"

type ListPublicPlansInput struct{}

type ListPlansInput struct {
	ActiveOnly bool `query:"active_only" doc:"Hide inactive plans"`
}

type ListPlansOutput struct {
	Body []dto.PlanResponseDTO `json:"body"`
}

type CreatePlanInput struct {
	Body dto.PlanCreateDTO `json:"body"`
}

type CreatePlanOutput struct {
	Body dto.PlanResponseDTO `json:"body"`
}

type UpdatePlanInput struct {
	PlanID string            `path:"planId" format:"uuid" doc:"Plan ID"`
	Body   dto.PlanUpdateDTO `json:"body"`
}

type UpdatePlanOutput struct {
	Body dto.PlanResponseDTO `json:"body"`
}

type DeletePlanInput struct {
	PlanID string `path:"planId" format:"uuid" doc:"Plan ID"`
}

type DeletePlanOutput struct {
	// 204 No Content
}

// Settings Operations

type GetSettingsInput struct{}

type GetSettingsOutput struct {
	Body dto.SettingsResponseDTO `json:"body"`
}

type UpdateSettingsInput struct {
	Body dto.SettingsDTO `json:"body"`
}

type UpdateSettingsOutput struct {
	Body dto.SettingsResponseDTO `json:"body"`
}
