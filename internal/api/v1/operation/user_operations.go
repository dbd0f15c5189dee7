package operation

import "fintrack/internal/api/v1/dto"

// Auth Operations

type RegisterInput struct {
	Body dto.RegisterDTO `json:"body"`
}

type RegisterOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type LoginInput struct {
	Body dto.LoginDTO `json:"body"`
}

type LoginOutput struct {
	Body dto.SessionResponseDTO `json:"body"`
}

// Profile Operations

type GetProfileInput struct {
	// No input needed - user ID comes from auth context
}

type GetProfileOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type PatchProfileInput struct {
	Body dto.ProfilePatchDTO `json:"body"`
}

type PatchProfileOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}

type ReplaceProfileInput struct {
	Body dto.ProfileReplaceDTO `json:"body"`
}

type ReplaceProfileOutput struct {
	Body dto.ProfileReplacedResponseDTO `json:"body"`
}

type DeleteProfileInput struct {
	// No input needed - user ID comes from auth context
}

type DeleteProfileOutput struct {
	// 204 No Content
}

// Preferences Operations

type GetPreferencesInput struct{}

type GetPreferencesOutput struct {
	Body dto.PreferencesResponseDTO `json:"body"`
}

type PatchPreferencesInput struct {
	Body dto.PreferencesPatchDTO `json:"body"`
}

type PatchPreferencesOutput struct {
	Body dto.PreferencesResponseDTO `json:"body"`
}

// Insights and Export Operations

type GetInsightsInput struct {
	Budget string `query:"budget" pattern:"^([0-9]+(\\.[0-9]{1,2})?)?$" doc:"Override the stored monthly budget"`
}

type GetInsightsOutput struct {
	Body dto.InsightsResponseDTO `json:"body"`
}

type ExportTransactionsInput struct{}

type ExportTransactionsOutput struct {
	Body dto.ExportResponseDTO `json:"body"`
}

// Admin User Operations

type ListUsersInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Number of users to return"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListUsersOutput struct {
	Body dto.UserListResponseDTO `json:"body"`
}

type UpdateUserAccessInput struct {
	UserID string            `path:"userId" format:"uuid" doc:"User ID"`
	Body   dto.UserAccessDTO `json:"body"`
}

type UpdateUserAccessOutput struct {
	Body dto.UserResponseDTO `json:"body"`
}
