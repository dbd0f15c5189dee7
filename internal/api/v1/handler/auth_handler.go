package handler

import (
	"context"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/service"

	"github.com/rs/zerolog"
)

// AuthHandler implements sign-up and login
type AuthHandler struct {
	userService service.UserService
	logger      zerolog.Logger
}

func NewAuthHandler(userService service.UserService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, logger: logger}
}

// Register creates an account
func (h *AuthHandler) Register(ctx context.Context, input *operation.RegisterInput) (*operation.RegisterOutput, error) {
	user, err := h.userService.Register(ctx, service.RegisterInput{
		Name:     input.Body.Name,
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.RegisterOutput{Body: dto.NewUserResponse(user)}, nil
}

// Login exchanges credentials for a bearer token
func (h *AuthHandler) Login(ctx context.Context, input *operation.LoginInput) (*operation.LoginOutput, error) {
	session, err := h.userService.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.LoginOutput{
		Body: dto.SessionResponseDTO{
			Token:     session.Token,
			ExpiresAt: session.ExpiresAt,
			User:      dto.NewUserResponse(session.User),
		},
	}, nil
}
