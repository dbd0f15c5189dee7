package handler

import (
	"context"
	"time"

	"fintrack/internal/api/v1/dto"
	"fintrack/internal/api/v1/operation"
	"fintrack/internal/model"
	"fintrack/internal/service"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"
)

type TransactionHandler struct {
	transactionService service.TransactionService
	logger             zerolog.Logger
}

func NewTransactionHandler(transactionService service.TransactionService, logger zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: logger}
}

// ListTransactions returns the caller's transactions, newest first
func (h *TransactionHandler) ListTransactions(ctx context.Context, input *operation.ListTransactionsInput) (*operation.ListTransactionsOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	filter := model.TransactionFilter{
		Type:       input.Type,
		CategoryID: input.CategoryID,
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
	if filter.From, err = optionalDate("from", input.From); err != nil {
		return nil, err
	}
	if filter.To, err = optionalDate("to", input.To); err != nil {
		return nil, err
	}

	txns, err := h.transactionService.List(ctx, claims.UserID(), filter)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	resp := make([]dto.TransactionResponseDTO, len(txns))
	for i := range txns {
		resp[i] = dto.NewTransactionResponse(&txns[i])
	}
	return &operation.ListTransactionsOutput{Body: resp}, nil
}

func (h *TransactionHandler) GetTransaction(ctx context.Context, input *operation.GetTransactionInput) (*operation.GetTransactionOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	txn, err := h.transactionService.Get(ctx, claims.UserID(), input.TransactionID)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.GetTransactionOutput{Body: dto.NewTransactionResponse(txn)}, nil
}

func (h *TransactionHandler) CreateTransaction(ctx context.Context, input *operation.CreateTransactionInput) (*operation.CreateTransactionOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	in, err := transactionInput(input.Body)
	if err != nil {
		return nil, err
	}
	txn, err := h.transactionService.Create(ctx, claims.UserID(), in)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.CreateTransactionOutput{Body: dto.NewTransactionResponse(txn)}, nil
}

func (h *TransactionHandler) UpdateTransaction(ctx context.Context, input *operation.UpdateTransactionInput) (*operation.UpdateTransactionOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	in, err := transactionInput(input.Body)
	if err != nil {
		return nil, err
	}
	txn, err := h.transactionService.Update(ctx, claims.UserID(), input.TransactionID, in)
	if err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.UpdateTransactionOutput{Body: dto.NewTransactionResponse(txn)}, nil
}

func (h *TransactionHandler) DeleteTransaction(ctx context.Context, input *operation.DeleteTransactionInput) (*operation.DeleteTransactionOutput, error) {
	claims, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.transactionService.Delete(ctx, claims.UserID(), input.TransactionID); err != nil {
		return nil, mapError(err, h.logger)
	}
	return &operation.DeleteTransactionOutput{}, nil
}

func transactionInput(body dto.TransactionDTO) (service.TransactionInput, error) {
	amount, err := dto.ParseMoney(body.Amount)
	if err != nil {
		return service.TransactionInput{}, huma.Error400BadRequest(err.Error())
	}
	date, err := dto.ParseDate(body.Date)
	if err != nil {
		return service.TransactionInput{}, huma.Error400BadRequest("date must be YYYY-MM-DD or RFC 3339")
	}
	return service.TransactionInput{
		Description: body.Description,
		Amount:      amount,
		Type:        body.Type,
		CategoryID:  body.CategoryID,
		Date:        date,
	}, nil
}

func optionalDate(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(raw)
	if err != nil {
		return nil, huma.Error400BadRequest(name + " must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}
