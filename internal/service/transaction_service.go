package service

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionInput is the payload for creating or replacing a ledger entry.
type TransactionInput struct {
	Description string `validate:"required,min=1,max=200"`
	Amount      decimal.Decimal
	Type        string    `validate:"required,oneof=INCOME EXPENSE"`
	CategoryID  *string   `validate:"omitempty,uuid"`
	Date        time.Time `validate:"required"`
}

type TransactionService interface {
	List(ctx context.Context, userID string, f model.TransactionFilter) ([]model.Transaction, error)
	Get(ctx context.Context, userID, id string) (*model.Transaction, error)
	Create(ctx context.Context, userID string, in TransactionInput) (*model.Transaction, error)
	Update(ctx context.Context, userID, id string, in TransactionInput) (*model.Transaction, error)
	Delete(ctx context.Context, userID, id string) error
}

type transactionService struct {
	repo       repository.TransactionRepository
	categories repository.CategoryRepository
	quota      freeTierQuota
	now        func() time.Time
	logger     zerolog.Logger
}

func NewTransactionService(repo repository.TransactionRepository, categories repository.CategoryRepository, subs SubscriptionService, settings repository.SettingsRepository, logger zerolog.Logger) TransactionService {
	return &transactionService{
		repo:       repo,
		categories: categories,
		quota:      freeTierQuota{subs: subs, settings: settings},
		now:        time.Now,
		logger:     logger.With().Str("service", "TransactionService").Logger(),
	}
}

func (s *transactionService) List(ctx context.Context, userID string, f model.TransactionFilter) ([]model.Transaction, error) {
	if f.Type != "" && f.Type != model.TypeIncome && f.Type != model.TypeExpense {
		return nil, invalidf("type must be one of [INCOME EXPENSE]")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, invalidf("to must not be before from")
	}
	txns, err := s.repo.ListTransactions(ctx, userID, f)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to list transactions")
		return nil, err
	}
	return txns, nil
}

func (s *transactionService) Get(ctx context.Context, userID, id string) (*model.Transaction, error) {
	t, err := s.repo.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil || t.UserID != userID {
		return nil, ErrNotFound
	}
	return t, nil
}

// Create records a transaction. Free-tier users may create at most
// max_transactions per calendar month.
func (s *transactionService) Create(ctx context.Context, userID string, in TransactionInput) (*model.Transaction, error) {
	if err := s.check(ctx, userID, in); err != nil {
		return nil, err
	}
	limit, err := s.quota.limit(ctx, userID, func(st *model.SystemSettings) int { return st.MaxTransactions })
	if err != nil {
		return nil, err
	}

	t := &model.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Date:        in.Date,
	}
	start, end := monthWindow(s.now())
	if err := s.repo.CreateTransaction(ctx, t, start, end, limit); err != nil {
		if errors.Is(err, repository.ErrLimitExceeded) {
			s.logger.Info().Str("user_id", userID).Int("limit", limit).Msg("Transaction quota reached")
			return nil, &QuotaExceededError{Resource: ResourceTransactions, Limit: limit}
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create transaction")
		return nil, err
	}
	return t, nil
}

func (s *transactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (*model.Transaction, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, userID, in); err != nil {
		return nil, err
	}
	t.CategoryID, t.Description, t.Amount, t.Type, t.Date = in.CategoryID, in.Description, in.Amount, in.Type, in.Date

	if err := s.repo.UpdateTransaction(ctx, t); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error().Err(err).Str("transaction_id", id).Msg("Failed to update transaction")
		return nil, err
	}
	return t, nil
}

func (s *transactionService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		s.logger.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		return err
	}
	return nil
}

// check validates in and the category it references.
func (s *transactionService) check(ctx context.Context, userID string, in TransactionInput) error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if !in.Amount.IsPositive() {
		return invalidf("amount must be greater than 0")
	}
	if in.CategoryID == nil {
		return nil
	}
	c, err := s.categories.GetCategoryByID(ctx, *in.CategoryID)
	if err != nil {
		return err
	}
	if c == nil || !c.VisibleTo(userID) {
		return invalidf("category not found")
	}
	if c.Type != in.Type {
		return ErrCategoryMismatch
	}
	return nil
}
