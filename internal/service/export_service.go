package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/repository"
	"fintrack/internal/storage"

	"github.com/rs/zerolog"
)

// ExportURLTTL is how long a presigned export link stays valid.
const ExportURLTTL = 15 * time.Minute

// Export is a finished CSV export.
type Export struct {
	Key       string
	URL       string
	Rows      int
	ExpiresAt time.Time
}

type ExportService interface {
	// ExportTransactions writes every transaction of the user as CSV and returns a
	// presigned download link. Earlier exports of the user are removed first.
	ExportTransactions(ctx context.Context, userID string) (*Export, error)
}

type exportService struct {
	txns       repository.TransactionRepository
	categories repository.CategoryRepository
	store      storage.ObjectStore
	now        func() time.Time
	logger     zerolog.Logger
}

// NewExportService returns an export service; a nil store disables exports.
func NewExportService(txns repository.TransactionRepository, categories repository.CategoryRepository, store storage.ObjectStore, logger zerolog.Logger) ExportService {
	return &exportService{
		txns:       txns,
		categories: categories,
		store:      store,
		now:        time.Now,
		logger:     logger.With().Str("service", "ExportService").Logger(),
	}
}

func (s *exportService) ExportTransactions(ctx context.Context, userID string) (*Export, error) {
	if s.store == nil {
		return nil, ErrExportDisabled
	}
	txns, err := s.txns.ListTransactions(ctx, userID, model.TransactionFilter{})
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.ListVisible(ctx, userID)
	if err != nil {
		return nil, err
	}
	body, err := transactionsCSV(txns, cats)
	if err != nil {
		return nil, err
	}

	prefix := exportPrefix(userID)
	if n, err := s.store.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to remove previous exports")
	} else if n > 0 {
		s.logger.Debug().Str("user_id", userID).Int("deleted", n).Msg("Removed previous exports")
	}

	now := s.now().UTC()
	key := fmt.Sprintf("%stransactions-%s.csv", prefix, now.Format("20060102T150405Z"))
	if err := s.store.Put(ctx, key, "text/csv; charset=utf-8", body); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to upload export")
		return nil, err
	}
	url, err := s.store.PresignGet(ctx, key, ExportURLTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to presign export")
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Int("rows", len(txns)).Msg("Transactions exported")
	return &Export{Key: key, URL: url, Rows: len(txns), ExpiresAt: now.Add(ExportURLTTL)}, nil
}

func exportPrefix(userID string) string {
	return "exports/" + userID + "/"
}

func transactionsCSV(txns []model.Transaction, cats []model.Category) ([]byte, error) {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := [][]string{{"date", "description", "type", "category", "amount"}}
	for _, t := range txns {
		category := ""
		if t.CategoryID != nil {
			category = names[*t.CategoryID]
		}
		rows = append(rows, []string{
			t.Date.Format("2006-01-02"),
			t.Description,
			t.Type,
			category,
			t.Signed().StringFixed(2),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("write export csv: %w", err)
	}
	return buf.Bytes(), nil
}
