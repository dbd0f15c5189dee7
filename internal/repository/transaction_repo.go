package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository defines methods for accessing ledger entries.
type TransactionRepository interface {
	ListTransactions(ctx context.Context, userID string, f model.TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	// CreateTransaction atomically checks the user's transaction count in
	// [start, end) and inserts t. Returns ErrLimitExceeded once the count reaches
	// maxTransactions; maxTransactions <= 0 disables the check.
	CreateTransaction(ctx context.Context, t *model.Transaction, start, end time.Time, maxTransactions int) error
	UpdateTransaction(ctx context.Context, t *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

type transactionRepo struct {
	pool *pgxpool.Pool
}

// NewTransactionRepo creates a new TransactionRepository.
func NewTransactionRepo(pool *pgxpool.Pool) TransactionRepository {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `id, user_id, category_id, description, amount, type, date, created_at, updated_at`

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var t model.Transaction
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.CategoryID,
		&t.Description,
		&t.Amount,
		&t.Type,
		&t.Date,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTransactions returns the user's transactions, newest first, narrowed by f.
func (r *transactionRepo) ListTransactions(ctx context.Context, userID string, f model.TransactionFilter) ([]model.Transaction, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.From != nil {
		add("date >= $%d", *f.From)
	}
	if f.To != nil {
		add("date <= $%d", *f.To)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.CategoryID != "" {
		add("category_id = $%d", f.CategoryID)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	txns := []model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transaction rows: %w", err)
	}
	return txns, nil
}

func (r *transactionRepo) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	t, err := scanTransaction(r.pool.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *transactionRepo) CreateTransaction(ctx context.Context, t *model.Transaction, start, end time.Time, maxTransactions int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("starting transaction for ledger insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if maxTransactions > 0 {
		var count int
		const countQ = `
			SELECT COUNT(*)
			FROM transactions
			WHERE user_id = $1
			  AND created_at >= $2
			  AND created_at < $3
		`
		if err := tx.QueryRow(ctx, countQ, t.UserID, start, end).Scan(&count); err != nil {
			return fmt.Errorf("counting transactions for user %s: %w", t.UserID, err)
		}
		if count >= maxTransactions {
			return ErrLimitExceeded
		}
	}

	query := `
		INSERT INTO transactions (id, user_id, category_id, description, amount, type, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + transactionColumns
	created, err := scanTransaction(tx.QueryRow(ctx, query, t.ID, t.UserID, t.CategoryID, t.Description, t.Amount, t.Type, t.Date))
	if err != nil {
		return fmt.Errorf("creating transaction for user %s: %w", t.UserID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction for user %s: %w", t.UserID, err)
	}
	*t = *created
	return nil
}

func (r *transactionRepo) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	query := `
		UPDATE transactions
		SET category_id = $2, description = $3, amount = $4, type = $5, date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + transactionColumns
	updated, err := scanTransaction(r.pool.QueryRow(ctx, query, t.ID, t.CategoryID, t.Description, t.Amount, t.Type, t.Date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("updating transaction %s: %w", t.ID, err)
	}
	*t = *updated
	return nil
}

func (r *transactionRepo) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting transaction %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
