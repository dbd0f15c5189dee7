package service

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const otherUserID = "0b9e2f44-7c1d-4a3b-9e8f-5d6c7b8a9f01"

var (
	salaryID    = "11111111-1111-4111-8111-111111111111"
	groceriesID = "22222222-2222-4222-8222-222222222222"
)

func newTransactionFixture(maxTransactions int, paid bool) (*transactionService, *fakeTransactionRepo) {
	repo := &fakeTransactionRepo{}
	cats := newFakeCategoryRepo(
		model.Category{ID: salaryID, Name: "Salary", Type: model.TypeIncome},
		model.Category{ID: groceriesID, Name: "Groceries", Type: model.TypeExpense, UserID: ptr(otherUserID)},
	)
	settings := &fakeSettingsRepo{settings: model.SystemSettings{MaxTransactions: maxTransactions, MaxCategories: 2}}
	subs := staticSubscriptions{paid: map[string]bool{testUserID: paid}}
	svc := NewTransactionService(repo, cats, subs, settings, zerolog.Nop()).(*transactionService)
	svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func ptr[T any](v T) *T { return &v }

func income(amount string) TransactionInput {
	return TransactionInput{
		Description: "Salary",
		Amount:      decimal.RequireFromString(amount),
		Type:        model.TypeIncome,
		CategoryID:  &salaryID,
		Date:        time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateTransactionQuotaBoundary(t *testing.T) {
	svc, repo := newTransactionFixture(3, false)
	ctx := context.Background()

	// A transaction from last month does not count.
	repo.txns = append(repo.txns, model.Transaction{ID: "old", UserID: testUserID, CreatedAt: time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)})

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, testUserID, income("10.00"))
		require.NoError(t, err, "transaction %d should be accepted", i+1)
	}

	_, err := svc.Create(ctx, testUserID, income("10.00"))
	var quota *QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, ResourceTransactions, quota.Resource)
	assert.Equal(t, 3, quota.Limit)
}

func TestCreateTransactionPaidUsersAreUnlimited(t *testing.T) {
	svc, _ := newTransactionFixture(1, true)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, testUserID, income("1"))
		require.NoError(t, err)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	svc, _ := newTransactionFixture(0, false)
	ctx := context.Background()

	zero := income("0")
	_, err := svc.Create(ctx, testUserID, zero)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	mismatch := income("5")
	mismatch.Type = model.TypeExpense
	_, err = svc.Create(ctx, testUserID, mismatch)
	assert.ErrorIs(t, err, ErrCategoryMismatch)

	foreign := income("5")
	foreign.Type = model.TypeExpense
	foreign.CategoryID = &groceriesID
	_, err = svc.Create(ctx, testUserID, foreign)
	assert.ErrorAs(t, err, &verr)

	badType := income("5")
	badType.Type = "TRANSFER"
	_, err = svc.Create(ctx, testUserID, badType)
	assert.ErrorAs(t, err, &verr)
}

func TestTransactionsAreScopedToOwner(t *testing.T) {
	svc, repo := newTransactionFixture(0, false)
	ctx := context.Background()
	repo.txns = append(repo.txns, model.Transaction{ID: "t1", UserID: otherUserID, Type: model.TypeIncome, Amount: decimal.NewFromInt(1)})

	_, err := svc.Get(ctx, testUserID, "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, testUserID, "t1"), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, otherUserID, "t1"))
}

func TestCategoryQuotaAndDefaults(t *testing.T) {
	repo := newFakeCategoryRepo(model.Category{ID: salaryID, Name: "Salary", Type: model.TypeIncome})
	settings := &fakeSettingsRepo{settings: model.SystemSettings{MaxCategories: 1}}
	svc := NewCategoryService(repo, staticSubscriptions{}, settings, zerolog.Nop())
	ctx := context.Background()
	user := Actor{UserID: testUserID}
	admin := Actor{UserID: otherUserID, Admin: true}

	in := CategoryInput{Name: "Rent", Type: model.TypeExpense, Color: "#ff0000"}
	_, err := svc.Create(ctx, user, in)
	require.NoError(t, err)

	_, err = svc.Create(ctx, user, in)
	var quota *QuotaExceededError
	require.ErrorAs(t, err, &quota)
	assert.Equal(t, ResourceCategories, quota.Resource)

	in.IsDefault = true
	_, err = svc.Create(ctx, user, in)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Create(ctx, admin, in)
	require.NoError(t, err)

	_, err = svc.Update(ctx, user, salaryID, CategoryInput{Name: "Pay", Type: model.TypeIncome, Color: "#00ff00"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, admin, salaryID, CategoryInput{Name: "Pay", Type: model.TypeIncome, Color: "#00ff00"})
	require.NoError(t, err)

	list, err := svc.List(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestCategoryTypeLockedWhileUsed(t *testing.T) {
	repo := newFakeCategoryRepo(model.Category{ID: groceriesID, Name: "Groceries", Type: model.TypeExpense, UserID: ptr(testUserID)})
	repo.used = map[string]bool{groceriesID: true}
	svc := NewCategoryService(repo, staticSubscriptions{}, &fakeSettingsRepo{}, zerolog.Nop())
	ctx := context.Background()
	user := Actor{UserID: testUserID}

	_, err := svc.Update(ctx, user, groceriesID, CategoryInput{Name: "Groceries", Type: model.TypeIncome, Color: "#00ff00"})
	assert.ErrorIs(t, err, ErrCategoryTypeLocked)
	assert.Equal(t, model.TypeExpense, repo.categories[groceriesID].Type)

	c, err := svc.Update(ctx, user, groceriesID, CategoryInput{Name: "Food", Type: model.TypeExpense, Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, "Food", c.Name)

	repo.used = nil
	c, err = svc.Update(ctx, user, groceriesID, CategoryInput{Name: "Refunds", Type: model.TypeIncome, Color: "#00ff00"})
	require.NoError(t, err)
	assert.Equal(t, model.TypeIncome, c.Type)
}
