package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"fintrack/internal/events"
	"fintrack/internal/model"
	"fintrack/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context, limit, offset int) ([]model.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id, name, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	for _, other := range r.users {
		if other.ID != id && other.Email == email {
			return nil, repository.ErrDuplicate
		}
	}
	u.Name, u.Email = name, email
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateAccess(_ context.Context, id string, role *string, isActive *bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if role != nil {
		u.Role = *role
	}
	if isActive != nil {
		u.IsActive = *isActive
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) BumpTokenVersion(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.TokenVersion++
	return u.TokenVersion, nil
}

func (r *fakeUserRepo) SetStripeCustomerID(_ context.Context, id, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.StripeCustomerID = &customerID
	return nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) PromoteByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Role = model.RoleAdmin
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeSubscriptionRepo applies the same last_event_at guard as the SQL upsert.
type fakeSubscriptionRepo struct {
	mu      sync.Mutex
	subs    map[string]*model.Subscription
	known   map[string]bool // user ids that exist; nil accepts any
	applied int
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[string]*model.Subscription{}}
}

func (r *fakeSubscriptionRepo) GetSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.subs[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) ApplyMirror(_ context.Context, m *model.SubscriptionMirror) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.known != nil && !r.known[m.UserID] {
		return false, repository.ErrNotFound
	}
	existing, ok := r.subs[m.UserID]
	if ok && existing.LastEventAt.After(m.EventAt) {
		return false, nil
	}
	s := &model.Subscription{UserID: m.UserID}
	if ok {
		s = existing
	}
	s.StripeSubscriptionID = m.StripeSubscriptionID
	s.StripeCustomerID = m.StripeCustomerID
	s.StripePriceID = m.StripePriceID
	s.Status = m.Status
	s.Plan = m.Plan
	s.Price = m.Price
	s.CurrentPeriodEnd = m.CurrentPeriodEnd
	s.LastEventAt = m.EventAt
	r.subs[m.UserID] = s
	r.applied++
	return true, nil
}

func (r *fakeSubscriptionRepo) MarkCanceled(_ context.Context, userID, stripeSubscriptionID string, periodEnd *time.Time, eventAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[userID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if s.StripeSubscriptionID != stripeSubscriptionID || s.LastEventAt.After(eventAt) {
		return false, nil
	}
	s.Status = model.SubscriptionCanceled
	s.CurrentPeriodEnd = periodEnd
	s.CanceledAt = &eventAt
	s.LastEventAt = eventAt
	return true, nil
}

func (r *fakeSubscriptionRepo) SetStatus(_ context.Context, userID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[userID]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeSubscriptionRepo) CountActiveByPriceID(_ context.Context, priceID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.subs {
		if s.StripePriceID == priceID && s.IsPaid() {
			n++
		}
	}
	return n, nil
}

type fakeSettingsRepo struct {
	settings model.SystemSettings
}

func (r *fakeSettingsRepo) GetSettings(context.Context) (*model.SystemSettings, error) {
	cp := r.settings
	return &cp, nil
}

func (r *fakeSettingsRepo) UpdateSettings(_ context.Context, s *model.SystemSettings) error {
	r.settings = *s
	return nil
}

type fakeCategoryRepo struct {
	categories map[string]*model.Category
	// used marks categories referenced by transactions.
	used map[string]bool
}

func newFakeCategoryRepo(cats ...model.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: map[string]*model.Category{}}
	for i := range cats {
		c := cats[i]
		r.categories[c.ID] = &c
	}
	return r
}

func (r *fakeCategoryRepo) ListVisible(_ context.Context, userID string) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range r.categories {
		if c.VisibleTo(userID) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCategoryRepo) GetCategoryByID(_ context.Context, id string) (*model.Category, error) {
	if c, ok := r.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCategoryRepo) CreateCategory(ctx context.Context, c *model.Category, maxCategories int) error {
	if c.UserID != nil && maxCategories > 0 {
		n, _ := r.countByUser(ctx, *c.UserID)
		if n >= maxCategories {
			return repository.ErrLimitExceeded
		}
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) UpdateCategory(_ context.Context, c *model.Category) error {
	current, ok := r.categories[c.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Type != c.Type && r.used[c.ID] {
		return repository.ErrInUse
	}
	cp := *c
	r.categories[c.ID] = &cp
	return nil
}

func (r *fakeCategoryRepo) DeleteCategory(_ context.Context, id string) error {
	if _, ok := r.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *fakeCategoryRepo) countByUser(_ context.Context, userID string) (int, error) {
	n := 0
	for _, c := range r.categories {
		if c.UserID != nil && *c.UserID == userID {
			n++
		}
	}
	return n, nil
}

type fakeTransactionRepo struct {
	txns []model.Transaction
}

func (r *fakeTransactionRepo) ListTransactions(_ context.Context, userID string, f model.TransactionFilter) ([]model.Transaction, error) {
	out := []model.Transaction{}
	for _, t := range r.txns {
		if t.UserID != userID {
			continue
		}
		if f.From != nil && t.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && t.Date.After(*f.To) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTransactionRepo) GetTransactionByID(_ context.Context, id string) (*model.Transaction, error) {
	for i := range r.txns {
		if r.txns[i].ID == id {
			cp := r.txns[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeTransactionRepo) CreateTransaction(ctx context.Context, t *model.Transaction, start, end time.Time, maxTransactions int) error {
	if maxTransactions > 0 {
		n, _ := r.countInTimeRange(ctx, t.UserID, start, end)
		if n >= maxTransactions {
			return repository.ErrLimitExceeded
		}
	}
	t.CreatedAt = start
	r.txns = append(r.txns, *t)
	return nil
}

func (r *fakeTransactionRepo) UpdateTransaction(_ context.Context, t *model.Transaction) error {
	for i := range r.txns {
		if r.txns[i].ID == t.ID {
			r.txns[i] = *t
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTransactionRepo) DeleteTransaction(_ context.Context, id string) error {
	for i := range r.txns {
		if r.txns[i].ID == id {
			r.txns = append(r.txns[:i], r.txns[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeTransactionRepo) countInTimeRange(_ context.Context, userID string, start, end time.Time) (int, error) {
	n := 0
	for _, t := range r.txns {
		if t.UserID == userID && !t.CreatedAt.Before(start) && t.CreatedAt.Before(end) {
			n++
		}
	}
	return n, nil
}

type fakePlanRepo struct {
	plans map[string]*model.Plan
}

func newFakePlanRepo(plans ...model.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: map[string]*model.Plan{}}
	for i := range plans {
		p := plans[i]
		r.plans[p.ID] = &p
	}
	return r
}

func (r *fakePlanRepo) ListPlans(_ context.Context, activeOnly bool) ([]model.Plan, error) {
	out := []model.Plan{}
	for _, p := range r.plans {
		if !activeOnly || p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) GetPlanByID(_ context.Context, id string) (*model.Plan, error) {
	if p, ok := r.plans[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePlanRepo) GetPlanByStripePriceID(_ context.Context, priceID string) (*model.Plan, error) {
	for _, p := range r.plans {
		if p.StripePriceID == priceID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakePlanRepo) CreatePlan(ctx context.Context, p *model.Plan) error {
	if existing, _ := r.GetPlanByStripePriceID(ctx, p.StripePriceID); existing != nil {
		return repository.ErrDuplicate
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) UpdatePlan(_ context.Context, p *model.Plan) error {
	if _, ok := r.plans[p.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

func (r *fakePlanRepo) DeletePlan(_ context.Context, id string) error {
	if _, ok := r.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}

func (r *fakePlanRepo) UpsertPlanByStripePriceID(ctx context.Context, p *model.Plan) error {
	if existing, _ := r.GetPlanByStripePriceID(ctx, p.StripePriceID); existing != nil {
		p.ID = existing.ID
	}
	cp := *p
	r.plans[p.ID] = &cp
	return nil
}

type fakePreferencesRepo struct {
	prefs map[string]*model.UserPreferences
}

func newFakePreferencesRepo() *fakePreferencesRepo {
	return &fakePreferencesRepo{prefs: map[string]*model.UserPreferences{}}
}

func (r *fakePreferencesRepo) GetPreferences(_ context.Context, userID string) (*model.UserPreferences, error) {
	if p, ok := r.prefs[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *fakePreferencesRepo) CreateDefaultPreferences(ctx context.Context, p *model.UserPreferences) (*model.UserPreferences, error) {
	if _, ok := r.prefs[p.UserID]; !ok {
		cp := *p
		r.prefs[p.UserID] = &cp
	}
	return r.GetPreferences(ctx, p.UserID)
}

func (r *fakePreferencesRepo) SavePreferences(_ context.Context, p *model.UserPreferences) error {
	cp := *p
	r.prefs[p.UserID] = &cp
	return nil
}

// fakeGateway records calls instead of reaching Stripe.
type fakeGateway struct {
	subscriptions map[string]*stripe.Subscription
	cancelErr     error
	chargesErr    error
	charges       map[time.Time]decimal.Decimal

	canceled       []string
	cancelAtEnd    []string
	createdFor     []string
	checkoutPrices []string
}

func (g *fakeGateway) GetSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	if s, ok := g.subscriptions[id]; ok {
		return s, nil
	}
	return nil, errors.New("no such subscription")
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.canceled = append(g.canceled, id)
	return nil
}

func (g *fakeGateway) CancelAtPeriodEnd(_ context.Context, id string) (*stripe.Subscription, error) {
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	g.cancelAtEnd = append(g.cancelAtEnd, id)
	return &stripe.Subscription{ID: id, CancelAtPeriodEnd: true, Status: stripe.SubscriptionStatusActive}, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, userID, _, _ string) (string, error) {
	g.createdFor = append(g.createdFor, userID)
	return "cus_" + userID[:8], nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, customerID, priceID, userID string) (string, error) {
	g.checkoutPrices = append(g.checkoutPrices, priceID)
	return "https://checkout.stripe.test/" + customerID, nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerID string) (string, error) {
	return "https://billing.stripe.test/" + customerID, nil
}

func (g *fakeGateway) SumCharges(_ context.Context, start, _ time.Time) (decimal.Decimal, error) {
	if g.chargesErr != nil {
		return decimal.Zero, g.chargesErr
	}
	return g.charges[start], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// staticSubscriptions reports every user in paid as a paying subscriber.
type staticSubscriptions struct {
	SubscriptionService
	paid map[string]bool
}

func (s staticSubscriptions) IsPaid(_ context.Context, userID string) (bool, error) {
	return s.paid[userID], nil
}
