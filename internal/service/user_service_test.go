package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/events"
	"fintrack/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc       UserService
	users     *fakeUserRepo
	subs      *fakeSubscriptionRepo
	gateway   *fakeGateway
	publisher *recordingPublisher
	prefs     *fakePreferencesRepo
}

func newUserFixture(users ...*model.User) *userFixture {
	f := &userFixture{
		users:     newFakeUserRepo(users...),
		subs:      newFakeSubscriptionRepo(),
		gateway:   &fakeGateway{},
		publisher: &recordingPublisher{},
		prefs:     newFakePreferencesRepo(),
	}
	settings := &fakeSettingsRepo{settings: model.SystemSettings{DefaultCurrency: "BRL", DefaultLocale: "pt-BR"}}
	prefs := NewPreferencesService(f.prefs, settings, zerolog.Nop())
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	f.svc = NewUserService(f.users, f.subs, prefs, f.gateway, tokens, f.publisher, zerolog.Nop())
	return f
}

func TestRegisterAndLogin(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	u, err := f.svc.Register(ctx, RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, []string{events.TypeUserRegistered}, f.publisher.types())

	p, err := f.prefs.GetPreferences(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "BRL", p.Currency)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Bo", Email: "bo@example.com", Password: "short"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	session, err := f.svc.Login(ctx, "ANA@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = f.svc.Login(ctx, "ana@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestReplaceProfileSignsOutOnEmailChange(t *testing.T) {
	f := newUserFixture(&model.User{ID: testUserID, Name: "Ana", Email: "ana@example.com"})
	ctx := context.Background()

	res, err := f.svc.ReplaceProfile(ctx, testUserID, ProfileInput{Name: "Ana Maria", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.False(t, res.SignedOut)
	assert.Equal(t, 0, f.users.users[testUserID].TokenVersion)

	res, err = f.svc.ReplaceProfile(ctx, testUserID, ProfileInput{Name: "Ana Maria", Email: "maria@example.com"})
	require.NoError(t, err)
	assert.True(t, res.SignedOut)
	assert.Equal(t, 1, f.users.users[testUserID].TokenVersion)
	assert.Equal(t, []string{events.TypeProfileUpdated, events.TypeProfileUpdated}, f.publisher.types())
}

func TestReplaceProfilePartialFailureKeepsRow(t *testing.T) {
	f := newUserFixture(&model.User{ID: testUserID, Name: "Ana", Email: "ana@example.com"})
	f.publisher.err = errors.New("broker down")

	_, err := f.svc.ReplaceProfile(context.Background(), testUserID, ProfileInput{Name: "Ana", Email: "new@example.com"})
	require.Error(t, err)
	assert.Equal(t, "new@example.com", f.users.users[testUserID].Email)
	assert.Equal(t, 1, f.users.users[testUserID].TokenVersion)
}

func TestPatchProfileDuplicateEmail(t *testing.T) {
	f := newUserFixture(
		&model.User{ID: testUserID, Name: "Ana", Email: "ana@example.com"},
		&model.User{ID: otherUserID, Name: "Bo", Email: "bo@example.com"},
	)
	_, err := f.svc.PatchProfile(context.Background(), testUserID, ProfilePatch{Email: ptr("bo@example.com")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	u, err := f.svc.PatchProfile(context.Background(), testUserID, ProfilePatch{Name: ptr("Ana B")})
	require.NoError(t, err)
	assert.Equal(t, "Ana B", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestDeleteCancelsSubscriptionFirst(t *testing.T) {
	f := newUserFixture(&model.User{ID: testUserID, Email: "ana@example.com"})
	f.subs.subs[testUserID] = &model.Subscription{UserID: testUserID, StripeSubscriptionID: "sub_1", Status: model.SubscriptionActive}
	f.gateway.cancelErr = errors.New("stripe down")
	ctx := context.Background()

	require.Error(t, f.svc.Delete(ctx, testUserID))
	assert.Contains(t, f.users.users, testUserID)

	f.gateway.cancelErr = nil
	require.NoError(t, f.svc.Delete(ctx, testUserID))
	assert.Equal(t, []string{"sub_1"}, f.gateway.canceled)
	assert.NotContains(t, f.users.users, testUserID)
}

func TestUpdateAccessGuardsSelf(t *testing.T) {
	f := newUserFixture(&model.User{ID: testUserID, Role: "ADMIN", IsActive: true})
	ctx := context.Background()
	var verr *ValidationError

	_, err := f.svc.UpdateAccess(ctx, testUserID, testUserID, ptr("user"), nil)
	assert.ErrorAs(t, err, &verr)
	_, err = f.svc.UpdateAccess(ctx, testUserID, testUserID, nil, ptr(false))
	assert.ErrorAs(t, err, &verr)
	_, err = f.svc.UpdateAccess(ctx, otherUserID, testUserID, ptr("owner"), nil)
	assert.ErrorAs(t, err, &verr)

	u, err := f.svc.UpdateAccess(ctx, otherUserID, testUserID, ptr("USER"), nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)

	users, total, err := f.svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, model.RoleUser, users[0].Role)
}
