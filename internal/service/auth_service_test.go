package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tour-booking-service/internal/auth"
	"github.com/spec-kit/tour-booking-service/internal/config"
	"github.com/spec-kit/tour-booking-service/internal/domain"
	"github.com/spec-kit/tour-booking-service/internal/events"
	apperrors "github.com/spec-kit/tour-booking-service/pkg/util"
)

// fakeUserRepo is an in-memory credential store for service tests.
type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok || !user.Active {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email && user.Active {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByResetDigest(_ context.Context, digest string, now time.Time) (*domain.User, error) {
	for _, user := range r.users {
		if user.Active && user.PasswordResetDigest != nil && *user.PasswordResetDigest == digest &&
			user.PasswordResetExpiresAt != nil && user.PasswordResetExpiresAt.After(now) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	stored, ok := r.users[user.ID]
	if !ok || !stored.Active {
		return pgx.ErrNoRows
	}
	stored.Name, stored.Email, stored.Photo = user.Name, user.Email, user.Photo
	return nil
}

func (r *fakeUserRepo) UpdateCredentials(_ context.Context, user *domain.User) error {
	stored, ok := r.users[user.ID]
	if !ok || !stored.Active {
		return pgx.ErrNoRows
	}
	stored.PasswordHash = user.PasswordHash
	stored.PasswordChangedAt = user.PasswordChangedAt
	stored.PasswordResetDigest = user.PasswordResetDigest
	stored.PasswordResetExpiresAt = user.PasswordResetExpiresAt
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id, digest string, expiresAt time.Time) error {
	stored, ok := r.users[id]
	if !ok || !stored.Active {
		return pgx.ErrNoRows
	}
	stored.PasswordResetDigest = &digest
	stored.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) ClearResetToken(_ context.Context, id string) error {
	stored, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.PasswordResetDigest = nil
	stored.PasswordResetExpiresAt = nil
	return nil
}

func (r *fakeUserRepo) Deactivate(_ context.Context, id string) error {
	stored, ok := r.users[id]
	if !ok || !stored.Active {
		return pgx.ErrNoRows
	}
	stored.Active = false
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for _, user := range r.users {
		if user.Active {
			clone := *user
			users = append(users, &clone)
		}
	}
	return users, nil
}

// fakeMailer records deliveries and can be told to fail.
type fakeMailer struct {
	failWelcome bool
	failReset   bool
	welcomes    []string
	resetURLs   []string
}

func (m *fakeMailer) SendWelcome(_ context.Context, to *domain.User, _ string) error {
	if m.failWelcome {
		return errors.New("smtp unavailable")
	}
	m.welcomes = append(m.welcomes, to.Email)
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, _ *domain.User, resetURL string) error {
	if m.failReset {
		return errors.New("smtp unavailable")
	}
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

// lastResetSecret extracts the plaintext secret from the delivered URL.
func (m *fakeMailer) lastResetSecret(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.resetURLs)
	url := m.resetURLs[len(m.resetURLs)-1]
	idx := strings.LastIndex(url, "/")
	require.Greater(t, idx, 0)
	return url[idx+1:]
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 10,
			BcryptCost:              bcrypt.MinCost,
		},
		Notification: config.NotificationConfig{
			PublicBaseURL: "http://localhost:8080",
		},
	}
}

func newTestAuthService(repo *fakeUserRepo, mailer *fakeMailer) *AuthService {
	return NewAuthService(testConfig(), AuthDependencies{
		UserRepo:   repo,
		Mailer:     mailer,
		Dispatcher: events.NewInMemoryDispatcher(),
		Logger:     zap.NewNop(),
	})
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).Code
}

func TestSignupIssuesVerifiableToken(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)

	user, token, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Nil(t, user.PasswordChangedAt)
	assert.Equal(t, []string{"a@x.com"}, mailer.welcomes)

	claims, err := svc.TokenManager().Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.SubjectID())
}

func TestSignupRejectsMismatchedConfirmation(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), &fakeMailer{})

	_, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret124")
	assert.Equal(t, "BAD_REQUEST", errCode(t, err))
}

func TestSignupRejectsShortPassword(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), &fakeMailer{})

	_, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "short1", "short1")
	assert.Equal(t, "BAD_REQUEST", errCode(t, err))
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})

	_, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)

	_, _, _, err = svc.Signup(context.Background(), "B", "a@x.com", "secret123", "secret123")
	assert.Equal(t, "BAD_REQUEST", errCode(t, err))
}

func TestSignupRollsBackOnWelcomeDeliveryFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{failWelcome: true})

	_, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	assert.Equal(t, "DELIVERY_FAILURE", errCode(t, err))
	assert.Empty(t, repo.users, "account must not survive a failed welcome delivery")
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	_, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)

	user, token, _, err := svc.Login(context.Background(), "a@x.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "a@x.com", user.Email)

	_, _, _, err = svc.Login(context.Background(), "a@x.com", "wrongpass1")
	assert.Equal(t, "UNAUTHENTICATED", errCode(t, err))

	_, _, _, err = svc.Login(context.Background(), "nobody@x.com", "secret123")
	assert.Equal(t, "UNAUTHENTICATED", errCode(t, err))
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), &fakeMailer{})

	err := svc.ForgotPassword(context.Background(), "nobody@x.com")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestForgotPasswordStoresDigestAndDeliversSecret(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	user, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))

	secret := mailer.lastResetSecret(t)
	stored := repo.users[user.ID]
	require.NotNil(t, stored.PasswordResetDigest)
	assert.Equal(t, auth.HashResetSecret(secret), *stored.PasswordResetDigest)
	require.NotNil(t, stored.PasswordResetExpiresAt)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.PasswordResetExpiresAt, 5*time.Second)
}

func TestForgotPasswordRollsBackOnDeliveryFailure(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{failReset: true})
	user, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)

	err = svc.ForgotPassword(context.Background(), "a@x.com")
	assert.Equal(t, "DELIVERY_FAILURE", errCode(t, err))

	stored := repo.users[user.ID]
	assert.Nil(t, stored.PasswordResetDigest)
	assert.Nil(t, stored.PasswordResetExpiresAt)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	created, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
	secret := mailer.lastResetSecret(t)

	user, token, _, err := svc.ResetPassword(context.Background(), secret, "newsecret1", "newsecret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)

	stored := repo.users[created.ID]
	assert.Nil(t, stored.PasswordResetDigest)
	assert.Nil(t, stored.PasswordResetExpiresAt)
	require.NotNil(t, stored.PasswordChangedAt)
	assert.NoError(t, auth.ComparePassword(stored.PasswordHash, "newsecret1"))

	// Second presentation of the same secret must fail.
	_, _, _, err = svc.ResetPassword(context.Background(), secret, "another1", "another1")
	assert.Equal(t, "BAD_REQUEST", errCode(t, err))
}

func TestResetPasswordRejectsExpiredSecret(t *testing.T) {
	repo := newFakeUserRepo()
	mailer := &fakeMailer{}
	svc := newTestAuthService(repo, mailer)
	created, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "a@x.com"))
	secret := mailer.lastResetSecret(t)

	past := time.Now().Add(-time.Minute)
	repo.users[created.ID].PasswordResetExpiresAt = &past

	_, _, _, err = svc.ResetPassword(context.Background(), secret, "newsecret1", "newsecret1")
	assert.Equal(t, "BAD_REQUEST", errCode(t, err))
}

func TestResetPasswordRejectsUnknownSecret(t *testing.T) {
	svc := newTestAuthService(newFakeUserRepo(), &fakeMailer{})

	_, _, _, err := svc.ResetPassword(context.Background(), "bogus-secret", "newsecret1", "newsecret1")
	assert.Equal(t, "BAD_REQUEST", errCode(t, err))
}

func TestUpdatePasswordRequiresCorrectCurrent(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	created, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)

	_, _, _, err = svc.UpdatePassword(context.Background(), created.ID, "wrongpass1", "newsecret1", "newsecret1")
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	user, token, _, err := svc.UpdatePassword(context.Background(), created.ID, "secret123", "newsecret1", "newsecret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user.PasswordChangedAt)
}

func TestPasswordChangeInvalidatesEarlierTokens(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo, &fakeMailer{})
	created, _, _, err := svc.Signup(context.Background(), "A", "a@x.com", "secret123", "secret123")
	require.NoError(t, err)

	// A token minted well before the change must read as stale, while the
	// token issued by the update itself must not; the watermark back-dating
	// keeps the change behind its own token.
	issuedEarlier := time.Now().Add(-time.Hour)

	_, newToken, _, err := svc.UpdatePassword(context.Background(), created.ID, "secret123", "newsecret1", "newsecret1")
	require.NoError(t, err)

	stored := repo.users[created.ID]
	assert.True(t, auth.ChangedAfter(stored.PasswordChangedAt, issuedEarlier),
		"token issued before the change must be stale")

	newClaims, err := svc.TokenManager().Verify(newToken)
	require.NoError(t, err)
	assert.False(t, auth.ChangedAfter(stored.PasswordChangedAt, newClaims.IssuedAtTime()),
		"token issued by the change itself must stay valid")
}
