package user

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/pkg/auth"
	"github.com/medivet/vetcare-api/pkg/clock"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/logger"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func (r *fakeUserRepo) GetAdmin(_ context.Context) (*model.User, error) {
	for _, u := range r.users {
		if u.Role == model.RoleAdmin && u.Status == model.UserStatusActive {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("admin user", nil)
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return apperrors.NotFound("user", nil)
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, role string) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

type fakeEmail struct {
	welcomes []string
	err      error
}

func (e *fakeEmail) SendWelcome(_ context.Context, to string, _ string) error {
	e.welcomes = append(e.welcomes, to)
	return e.err
}

func (e *fakeEmail) SendCustom(context.Context, string, string, string) error { return nil }

type fixture struct {
	repo    *fakeUserRepo
	email   *fakeEmail
	service *Service
	clock   *clock.Mock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeUserRepo()
	mail := &fakeEmail{}
	clk := clock.NewMock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, TimeFormat: time.RFC3339, Output: io.Discard})
	jwtSvc := auth.NewJWTService("test-secret", time.Hour, clk)
	return &fixture{
		repo:    repo,
		email:   mail,
		service: NewService(repo, jwtSvc, mail, clk, log),
		clock:   clk,
	}
}

func (f *fixture) createUser(t *testing.T, email, role string) *model.User {
	t.Helper()
	u, err := f.service.CreateUser(context.Background(), &model.CreateUserRequest{
		Email:    email,
		FullName: "Dr. Example",
		Role:     role,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return u
}

func TestCreateUserHashesPasswordAndSendsWelcome(t *testing.T) {
	f := newFixture(t)

	u := f.createUser(t, "vet@clinic.example", model.RoleVet)

	assert.NotEmpty(t, u.PasswordHash)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)
	assert.Equal(t, model.UserStatusActive, u.Status)
	assert.Equal(t, []string{"vet@clinic.example"}, f.email.welcomes)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "vet@clinic.example", model.RoleVet)

	_, err := f.service.CreateUser(context.Background(), &model.CreateUserRequest{
		Email:    "vet@clinic.example",
		FullName: "Other",
		Role:     model.RoleVet,
		Password: "another-pass",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
}

func TestCreateUserSurvivesEmailFailure(t *testing.T) {
	f := newFixture(t)
	f.email.err = assert.AnError

	u := f.createUser(t, "vet@clinic.example", model.RoleVet)
	assert.Contains(t, f.repo.users, u.ID)
}

func TestCreateUserRejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateUser(context.Background(), &model.CreateUserRequest{
		Email:    "vet@clinic.example",
		FullName: "Dr. Example",
		Role:     model.RoleVet,
		Password: "short",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
}

func TestLoginIssuesToken(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "vet@clinic.example", model.RoleVet)

	resp, err := f.service.Login(context.Background(), &model.LoginRequest{
		Email:    "vet@clinic.example",
		Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, f.clock.Now().Add(time.Hour), resp.ExpiresAt)
	require.NotNil(t, f.repo.users[u.ID].LastLoginAt)
	assert.Equal(t, f.clock.Now(), *f.repo.users[u.ID].LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "vet@clinic.example", model.RoleVet)

	_, err := f.service.Login(context.Background(), &model.LoginRequest{
		Email:    "vet@clinic.example",
		Password: "wrong-password",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.Code(err))
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@clinic.example",
		Password: "whatever",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.Code(err))
}

func TestLoginInactiveUserRejected(t *testing.T) {
	f := newFixture(t)
	u := f.createUser(t, "vet@clinic.example", model.RoleVet)
	require.NoError(t, f.service.DeactivateUser(context.Background(), u.ID))

	_, err := f.service.Login(context.Background(), &model.LoginRequest{
		Email:    "vet@clinic.example",
		Password: "correct-horse",
	})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrUnauthorized, apperrors.Code(err))
}

func TestListUsersByRole(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "vet@clinic.example", model.RoleVet)
	f.createUser(t, "helper@clinic.example", model.RoleAssistant)

	assistants, err := f.service.ListUsers(context.Background(), model.RoleAssistant)
	require.NoError(t, err)
	require.Len(t, assistants, 1)
	assert.Equal(t, "helper@clinic.example", assistants[0].Email)
}
