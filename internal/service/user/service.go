package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/medivet/vetcare-api/internal/email"
	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/repository"
	"github.com/medivet/vetcare-api/pkg/auth"
	"github.com/medivet/vetcare-api/pkg/clock"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/logger"
	"github.com/medivet/vetcare-api/pkg/security"
)

const bcryptCost = 12

// Service handles accounts and authentication for clinic staff.
type Service struct {
	users    repository.UserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
	emailSvc email.Service
	clock    clock.Clock
	logger   *logger.Logger
}

func NewService(
	users repository.UserRepository,
	jwtSvc auth.JWTService,
	emailSvc email.Service,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		users:    users,
		jwtSvc:   jwtSvc,
		hasher:   security.NewBcryptHasher(bcryptCost),
		emailSvc: emailSvc,
		clock:    clk,
		logger:   log.WithComponent("user"),
	}
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	if user.Status != model.UserStatusActive {
		return nil, apperrors.Unauthorized(nil)
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	now := s.clock.Now()
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(err, "failed to record login timestamp")
	}

	token, expiresAt, err := s.jwtSvc.GenerateToken(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{AccessToken: token, ExpiresAt: expiresAt}, nil
}

// CreateUser registers a staff account and sends a welcome email. The email
// is best effort; account creation never fails on a mail error.
func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, apperrors.BadRequest("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	now := s.clock.Now()
	user := &model.User{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         req.Role,
		Status:       model.UserStatusActive,
		PasswordHash: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.FullName); err != nil {
		s.logger.Error(err, "failed to send welcome email", "email", user.Email)
	}

	s.logger.Info("user created", "user_id", user.ID.String(), "role", user.Role)
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]*model.User, error) {
	return s.users.List(ctx, role)
}

// DeactivateUser blocks further logins without deleting history. Patients
// still reference the account as caretaker or prescriber.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return err
	}
	user.Status = model.UserStatusInactive
	user.UpdatedAt = s.clock.Now()
	return s.users.Update(ctx, user)
}
