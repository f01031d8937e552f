package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"studiorit/internal/apperr"
	"studiorit/internal/authz"
	"studiorit/internal/clock"
	"studiorit/internal/idgen"
	"studiorit/internal/logging"
	"studiorit/internal/models"
	"studiorit/internal/repositories"
)

const minPasswordLength = 6

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = apperr.Validation("", "invalid email or password")

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Profile(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, actor authz.Actor, userID, role string) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

// NewUserService takes an optional emailService for welcome mails.
func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := models.NormalizeEmail(req.Email)
	switch {
	case name == "":
		return nil, apperr.Validation("name", "name is required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, apperr.Validation("email", "a valid email is required")
	case len(req.Password) < minPasswordLength:
		return nil, apperr.Validation("password", "password must be at least 6 characters")
	case !req.Department.Valid():
		return nil, apperr.Validation("department", "invalid department")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("new email", "registered email", "user already exists with this email")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := s.authService.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := clock.Now()
	user := &models.User{
		ID:           idgen.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleVolunteer,
		Department:   req.Department,
		Phone:        strings.TrimSpace(req.Phone),
		IsActive:     true,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperr.Conflict("new email", "registered email", "user already exists with this email")
		}
		return nil, apperr.Internal(err)
	}
	logging.Logger.WithField("user_id", user.ID).Info("[user][register][ok]")

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
			// warn but do not fail registration
			logging.Logger.WithError(err).Warnf("[user][register][welcome_err] email=%s", user.Email)
		}
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}
	if !u.IsActive {
		return nil, apperr.Forbidden("your account has been deactivated")
	}
	if !s.authService.CheckPassword(u.PasswordHash, password) {
		logging.Logger.WithField("user_id", u.ID).Warn("[user][login][bad_password]")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *userService) Profile(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "user")
	}
	return u, nil
}

func (s *userService) UpdateUserRole(ctx context.Context, actor authz.Actor, userID, role string) (*models.User, error) {
	if err := authz.CanUpdateRole(actor); err != nil {
		return nil, err
	}
	r, ok := authz.ParseRole(role)
	if !ok {
		return nil, apperr.Validation("role", "invalid role")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId", "userId is required")
	}
	u, err := s.repo.UpdateRole(ctx, userID, r)
	if err != nil {
		return nil, repoErr(err, "user")
	}
	logging.Logger.WithFields(logrus.Fields{"user_id": u.ID, "role": r, "by": actor.ID}).Info("[user][update_role][ok]")
	return u, nil
}
