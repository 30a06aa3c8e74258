package users

import (
	"context"
	"errors"

	"github.com/upb/user-api/models"
	"github.com/upb/user-api/repositories"
	"github.com/upb/user-api/services"
	"github.com/upb/user-api/utils"
	"go.uber.org/zap"
)

// UserService holds the business rules around the users table
type UserService struct {
	repo   repositories.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// List returns all users
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list users", err)
	}
	return users, nil
}

// Get returns one user or ErrUserNotFound
func (s *UserService) Get(ctx context.Context, id int32) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("failed to get user", err)
	}
	return user, nil
}

// Register validates the request and inserts a new user
func (s *UserService) Register(ctx context.Context, reg models.RegisterUser) (*models.User, error) {
	reg.Normalize()

	if err := utils.ValidateStruct(&reg); err != nil {
		domainErr := services.NewDomainError(services.ErrorTypeValidation, "Validation failed", err)
		for field, msg := range utils.GetValidationFields(err) {
			domainErr.WithDetail(field, msg)
		}
		return nil, domainErr
	}

	user := models.NewUser(reg)
	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, services.WrapInternal("failed to create user", err)
	}

	s.logger.Debug("user registered", zap.Int32("id", user.ID))
	return user, nil
}

// Delete removes a user or returns ErrUserNotFound
func (s *UserService) Delete(ctx context.Context, id int32) error {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return s.mapRepoError("failed to delete user", err)
	}

	s.logger.Debug("user deleted", zap.Int32("id", id))
	return nil
}

func (s *UserService) mapRepoError(message string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return services.NewDomainError(services.ErrorTypeNotFound, services.ErrUserNotFound.Message, err)
	}
	return services.WrapInternal(message, err)
}
