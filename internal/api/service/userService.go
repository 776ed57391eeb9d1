package service

import (
	"context"
	"errors"
	"strings"

	"reviewhub/internal/api/dto"
	"reviewhub/internal/api/models"
	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/repository"

	"gorm.io/gorm"
)

type UserService interface {
	Create(ctx context.Context, d dto.CreateUserDTO) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedUserResponse, error)
	Update(ctx context.Context, username string, d dto.UpdateUserDTO) (*models.User, error)
	UpdateSelf(ctx context.Context, userID string, d dto.UpdateSelfDTO) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Create adds a user on behalf of an admin. The account is usable for
// signup confirmation like any self-registered one.
func (s *userService) Create(ctx context.Context, d dto.CreateUserDTO) (*models.User, error) {
	if strings.EqualFold(d.Username, reservedUsername) {
		return nil, ErrReservedUsername
	}

	role := d.Role
	if role == "" {
		role = string(permissions.RoleUser)
	}

	user := &models.User{
		Username:  d.Username,
		Email:     d.Email,
		Role:      role,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Bio:       d.Bio,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, search string, page, pageSize int) (*dto.PaginatedUserResponse, error) {
	users, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *dto.FromModelToUserResponse(&users[i]))
	}
	return dto.NewPaginatedUserResponse(responses, int(total), page, pageSize), nil
}

// Update applies an admin edit, role changes included. Any update
// invalidates an outstanding confirmation code.
func (s *userService) Update(ctx context.Context, username string, d dto.UpdateUserDTO) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if d.Email != nil {
		user.Email = *d.Email
	}
	if d.Role != nil {
		user.Role = *d.Role
	}
	applyProfile(user, d.FirstName, d.LastName, d.Bio)

	user.ConfirmationCodeHash = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateSelf applies a self-service edit. The DTO cannot carry a role,
// so self-elevation is structurally impossible; the request still
// succeeds with the role untouched.
func (s *userService) UpdateSelf(ctx context.Context, userID string, d dto.UpdateSelfDTO) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if d.Email != nil {
		user.Email = *d.Email
	}
	applyProfile(user, d.FirstName, d.LastName, d.Bio)

	user.ConfirmationCodeHash = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes the account. Reviews and comments written by the user
// stay behind with a null author reference.
func (s *userService) Delete(ctx context.Context, username string) error {
	if err := s.userRepo.Delete(ctx, username); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func applyProfile(user *models.User, firstName, lastName, bio *string) {
	if firstName != nil {
		user.FirstName = *firstName
	}
	if lastName != nil {
		user.LastName = *lastName
	}
	if bio != nil {
		user.Bio = *bio
	}
}
