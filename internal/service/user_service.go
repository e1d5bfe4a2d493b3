package service

import (
	"context"
	"fmt"

	"blogicum/internal/authz"
	"blogicum/internal/middleware"
	"blogicum/internal/models"
	"blogicum/internal/repository"
	"blogicum/internal/routes"
	"blogicum/internal/validation"

	"github.com/jinzhu/copier"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgUsernameTaken  = "A user with that username already exists."
	msgBadCredentials = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

type UserService struct {
	userRepo repository.UserRepository
	hashCost int
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, hashCost: bcrypt.DefaultCost}
}

// Register creates an account from the registration form.
func (s *UserService) Register(ctx context.Context, form validation.RegistrationForm) (*models.User, error) {
	if err := validation.Validate(&form); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, form.Username, 0); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(form.Password1), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(fmt.Errorf("hash password: %w", err))
	}
	user := &models.User{
		Username: form.Username,
		Email:    form.Email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			return nil, models.NewFieldValidationError(map[string]string{"username": msgUsernameTaken})
		}
		return nil, err
	}
	middleware.Logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate checks the login form against the stored password hash.
func (s *UserService) Authenticate(ctx context.Context, form validation.LoginForm) (*models.User, error) {
	if err := validation.Validate(&form); err != nil {
		return nil, err
	}
	invalid := models.NewFieldValidationError(map[string]string{"__all__": msgBadCredentials})

	user, err := s.userRepo.GetByUsername(ctx, form.Username)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

// GetProfileForEdit returns the viewer's own account.
func (s *UserService) GetProfileForEdit(ctx context.Context, viewer authz.Viewer) (*models.User, error) {
	if authz.RequireLogin(viewer) == authz.RedirectToLogin {
		return nil, models.NewLoginRequiredError(routes.EditProfile)
	}
	return s.userRepo.GetByID(ctx, viewer.ID)
}

// UpdateProfile applies the profile form to the viewer's own account.
func (s *UserService) UpdateProfile(ctx context.Context, viewer authz.Viewer, form validation.ProfileForm) (*models.User, error) {
	user, err := s.GetProfileForEdit(ctx, viewer)
	if err != nil {
		return nil, err
	}
	if err := validation.Validate(&form); err != nil {
		return nil, err
	}
	if form.Username != user.Username {
		if err := s.ensureUsernameFree(ctx, form.Username, user.ID); err != nil {
			return nil, err
		}
	}

	if err := copier.Copy(user, &form); err != nil {
		return nil, models.NewInternalError(fmt.Errorf("apply profile form: %w", err))
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		if models.ErrorCode(err) == models.CodeConflict {
			return nil, models.NewFieldValidationError(map[string]string{"username": msgUsernameTaken})
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ensureUsernameFree(ctx context.Context, username string, selfID uint) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	switch {
	case models.IsNotFound(err):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	return models.NewFieldValidationError(map[string]string{"username": msgUsernameTaken})
}
