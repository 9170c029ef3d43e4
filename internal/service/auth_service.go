package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fitsync/internal/event"
	"fitsync/internal/model"
	"fitsync/pkg/apierror"
)

const defaultSearchLimit = 20

type userStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByPhone(ctx context.Context, phone string) (model.User, error)
	Create(ctx context.Context, u model.User) (int64, error)
	Update(ctx context.Context, u model.User) error
	SearchByName(ctx context.Context, name string, limit int) ([]model.Profile, error)
	List(ctx context.Context) ([]model.Profile, error)
}

// AuthService owns local accounts: registration, phone/password login and
// profile maintenance. Provider linking lives in OAuthService.
type AuthService struct {
	users      userStore
	bus        event.Bus
	bcryptCost int
}

func NewAuthService(users userStore, bus event.Bus) *AuthService {
	return &AuthService{users: users, bus: bus, bcryptCost: 12}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.Profile, error) {
	username := strings.TrimSpace(req.Username)
	phone := strings.TrimSpace(req.PhoneNumber)
	password := req.Password

	// Passwords are hashed exactly as given; only an all-blank one is rejected.
	if username == "" || phone == "" || strings.TrimSpace(password) == "" {
		return model.Profile{}, apierror.BadRequest("username, phone_number and password are required", "")
	}
	if req.Diet == "" {
		req.Diet = model.DietNonVeg
	}
	if !req.Diet.Valid() {
		return model.Profile{}, apierror.BadRequest("invalid diet", string(req.Diet))
	}
	if req.DOB != "" {
		if _, err := time.Parse(dateLayout, req.DOB); err != nil {
			return model.Profile{}, apierror.BadRequest("DOB must be formatted as YYYY-MM-DD", req.DOB)
		}
	}
	if req.Height < 0 || req.Weight < 0 {
		return model.Profile{}, apierror.BadRequest("height and weight cannot be negative", "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.Profile{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		Username:     username,
		PhoneNumber:  phone,
		Email:        strings.TrimSpace(req.Email),
		DOB:          req.DOB,
		Height:       req.Height,
		Weight:       req.Weight,
		Diet:         req.Diet,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		return model.Profile{}, err
	}
	user.ID = id

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeUserRegistered, id, map[string]any{"username": username}))
	}

	return user.Profile(), nil
}

func (s *AuthService) Login(ctx context.Context, phone string, password string) (model.Profile, error) {
	user, err := s.users.FindByPhone(ctx, strings.TrimSpace(phone))
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Profile{}, invalidCredentials()
	}
	if err != nil {
		return model.Profile{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.Profile{}, invalidCredentials()
	}

	return user.Profile(), nil
}

// UpdateProfile applies the non-nil fields of req to the stored user.
func (s *AuthService) UpdateProfile(ctx context.Context, req model.UpdateUserRequest) (model.Profile, error) {
	if req.UserID <= 0 {
		return model.Profile{}, apierror.BadRequest("user_id is required", "")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Profile{}, apierror.NotFound("user not found", "")
	}
	if err != nil {
		return model.Profile{}, err
	}

	if req.Username != nil {
		name := strings.TrimSpace(*req.Username)
		if name == "" {
			return model.Profile{}, apierror.BadRequest("username cannot be empty", "")
		}
		user.Username = name
	}
	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Height != nil {
		user.Height = *req.Height
	}
	if req.Weight != nil {
		user.Weight = *req.Weight
	}
	if req.Diet != nil {
		if !req.Diet.Valid() {
			return model.Profile{}, apierror.BadRequest("invalid diet", string(*req.Diet))
		}
		user.Diet = *req.Diet
	}
	if user.Height < 0 || user.Weight < 0 {
		return model.Profile{}, apierror.BadRequest("height and weight cannot be negative", "")
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.Profile{}, apierror.NotFound("user not found", "")
		}
		return model.Profile{}, err
	}

	return user.Profile(), nil
}

func (s *AuthService) Search(ctx context.Context, name string) ([]model.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierror.BadRequest("name is required", "")
	}
	return s.users.SearchByName(ctx, name, defaultSearchLimit)
}

func (s *AuthService) List(ctx context.Context) ([]model.Profile, error) {
	return s.users.List(ctx)
}

func invalidCredentials() error {
	return apierror.Unauthorized("invalid credentials")
}
