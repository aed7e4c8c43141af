package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/saulo-duarte/goal-tracker/internal/auth"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingFields      = errors.New("missing required fields")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserNotFound       = errors.New("user not found")
)

type Service interface {
	Register(ctx context.Context, dto RegisterDTO) (*UserResponse, error)
	Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error)
	Me(ctx context.Context, id int64) (*UserResponse, error)
	Update(ctx context.Context, id int64, dto UpdateDTO) (*UserResponse, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, dto RegisterDTO) (*UserResponse, error) {
	log := config.WithContext(ctx)

	var missing []string
	if strings.TrimSpace(dto.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(dto.Email) == "" {
		missing = append(missing, "email")
	}
	if dto.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}

	if existing, err := s.repo.FindByUsername(dto.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.repo.FindByEmail(dto.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := User{Username: dto.Username, Email: dto.Email, HashedPassword: string(hash)}
	if err := s.repo.Create(&u); err != nil {
		return nil, err
	}

	log.WithField("user_id", u.ID).Info("User registered")
	return toResponse(&u), nil
}

func (s *service) Login(ctx context.Context, dto LoginDTO) (*LoginResponse, error) {
	log := config.WithContext(ctx)

	if dto.Username == "" || dto.Password == "" {
		return nil, fmt.Errorf("%w: username, password", ErrMissingFields)
	}

	u, err := s.repo.FindByUsername(dto.Username)
	if err != nil {
		return nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(dto.Password)) != nil {
		log.WithField("username", dto.Username).Warn("Failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(strconv.FormatInt(u.ID, 10), u.Username, auth.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	log.WithField("user_id", u.ID).Info("User logged in")
	return &LoginResponse{Success: true, Token: token, UserID: u.ID, Username: u.Username}, nil
}

func (s *service) Me(ctx context.Context, id int64) (*UserResponse, error) {
	u, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return toResponse(u), nil
}

// Update applies the fields present in dto. A username or email owned by
// another account is rejected before anything is written.
func (s *service) Update(ctx context.Context, id int64, dto UpdateDTO) (*UserResponse, error) {
	log := config.WithContext(ctx).WithField("user_id", id)

	u, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	if dto.Username != nil {
		name := strings.TrimSpace(*dto.Username)
		if name == "" {
			return nil, fmt.Errorf("%w: username", ErrMissingFields)
		}
		if other, err := s.repo.FindByUsername(name); err != nil {
			return nil, err
		} else if other != nil && other.ID != id {
			return nil, ErrUsernameTaken
		}
		u.Username = name
	}
	if dto.Email != nil {
		email := strings.TrimSpace(*dto.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email", ErrMissingFields)
		}
		if other, err := s.repo.FindByEmail(email); err != nil {
			return nil, err
		} else if other != nil && other.ID != id {
			return nil, ErrEmailTaken
		}
		u.Email = email
	}
	if dto.Password != nil {
		if *dto.Password == "" {
			return nil, fmt.Errorf("%w: password", ErrMissingFields)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*dto.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.HashedPassword = string(hash)
	}

	if err := s.repo.Update(u); err != nil {
		return nil, err
	}
	log.Info("User updated")
	return toResponse(u), nil
}

// Delete removes the account together with its goals and progress history.
func (s *service) Delete(ctx context.Context, id int64) error {
	u, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	config.WithContext(ctx).WithField("user_id", id).Info("User deleted")
	return nil
}

func toResponse(u *User) *UserResponse {
	return &UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}
