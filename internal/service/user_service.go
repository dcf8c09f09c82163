package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"academia/internal/docstore"
	"academia/internal/models"
	"academia/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account creation and credential verification.
type UserService struct {
	store     docstore.Store
	jwtSecret string
}

func NewUserService(store docstore.Store, jwtSecret string) *UserService {
	return &UserService{store: store, jwtSecret: jwtSecret}
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if in.Username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, models.NewValidationError("A valid email is required")
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if existing, err := s.findByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, models.NewValidationError("An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := s.store.Put(ctx, docstore.CollectionUsers, user.ID, user); err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", models.NewUnauthorizedError("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, "", models.NewUnauthorizedError("Invalid email or password")
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// IssueToken signs a JWT whose subject is the user ID.
func (s *UserService) IssueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.store.Get(ctx, docstore.CollectionUsers, id, &user); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, models.NewNotFoundError("user", id)
		}
		return nil, models.NewStoreUnavailableError(err)
	}
	return &user, nil
}

func (s *UserService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	var found *models.User
	err := s.store.List(ctx, docstore.CollectionUsers, func(data []byte) error {
		if found != nil {
			return nil
		}
		var u models.User
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		if u.Email == email {
			found = &u
		}
		return nil
	})
	if err != nil {
		return nil, models.NewStoreUnavailableError(err)
	}
	return found, nil
}
