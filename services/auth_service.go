package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/utils"

	"gorm.io/gorm"
)

// ErrInvalidCredentials is returned for an unknown login or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

// Authenticate checks a login (email or username) and password pair and
// returns the active user with its role loaded.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, invalidInput("login and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Where("(email = ? OR username = ?) AND delete_at IS NULL", strings.ToLower(login), login).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeFailure("load user", err)
	}

	if !utils.IsHashedPassword(user.Password) || !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	RoleID   int
}

// CreateUser stores a new user with a bcrypt-hashed password.
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	username := utils.SanitizeInput(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" {
		return nil, invalidInput("username is required")
	}
	if !utils.ValidateEmail(email) {
		return nil, invalidInput("email %q is not valid", in.Email)
	}
	if ok, reason := utils.ValidatePassword(in.Password); !ok {
		return nil, invalidInput("%s", reason)
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, storeFailure("hash password", err)
	}

	now := time.Now()
	user := models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		RoleID:   in.RoleID,
		CreateAt: &now,
		UpdateAt: &now,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidInput("username or email already in use")
		}
		return nil, storeFailure("create user", err)
	}
	return &user, nil
}

// GetUser returns an active user with its role loaded.
func (s *AuthService) GetUser(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ? AND delete_at IS NULL", userID).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user %d does not exist", userID)
	}
	if err != nil {
		return nil, storeFailure("load user", err)
	}
	return &user, nil
}
