package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"kaoqin/internal/model"
)

// ErrBadCredentials is returned when the username is unknown, the account
// is disabled, or the password does not match.
var ErrBadCredentials = errors.New("store: bad credentials")

// CreateUser registers a login account with a bcrypt-hashed password.
func (s *Store) CreateUser(username, password, role string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("store: username and password required")
	}
	if role == "" {
		role = "user"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("store: hash password: %w", err)
	}

	user := &model.User{
		UserID:       uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyUser checks a username/password pair against the stored hash.
func (s *Store) VerifyUser(username, password string) (*model.User, error) {
	var user model.User
	err := s.db.First(&user, "username = ?", username).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrBadCredentials
	case err != nil:
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// HasUsers reports whether any login account exists. When false, the web
// layer falls back to the credentials from the config file.
func (s *Store) HasUsers() (bool, error) {
	var n int64
	if err := s.db.Model(&model.User{}).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
