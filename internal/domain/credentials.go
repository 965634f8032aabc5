package domain

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MaxUsernameLength mirrors the users.username column size.
const MaxUsernameLength = 50

// bcrypt only considers the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

// CredentialService verifies logins and registers new accounts.
type CredentialService struct {
	users     UserRepository
	cost      int
	now       Clock
	dummyHash []byte
}

// NewCredentialService constructs a CredentialService. cost <= 0 uses bcrypt.DefaultCost.
func NewCredentialService(users UserRepository, cost int, now Clock) *CredentialService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if now == nil {
		now = SystemClock
	}
	// Compared against when the username is unknown so both failure paths cost a bcrypt round.
	dummy, err := bcrypt.GenerateFromPassword([]byte("fitlog-dummy-password"), cost)
	if err != nil {
		panic(err)
	}
	return &CredentialService{users: users, cost: cost, now: now, dummyHash: dummy}
}

// Verify returns the user when password matches the stored hash.
func (s *CredentialService) Verify(ctx context.Context, username, password string) (*User, error) {
	logCtx := logrus.WithField("username", username)

	user, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		logCtx.WithError(err).Error("credential lookup failed")
		return nil, storageFault("find user", err)
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		logCtx.Warn("login failed: unknown user")
		return nil, ErrAuthFailure
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logCtx.Warn("login failed: password mismatch")
		return nil, ErrAuthFailure
	}
	return user, nil
}

// Register creates a new user with a bcrypt hash of password.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, invalid("username", "is required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return nil, invalid("username", "is too long")
	}
	if password == "" {
		return nil, invalid("password", "is required")
	}
	if len(password) > maxPasswordBytes {
		return nil, invalid("password", "is too long")
	}

	logCtx := logrus.WithField("username", username)

	existing, err := s.users.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, storageFault("find user", err)
	}
	if existing != nil {
		logCtx.Warn("registration rejected: username taken")
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrConflict) {
			logCtx.Warn("registration rejected: username taken")
			return nil, ErrConflict
		}
		return nil, storageFault("create user", err)
	}

	logCtx.WithField("user_id", user.ID).Info("user registered")
	return &user, nil
}
