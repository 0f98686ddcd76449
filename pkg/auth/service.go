// Package auth pkg/auth/service.go registers and authenticates operators and
// issues the signed bearer credentials used on protected routes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/models"
)

var (
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials is returned for both an unknown email and a bad
	// password, so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingFields = errors.New("name and email are required")
)

const bcryptCost = 10

// Claims is the payload carried by a bearer credential.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service implements registration, login and credential verification.
type Service struct {
	store    db.Service
	secret   []byte
	tokenTTL time.Duration
	nowFn    func() time.Time
	logger   *zap.Logger
}

func NewService(store db.Service, secret []byte, tokenTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		nowFn:    time.Now,
		logger:   logger,
	}
}

// Register creates a user with the default role. The password hash never
// leaves this package.
func (s *Service) Register(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return ErrMissingFields
	}

	if _, err := s.store.GetUserByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, db.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.DefaultRole,
	}

	if err := s.store.CreateUser(user); err != nil {
		return err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return nil
}

// Login verifies the password and issues a signed, time-limited token
// encoding the user id and role.
func (s *Service) Login(email, password string) (string, *models.User, error) {
	user, err := s.store.GetUserByEmail(email)
	if errors.Is(err, db.ErrUserNotFound) {
		return "", nil, ErrInvalidCredentials
	}

	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.nowFn()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, user, nil
}

// Verify checks the token signature and expiry and returns its claims.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return s.secret, nil
	}, jwt.WithTimeFunc(s.nowFn))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Me returns the account for a verified user id.
func (s *Service) Me(userID string) (*models.User, error) {
	return s.store.GetUserByID(userID)
}

// UpdateProfile changes name/email after checking the email isn't already
// owned by a different user.
func (s *Service) UpdateProfile(userID, name, email string) (*models.User, error) {
	if name == "" || email == "" {
		return nil, ErrMissingFields
	}

	taken, err := s.store.EmailInUse(email, userID)
	if err != nil {
		return nil, err
	}

	if taken {
		return nil, ErrEmailTaken
	}

	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Email = email

	if err := s.store.UpdateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}
