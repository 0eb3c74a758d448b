package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"fleet_dispatch/internal/apperr"
	"fleet_dispatch/internal/models"
	"fleet_dispatch/internal/policy"
	"fleet_dispatch/internal/storage"
)

const minPasswordLength = 8

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterInput struct {
	Email         string  `json:"email" binding:"required"`
	Password      string  `json:"password" binding:"required"`
	FullName      string  `json:"full_name" binding:"required"`
	Phone         *string `json:"phone"`
	LicenseNumber string  `json:"license_number" binding:"required"`
	LicenseExpiry string  `json:"license_expiry" binding:"required"`
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	// Register provisions a driver account and its profile.
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	// ResolveActor loads the profile behind a verified identity. A verified
	// identity without a profile yields ProfileMissing.
	ResolveActor(ctx context.Context, identityID string) (policy.Actor, error)
	CreateAdmin(ctx context.Context, email, fullName, password string) (*models.User, error)
}

type authService struct {
	users   storage.IUserStorage
	drivers storage.IDriverStorage
	tokens  TokenIssuer
	log     logrus.FieldLogger
}

func NewAuthService(stg storage.IStorage, tokens TokenIssuer, log logrus.FieldLogger) AuthService {
	return &authService{
		users:   stg.User(),
		drivers: stg.Driver(),
		tokens:  tokens,
		log:     log,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NewUnauthenticated("Invalid email or password")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.NewUnauthenticated("Invalid email or password")
	}
	return s.session(user)
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := newUser(in.Email, in.FullName, models.RoleDriver, in.Phone, &in.Password)
	if err != nil {
		return nil, err
	}
	driver, err := newDriver(in.LicenseNumber, in.LicenseExpiry, nil)
	if err != nil {
		return nil, err
	}
	if err := s.drivers.CreateWithUser(ctx, user.User, driver); err != nil {
		return nil, classify(err, "User not found")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "driver_id": driver.ID}).Info("Driver self-registered")
	return s.session(user.User)
}

func (s *authService) ResolveActor(ctx context.Context, identityID string) (policy.Actor, error) {
	if identityID == "" {
		return policy.Actor{}, apperr.NewUnauthenticated("Unauthorized")
	}
	user, err := s.users.GetByID(ctx, identityID)
	if errors.Is(err, storage.ErrNotFound) {
		return policy.Actor{}, apperr.Missing()
	}
	if err != nil {
		return policy.Actor{}, apperr.Internal(err)
	}
	return policy.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *authService) CreateAdmin(ctx context.Context, email, fullName, password string) (*models.User, error) {
	user, err := newUser(email, fullName, models.RoleAdmin, nil, &password)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user.User); err != nil {
		return nil, classify(err, "User not found")
	}
	return user.User, nil
}

func (s *authService) session(user *models.User) (*Session, error) {
	if s.tokens == nil {
		return nil, apperr.Internal(errors.New("no token issuer configured"))
	}
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Session{Token: token, User: user}, nil
}

// provisioned is a user about to be created. TempPassword is set when the
// password was generated rather than chosen.
type provisioned struct {
	*models.User
	TempPassword string
}

func newUser(email, fullName string, role models.Role, phone, password *string) (*provisioned, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperr.NewValidation("A valid email is required")
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperr.NewValidation("Full name is required")
	}
	if !role.Valid() {
		return nil, apperr.NewValidation("Invalid role. Must be one of: admin, dispatcher, driver")
	}

	p := &provisioned{}
	var plain string
	if password != nil && *password != "" {
		plain = *password
	} else {
		generated, err := generatePassword()
		if err != nil {
			return nil, apperr.Internal(err)
		}
		plain = generated
		p.TempPassword = generated
	}
	hash, err := hashPassword(plain)
	if err != nil {
		return nil, err
	}
	p.User = &models.User{
		Email:        email,
		FullName:     fullName,
		Role:         role,
		Phone:        phone,
		PasswordHash: hash,
	}
	return p, nil
}

func hashPassword(plain string) (string, error) {
	if len(plain) < minPasswordLength {
		return "", apperr.NewValidation("Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(hash), nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
