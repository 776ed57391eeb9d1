package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reviewhub/internal/api/models"
	"reviewhub/internal/api/permissions"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/config"
	"reviewhub/internal/mailer"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrReservedUsername = errors.New("username is reserved")
	ErrEmailMismatch    = errors.New("email does not match the registered account")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidCode      = errors.New("invalid confirmation code")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrDeliveryFailed   = errors.New("confirmation code delivery failed")
)

// reservedUsername is never assignable: it doubles as the /users/me path
// segment. Checked case-insensitively.
const reservedUsername = "me"

const (
	confirmationMailSubject = "Your confirmation code"
	confirmationMailBody    = "Your confirmation code for obtaining an access token: %s"
)

// Claims carried inside an issued access token. The role is a snapshot
// at issue time; authorization re-reads the current role per request.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Signup creates (or re-confirms) an account and emails a fresh
	// single-use confirmation code to it.
	Signup(ctx context.Context, username, email string) (*models.User, error)
	// ExchangeCode trades a valid (username, code) pair for a bearer token.
	ExchangeCode(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo  repository.UserRepository
	mail      mailer.Mailer
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(userRepo repository.UserRepository, mail mailer.Mailer, cfg *config.Config) AuthService {
	return &authService{
		userRepo:  userRepo,
		mail:      mail,
		jwtSecret: cfg.JWTSecret,
		jwtExpiry: cfg.JWTExpiry,
	}
}

// Signup handles both first registration and code re-issuance.
//
// A fresh account is created with the default role. For an existing
// username the supplied email must match the stored one exactly, so a
// stranger cannot take over an account by re-requesting signup with
// their own address. Either way the previous code is rotated out before
// the new one is mailed.
func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	if strings.EqualFold(username, reservedUsername) {
		return nil, ErrReservedUsername
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Email != email {
			return nil, ErrEmailMismatch
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     string(permissions.RoleUser),
		}
		// the unique indexes arbitrate concurrent signups; a duplicate
		// username or email surfaces as the matching sentinel
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	code := uuid.New().String()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}
	if err := s.userRepo.SetConfirmationCode(ctx, user.ID, string(hash)); err != nil {
		return nil, err
	}

	// Delivery failure fails the whole call: reporting success here would
	// strand the user with no way to ever receive their code. The account
	// row is kept so a retry simply rotates the code again.
	if err := s.mail.Send(user.Email, confirmationMailSubject, fmt.Sprintf(confirmationMailBody, code)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	return user, nil
}

// ExchangeCode verifies the confirmation code and issues an access token.
// A failed attempt does not consume the code, and a successful exchange
// has no side effects, so retries are idempotent.
func (s *authService) ExchangeCode(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	// no code on record: either never requested or invalidated by a
	// profile change since issuance
	if user.ConfirmationCodeHash == "" {
		return "", ErrInvalidCode
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.ConfirmationCodeHash), []byte(code)); err != nil {
		return "", ErrInvalidCode
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
