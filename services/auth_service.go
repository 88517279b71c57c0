package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

const tokenTTL = 24 * time.Hour

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService authenticates the single admin operator configured through the
// environment and issues the JWTs the control endpoints require.
type AuthService struct {
	adminEmail        string
	adminPasswordHash string
	jwtSecret         []byte
}

func NewAuthService(adminEmail, adminPasswordHash, jwtSecret string) *AuthService {
	return &AuthService{
		adminEmail:        adminEmail,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         []byte(jwtSecret),
	}
}

// Login checks the credentials against the configured admin account and
// returns a signed token carrying the admin role.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (string, error) {
	if input.Email != s.adminEmail {
		return "", ErrAuthInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(input.Password)); err != nil {
		return "", ErrAuthInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  input.Email,
		"role": RoleAdmin,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
