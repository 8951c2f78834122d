package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/repository"
	"github.com/cboderot1/turnos2/internal/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates staff and issues session tokens. Accounts are
// provisioned out of band (cmd/seed); there is no self-registration.
type AuthService struct {
	users         repository.UserRepository
	sessionSecret string
}

func NewAuthService(users repository.UserRepository, sessionSecret string) *AuthService {
	return &AuthService{users: users, sessionSecret: sessionSecret}
}

func (a *AuthService) Login(ctx context.Context, username, password string) (token string, user *models.User, err error) {
	username = strings.TrimSpace(username)
	u, hash, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if u == nil {
		return "", nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(hash, password) {
		return "", nil, ErrInvalidCredentials
	}
	tok, err := utils.SignJWT(a.sessionSecret, u.ID, string(u.Role), 8*time.Hour)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}
