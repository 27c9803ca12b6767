// Package auth реализует аутентификацию администратора модуля: проверку
// логина и пароля по данным конфигурации и выпуск JWT для доступа к
// административным маршрутам.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtuszynski/magazine-subscription/internal/lib/jwt"
	"github.com/mtuszynski/magazine-subscription/internal/lib/password"
)

// ErrInvalidCredentials возвращается при неверной паре логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service реализует вход администратора.
type Service struct {
	username     string
	passwordHash string
	maker        jwt.Maker
	log          *slog.Logger
}

// New создает новый экземпляр Service.
func New(username, passwordHash string, maker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		username:     username,
		passwordHash: passwordHash,
		maker:        maker,
		log:          log,
	}
}

// Login проверяет учетные данные и возвращает JWT.
func (s *Service) Login(ctx context.Context, username, pass string) (string, error) {
	const op = "auth.Login"

	if username != s.username || !password.Verify(s.passwordHash, pass) {
		return "", ErrInvalidCredentials
	}

	token, err := s.maker.GenerateToken(username)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("admin logged in", slog.String("username", username))
	return token, nil
}
