// Package password содержит функции хеширования и проверки пароля администратора.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash возвращает bcrypt-хеш пароля.
func Hash(password string) (string, error) {
	const op = "password.Hash"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hash), nil
}

// Verify сверяет пароль с хешем, возвращает true при совпадении.
func Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
