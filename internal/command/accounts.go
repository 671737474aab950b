package command

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Accounts checks login credentials.
type Accounts interface {
	Verify(user, password string) bool
}

// Users maps a lower-case user name to a bcrypt password hash.
type Users map[string]string

// Verify reports whether password matches the stored hash for user.
// Unknown users still pay for one bcrypt comparison so the reply time
// does not reveal which names exist.
func (u Users) Verify(user, password string) bool {
	hash, ok := u[strings.ToLower(user)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashPassword returns a bcrypt hash suitable for the users table.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// bcrypt of a random string nobody knows.
var dummyHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3PWa6nYk0b9gGk6tC9qzV6e")
