// Package auth checks platform login credentials.
package auth

import (
	"crypto/subtle"
	"errors"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator decides whether a platform may log in with the given credentials.
type Validator interface {
	Validate(username, password string) error
}

// Static accepts one username/password pair. Comparison is constant time.
type Static struct {
	Username string
	Password string
}

func (s Static) Validate(username, password string) error {
	if s.Username == "" {
		return ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(s.Username), []byte(username))
	passOK := subtle.ConstantTimeCompare([]byte(s.Password), []byte(password))
	if userOK&passOK != 1 {
		return ErrUnauthorized
	}
	return nil
}

// AllowAll accepts every platform login.
type AllowAll struct{}

func (AllowAll) Validate(string, string) error { return nil }

// FuncValidator adapts a function into a Validator.
type FuncValidator func(username, password string) error

func (f FuncValidator) Validate(username, password string) error {
	return f(username, password)
}
