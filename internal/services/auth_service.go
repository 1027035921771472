// Package services – AuthService
//
// This file implements the coordinator credential check. The system has a
// single shared coordinator account loaded from configuration at startup;
// there is no per-user account model. Session persistence is handled by the
// cookie-backed transport at the HTTP layer — this service only validates
// the submitted pair against the configured value.
package services

import (
	"crypto/subtle"
)

// AuthService validates coordinator credentials.
type AuthService struct {
	// Username and Password are the configured coordinator credentials.
	Username string
	Password string
}

// NewAuthService constructs an AuthService bound to the configured
// coordinator credential pair.
func NewAuthService(username, password string) *AuthService {
	return &AuthService{Username: username, Password: password}
}

// Login checks the submitted pair against the configured credential in
// constant time. It returns ErrInvalidCredentials on mismatch.
func (s *AuthService) Login(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
