// Package auth keeps the backend bearer credential on disk and answers
// validity questions about it without talking to the network.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenFileName = "token.json"

// ErrNotAuthenticated is returned when no usable credential is stored.
var ErrNotAuthenticated = errors.New("not logged in")

// Credential is the stored login state.
type Credential struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
}

// Manager loads and saves the credential file and implements the
// token source the API client consumes.
type Manager struct {
	path string
}

// NewManager creates a manager storing its credential under dir.
func NewManager(dir string) *Manager {
	return &Manager{path: filepath.Join(dir, tokenFileName)}
}

// Token returns the stored access token, or ErrNotAuthenticated when
// none is stored or the stored one has expired.
func (m *Manager) Token() (string, error) {
	cred, err := m.load()
	if err != nil {
		return "", err
	}
	if cred.expired() {
		return "", ErrNotAuthenticated
	}
	return cred.AccessToken, nil
}

// IsValid reports whether an unexpired credential is stored.
func (m *Manager) IsValid() bool {
	cred, err := m.load()
	return err == nil && !cred.expired()
}

// Current returns the stored credential for display purposes.
func (m *Manager) Current() (*Credential, error) {
	return m.load()
}

// Save stores a fresh credential. The user identity claims are pulled
// out of the JWT so the CLI can show who is logged in without a
// network call; signature verification is the backend's job.
func (m *Manager) Save(accessToken, tokenType string, expiresIn int) error {
	cred := Credential{
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresAt:   time.Now().Add(time.Duration(expiresIn) * time.Second),
	}

	if claims := inspectClaims(accessToken); claims != nil {
		if sub, err := claims.GetSubject(); err == nil && sub != "" {
			cred.UserID = sub
		}
		if cred.UserID == "" {
			if id, ok := (*claims)["user_id"].(string); ok {
				cred.UserID = id
			}
		}
		if email, ok := (*claims)["email"].(string); ok {
			cred.Email = email
		}
		if name, ok := (*claims)["name"].(string); ok {
			cred.Name = name
		}
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			cred.ExpiresAt = exp.Time
		}
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create auth directory: %w", err)
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}
	// Credential file is readable by the owner only.
	return os.WriteFile(m.path, data, 0600)
}

// Logout removes the stored credential. Missing file is fine.
func (m *Manager) Logout() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}

// UserID returns the logged-in user's id, or "" when logged out.
func (m *Manager) UserID() string {
	cred, err := m.load()
	if err != nil || cred.expired() {
		return ""
	}
	return cred.UserID
}

func (m *Manager) load() (*Credential, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	return &cred, nil
}

func (c *Credential) expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// inspectClaims decodes the token payload without verifying the
// signature.
func inspectClaims(token string) *jwt.MapClaims {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return &claims
}
