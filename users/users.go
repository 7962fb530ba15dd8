// Package users defines the account collaborator contract: the user model and
// the credential primitives the auth service verifies against.
package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a user role within the platform
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Platform operators
	RoleProducer RoleType = "producer" // Farm/cooperative accounts
	RoleExporter RoleType = "exporter" // Export partner accounts
	RoleAuditor  RoleType = "auditor"  // Certification auditors, read-only
)

type User struct {
	ID           string    `json:"id,omitempty"`          // Unique identifier for the user
	Email        string    `json:"email,omitempty"`       // User's email address
	PasswordHash string    `json:"-"`                     // Hashed version of the user's password - never serialize
	Role         RoleType  `json:"role,omitempty"`        // Role of the user within the platform
	ProducerID   string    `json:"producer_id,omitempty"` // Producer the account belongs to, if any
	Active       bool      `json:"active,omitempty"`      // Inactive accounts cannot log in or refresh
	DateJoined   time.Time `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time `json:"last_login,omitempty"`  // Last time the user logged in
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash checks a plaintext password against a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
