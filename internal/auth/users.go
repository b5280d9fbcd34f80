// Package auth manages administrator accounts and the bearer tokens issued
// to them.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"hydrantmap/internal/hydrant"
)

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// RoleAdmin may edit hydrants and manage snapshots.
	RoleAdmin = "admin"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user already exists")
)

// User is one entry of users.json.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type usersDocument struct {
	Users []User `json:"users"`
}

// Users reads and writes users.json through a DocumentStore.
type Users struct {
	store hydrant.DocumentStore
	clock hydrant.Clock
	cost  int
}

// NewUsers creates a Users backed by store.
func NewUsers(store hydrant.DocumentStore, clock hydrant.Clock) *Users {
	return &Users{store: store, clock: clock, cost: bcrypt.DefaultCost}
}

func (u *Users) read() (*usersDocument, error) {
	var doc usersDocument
	if err := u.store.Read(hydrant.DocUsers, &doc); err != nil {
		if errors.Is(err, hydrant.ErrNotFound) {
			return &usersDocument{}, nil
		}
		return nil, fmt.Errorf("reading users: %w", err)
	}
	return &doc, nil
}

// List returns all accounts.
func (u *Users) List() ([]User, error) {
	doc, err := u.read()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

// Add creates an account with a bcrypt-hashed password.
func (u *Users) Add(username, password, role string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, &hydrant.ValidationError{Field: "username", Message: "must not be empty"}
	}
	if len(password) < MinPasswordLength {
		return nil, &hydrant.ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}
	if role == "" {
		role = RoleAdmin
	}

	doc, err := u.read()
	if err != nil {
		return nil, err
	}
	if lo.ContainsBy(doc.Users, func(existing User) bool { return existing.Username == username }) {
		return nil, fmt.Errorf("%s: %w", username, ErrUserExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    u.clock.Now().UTC(),
	}
	doc.Users = append(doc.Users, user)
	if err := u.store.Write(hydrant.DocUsers, doc); err != nil {
		return nil, fmt.Errorf("writing users: %w", err)
	}
	return &user, nil
}

// Verify checks a username and password. Unknown users and wrong passwords
// both return ErrInvalidCredentials.
func (u *Users) Verify(username, password string) (*User, error) {
	doc, err := u.read()
	if err != nil {
		return nil, err
	}
	user, ok := lo.Find(doc.Users, func(existing User) bool { return existing.Username == username })
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("checking password: %w", err)
	}
	return &user, nil
}
