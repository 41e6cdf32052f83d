package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned on unknown email or wrong password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken is returned for unknown or expired bearer tokens.
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	// ErrEmailTaken is returned when registering an already-known email.
	ErrEmailTaken = errors.New("auth: email already registered")
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Salt         string    `json:"salt"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Service manages users and bearer-token sessions.
type Service struct {
	db       *badger.DB
	tokenTTL time.Duration
}

type tokenRecord struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewService creates an auth service on an already-open BadgerDB handle.
func NewService(db *badger.DB, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{db: db, tokenTTL: tokenTTL}
}

func userKey(id string) []byte { return []byte("authuser:" + id) }

func emailKey(email string) []byte { return []byte("authemail:" + strings.ToLower(email)) }

func tokenKey(token string) []byte { return []byte("authtoken:" + token) }

// Register creates a new user account and returns it.
func (s *Service) Register(_ context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Salt:         salt,
		PasswordHash: hashPassword(salt, password),
		CreatedAt:    time.Now(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		return txn.Set(emailKey(email), []byte(user.ID))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login validates credentials and mints a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var user User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		userItem, err := txn.Get(userKey(string(id)))
		if err != nil {
			return err
		}
		return userItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	want := hashPassword(user.Salt, password)
	if subtle.ConstantTimeCompare([]byte(want), []byte(user.PasswordHash)) != 1 {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	rec := tokenRecord{UserID: user.ID, ExpiresAt: time.Now().Add(s.tokenTTL)}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(tokenKey(token), data).WithTTL(s.tokenTTL)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate resolves a bearer token to its user id.
func (s *Service) Authenticate(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	var rec tokenRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tokenKey(token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}

	// Badger's TTL already expires the key; the stored timestamp is a
	// second line of defense against clock-skewed replicas.
	if time.Now().After(rec.ExpiresAt) {
		return "", ErrInvalidToken
	}
	return rec.UserID, nil
}

func newSalt() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}
