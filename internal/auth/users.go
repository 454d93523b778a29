package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const userBucketName = "users"

// ErrUserNotFound is returned when no user exists for an email.
var ErrUserNotFound = errors.New("user not found")

// User is a registered account. PasswordHash is a bcrypt hash and never
// leaves this package.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserDB defines the interface for user persistence.
type UserDB interface {
	// SaveUser stores a user keyed by email
	SaveUser(user *User) error

	// GetUserByEmail retrieves a user, returning ErrUserNotFound on a miss
	GetUserByEmail(email string) (*User, error)
}

// BoltUserDB implements UserDB on a shared bbolt database.
type BoltUserDB struct {
	db *bbolt.DB
}

// NewBoltUserDB creates the users bucket on an already-open database. The
// caller owns the database handle and its lifecycle.
func NewBoltUserDB(db *bbolt.DB) (*BoltUserDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(userBucketName))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating users bucket: %w", err)
	}
	return &BoltUserDB{db: db}, nil
}

// SaveUser stores a user keyed by email
func (b *BoltUserDB) SaveUser(user *User) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(userBucketName))
		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshaling user: %w", err)
		}
		return bucket.Put([]byte(user.Email), data)
	})
}

// GetUserByEmail retrieves a user by email
func (b *BoltUserDB) GetUserByEmail(email string) (*User, error) {
	var user *User
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(userBucketName))
		data := bucket.Get([]byte(email))
		if data == nil {
			return ErrUserNotFound
		}
		return json.Unmarshal(data, &user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
