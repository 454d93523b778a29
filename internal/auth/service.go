package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/zombor/scan-history/internal/fault"
)

const minPasswordLength = 6

// IDGenerator generates unique IDs for users
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Claims is the JWT payload for a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service handles registration, login, and token verification.
type Service struct {
	db          UserDB
	secret      []byte
	tokenTTL    time.Duration
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db UserDB, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		db:          db,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db UserDB, secret string, tokenTTL time.Duration, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(email, password string) (Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return Identity{}, fault.New(fault.Validation, "a valid email address is required")
	}
	if len(password) < minPasswordLength {
		return Identity{}, fault.New(fault.Validation, "password must be at least 6 characters")
	}

	if _, err := s.db.GetUserByEmail(email); err == nil {
		return Identity{}, fault.New(fault.Validation, "email already registered")
	} else if !errors.Is(err, ErrUserNotFound) {
		return Identity{}, fault.Wrap(fault.Service, "looking up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		ID:           s.idGenerator.Generate(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.timeSource.Now(),
	}
	if err := s.db.SaveUser(user); err != nil {
		return Identity{}, fault.Wrap(fault.Service, "saving user", err)
	}

	return Identity{ID: user.ID, Email: user.Email}, nil
}

// Login authenticates a user and returns a signed session token.
func (s *Service) Login(email, password string) (string, Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", Identity{}, fault.New(fault.Auth, "invalid email or password")
		}
		return "", Identity{}, fault.Wrap(fault.Service, "looking up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", Identity{}, fault.New(fault.Auth, "invalid email or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", Identity{}, fmt.Errorf("generating token: %w", err)
	}

	return token, Identity{ID: user.ID, Email: user.Email}, nil
}

// Verify parses a session token and returns the identity it carries.
func (s *Service) Verify(token string) (Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.timeSource.Now))
	if err != nil || !parsed.Valid {
		return Identity{}, fault.Wrap(fault.Auth, "invalid or expired token", err)
	}

	return Identity{ID: claims.Subject, Email: claims.Email}, nil
}

func (s *Service) generateToken(user *User) (string, error) {
	now := s.timeSource.Now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
