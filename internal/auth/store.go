// Package auth registers users, checks passwords and issues session tokens.
package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/greenshelf/catalog/internal/domain"
	"github.com/greenshelf/catalog/pkg/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Claims is the payload of a session token.
type Claims struct {
	UserID int64  `json:"id,string"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// CredentialStore owns user registration, login and token verification.
type CredentialStore struct {
	users    UserRepository
	secret   []byte
	ttl      time.Duration
	cost     int
	validate *validator.Validate
	now      func() time.Time

	// compared against when the email is unknown so both failures cost a hash
	dummyHash []byte
}

// NewCredentialStore builds a store signing with secret. A cost outside the
// bcrypt range falls back to bcrypt.DefaultCost.
func NewCredentialStore(users UserRepository, secret string, ttl time.Duration, cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &CredentialStore{
		users:     users,
		secret:    []byte(secret),
		ttl:       ttl,
		cost:      cost,
		validate:  validator.New(),
		now:       time.Now,
		dummyHash: dummy,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user holding only the bcrypt hash of password.
func (s *CredentialStore) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || s.validate.Var(email, "email") != nil {
		return nil, errors.Wrap(domain.ErrInvalidInput, "a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return nil, errors.Wrapf(domain.ErrInvalidInput, "password must be at most %d bytes", MaxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user := &domain.User{
		ID:           common.UUIDint64(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	zap.S().Infof("registered user %s", email)
	return user, nil
}

// Login returns a signed token. Unknown email and wrong password both yield
// ErrUnauthorized.
func (s *CredentialStore) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", domain.ErrUnauthorized
	} else if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrUnauthorized
	}

	token, err := s.issue(user)
	if err != nil {
		return "", err
	}
	if err := s.users.TouchLogin(ctx, user.ID, s.now()); err != nil {
		zap.S().Warnf("record login for %d: %s", user.ID, err)
	}
	return token, nil
}

func (s *CredentialStore) issue(user *domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify checks a token without touching storage. Empty or malformed tokens
// give ErrUnauthenticated; bad signatures and expired tokens ErrForbidden.
func (s *CredentialStore) Verify(token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenMalformed) {
		return nil, domain.ErrUnauthenticated
	} else if err != nil {
		return nil, errors.Wrap(domain.ErrForbidden, err.Error())
	}

	// expiry is checked against the store clock
	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, errors.Wrap(domain.ErrForbidden, "token expired")
	}
	if claims.UserID == 0 {
		return nil, errors.Wrap(domain.ErrForbidden, "token has no subject")
	}
	return &domain.Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
