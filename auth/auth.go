// Package auth issues and verifies access tokens for configured accounts.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/princinho/catalogbackend/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPassword(hash string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Issuer signs HS256 access tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

func (i *Issuer) GenerateAccessToken(account models.Account) (string, error) {
	claims := Claims{
		UserID: account.Email,
		Email:  account.Email,
		Role:   string(account.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.Email,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func (i *Issuer) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// NewAccount hashes password for a configured identity.
func NewAccount(email, password string, role models.Role) (models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return models.Account{}, fmt.Errorf("missing ADMIN_EMAIL or ADMIN_PASSWORD env vars")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}
	return models.Account{Email: email, PasswordHash: hash, Role: role}, nil
}

// Authenticator checks credentials against a fixed set of accounts.
type Authenticator struct {
	issuer   *Issuer
	accounts map[string]models.Account
}

func NewAuthenticator(issuer *Issuer, accounts ...models.Account) *Authenticator {
	byEmail := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		byEmail[a.Email] = a
	}
	return &Authenticator{issuer: issuer, accounts: byEmail}
}

func (a *Authenticator) Issuer() *Issuer {
	return a.issuer
}

// Login returns a signed access token for valid credentials.
func (a *Authenticator) Login(email, password string) (string, models.Account, error) {
	account, ok := a.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return "", models.Account{}, ErrInvalidCredentials
	}
	if err := CheckPassword(account.PasswordHash, password); err != nil {
		return "", models.Account{}, ErrInvalidCredentials
	}

	token, err := a.issuer.GenerateAccessToken(account)
	if err != nil {
		return "", models.Account{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, account, nil
}
