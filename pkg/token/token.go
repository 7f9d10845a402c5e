package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleStudent is the role carried by tokens issued at student login.
const RoleStudent = "student"

// ErrInvalidToken indicates the token is malformed, expired or signed with another key.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims issued by the API.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID parses the numeric subject claim.
func (c Claims) SubjectID() (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject: %w", ErrInvalidToken)
	}
	return uint(id), nil
}

// Manager issues and verifies HMAC signed tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewManager builds a token manager. A non positive ttl defaults to 24 hours.
func NewManager(secret string, ttl time.Duration, issuer string) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a token for the subject with the given role.
func (m *Manager) Issue(subject uint, role string) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subject), 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the token signature and expiry and returns its claims.
func (m *Manager) Parse(tokenString string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	claims.Role = strings.ToLower(strings.TrimSpace(claims.Role))
	return claims, nil
}
