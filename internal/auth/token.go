package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the validity window of an issued token.
const DefaultTokenTTL = 7 * 24 * time.Hour

const issuer = "campus-circle"

// Identity is the subject asserted by a token.
type Identity struct {
	SubjectID int
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Claims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

var (
	errMissingSubject = errors.New("identity has no subject")
	ErrUnknownRole    = errors.New("unknown role")
)

// TokenService issues and verifies HS256 identity tokens. The secret is
// supplied by the caller; there is no package-level key.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of s that reads the time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(id Identity) (string, error) {
	if id.SubjectID <= 0 {
		return "", errMissingSubject
	}
	if !id.Role.Valid() {
		return "", ErrUnknownRole
	}

	issued := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       id.SubjectID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(s.ttl)),
		},
	})

	return token.SignedString(s.secret)
}

// Verify decodes tokenString. Malformed tokens, bad signatures and expired
// tokens all yield ok == false with no further detail.
func (s *TokenService) Verify(tokenString string) (Identity, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, false
	}
	if claims.ID <= 0 || !claims.Role.Valid() || claims.IssuedAt == nil {
		return Identity{}, false
	}

	return Identity{
		SubjectID: claims.ID,
		Username:  claims.Username,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true
}
