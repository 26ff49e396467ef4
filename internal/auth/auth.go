// Package auth adapts the external identity collaborator: token
// verification for patients and practitioners, and the injected admin
// credential check. Credential storage itself lives elsewhere.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient      Role = "patient"
	RolePractitioner Role = "practitioner"
	RoleAdmin        Role = "admin"
)

var ErrUnauthorized = errors.New("invalid or expired credentials")

// Claims is what the rest of the system knows about an authenticated
// caller.
type Claims struct {
	Role      Role
	SubjectID uuid.UUID // uuid.Nil for the admin
}

// TokenAuthenticator verifies a bearer token and issues new ones after an
// admin login.
type TokenAuthenticator interface {
	Authenticate(token string) (Claims, error)
	Issue(claims Claims, ttl time.Duration) (string, error)
}

type jwtAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) TokenAuthenticator {
	return &jwtAuthenticator{secret: []byte(secret)}
}

func (a *jwtAuthenticator) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  claims.SubjectID.String(),
		"role": string(claims.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *jwtAuthenticator) Authenticate(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrUnauthorized
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrUnauthorized
	}

	role, _ := mapClaims["role"].(string)
	switch Role(role) {
	case RolePatient, RolePractitioner, RoleAdmin:
	default:
		return Claims{}, ErrUnauthorized
	}

	sub, _ := mapClaims["sub"].(string)
	subjectID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrUnauthorized
	}

	return Claims{Role: Role(role), SubjectID: subjectID}, nil
}

// AdminCredentialVerifier checks the admin login. Injected so tests can
// swap it; no package-level credential globals.
type AdminCredentialVerifier interface {
	Verify(email, password string) bool
}

type staticAdminVerifier struct {
	email    string
	password string
}

func NewStaticAdminVerifier(email, password string) AdminCredentialVerifier {
	return &staticAdminVerifier{email: email, password: password}
}

func (v *staticAdminVerifier) Verify(email, password string) bool {
	if v.email == "" || v.password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(v.email), []byte(email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(v.password), []byte(password)) == 1
	return emailOK && passOK
}
