package auth

import (
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/swisspipe/swisspipe/model"
)

const (
	Issuer = "SwissPipe"
	JwtAlg = "HS256"

	AdminRole    = ApiRole("admin")
	ReadonlyRole = ApiRole("readonly")
)

var (
	ErrUnauthorized          = fmt.Errorf("unauthorized")
	ErrInvalidToken          = fmt.Errorf("invalid bearer token")
	ErrMalformedAuthHeader   = fmt.Errorf("malformed auth header")
	ErrMissingSubject        = fmt.Errorf("token has no subject")
	ErrInsufficientPrivilege = fmt.Errorf("insufficient privilege")
)

type ApiRole string

type APIClaim struct {
	*jwt.RegisteredClaims
	Roles []ApiRole `json:"roles"`
}

// CreateAPIKey mints a signed HMAC token for a subject with the given roles.
func CreateAPIKey(secret []byte, subject string, roles []ApiRole, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject cannot be empty")
	}
	if len(roles) == 0 {
		return "", fmt.Errorf("at least one role is required")
	}

	claims := &APIClaim{
		&jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    Issuer,
			Subject:   subject,
		},
		roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyToken parses and validates a bearer token and returns the user it
// identifies. Only HMAC tokens signed with our secret are accepted.
func VerifyToken(secret []byte, tokenString string) (*model.User, error) {
	claims := &APIClaim{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if token.Header["alg"] != JwtAlg {
			return nil, fmt.Errorf("invalid signing algorithm")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	roles := make([]string, len(claims.Roles))
	for i, r := range claims.Roles {
		roles[i] = string(r)
	}

	return &model.User{Sub: claims.Subject, Roles: roles}, nil
}

// CanWrite reports whether the user holds a role allowed to mutate state.
func CanWrite(u *model.User) bool {
	for _, r := range u.Roles {
		if ApiRole(r) == AdminRole {
			return true
		}
	}
	return false
}
