package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateTTL = 10 * time.Minute

type TokenService struct {
	Secret    []byte
	Issuer    string
	AccessTTL time.Duration
}

// CreateAccessToken signs a token carrying the whole session.
func (t TokenService) CreateAccessToken(sess Session) (string, int64, error) {
	if !sess.Authenticated {
		return "", 0, errors.New("token: anonymous session")
	}
	now := time.Now().UTC()
	exp := now.Add(t.AccessTTL)
	claims := jwt.MapClaims{
		"iss":    t.Issuer,
		"sub":    sess.Username,
		"jti":    uuid.NewString(),
		"typ":    "access",
		"role":   sess.Role,
		"method": sess.Method,
		"iat":    now.Unix(),
		"exp":    exp.Unix(),
	}
	if sess.StudentID != nil {
		claims["sid"] = *sess.StudentID
	}
	if sess.Email != "" {
		claims["email"] = sess.Email
	}
	if sess.DisplayName != "" {
		claims["name"] = sess.DisplayName
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.Secret)
	return signed, exp.Unix(), err
}

// CreateStateToken signs the opaque state value sent through the federated
// login round trip. It carries the PKCE verifier back to the callback.
func (t TokenService) CreateStateToken(verifier string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": t.Issuer,
		"jti": uuid.NewString(),
		"typ": "state",
		"iat": now.Unix(),
		"exp": now.Add(stateTTL).Unix(),
	}
	if verifier != "" {
		claims["pkce"] = verifier
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
}

// VerifyStateToken checks a state token and returns the verifier it carries.
func (t TokenService) VerifyStateToken(tokenStr string) (string, bool) {
	token, claims, err := t.ParseToken(tokenStr)
	if err != nil || !token.Valid || claims["typ"] != "state" {
		return "", false
	}
	verifier, _ := claims["pkce"].(string)
	return verifier, true
}

func (t TokenService) ParseToken(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.Secret, nil
	}, jwt.WithIssuer(t.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return token, claims, err
}

// ParseSession validates an access token and rebuilds its session.
func (t TokenService) ParseSession(tokenStr string) (Session, error) {
	token, claims, err := t.ParseToken(tokenStr)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		return Session{}, ErrUnauthorized("Authentication failed")
	}
	username, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if username == "" || !ValidRole(role) {
		return Session{}, ErrUnauthorized("Authentication failed")
	}
	sess := Session{
		Authenticated: true,
		Username:      username,
		Role:          role,
	}
	sess.Method, _ = claims["method"].(string)
	sess.Email, _ = claims["email"].(string)
	sess.DisplayName, _ = claims["name"].(string)
	if raw, ok := claims["sid"].(float64); ok {
		sid := int64(raw)
		sess.StudentID = &sid
	}
	return sess, nil
}
