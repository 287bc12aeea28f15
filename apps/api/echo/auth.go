package echoapi

import (
	"sort"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/medicos-drona/drona-frontend-sub001/core"
)

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleCollege = "college"

	contextTokenKey = "userToken"
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the backend, this service only verifies them.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (c Claims) Person() core.Person {
	return core.Person{ID: c.Subject, Username: c.Username, Email: c.Email}
}

func (c Claims) HasRole(role string) bool {
	roles := append([]string(nil), c.Roles...)
	sort.Strings(roles)
	i := sort.SearchStrings(roles, role)
	return i < len(roles) && roles[i] == role
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(secretKey string, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextPerson identifies the caller, empty when auth is disabled.
func contextPerson(ctx echo.Context) core.Person {
	if claims, err := getContextClaims(ctx); err == nil {
		return claims.Person()
	}
	return core.Person{}
}

// bearerToken returns the raw token sent by the caller, forwarded to the backend.
func bearerToken(ctx echo.Context) string {
	parts := strings.SplitN(ctx.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], middleware.DefaultJWTConfig.AuthScheme) {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
