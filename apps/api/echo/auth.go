package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
)

var (
	contextTokenKey    = "educatorToken"
	contextEducatorKey = "educator"
)

// Claims represents the authorization claims of the tokens the auth service issues.
type Claims struct {
	jwt.StandardClaims
	Name     string   `json:"name,omitempty"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (c Claims) Educator() educator.Educator {
	return educator.Educator{
		ID:       c.Subject,
		Name:     c.Name,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
	}
}

// GetEducatorClaims is what the auth service puts in an educator token. Used by tests and the admin CLI.
func GetEducatorClaims(edu educator.Educator, conf *core.Config, ttl time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   edu.ID,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:     edu.Name,
		Username: edu.Username,
		Email:    edu.Email,
		Roles:    edu.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the educator Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// jwtConfig reads the token from lookup ("header:Authorization", "query:token").
func jwtConfig(secretKey, lookup string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		TokenLookup:   lookup,
	}
}

func getContextToken(ctx echo.Context) (*jwt.Token, *Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return token, claims, nil
		}
	}
	return nil, nil, errUnauthorized
}

func getContextEducator(ctx echo.Context) (educator.Educator, error) {
	if edu, ok := ctx.Get(contextEducatorKey).(educator.Educator); ok {
		return edu, nil
	}
	_, claims, err := getContextToken(ctx)
	if err != nil {
		return educator.Educator{}, err
	}
	edu := claims.Educator()
	ctx.Set(contextEducatorKey, edu)
	return edu, nil
}
