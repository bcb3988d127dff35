package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core"
)

const (
	tokenContextKey = "userToken"
	jwtAudience     = "Learners"
)

// Claims represents the authorization claims transmitted via a JWT.
// Accounts live in an external identity service; only the subject is used here.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
}

// NewClaims returns fresh claims for userID, valid for conf.Server.JWTExpirationDelta.
func NewClaims(conf *core.Config, userID, email string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   userID,
			Audience:  jwtAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Unix(),
		Email:        email,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// optionalJWT authenticates bearer tokens when one is sent. Requests without an
// Authorization header go through unauthenticated and run in guest mode.
func optionalJWT(conf *core.Config) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		Skipper: func(ctx echo.Context) bool {
			return strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization)) == ""
		},
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextPerson identifies the caller in logs.
func contextPerson(ctx echo.Context) core.Person {
	if claims, err := getContextClaims(ctx); err == nil {
		return core.Person{ID: claims.Subject}
	}
	return core.Person{}
}
