package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
)

// Token issuance lives in the identity system, not here; this API only
// verifies bearer tokens and reads the claims below.

const contextTokenKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
// Subject is the student id for student tokens.
type Claims struct {
	jwt.StandardClaims
	RegNo     string `json:"reg_no,omitempty"`
	IsStudent bool   `json:"is_student,omitempty"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
}

func appJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errors.New("claims not found in echo.Context")
}

// adminMiddleware restricts a route to admin tokens.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errUnauthorized
			}
			if !claims.IsAdmin {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// studentMiddleware restricts a route to student tokens.
func studentMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errUnauthorized
			}
			if !claims.IsStudent {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
