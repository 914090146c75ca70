package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
	"github.com/eunhae2004/MakeFinalProject-main/internal/token"
)

// TokenDecoder is satisfied by *token.Service.
type TokenDecoder interface {
	Decode(ctx context.Context, raw string, expect token.Type) (*token.Claims, error)
}

// JWTAuth requires a valid access token in the Authorization header and
// stores its subject under ContextUserID. Refresh tokens are refused.
func JWTAuth(tokens TokenDecoder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperror.Unauthorized(apperror.CodeUnauthorized, "missing bearer token")
			}
			claims, err := tokens.Decode(c.Request().Context(), raw, token.Access)
			if err != nil {
				return service.TokenError(err)
			}
			c.Set(ContextUserID, claims.Subject)
			return next(c)
		}
	}
}

// bearer extracts the credentials of a "Bearer <token>" header. The scheme
// is matched case-insensitively.
func bearer(header string) (string, bool) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}
