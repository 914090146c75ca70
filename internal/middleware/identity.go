package middleware

import "github.com/labstack/echo/v4"

// ContextUserID is the echo context key JWTAuth stores the caller's user id
// under.
const ContextUserID = "user_id"

// UserID returns the authenticated user id, or "" on public routes.
func UserID(c echo.Context) string {
	if s, ok := c.Get(ContextUserID).(string); ok {
		return s
	}
	return ""
}

// rateSubject identifies the caller for rate limiting keys.
func rateSubject(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
