package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/middleware"
)

func badRequest(msg string) error {
	return apperror.Validation(apperror.CodeBadRequest, msg)
}

// bind decodes the request body into v. Malformed bodies are 400s.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperror.Validation(apperror.CodeBadRequest, "invalid request body").Wrap(err)
	}
	return nil
}

// queryInt reads an optional integer query parameter; absent means 0.
func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name + " must be an integer")
	}
	return n, nil
}

// paging reads the limit and cursor query parameters under the given names.
func paging(c echo.Context, limitName, cursorName string) (int, string, error) {
	limit, err := queryInt(c, limitName)
	if err != nil {
		return 0, "", err
	}
	return limit, c.QueryParam(cursorName), nil
}

func pathInt64(c echo.Context, name string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || n < 1 {
		return 0, badRequest(name + " must be a positive integer")
	}
	return n, nil
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, badRequest(field + " must be YYYY-MM-DD or RFC 3339")
	}
	return &t, nil
}

func userID(c echo.Context) string { return middleware.UserID(c) }
