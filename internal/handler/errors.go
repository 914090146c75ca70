package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Error errorBody `json:"error"`
}

// ErrorHandler renders every error as an ErrorEnvelope. The trace id is the
// request id assigned by the RequestID middleware, or a fresh UUID when the
// request never got one.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, code, msg := classify(err)

		traceID := c.Response().Header().Get(echo.HeaderXRequestID)
		if traceID == "" {
			traceID = uuid.NewString()
			c.Response().Header().Set(echo.HeaderXRequestID, traceID)
		}
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", traceID).Str("route", c.Path()).Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, ErrorEnvelope{Error: errorBody{Code: code, Message: msg, TraceID: traceID}})
		}
		if err != nil {
			log.Warn().Err(err).Msg("write error response")
		}
	}
}

// classify maps service errors and the framework's own HTTP errors onto a
// status code and envelope code. Anything unrecognised is a 500 whose cause
// never reaches the client.
func classify(err error) (int, string, string) {
	if ae, ok := apperror.As(err); ok {
		return ae.Status(), ae.Code, ae.Message
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		switch he.Code {
		case http.StatusBadRequest:
			return he.Code, apperror.CodeBadRequest, msg
		case http.StatusUnauthorized:
			return he.Code, apperror.CodeUnauthorized, msg
		case http.StatusForbidden:
			return he.Code, apperror.CodeForbidden, msg
		case http.StatusNotFound:
			return he.Code, apperror.CodeNotFound, msg
		case http.StatusMethodNotAllowed:
			return he.Code, apperror.CodeMethodNotAllowed, msg
		case http.StatusRequestEntityTooLarge:
			return he.Code, apperror.CodePayloadTooLarge, msg
		case http.StatusUnsupportedMediaType:
			return he.Code, apperror.CodeUnsupportedMediaType, msg
		case http.StatusTooManyRequests:
			return he.Code, apperror.CodeRateLimited, msg
		}
		if he.Code < http.StatusInternalServerError {
			return he.Code, apperror.CodeBadRequest, msg
		}
		return he.Code, apperror.CodeInternal, msg
	}
	return http.StatusInternalServerError, apperror.CodeInternal, "internal server error"
}
