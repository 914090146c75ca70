package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository"
	"github.com/eunhae2004/MakeFinalProject-main/internal/token"
	"github.com/eunhae2004/MakeFinalProject-main/internal/utils"
)

const TokenTypeBearer = "bearer"

type RegisterInput struct {
	Email    string
	Password string
	Nickname string
	Handle   string
	Phone    string
}

type LoginResult struct {
	User         model.User
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64
}

type AuthService struct {
	Deps
	users      UserStore
	tokens     *token.Service
	bcryptCost int
}

func NewAuthService(deps Deps, users UserStore, tokens *token.Service, bcryptCost int) *AuthService {
	return &AuthService{Deps: deps.withDefaults(), users: users, tokens: tokens, bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validateEmail(email string) error {
	if email == "" || len(email) > 255 {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is not valid")
	}
	return nil
}

func validateNickname(n string) error {
	if n == "" || len([]rune(n)) > 50 {
		return invalid("nickname must be 1 to 50 characters")
	}
	return nil
}

// Register creates an account. The handle defaults to the email address.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return model.User{}, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return model.User{}, invalid(err.Error())
	}
	nickname := strings.TrimSpace(in.Nickname)
	if err := validateNickname(nickname); err != nil {
		return model.User{}, err
	}
	handle := strings.ToLower(strings.TrimSpace(in.Handle))
	if handle == "" {
		handle = email
	}
	if len(handle) > 255 {
		return model.User{}, invalid("handle is too long")
	}

	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, apperror.Internal(err)
	}
	now := s.now()
	u := model.User{
		ID:           uuid.NewString(),
		Handle:       handle,
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, storeErr(err, "user")
	}
	s.Log.Info().Str("user_id", u.ID).Msg("user registered")
	s.publish(ctx, queue.EventUserRegistered, u.ID, "")
	return u, nil
}

// Login checks credentials and issues an access/refresh pair. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, storeErr(err, "user")
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, apperror.Unauthorized(apperror.CodeInvalidCredentials, "invalid email or password")
	}

	access, err := s.tokens.IssueAccess(u.ID)
	if err != nil {
		return LoginResult{}, apperror.Internal(err)
	}
	refresh, err := s.tokens.IssueRefresh(u.ID)
	if err != nil {
		return LoginResult{}, apperror.Internal(err)
	}
	s.Log.Info().Str("user_id", u.ID).Msg("login")
	return LoginResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Refresh mints a new access token. The refresh token stays valid until it
// expires, is revoked or its account is deleted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Decode(ctx, refreshToken, token.Refresh)
	if err != nil {
		return "", TokenError(err)
	}
	if _, err := s.users.GetByID(ctx, claims.Subject); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperror.Unauthorized(apperror.CodeTokenInvalid, "account no longer exists")
		}
		return "", storeErr(err, "user")
	}
	access, err := s.tokens.IssueAccess(claims.Subject)
	if err != nil {
		return "", apperror.Internal(err)
	}
	return access, nil
}

// Logout revokes a refresh token. Revoking an already revoked token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.Revoke(ctx, refreshToken)
	if err != nil {
		return TokenError(err)
	}
	s.publish(ctx, queue.EventAuthLogout, claims.Subject, "")
	return nil
}

// TokenError maps token verification failures to 401 errors. Storage
// failures during the revocation lookup stay internal.
func TokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrTokenRevoked):
		return apperror.Unauthorized(apperror.CodeTokenRevoked, "token has been revoked")
	case errors.Is(err, token.ErrWrongTokenType):
		return apperror.Unauthorized(apperror.CodeTokenTypeInvalid, "unexpected token type")
	case errors.Is(err, token.ErrTokenInvalid):
		return apperror.Unauthorized(apperror.CodeTokenInvalid, "invalid or expired token")
	}
	return apperror.Internal(err)
}
