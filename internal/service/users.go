package service

import (
	"context"
	"errors"
	"strings"

	"github.com/eunhae2004/MakeFinalProject-main/internal/apperror"
	"github.com/eunhae2004/MakeFinalProject-main/internal/model"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository"
	"github.com/eunhae2004/MakeFinalProject-main/internal/utils"
)

// UserPatch carries optional profile changes; nil fields are left alone.
type UserPatch struct {
	Nickname  *string
	AvatarURL *string
	Phone     *string
	Password  *string
}

type UserService struct {
	Deps
	users      UserStore
	prefs      PreferencesStore
	files      FileStore
	bcryptCost int
}

func NewUserService(deps Deps, users UserStore, prefs PreferencesStore, files FileStore, bcryptCost int) *UserService {
	return &UserService{Deps: deps.withDefaults(), users: users, prefs: prefs, files: files, bcryptCost: bcryptCost}
}

func (s *UserService) Me(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	return u, storeErr(err, "user")
}

func (s *UserService) UpdateMe(ctx context.Context, userID string, p UserPatch) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.User{}, storeErr(err, "user")
	}
	if p.Nickname != nil {
		n := strings.TrimSpace(*p.Nickname)
		if err := validateNickname(n); err != nil {
			return model.User{}, err
		}
		u.Nickname = n
	}
	if p.AvatarURL != nil {
		if len(*p.AvatarURL) > 500 {
			return model.User{}, invalid("avatar_url is too long")
		}
		u.AvatarURL = strings.TrimSpace(*p.AvatarURL)
	}
	if p.Phone != nil {
		if len(*p.Phone) > 20 {
			return model.User{}, invalid("phone is too long")
		}
		u.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Password != nil {
		if err := utils.ValidatePassword(*p.Password); err != nil {
			return model.User{}, invalid(err.Error())
		}
		hash, err := utils.HashPassword(*p.Password, s.bcryptCost)
		if err != nil {
			return model.User{}, apperror.Internal(err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, storeErr(err, "user")
	}
	return u, nil
}

// DeleteMe removes the account with everything it owns, files included.
// Files that fail to delete are logged and left behind.
func (s *UserService) DeleteMe(ctx context.Context, userID string) error {
	paths, err := s.users.Delete(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	if err := s.files.Remove(paths...); err != nil {
		s.Log.Warn().Err(err).Str("user_id", userID).Msg("remove user files")
	}
	s.Log.Info().Str("user_id", userID).Int("files", len(paths)).Msg("user deleted")
	s.publish(ctx, queue.EventUserDeleted, userID, "")
	return nil
}

// Preferences returns the stored preferences or the defaults when the user
// never saved any.
func (s *UserService) Preferences(ctx context.Context, userID string) (model.Preferences, error) {
	p, err := s.prefs.Get(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			return model.Preferences{}, storeErr(err, "user")
		}
		return model.DefaultPreferences(userID), nil
	}
	return p, storeErr(err, "preferences")
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID, locationCode, locationName string) (model.Preferences, error) {
	code := strings.ToUpper(strings.TrimSpace(locationCode))
	name := strings.TrimSpace(locationName)
	if code == "" || len(code) > 64 {
		return model.Preferences{}, invalid("location_code must be 1 to 64 characters")
	}
	if name == "" || len([]rune(name)) > 128 {
		return model.Preferences{}, invalid("name must be 1 to 128 characters")
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return model.Preferences{}, storeErr(err, "user")
	}
	p := model.Preferences{UserID: userID, LocationCode: code, LocationName: name, UpdatedAt: s.now()}
	if err := s.prefs.Upsert(ctx, p); err != nil {
		return model.Preferences{}, storeErr(err, "preferences")
	}
	return p, nil
}
