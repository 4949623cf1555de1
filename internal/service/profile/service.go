package profile

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/repository"
)

// CreateParams carries everything signup collects.
type CreateParams struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Age         int
	Bio         string
	PhotoURLs   []string
	Gender      string
}

// Preferences mirrors the discovery settings a user can edit.
type Preferences struct {
	MaxDistance int
	AgeMin      int
	AgeMax      int
	ShowMen     bool
	ShowWomen   bool
}

// Service manages user profiles: signup, reads and the edit operations the
// settings/profile screens call.
type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

// NewService creates a profile service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx: appCtx,
		users:  repository.NewUserRepository(appCtx.DB),
	}
}

// Create registers a new user with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, p CreateParams) (db.User, error) {
	switch {
	case strings.TrimSpace(p.Username) == "":
		return db.User{}, apperr.InvalidArgument("username must not be empty")
	case strings.TrimSpace(p.Email) == "":
		return db.User{}, apperr.InvalidArgument("email must not be empty")
	case len(p.Password) < 6:
		return db.User{}, apperr.InvalidArgument("password must be at least 6 characters")
	case p.Age < 18:
		return db.User{}, apperr.InvalidArgument("must be 18 or older")
	case p.Gender != "male" && p.Gender != "female":
		return db.User{}, apperr.InvalidArgument("gender must be male or female")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return db.User{}, err
	}

	user := db.User{
		Username:     strings.TrimSpace(p.Username),
		Email:        strings.TrimSpace(p.Email),
		PasswordHash: string(hash),
		DisplayName:  p.DisplayName,
		Age:          p.Age,
		Bio:          p.Bio,
		PhotoURLs:    strings.Join(p.PhotoURLs, ","),
		Gender:       p.Gender,
		MaxDistance:  50,
		AgeMin:       18,
		AgeMax:       30,
		ShowMen:      true,
		ShowWomen:    true,
		Active:       true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return db.User{}, err
	}

	s.appCtx.Logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Get returns a user's profile.
func (s *Service) Get(ctx context.Context, id uint64) (db.User, error) {
	return s.users.Get(ctx, id)
}

// UpdateBio replaces the profile bio.
func (s *Service) UpdateBio(ctx context.Context, id uint64, bio string) error {
	return s.users.UpdateBio(ctx, id, bio)
}

// UpdatePreferences replaces the discovery preferences.
func (s *Service) UpdatePreferences(ctx context.Context, id uint64, p Preferences) error {
	if p.AgeMin < 18 || p.AgeMax < p.AgeMin {
		return apperr.InvalidArgument("age range must be 18+ and ordered")
	}
	return s.users.UpdatePreferences(ctx, id, p.MaxDistance, p.AgeMin, p.AgeMax, p.ShowMen, p.ShowWomen)
}

// UpgradeGold flips the gold-membership flag on.
// Payment integration happens upstream; this only records the entitlement.
func (s *Service) UpgradeGold(ctx context.Context, id uint64) error {
	return s.users.SetGoldMember(ctx, id, true)
}
