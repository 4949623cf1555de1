package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
)

// CandidateScope narrows or reorders the candidate pool query. Scopes are the
// pluggable hook for ranking/pagination strategies; the default pool is an
// unranked scan filtered only by swipe history.
type CandidateScope func(*gorm.DB) *gorm.DB

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user. Username/email collisions surface as
// ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return apperr.Map(err)
	}
	return nil
}

// Get returns a user by id, or ErrNotFound.
func (r *UserRepository) Get(ctx context.Context, id uint64) (db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return db.User{}, apperr.Map(err)
	}
	return user, nil
}

// GetCandidates returns the candidate pool for a user: every active profile
// except their own and any they already decided on.
//
// Behavior:
//   - Exclusion is a NOT EXISTS over the swipes table, so a freshly committed
//     decision removes the candidate on the next fetch.
//   - No ordering guarantee; additional scopes (preference filter, future
//     ranking) compose onto the query without touching match logic.
//
// Example:
//
//	repo.GetCandidates(ctx, 1, repository.PreferencesOf(viewer))
func (r *UserRepository) GetCandidates(
	ctx context.Context,
	userID uint64,
	scopes ...CandidateScope,
) ([]db.User, error) {
	query := r.db.WithContext(ctx).
		Table("users u").
		Where("u.id <> ? AND u.active = true", userID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM swipes s
				WHERE s.actor_id = ?
				  AND s.recipient_id = u.id
			)`, userID)

	for _, scope := range scopes {
		query = scope(query)
	}

	var users []db.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// PreferencesOf builds a candidate scope from a viewer's discovery
// preferences: gender visibility and age range.
func PreferencesOf(viewer db.User) CandidateScope {
	return func(q *gorm.DB) *gorm.DB {
		genders := make([]string, 0, 2)
		if viewer.ShowMen {
			genders = append(genders, "male")
		}
		if viewer.ShowWomen {
			genders = append(genders, "female")
		}
		return q.
			Where("u.gender IN ?", genders).
			Where("u.age BETWEEN ? AND ?", viewer.AgeMin, viewer.AgeMax)
	}
}

// UpdateBio replaces the user's free-text bio.
func (r *UserRepository) UpdateBio(ctx context.Context, id uint64, bio string) error {
	return r.update(ctx, id, map[string]any{"bio": bio})
}

// UpdatePreferences replaces the user's discovery preferences.
func (r *UserRepository) UpdatePreferences(
	ctx context.Context,
	id uint64,
	maxDistance, ageMin, ageMax int,
	showMen, showWomen bool,
) error {
	return r.update(ctx, id, map[string]any{
		"max_distance": maxDistance,
		"age_min":      ageMin,
		"age_max":      ageMax,
		"show_men":     showMen,
		"show_women":   showWomen,
	})
}

// SetGoldMember flips the gold-membership flag.
func (r *UserRepository) SetGoldMember(ctx context.Context, id uint64, gold bool) error {
	return r.update(ctx, id, map[string]any{"gold_member": gold})
}

func (r *UserRepository) update(ctx context.Context, id uint64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return apperr.Map(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
