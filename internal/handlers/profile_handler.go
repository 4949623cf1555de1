package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberdate/ember-backend/internal/app"
	"github.com/emberdate/ember-backend/internal/db"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/service/discovery"
	"github.com/emberdate/ember-backend/internal/service/profile"
)

// ProfileHandler manages signup, profile reads and the settings endpoints.
type ProfileHandler struct {
	appCtx   *app.AppContext
	profiles *profile.Service
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(appCtx *app.AppContext) *ProfileHandler {
	return &ProfileHandler{
		appCtx:   appCtx,
		profiles: profile.NewService(appCtx),
	}
}

// Register attaches the profile routes to the engine.
func (h *ProfileHandler) Register(r *gin.Engine) {
	r.POST("/users", h.Create)
	r.GET("/users/:id", h.Get)
	r.PATCH("/users/:id", h.UpdateBio)
	r.PUT("/users/:id/preferences", h.UpdatePreferences)
	r.POST("/users/:id/gold", h.UpgradeGold)
}

// profileResponse is the public view of a user; the password hash and email
// never leave the service.
type profileResponse struct {
	ID          uint64    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Age         int       `json:"age"`
	Bio         string    `json:"bio"`
	PhotoURLs   []string  `json:"photo_urls"`
	Gender      string    `json:"gender"`
	GoldMember  bool      `json:"gold_member"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProfileResponse(u db.User) profileResponse {
	photos := []string{}
	if u.PhotoURLs != "" {
		photos = strings.Split(u.PhotoURLs, ",")
	}
	return profileResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Age:         u.Age,
		Bio:         u.Bio,
		PhotoURLs:   photos,
		Gender:      u.Gender,
		GoldMember:  u.GoldMember,
		CreatedAt:   u.CreatedAt,
	}
}

// Create handles signup.
func (h *ProfileHandler) Create(c *gin.Context) {
	var req struct {
		Username    string   `json:"username" binding:"required"`
		Email       string   `json:"email" binding:"required"`
		Password    string   `json:"password" binding:"required"`
		DisplayName string   `json:"display_name" binding:"required"`
		Age         int      `json:"age" binding:"required"`
		Bio         string   `json:"bio"`
		PhotoURLs   []string `json:"photo_urls"`
		Gender      string   `json:"gender" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.profiles.Create(c.Request.Context(), profile.CreateParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Age:         req.Age,
		Bio:         req.Bio,
		PhotoURLs:   req.PhotoURLs,
		Gender:      req.Gender,
	})
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toProfileResponse(user))
}

// Get returns a profile by id.
func (h *ProfileHandler) Get(c *gin.Context) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	user, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(user))
}

// UpdateBio handles the profile-edit screen's save.
func (h *ProfileHandler) UpdateBio(c *gin.Context) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	var req struct {
		Bio string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.UpdateBio(c.Request.Context(), id, req.Bio); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdatePreferences handles the settings screen's save.
func (h *ProfileHandler) UpdatePreferences(c *gin.Context) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	var req struct {
		MaxDistance int  `json:"max_distance"`
		AgeMin      int  `json:"age_min"`
		AgeMax      int  `json:"age_max"`
		ShowMen     bool `json:"show_men"`
		ShowWomen   bool `json:"show_women"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.profiles.UpdatePreferences(c.Request.Context(), id, profile.Preferences{
		MaxDistance: req.MaxDistance,
		AgeMin:      req.AgeMin,
		AgeMax:      req.AgeMax,
		ShowMen:     req.ShowMen,
		ShowWomen:   req.ShowWomen,
	})
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// UpgradeGold records a gold-membership purchase.
func (h *ProfileHandler) UpgradeGold(c *gin.Context) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if err := h.profiles.UpgradeGold(c.Request.Context(), id); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
