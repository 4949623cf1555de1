package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emberdate/ember-backend/internal/app"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/repository"
	"github.com/emberdate/ember-backend/internal/service/discovery"
)

const likersPageSize = 5

// DiscoveryHandler exposes the candidate feed, the swipe endpoint and the
// gold-gated liked-you endpoints.
type DiscoveryHandler struct {
	appCtx *app.AppContext
	svc    *discovery.Service
}

// NewDiscoveryHandler builds a DiscoveryHandler.
func NewDiscoveryHandler(appCtx *app.AppContext, svc *discovery.Service) *DiscoveryHandler {
	return &DiscoveryHandler{appCtx: appCtx, svc: svc}
}

// Register attaches the discovery routes to the engine.
func (h *DiscoveryHandler) Register(r *gin.Engine) {
	r.GET("/users/:id/candidates", h.Candidates)
	r.POST("/swipes", h.Swipe)
	r.GET("/users/:id/likes/count", h.CountLikedYou)
	r.GET("/users/:id/likes", h.ListLikedYou)
	r.GET("/users/:id/likes/new", h.ListNewLikedYou)
}

// Candidates returns the swipe feed for a user.
// ?preferences=true applies the viewer's discovery preferences as a filter.
func (h *DiscoveryHandler) Candidates(c *gin.Context) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	var scopes []repository.CandidateScope
	if c.Query("preferences") == "true" {
		viewer, err := h.svc.Viewer(c.Request.Context(), id)
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		scopes = append(scopes, repository.PreferencesOf(viewer))
	}

	candidates, err := h.svc.GetCandidates(c.Request.Context(), id, scopes...)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	responses := make([]profileResponse, 0, len(candidates))
	for _, u := range candidates {
		responses = append(responses, toProfileResponse(u))
	}

	c.JSON(http.StatusOK, gin.H{"candidates": responses})
}

// Swipe commits a like/pass decision and reports the match outcome.
func (h *DiscoveryHandler) Swipe(c *gin.Context) {
	var req struct {
		ActorID     uint64 `json:"actor_id" binding:"required"`
		RecipientID uint64 `json:"recipient_id" binding:"required"`
		Liked       *bool  `json:"liked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.svc.RecordSwipe(c.Request.Context(), req.ActorID, req.RecipientID, *req.Liked)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// CountLikedYou returns the viewer's received-like count. Gold members only.
func (h *DiscoveryHandler) CountLikedYou(c *gin.Context) {
	id, ok := h.goldViewer(c)
	if !ok {
		return
	}

	count, err := h.svc.CountLikedYou(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ListLikedYou returns the paginated liked-you listing. Gold members only.
func (h *DiscoveryHandler) ListLikedYou(c *gin.Context) {
	id, ok := h.goldViewer(c)
	if !ok {
		return
	}

	var token *string
	if raw := c.Query("pagination_token"); raw != "" {
		token = &raw
	}

	likers, nextToken, err := h.svc.ListLikedYou(c.Request.Context(), id, token, likersPageSize)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"likers": likers}
	if nextToken != nil {
		resp["next_pagination_token"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}

// ListNewLikedYou returns the paginated likers the viewer has not liked back.
// Gold members only.
func (h *DiscoveryHandler) ListNewLikedYou(c *gin.Context) {
	id, ok := h.goldViewer(c)
	if !ok {
		return
	}

	var token *string
	if raw := c.Query("pagination_token"); raw != "" {
		token = &raw
	}

	likers, nextToken, err := h.svc.ListNewLikedYou(c.Request.Context(), id, token, likersPageSize)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"likers": likers}
	if nextToken != nil {
		resp["next_pagination_token"] = *nextToken
	}
	c.JSON(http.StatusOK, resp)
}

// goldViewer parses the path user id and enforces the gold-membership gate.
func (h *DiscoveryHandler) goldViewer(c *gin.Context) (uint64, bool) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return 0, false
	}

	viewer, err := h.svc.Viewer(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return 0, false
	}
	if !viewer.GoldMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "gold membership required"})
		return 0, false
	}
	return id, true
}
