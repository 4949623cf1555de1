package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/emberdate/ember-backend/internal/app"
	apperr "github.com/emberdate/ember-backend/internal/errors"
	"github.com/emberdate/ember-backend/internal/service/chat"
	"github.com/emberdate/ember-backend/internal/service/discovery"
	"github.com/emberdate/ember-backend/internal/service/match"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ChatHandler exposes the match list, message history, sending and the
// websocket subscription endpoint.
type ChatHandler struct {
	appCtx  *app.AppContext
	chats   *chat.Service
	matches *match.Service
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(appCtx *app.AppContext, chats *chat.Service, matches *match.Service) *ChatHandler {
	return &ChatHandler{appCtx: appCtx, chats: chats, matches: matches}
}

// Register attaches the chat routes to the engine.
func (h *ChatHandler) Register(r *gin.Engine) {
	r.GET("/users/:id/matches", h.ListMatches)
	r.GET("/matches/:id/messages", h.ListMessages)
	r.POST("/matches/:id/messages", h.SendMessage)
	r.GET("/ws/matches/:id", h.Subscribe)
}

// ListMatches returns a user's matches with the other profile hydrated.
func (h *ChatHandler) ListMatches(c *gin.Context) {
	id, err := discovery.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	summaries, err := h.matches.ListMatches(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": summaries})
}

// ListMessages returns a channel's history, oldest first.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	msgs, err := h.chats.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage appends a message to a match channel.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		SenderID uint64 `json:"sender_id" binding:"required"`
		Text     string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), c.Param("id"), req.SenderID, req.Text)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// Subscribe upgrades the connection and streams new-message events for a
// match channel until the client disconnects.
func (h *ChatHandler) Subscribe(c *gin.Context) {
	matchID := c.Param("id")

	if _, err := h.chats.GetMatch(c.Request.Context(), matchID); err != nil {
		c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.appCtx.Logger.Error("websocket upgrade failed", "match_id", matchID, "err", err)
		return
	}

	h.appCtx.Hub.Subscribe(matchID, conn)
	defer func() {
		h.appCtx.Hub.Unsubscribe(matchID, conn)
		conn.Close()
	}()

	// Drain the connection; subscribers only receive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
