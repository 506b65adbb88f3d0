package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/NorthPierLabs/weathernow/internal/announce"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminPasswordHeader carries the shared admin secret on mutating requests.
const AdminPasswordHeader = "X-Admin-Password"

var (
	errMissingStore = errors.New("announcement store dependency required")
	errMissingGate  = errors.New("admin gate dependency required")
)

// Dependencies wires the HTTP layer to its collaborators.
type Dependencies struct {
	Store  *announce.Store
	Gate   *AdminGate
	Logger *zap.Logger
	Clock  func() time.Time
}

// NewHTTPHandler builds the announcement API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.Gate == nil {
		return nil, errMissingGate
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", AdminPasswordHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		store:   deps.Store,
		gate:    deps.Gate,
		logger:  logger,
		clock:   clock,
		started: clock(),
	}

	router.GET("/api/health", handler.handleHealth)
	router.GET("/api/messages", handler.handleListMessages)
	router.POST("/api/announce", handler.handleAnnounce)

	admin := router.Group("/api")
	admin.Use(handler.requireAdmin)
	admin.DELETE("/messages/:id", handler.handleDeleteMessage)
	admin.DELETE("/messages", handler.handleClearMessages)

	return router, nil
}

type httpHandler struct {
	store   *announce.Store
	gate    *AdminGate
	logger  *zap.Logger
	clock   func() time.Time
	started time.Time
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	uptime := h.clock().Sub(h.started).Seconds()
	c.JSON(http.StatusOK, gin.H{"ok": true, "uptime": uptime})
}

func (h *httpHandler) handleListMessages(c *gin.Context) {
	since, err := strconv.ParseInt(c.Query("since"), 10, 64)
	if err != nil {
		since = 0
	}
	c.JSON(http.StatusOK, h.store.ListSince(since))
}

type announceRequestPayload struct {
	Password string `json:"password"`
	Text     string `json:"text"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Display  string `json:"display"`
	Duration int    `json:"duration"`
	TTS      bool   `json:"tts"`
}

func (h *httpHandler) handleAnnounce(c *gin.Context) {
	var request announceRequestPayload
	// A bind failure leaves the payload zero-valued; the empty text is
	// rejected below, after the auth check.
	_ = c.ShouldBindJSON(&request)

	supplied := c.GetHeader(AdminPasswordHeader)
	if supplied == "" {
		supplied = request.Password
	}
	if !h.gate.Authorize(supplied) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	record, err := h.store.Append(announce.Draft{
		Text:     request.Text,
		Title:    request.Title,
		Type:     announce.Type(request.Type),
		Display:  announce.Display(request.Display),
		Duration: request.Duration,
		TTS:      request.TTS,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}

	h.logger.Info("announcement created",
		zap.Int64("id", record.ID),
		zap.String("type", string(record.Type)),
		zap.String("display", string(record.Display)),
		zap.String("text", truncate(record.Text, 80)),
		zap.String("request_id", c.GetString(requestIDContextKey)))

	c.JSON(http.StatusCreated, record)
}

func (h *httpHandler) handleDeleteMessage(c *gin.Context) {
	// A malformed id matches no record; the idempotent-success contract
	// still answers ok.
	if id, err := strconv.ParseInt(c.Param("id"), 10, 64); err == nil {
		h.store.Delete(id)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) handleClearMessages(c *gin.Context) {
	h.store.Clear()
	h.logger.Info("announcements cleared",
		zap.String("request_id", c.GetString(requestIDContextKey)))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *httpHandler) requireAdmin(c *gin.Context) {
	if !h.gate.Authorize(c.GetHeader(AdminPasswordHeader)) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
