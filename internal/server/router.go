package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notebin/notebin/backend/internal/notes"
	"go.uber.org/zap"
)

var errMissingNotesService = errors.New("notes service dependency required")

type Dependencies struct {
	NotesService *notes.Service
	Logger       *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		notesService: deps.NotesService,
		logger:       logger,
	}

	api := router.Group("/api")
	api.GET("/", handler.handleListRecent)
	api.POST("/create", handler.handleCreate)
	api.GET("/check/:short_url", handler.handleCheckAvailability)
	api.GET("/threads/:parent_id", handler.handleListThreads)
	api.GET("/:short_url", handler.handleGetNote)
	api.GET("/:short_url/versions", handler.handleListVersions)
	api.PUT("/:short_url", handler.handleUpdate)

	return router, nil
}

// requestLogger tags every request with a UUIDv7 id and logs the outcome.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := ""
		if id, err := uuid.NewV7(); err == nil {
			requestID = id.String()
			c.Writer.Header().Set("X-Request-ID", requestID)
		}

		start := time.Now()
		c.Next()

		logger.Info("request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

type httpHandler struct {
	notesService *notes.Service
	logger       *zap.Logger
}

type notePayload struct {
	ID        uint       `json:"id"`
	ShortURL  string     `json:"short_url"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	ParentID  *uint      `json:"parent_id"`
}

func toNotePayload(note notes.Note) notePayload {
	return notePayload{
		ID:        note.ID,
		ShortURL:  note.ShortURL,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		ExpiresAt: note.ExpiresAt,
		ParentID:  note.ParentID,
	}
}

func toNotePayloads(list []notes.Note) []notePayload {
	payloads := make([]notePayload, 0, len(list))
	for _, note := range list {
		payloads = append(payloads, toNotePayload(note))
	}
	return payloads
}

func (h *httpHandler) handleListRecent(c *gin.Context) {
	list, err := h.notesService.ListRecent(c.Request.Context(), notes.DefaultRecentLimit)
	if err != nil {
		h.logger.Error("failed to list notes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get notes"})
		return
	}
	c.JSON(http.StatusOK, toNotePayloads(list))
}

func (h *httpHandler) handleGetNote(c *gin.Context) {
	slug, err := notes.NewSlug(c.Param("short_url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_short_url"})
		return
	}

	note, err := h.notesService.Get(c.Request.Context(), slug)
	if errors.Is(err, notes.ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get note", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get note"})
		return
	}

	c.JSON(http.StatusOK, toNotePayload(note))
}

func (h *httpHandler) handleCheckAvailability(c *gin.Context) {
	slug, err := notes.NewSlug(c.Param("short_url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_short_url"})
		return
	}

	available, err := h.notesService.CheckAvailability(c.Request.Context(), slug)
	if err != nil {
		h.logger.Error("failed to check availability", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check URL availability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

type createRequestPayload struct {
	ShortURL  string `json:"short_url"`
	Content   string `json:"content"`
	ExpiresAt string `json:"expires_at"`
	ParentID  *uint  `json:"parent_id"`
}

func (h *httpHandler) handleCreate(c *gin.Context) {
	var request createRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	slug, err := notes.NewSlug(request.ShortURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_short_url"})
		return
	}

	_, err = h.notesService.Create(c.Request.Context(), notes.CreateRequest{
		Slug:      slug,
		Content:   request.Content,
		ExpiresAt: request.ExpiresAt,
		ParentID:  request.ParentID,
	})
	if errors.Is(err, notes.ErrSlugTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "URL already taken"})
		return
	}
	if err != nil {
		h.logger.Error("failed to create note", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note created successfully"})
}

type updateRequestPayload struct {
	Content string `json:"content"`
}

func (h *httpHandler) handleUpdate(c *gin.Context) {
	slug, err := notes.NewSlug(c.Param("short_url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_short_url"})
		return
	}

	var request updateRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	_, err = h.notesService.Update(c.Request.Context(), slug, request.Content)
	if errors.Is(err, notes.ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update note", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update note"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Note updated successfully"})
}

func (h *httpHandler) handleListThreads(c *gin.Context) {
	parentID, err := strconv.ParseUint(c.Param("parent_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_parent_id"})
		return
	}

	children, err := h.notesService.ListChildren(c.Request.Context(), uint(parentID))
	if err != nil {
		h.logger.Error("failed to list thread", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get thread"})
		return
	}

	c.JSON(http.StatusOK, toNotePayloads(children))
}

type versionPayload struct {
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *httpHandler) handleListVersions(c *gin.Context) {
	slug, err := notes.NewSlug(c.Param("short_url"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_short_url"})
		return
	}

	versions, err := h.notesService.ListVersions(c.Request.Context(), slug)
	if errors.Is(err, notes.ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to list versions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get versions"})
		return
	}

	payloads := make([]versionPayload, 0, len(versions))
	for _, version := range versions {
		payloads = append(payloads, versionPayload{
			Version:   version.Version,
			Content:   version.Content,
			CreatedAt: version.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, payloads)
}
