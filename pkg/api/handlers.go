// Package api binds the ingestion pipeline, the gallery aggregator and
// the Telegram webhook to the HTTP surface.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/Kalpeny/edgeonepagesimg/pkg/clients/telegram"
	"github.com/Kalpeny/edgeonepagesimg/pkg/gallery"
	"github.com/Kalpeny/edgeonepagesimg/pkg/ingest"
	"github.com/Kalpeny/edgeonepagesimg/pkg/metrics"
	"github.com/Kalpeny/edgeonepagesimg/pkg/middleware"
	"github.com/Kalpeny/edgeonepagesimg/pkg/record"
	"github.com/Kalpeny/edgeonepagesimg/pkg/store"
)

// Handlers holds every collaborator the HTTP surface needs. The store is
// injected explicitly rather than looked up ambiently.
type Handlers struct {
	ingest  *ingest.Service
	gallery *gallery.Aggregator
	store   store.Store

	// bot is nil when no token is configured; the webhook endpoint then
	// answers 404 so probing cannot tell it exists.
	bot           *telegram.Client
	webhookSecret string

	reg *metrics.Registry
}

// NewHandlers constructs Handlers with provided collaborators.
func NewHandlers(ing *ingest.Service, gal *gallery.Aggregator, st store.Store, bot *telegram.Client, webhookSecret string, reg *metrics.Registry) *Handlers {
	return &Handlers{
		ingest:        ing,
		gallery:       gal,
		store:         st,
		bot:           bot,
		webhookSecret: webhookSecret,
		reg:           reg,
	}
}

// Register attaches all routes. /list and /delete sit behind the bearer
// key.
func (h *Handlers) Register(e *echo.Echo, apiKey string) {
	auth := middleware.BearerAuth(apiKey)

	e.POST("/", h.Upload)
	e.POST("/upload", h.Upload)
	e.GET("/list", h.List, auth)
	e.GET("/i/:key", h.Image)
	e.DELETE("/delete/:key", h.Delete, auth)
	e.POST("/telegram-webhook", h.TelegramWebhook)

	if h.reg != nil {
		e.GET("/metrics", h.reg.HandlerText)
		e.GET("/metrics.json", h.reg.HandlerJSON)
	}
}

type uploadResponse struct {
	Success      bool   `json:"success"`
	Filename     string `json:"filename"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

type listResponse struct {
	Success bool              `json:"success"`
	Count   int               `json:"count"`
	Images  []gallery.Summary `json:"images"`
}

func errBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// Upload handles POST / and POST /upload: multipart field "image".
func (h *Handlers) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errBody(ingest.ErrMissingFile.Error()))
	}
	// Reject on the declared size before buffering the body.
	if fh.Size > ingest.MaxImageBytes {
		return c.JSON(http.StatusBadRequest, errBody(ingest.ErrTooLarge.Error()))
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errBody("unreadable image file"))
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errBody("unreadable image file"))
	}

	key, _, err := h.ingest.IngestUpload(ctx, raw, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		var storeErr *ingest.StorageError
		if errors.As(err, &storeErr) {
			return c.JSON(http.StatusInternalServerError, errBody("upload failed: "+storeErr.Error()))
		}
		return c.JSON(http.StatusBadRequest, errBody(err.Error()))
	}

	return c.JSON(http.StatusOK, uploadResponse{
		Success:      true,
		Filename:     key,
		URL:          "/i/" + key,
		OriginalName: fh.Filename,
		Size:         int64(len(raw)),
	})
}

// List handles GET /list.
func (h *Handlers) List(c echo.Context) error {
	images, err := h.gallery.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errBody("failed to list images: "+err.Error()))
	}
	return c.JSON(http.StatusOK, listResponse{
		Success: true,
		Count:   len(images),
		Images:  images,
	})
}

// Image handles GET /i/:key, serving the decoded payload with its stored
// MIME type.
func (h *Handlers) Image(c echo.Context) error {
	ctx := c.Request().Context()
	key := c.Param("key")

	value, ok, err := h.store.Get(ctx, key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errBody("failed to read image"))
	}
	if !ok {
		return c.JSON(http.StatusNotFound, errBody("image not found"))
	}

	rec, err := record.Decode(value)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("stored record unreadable")
		return c.JSON(http.StatusNotFound, errBody("image not found"))
	}
	payload, err := rec.Payload()
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("stored payload unreadable")
		return c.JSON(http.StatusNotFound, errBody("image not found"))
	}

	ctype := rec.Metadata.Type
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, ctype, payload)
}

// Delete handles DELETE /delete/:key.
func (h *Handlers) Delete(c echo.Context) error {
	key := c.Param("key")
	if err := h.store.Delete(c.Request().Context(), key); err != nil {
		return c.JSON(http.StatusInternalServerError, errBody("failed to delete image"))
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
