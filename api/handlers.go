// Package api exposes the HTTP surface: acquisition, composition, session
// management, and the health probe.
package api

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"propshot/apperr"
	"propshot/caption"
	"propshot/models"
	"propshot/scraper"
	"propshot/sessions"
	"propshot/storage"
)

// maxImagesReturned caps the image list in the scrape response. The full
// harvest count is still reported via TotalFound.
const maxImagesReturned = 50

// Acquirer runs the login-and-harvest pipeline for one listing URL.
type Acquirer interface {
	Acquire(ctx context.Context, listingURL string) ([]string, error)
}

// Composer renders the selection into an encoded JPEG.
type Composer interface {
	Generate(ctx context.Context, hero string, details []string, info models.PropertyInfo, layout string) ([]byte, error)
}

type Handler struct {
	acquirer    Acquirer
	composer    Composer
	store       *sessions.Store
	publisher   storage.Publisher
	downloadDir string
}

func NewHandler(acquirer Acquirer, composer Composer, store *sessions.Store, publisher storage.Publisher, downloadDir string) *Handler {
	if publisher == nil {
		publisher = storage.NoOpPublisher{}
	}
	return &Handler{
		acquirer:    acquirer,
		composer:    composer,
		store:       store,
		publisher:   publisher,
		downloadDir: downloadDir,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/scrape", h.Scrape)
	e.POST("/generate", h.Generate)
	e.GET("/sessions", h.ListSessions)
	e.DELETE("/sessions/:id", h.DeleteSession)
	e.GET("/local-images", h.LocalImages)
	e.GET("/health", h.Health)
}

func (h *Handler) Scrape(c echo.Context) error {
	var req models.ScrapeRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.New(apperr.KindInvalidInput, "malformed request body"))
	}
	if req.ListingURL == "" {
		return writeError(c, apperr.New(apperr.KindInvalidInput, "listing_url is required"))
	}

	images, err := h.acquirer.Acquire(c.Request().Context(), req.ListingURL)
	if err != nil {
		return writeError(c, err)
	}

	sess := h.store.Put(images, req.ListingURL)

	returned := images
	if len(returned) > maxImagesReturned {
		returned = returned[:maxImagesReturned]
	}
	return c.JSON(http.StatusOK, models.ScrapedImages{
		SessionID:  sess.ID,
		Images:     returned,
		ListingURL: req.ListingURL,
		TotalFound: len(images),
	})
}

func (h *Handler) Generate(c echo.Context) error {
	var req models.ImageSelection
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperr.New(apperr.KindInvalidInput, "malformed request body"))
	}
	if req.SessionID == "" {
		return writeError(c, apperr.New(apperr.KindInvalidInput, "session_id is required"))
	}
	if req.HeroImageURL == "" {
		return writeError(c, apperr.New(apperr.KindInvalidInput, "hero_image_url is required"))
	}

	if _, err := h.store.Get(req.SessionID); err != nil {
		return writeError(c, err)
	}

	info, err := models.NewPropertyInfo(req.PropertyInfo)
	if err != nil {
		return writeError(c, err)
	}

	jpeg, err := h.composer.Generate(c.Request().Context(), req.HeroImageURL, req.DetailImages, info, req.Layout)
	if err != nil {
		return writeError(c, err)
	}

	// Publishing is best effort. A missing URL in the response is preferable
	// to failing a request whose image already rendered.
	publishedURL, err := h.publisher.PublishPost(c.Request().Context(), req.SessionID, jpeg)
	if err != nil {
		log.Printf("Publish post for %s: %v", req.SessionID, err)
		publishedURL = ""
	}

	return c.JSON(http.StatusOK, models.GeneratedContent{
		SessionID:    req.SessionID,
		ImageBase64:  base64.StdEncoding.EncodeToString(jpeg),
		Caption:      caption.Caption(info),
		Hashtags:     caption.Hashtags(info),
		PublishedURL: publishedURL,
	})
}

func (h *Handler) ListSessions(c echo.Context) error {
	live := h.store.List()
	summaries := make([]models.SessionSummary, 0, len(live))
	for _, sess := range live {
		summaries = append(summaries, models.SessionSummary{
			SessionID:  sess.ID,
			ImageCount: len(sess.Images),
			ListingURL: sess.ListingURL,
			AgeMinutes: h.store.Age(sess).Minutes(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": summaries,
		"total":    len(summaries),
	})
}

func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.store.Delete(c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Session deleted successfully",
	})
}

// LocalImages lists previously downloaded images ranked best-first, so a
// client can pick local hero and detail files for /generate.
func (h *Handler) LocalImages(c echo.Context) error {
	entries, err := os.ReadDir(h.downloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(http.StatusOK, map[string]interface{}{
				"images": []string{},
				"total":  0,
			})
		}
		return writeError(c, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif", ".webp":
			paths = append(paths, filepath.Join(h.downloadDir, entry.Name()))
		}
	}

	ranked := scraper.SortByQuality(paths)
	if ranked == nil {
		ranked = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"images": ranked,
		"total":  len(ranked),
	})
}

// Health reports liveness and runs the TTL sweep as a side effect.
func (h *Handler) Health(c echo.Context) error {
	active := h.store.Sweep()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":          "healthy",
		"active_sessions": active,
	})
}

// writeError maps the error taxonomy onto HTTP statuses and emits the uniform
// failure envelope.
func writeError(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = "internal_error"
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindInvalidInput:
		status = http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindImageLoad:
		status = http.StatusBadRequest
	case apperr.KindAuthFailed, apperr.KindAcquisition:
		status = http.StatusBadGateway
	}

	return c.JSON(status, models.ErrorResponse{
		Kind:   string(kind),
		Detail: err.Error(),
	})
}
