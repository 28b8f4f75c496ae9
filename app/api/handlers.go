package api

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Reaperrhs/RSS-Feed-Generator/app/cfg"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/database"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/feed"
	"github.com/gin-gonic/gin"
)

func NewHandler(repo FeedRepository, pipeline GeneratorPipeline, parser ChannelParser,
	uploader Uploader, defaultCacheAge int) *Handler {
	return &Handler{
		repo:            repo,
		pipeline:        pipeline,
		parser:          parser,
		uploader:        uploader,
		defaultCacheAge: defaultCacheAge,
	}
}

func (h *Handler) GenerateFeed(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	cacheSeconds := h.defaultCacheAge
	if raw := c.Query("cache"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			cacheSeconds = parsed
		}
	}

	_, xmlContent, err := h.pipeline.Run(c.Request.Context(), pageURL)
	if errors.Is(err, feed.ErrUnreachable) {
		slog.Error("Page unreachable", "url", pageURL, "error", err)
		c.Header("Content-Type", "application/xml; charset=utf-8")
		c.String(http.StatusOK, h.pipeline.UnavailableFeed(pageURL))
		return
	}
	if err != nil {
		slog.Error("Feed generation error", "url", pageURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Feed generation failed",
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", database.ClampCacheSeconds(cacheSeconds)))
	c.String(http.StatusOK, xmlContent)
}

func (h *Handler) GetFeedByID(c *gin.Context) {
	id := c.Param("id")

	record, err := h.repo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "id", id, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if record == nil {
		slog.Error("Feed not found in database", "id", id)
		c.Status(http.StatusNotFound)
		return
	}

	xmlContent := record.XMLContent
	if xmlContent == "" || record.Stale(time.Now()) {
		regenerated, err := h.regenerate(c.Request.Context(), record)
		switch {
		case err == nil:
			xmlContent = regenerated
		case xmlContent != "":
			// Stored content stays servable through upstream outages.
			slog.Warn("Feed regeneration failed, serving stored content", "id", id, "url", record.URL, "error", err)
		case errors.Is(err, feed.ErrUnreachable):
			slog.Error("Page unreachable", "id", id, "url", record.URL, "error", err)
			c.Header("Content-Type", "application/xml; charset=utf-8")
			c.String(http.StatusOK, h.pipeline.UnavailableFeed(record.URL))
			return
		default:
			slog.Error("Feed regeneration error", "id", id, "url", record.URL, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d", database.ClampCacheSeconds(record.CacheSeconds)))
	c.Header("X-Feed-ID", record.ID)
	c.Header("X-Feed-Type", record.Type)

	c.String(http.StatusOK, xmlContent)
}

func (h *Handler) regenerate(ctx context.Context, record *database.FeedRecord) (string, error) {
	_, xmlContent, err := h.pipeline.Run(ctx, record.URL)
	if err != nil {
		return "", err
	}

	if err := h.repo.UpdateContent(record.ID, xmlContent); err != nil {
		slog.Error("Database error", "operation", "update_content", "id", record.ID, "error", err)
	}

	return xmlContent, nil
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.GetVersion(),
	}

	if feedCount, err := h.repo.Count(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

type createFeedRequest struct {
	URL          string        `json:"url"`
	Type         string        `json:"type"`
	CacheSeconds int           `json:"cache_seconds"`
	Title        string        `json:"title"`
	Upload       *UploadConfig `json:"upload"`
}

func (h *Handler) CreateFeed(c *gin.Context) {
	var req createFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url field"})
		return
	}

	feedType := cmp.Or(req.Type, database.FeedTypeDynamic)
	if feedType != database.FeedTypeStatic && feedType != database.FeedTypeDynamic {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Feed type must be %q or %q", database.FeedTypeStatic, database.FeedTypeDynamic),
		})
		return
	}

	cacheSeconds := req.CacheSeconds
	if cacheSeconds == 0 {
		cacheSeconds = h.defaultCacheAge
	}

	channel, xmlContent, err := h.pipeline.Run(c.Request.Context(), req.URL)
	if errors.Is(err, feed.ErrUnreachable) {
		slog.Error("Page unreachable", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Source page unreachable", "details": err.Error()})
		return
	}
	if err != nil {
		slog.Error("Feed generation error", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Feed generation failed",
			"details": err.Error(),
		})
		return
	}

	record := &database.FeedRecord{
		URL:          req.URL,
		Title:        cmp.Or(req.Title, channel.Title),
		Type:         feedType,
		CacheSeconds: database.ClampCacheSeconds(cacheSeconds),
	}

	id, err := h.repo.Upsert(record)
	if err != nil {
		slog.Error("Database error", "operation", "upsert_feed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := h.repo.UpdateContent(id, xmlContent); err != nil {
		slog.Error("Database error", "operation", "update_content", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"id":            id,
		"url":           record.URL,
		"title":         record.Title,
		"type":          record.Type,
		"cache_seconds": record.CacheSeconds,
		"feed_url":      "/feeds/" + id,
	}

	if req.Upload != nil {
		result, err := h.upload(c.Request.Context(), id, *req.Upload, xmlContent)
		if err != nil {
			slog.Error("Upload error", "id", id, "error", err)
			response["upload_error"] = err.Error()
		} else {
			response["file_id"] = result.FileID
			response["public_url"] = result.ViewURL
		}
	}

	c.JSON(http.StatusCreated, response)
}

func (h *Handler) upload(ctx context.Context, id string, config UploadConfig, xmlContent string) (*UploadResult, error) {
	if h.uploader == nil {
		return nil, errors.New("no uploader configured")
	}

	result, err := h.uploader.Upload(ctx, UploadRequest{
		XML:      xmlContent,
		FileName: id + ".xml",
		Config:   config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload feed: %w", err)
	}

	if err := h.repo.SetUpload(id, result.FileID, result.ViewURL); err != nil {
		slog.Error("Database error", "operation", "set_upload", "id", id, "error", err)
	}

	return result, nil
}

func (h *Handler) ListFeeds(c *gin.Context) {
	records, err := h.repo.List()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	feeds := make([]map[string]interface{}, 0, len(records))

	for _, record := range records {
		feedInfo := map[string]interface{}{
			"id":            record.ID,
			"url":           record.URL,
			"title":         record.Title,
			"type":          record.Type,
			"cache_seconds": record.CacheSeconds,
			"created_at":    record.CreatedAt,
			"updated_at":    record.UpdatedAt,
		}

		if record.PublicURL != "" {
			feedInfo["public_url"] = record.PublicURL
		}

		feeds = append(feeds, feedInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}

func (h *Handler) GetFeedDetailsByID(c *gin.Context) {
	id := c.Param("id")

	record, err := h.repo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if record == nil {
		slog.Error("Feed not found in database", "id", id)
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	details := map[string]interface{}{
		"id":            record.ID,
		"url":           record.URL,
		"title":         record.Title,
		"type":          record.Type,
		"cache_seconds": record.CacheSeconds,
		"public_url":    record.PublicURL,
		"file_id":       record.FileID,
		"created_at":    record.CreatedAt,
		"updated_at":    record.UpdatedAt,
	}

	if record.XMLContent != "" {
		if channel, err := h.parser.Run(record.XMLContent); err == nil {
			details["parsed_channel"] = channel
		} else {
			slog.Error("Stored content parse error", "id", id, "error", err)
			details["parse_error"] = err.Error()
		}
	}

	c.JSON(http.StatusOK, details)
}

func (h *Handler) DeleteFeedByID(c *gin.Context) {
	id := c.Param("id")

	record, err := h.repo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found in database"})
		return
	}

	if err := h.repo.Delete(id); err != nil {
		slog.Error("Database error", "operation", "delete_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Feed deleted",
		"feed": gin.H{
			"id":    record.ID,
			"url":   record.URL,
			"title": record.Title,
		},
	})
}
