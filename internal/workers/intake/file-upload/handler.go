// internal/workers/intake/file-upload/handler.go
package fileupload

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/observability"
	"quote-intake/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const TaskType = "file-upload"

type Handler struct {
	config  *Config
	storage Storage
	obs     *observability.Observability
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(config *Config, storage Storage, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		storage: storage,
		obs:     obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
		now: time.Now,
	}
}

// UploadFiles stores every accepted attachment and returns their assets in
// input order. Files that are neither images nor PDFs are skipped. Any single
// failure aborts the whole batch with UPLOAD_FAILED.
func (h *Handler) UploadFiles(ctx context.Context, files []models.LocalFile) ([]models.UploadedAsset, error) {
	accepted := make([]models.LocalFile, 0, len(files))
	for _, f := range files {
		if IsAllowedType(f.ContentType) {
			accepted = append(accepted, f)
			continue
		}
		h.logger.Info("skipping unsupported attachment", map[string]interface{}{
			"file":        f.Name,
			"contentType": f.ContentType,
		})
	}
	if len(accepted) == 0 {
		return []models.UploadedAsset{}, nil
	}

	start := time.Now()
	assets := make([]models.UploadedAsset, len(accepted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.MaxConcurrency)
	for i, f := range accepted {
		g.Go(func() error {
			key := h.storageKey(f)
			url, err := h.storage.Put(gctx, key, mediaType(f.ContentType), f.Data)
			if err != nil {
				return errors.NewUploadFailedError(f.Name, err)
			}
			assets[i] = models.UploadedAsset{Name: f.Name, URL: url}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		h.obs.RecordCall(ctx, TaskType, "error", time.Since(start))
		h.logger.Error("attachment upload failed", map[string]interface{}{
			"fileCount": len(accepted),
			"error":     err.Error(),
		})
		return nil, err
	}

	h.obs.RecordCall(ctx, TaskType, "success", time.Since(start))
	h.logger.Info("attachments uploaded", map[string]interface{}{
		"fileCount": len(assets),
		"skipped":   len(files) - len(accepted),
	})
	return assets, nil
}

// IsAllowedType accepts image/* and application/pdf, ignoring parameters and case.
func IsAllowedType(contentType string) bool {
	mt := mediaType(contentType)
	return strings.HasPrefix(mt, "image/") || mt == "application/pdf"
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// storageKey is <prefix>/<unix millis>-<random token><ext>.
func (h *Handler) storageKey(f models.LocalFile) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s/%d-%s%s", h.config.KeyPrefix, h.now().UnixMilli(), token, extension(f))
}

func extension(f models.LocalFile) string {
	if ext := strings.ToLower(filepath.Ext(f.Name)); ext != "" && len(ext) <= 6 {
		return ext
	}
	return mimeToExt(mediaType(f.ContentType))
}

func mimeToExt(mt string) string {
	switch mt {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
