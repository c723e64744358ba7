// internal/workers/intake/submission-persist/handler.go
package submissionpersist

import (
	"context"
	"errors"
	"strings"
	"time"

	commonerrors "quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/observability"
	"quote-intake/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType      = "submission-persist"
	lockKeyPrefix = "submission:lock:"
	doneKeyPrefix = "submission:done:"
)

type Handler struct {
	config *Config
	store  Store
	redis  redis.Cmdable
	obs    *observability.Observability
	logger logger.Logger
	now    func() time.Time
}

// NewHandler builds the persistence client. rdb and obs may be nil; the
// store's unique idempotency key still prevents duplicates without Redis.
func NewHandler(config *Config, store Store, rdb redis.Cmdable, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		store:  store,
		redis:  rdb,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
		now: time.Now,
	}
}

// Persist stores the completed lead once per key. A repeated key returns the
// stored record; a key whose insert is still in flight is rejected with
// PERSIST_IN_PROGRESS; a store failure yields PERSIST_FAILED.
func (h *Handler) Persist(ctx context.Context, key string, draft models.DraftSubmission, assets []models.UploadedAsset, estimate models.Estimate) (*models.Submission, error) {
	log := h.logger.WithFields(map[string]interface{}{"idempotencyKey": key})

	if existing, ok := h.replay(ctx, key, log); ok {
		return existing, nil
	}

	if !h.acquire(ctx, key, log) {
		return nil, commonerrors.NewPersistInProgressError(key)
	}

	start := time.Now()
	stored, err := h.store.Create(ctx, key, BuildSubmission(draft, assets, estimate, h.now()))
	if err != nil {
		h.release(ctx, key)
		h.obs.RecordCall(ctx, TaskType, "error", time.Since(start))
		log.Error("failed to persist submission", map[string]interface{}{"error": err.Error()})
		return nil, commonerrors.NewPersistFailedError(err)
	}
	h.obs.RecordCall(ctx, TaskType, "success", time.Since(start))

	if h.redis != nil {
		if err := h.redis.Set(ctx, doneKeyPrefix+key, stored.ID, h.config.DoneTTL).Err(); err != nil {
			log.Warn("failed to record completed submission", map[string]interface{}{"error": err.Error()})
		}
	}
	h.release(ctx, key)

	log.Info("submission persisted", map[string]interface{}{
		"submissionId":   stored.ID,
		"demolitionType": stored.DemolitionType,
		"fileCount":      len(stored.UploadedFiles),
	})
	return stored, nil
}

func (h *Handler) replay(ctx context.Context, key string, log logger.Logger) (*models.Submission, bool) {
	if h.redis == nil {
		return nil, false
	}
	id, err := h.redis.Get(ctx, doneKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("idempotency lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	existing, err := h.store.GetByID(ctx, id)
	if err != nil {
		log.Warn("stored submission could not be loaded", map[string]interface{}{
			"submissionId": id,
			"error":        err.Error(),
		})
		return nil, false
	}
	log.Info("submission already persisted, replaying", map[string]interface{}{"submissionId": id})
	return existing, true
}

// acquire takes the per-key lock. Redis being unavailable does not block the insert.
func (h *Handler) acquire(ctx context.Context, key string, log logger.Logger) bool {
	if h.redis == nil {
		return true
	}
	ok, err := h.redis.SetNX(ctx, lockKeyPrefix+key, "1", h.config.LockTTL).Result()
	if err != nil {
		log.Warn("idempotency lock unavailable", map[string]interface{}{"error": err.Error()})
		return true
	}
	return ok
}

func (h *Handler) release(ctx context.Context, key string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, lockKeyPrefix+key).Err(); err != nil {
		h.logger.Warn("failed to release idempotency lock", map[string]interface{}{"error": err.Error()})
	}
}

// BuildSubmission flattens the draft into the stored record shape.
func BuildSubmission(d models.DraftSubmission, assets []models.UploadedAsset, estimate models.Estimate, now time.Time) *models.Submission {
	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		urls = append(urls, a.URL)
	}

	estimateText := strings.TrimSpace(estimate.Text)
	if estimateText == "" {
		estimateText = models.FallbackEstimateText
	}

	sub := &models.Submission{
		ID:                uuid.NewString(),
		CreatedAt:         now.UTC(),
		Email:             strings.TrimSpace(d.Email),
		FirstName:         strings.TrimSpace(d.FirstName),
		LastName:          strings.TrimSpace(d.LastName),
		Company:           strings.TrimSpace(d.Company),
		Phone:             strings.TrimSpace(d.Phone),
		Timeframe:         d.Timeframe,
		DemolitionType:    d.DemolitionType,
		Street:            strings.TrimSpace(d.Street),
		City:              strings.TrimSpace(d.City),
		State:             strings.TrimSpace(d.State),
		Zip:               strings.TrimSpace(d.Zip),
		Description:       strings.TrimSpace(d.Description),
		UploadedFiles:     urls,
		AIEstimate:        estimateText,
		CashOfferInterest: d.CashOffer,
		ConsentToContact:  d.Consent,
		Status:            models.SubmissionStatusNew,
	}
	if d.DemolitionType == models.DemoOther {
		sub.OtherDemoType = strings.TrimSpace(d.OtherDemoType)
	}
	if models.ShowsSquareFootage(d.DemolitionType) {
		sub.SquareFootage = strings.TrimSpace(d.SquareFootage)
	}
	return sub
}
