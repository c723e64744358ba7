// internal/workers/intake/submission-persist/handler_test.go
package submissionpersist

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type memoryStore struct {
	mu      sync.Mutex
	byID    map[string]*models.Submission
	byKey   map[string]string
	creates int
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: map[string]*models.Submission{}, byKey: map[string]string{}}
}

func (s *memoryStore) Create(ctx context.Context, key string, sub *models.Submission) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, fmt.Errorf("insert submission: connection reset by peer")
	}
	s.creates++
	if id, ok := s.byKey[key]; ok {
		return s.byID[id], nil
	}
	s.byKey[key] = sub.ID
	s.byID[sub.ID] = sub
	return sub, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.byID[id]; ok {
		return sub, nil
	}
	return nil, ErrSubmissionNotFound
}

func completedDraft() models.DraftSubmission {
	return models.DraftSubmission{
		Email:          "a@b.com",
		Timeframe:      models.TimeframeASAP,
		DemolitionType: models.DemoPool,
		Street:         "123 Main St",
		City:           "Tampa",
		State:          "FL",
		Zip:            "33601",
		FirstName:      "Jane",
		LastName:       "Doe",
		Phone:          "8135551234",
		Consent:        true,
	}
}

func createTestHandler(t *testing.T, store Store) (*Handler, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewHandler(DefaultConfig(), store, rdb, nil, logger.NewTestLogger(t)), mr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Persist_Success(t *testing.T) {
	store := newMemoryStore()
	h, mr := createTestHandler(t, store)

	sub, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.Estimate{Text: "$5,000 - $7,000", Success: true})
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, models.SubmissionStatusNew, sub.Status)
	assert.Equal(t, "$5,000 - $7,000", sub.AIEstimate)
	assert.Empty(t, sub.UploadedFiles)
	assert.Equal(t, 1, store.creates)

	done, err := mr.Get("submission:done:run-1")
	require.NoError(t, err)
	assert.Equal(t, sub.ID, done)
	assert.False(t, mr.Exists("submission:lock:run-1"))
}

func TestHandler_Persist_IsIdempotentPerKey(t *testing.T) {
	store := newMemoryStore()
	h, _ := createTestHandler(t, store)

	first, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)
	second, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.creates)
	assert.Len(t, store.byID, 1)

	third, err := h.Persist(context.Background(), "run-2", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Len(t, store.byID, 2)
}

func TestHandler_Persist_ConcurrentCallRejected(t *testing.T) {
	store := newMemoryStore()
	h, mr := createTestHandler(t, store)
	require.NoError(t, mr.Set("submission:lock:run-1", "1"))

	_, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePersistInProgress, errors.CodeOf(err))
	assert.Equal(t, 0, store.creates)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Persist_StoreFailureReleasesLock(t *testing.T) {
	store := newMemoryStore()
	store.failing = true
	h, mr := createTestHandler(t, store)

	_, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePersistFailed, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
	assert.False(t, mr.Exists("submission:lock:run-1"))
	assert.False(t, mr.Exists("submission:done:run-1"))

	store.failing = false
	sub, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, 1, store.creates)
}

func TestHandler_Persist_RedisDownStillPersists(t *testing.T) {
	store := newMemoryStore()
	h, mr := createTestHandler(t, store)
	mr.Close()

	sub, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
}

func TestHandler_Persist_WithoutRedis(t *testing.T) {
	store := newMemoryStore()
	h := NewHandler(DefaultConfig(), store, nil, nil, logger.NewNoOpLogger())

	first, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)
	second, err := h.Persist(context.Background(), "run-1", completedDraft(), nil, models.FallbackEstimate())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.byID, 1)
}

// ==========================
// Record Shape Tests
// ==========================

func TestBuildSubmission_LabelledJSON(t *testing.T) {
	d := completedDraft()
	d.SquareFootage = "900"
	d.OtherDemoType = "stale text"
	assets := []models.UploadedAsset{{Name: "a.png", URL: "https://cdn.test/a.png"}}

	sub := BuildSubmission(d, assets, models.Estimate{Text: " ", Success: false}, time.Date(2026, 3, 1, 7, 0, 0, 0, time.FixedZone("EST", -5*3600)))

	assert.Equal(t, models.FallbackEstimateText, sub.AIEstimate)
	assert.Empty(t, sub.SquareFootage)
	assert.Empty(t, sub.OtherDemoType)
	assert.Equal(t, time.UTC, sub.CreatedAt.Location())

	raw, err := json.Marshal(sub)
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "Swimming Pool Removal", fields["What Type of Demo?"])
	assert.Equal(t, "ASAP", fields["Project Timeframe"])
	assert.Equal(t, "123 Main St", fields["Street Address"])
	assert.Equal(t, []interface{}{"https://cdn.test/a.png"}, fields["Uploaded Files"])
	assert.Equal(t, true, fields["Consent To Contact"])
	assert.Equal(t, "new", fields["status"])
}
