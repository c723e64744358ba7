// internal/wizard/fakes_test.go
package wizard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/models"
	leadnotify "quote-intake/internal/workers/intake/lead-notify"
	submissionpersist "quote-intake/internal/workers/intake/submission-persist"

	"github.com/stretchr/testify/require"
)

// ==========================
// Test Doubles
// ==========================

type fakeEstimator struct {
	mu     sync.Mutex
	calls  int
	names  [][]string
	result models.Estimate
	gate   chan struct{}
}

func (f *fakeEstimator) RequestEstimate(ctx context.Context, draft models.DraftSubmission, fileNames []string) models.Estimate {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return models.FallbackEstimate()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.names = append(f.names, fileNames)
	return f.result
}

func (f *fakeEstimator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeUploader struct {
	mu      sync.Mutex
	calls   int
	batches [][]models.LocalFile
	err     error
}

func (f *fakeUploader) UploadFiles(ctx context.Context, files []models.LocalFile) ([]models.UploadedAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.batches = append(f.batches, files)
	if f.err != nil {
		return nil, f.err
	}
	assets := make([]models.UploadedAsset, 0, len(files))
	for _, file := range files {
		assets = append(assets, models.UploadedAsset{Name: file.Name, URL: "https://cdn.test/" + file.Name})
	}
	return assets, nil
}

func (f *fakeUploader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeUploader) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// memoryStore is an idempotent in-memory submission store.
type memoryStore struct {
	mu      sync.Mutex
	byKey   map[string]*models.Submission
	records []*models.Submission
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byKey: make(map[string]*models.Submission)}
}

func (s *memoryStore) Create(ctx context.Context, key string, sub *models.Submission) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if existing, ok := s.byKey[key]; ok {
		return existing, nil
	}
	s.byKey[key] = sub
	s.records = append(s.records, sub)
	return sub, nil
}

func (s *memoryStore) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, submissionpersist.ErrSubmissionNotFound
}

func (s *memoryStore) Records() []*models.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Submission(nil), s.records...)
}

func (s *memoryStore) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// countingPersister counts calls into the persistence client.
type countingPersister struct {
	mu    sync.Mutex
	calls int
	next  Persister
}

func (p *countingPersister) Persist(ctx context.Context, key string, draft models.DraftSubmission, assets []models.UploadedAsset, estimate models.Estimate) (*models.Submission, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.next.Persist(ctx, key, draft, assets, estimate)
}

func (p *countingPersister) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeSuggester struct {
	mu      sync.Mutex
	queries []string
	gates   map[string]chan struct{}
}

func newFakeSuggester() *fakeSuggester {
	return &fakeSuggester{gates: make(map[string]chan struct{})}
}

func (f *fakeSuggester) FetchSuggestions(ctx context.Context, text string) []models.AddressSuggestion {
	f.mu.Lock()
	f.queries = append(f.queries, text)
	gate := f.gates[text]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return []models.AddressSuggestion{{
		Line1:      text,
		City:       "Tampa",
		State:      "FL",
		PostalCode: "33601",
		Formatted:  fmt.Sprintf("%s, Tampa, FL 33601", text),
	}}
}

func (f *fakeSuggester) block(text string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[text] = gate
	return gate
}

func (f *fakeSuggester) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type fakeNotifier struct {
	mu   sync.Mutex
	subs []*models.Submission
}

func (f *fakeNotifier) Notify(ctx context.Context, sub *models.Submission) leadnotify.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	return leadnotify.Result{EmailSent: true}
}

func (f *fakeNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	estimator *fakeEstimator
	uploader  *fakeUploader
	store     *memoryStore
	persister *countingPersister
	suggester *fakeSuggester
	notifier  *fakeNotifier
	deps      Deps
}

func newTestEnv() *testEnv {
	env := &testEnv{
		estimator: &fakeEstimator{result: models.Estimate{Text: "$4,000 - $6,500", Success: true}},
		uploader:  &fakeUploader{},
		store:     newMemoryStore(),
		suggester: newFakeSuggester(),
		notifier:  &fakeNotifier{},
	}
	persist := submissionpersist.NewHandler(submissionpersist.DefaultConfig(), env.store, nil, nil, logger.NewNoOpLogger())
	env.persister = &countingPersister{next: persist}
	env.deps = Deps{
		Estimator: env.estimator,
		Uploader:  env.uploader,
		Persister: env.persister,
		Suggester: env.suggester,
		Notifier:  env.notifier,
	}
	return env
}

func testOptions() Options {
	return Options{
		DisplayDelay:   5 * time.Millisecond,
		DebounceWindow: 10 * time.Millisecond,
		CallTimeout:    time.Second,
		MaxFiles:       3,
		MaxFileBytes:   1024,
	}
}

func newTestController(t *testing.T, deps Deps) *Controller {
	t.Helper()
	c := NewController("session-test", deps, testOptions(), logger.NewNoOpLogger())
	t.Cleanup(c.Close)
	return c
}

func str(s string) *string { return &s }
func boolean(b bool) *bool { return &b }

func page1Patch() models.DraftPatch {
	return models.DraftPatch{Email: str("a@b.com"), Timeframe: str(models.TimeframeASAP)}
}

func page2Patch() models.DraftPatch {
	return models.DraftPatch{
		DemolitionType: str(models.DemoPool),
		Street:         str("123 Main St"),
		City:           str("Tampa"),
		State:          str("FL"),
		Zip:            str("33601"),
	}
}

func page4Patch() models.DraftPatch {
	return models.DraftPatch{
		FirstName: str("Jane"),
		LastName:  str("Doe"),
		Phone:     str("8135551234"),
		Consent:   boolean(true),
	}
}

func mustPatch(t *testing.T, c *Controller, p models.DraftPatch) {
	t.Helper()
	_, err := c.UpdateDraft(p)
	require.NoError(t, err)
}

func mustNext(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	snap, err := c.Next()
	require.NoError(t, err)
	return snap
}

// completeForm fills every page and leaves the consent page.
func completeForm(t *testing.T, c *Controller) {
	t.Helper()
	mustPatch(t, c, page1Patch())
	mustNext(t, c)
	mustPatch(t, c, page2Patch())
	mustNext(t, c)
	mustNext(t, c)
	mustPatch(t, c, page4Patch())
	snap := mustNext(t, c)
	require.Equal(t, PageGeneratingEstimate.String(), snap.Page)
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errors.CodeOf(err), err.Error())
}
