// internal/wizard/controller.go
package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/metrics"
	"quote-intake/internal/common/validation"
	"quote-intake/internal/models"

	"github.com/google/uuid"
)

// Controller owns one wizard session. Every operation and every async
// completion is serialised through mu; completions carry the run id they
// were started under and are dropped once the session has been reset.
type Controller struct {
	id     string
	deps   Deps
	opts   Options
	logger logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	autocomplete *Autocomplete

	mu          sync.Mutex
	runID       string
	page        Page
	draft       models.DraftSubmission
	files       []models.LocalFile
	assets      []models.UploadedAsset
	uploaded    bool
	attempted   map[Page]bool
	estimate    *models.Estimate
	persisting  bool
	persisted   bool
	submission  *models.Submission
	pipelineErr *errors.StandardError
	lastActive  time.Time
	closed      bool
	now         func() time.Time
}

// FileInfo describes an attached file without its body.
type FileInfo struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	SessionID        string                     `json:"sessionId"`
	Page             string                     `json:"page"`
	Step             int                        `json:"step"`
	Draft            models.DraftSubmission     `json:"draft"`
	Files            []FileInfo                 `json:"files"`
	Errors           map[string]string          `json:"errors"`
	Estimate         *models.Estimate           `json:"estimate,omitempty"`
	NavigationLocked bool                       `json:"navigationLocked"`
	Persisting       bool                       `json:"persisting"`
	Persisted        bool                       `json:"persisted"`
	Submission       *models.Submission         `json:"submission,omitempty"`
	PipelineError    *errors.StandardError      `json:"pipelineError,omitempty"`
	Suggestions      []models.AddressSuggestion `json:"suggestions"`
	AddressSelected  bool                       `json:"addressSelected"`
}

func NewController(id string, deps Deps, opts Options, log logger.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	log = log.WithFields(map[string]interface{}{"sessionId": id})
	c := &Controller{
		id:           id,
		deps:         deps,
		opts:         opts,
		logger:       log,
		ctx:          ctx,
		cancel:       cancel,
		autocomplete: NewAutocomplete(deps.Suggester, opts.DebounceWindow, opts.CallTimeout, log),
		now:          time.Now,
	}
	c.resetLocked()
	c.lastActive = c.now()
	return c
}

func (c *Controller) ID() string { return c.id }

// LastActive is the time of the last operation on the session.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Busy reports whether remote work for the session is still running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page == PageGeneratingEstimate || c.persisting
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// UpdateDraft applies a field patch. Fields stay editable while remote work
// runs; only a submitted session is frozen.
func (c *Controller) UpdateDraft(patch models.DraftPatch) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.page == PageSubmitted {
		return c.snapshotLocked(), errors.NewSessionSubmittedError()
	}
	patch.Apply(&c.draft)
	if patch.Street != nil {
		c.autocomplete.Input(*patch.Street)
	}
	return c.snapshotLocked(), nil
}

// SelectSuggestion fills the address fields from a shown suggestion.
func (c *Controller) SelectSuggestion(index int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.page == PageSubmitted {
		return c.snapshotLocked(), errors.NewSessionSubmittedError()
	}
	s, err := c.autocomplete.Select(index)
	if err != nil {
		return c.snapshotLocked(), err
	}
	c.draft.Street = s.Line1
	c.draft.City = s.City
	c.draft.State = s.State
	c.draft.Zip = s.PostalCode
	return c.snapshotLocked(), nil
}

// AttachFile adds a local file on the description page. Files stay in
// memory until the submission pipeline runs.
func (c *Controller) AttachFile(file models.LocalFile) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.page != PageDescriptionUploads {
		return c.snapshotLocked(), errors.NewInvalidRequestError(
			fmt.Sprintf("files can only be attached on %s", PageDescriptionUploads))
	}
	if c.opts.MaxFiles > 0 && len(c.files) >= c.opts.MaxFiles {
		return c.snapshotLocked(), errors.NewInvalidRequestError(
			fmt.Sprintf("at most %d files can be attached", c.opts.MaxFiles))
	}
	if c.opts.MaxFileBytes > 0 && file.Size() > c.opts.MaxFileBytes {
		return c.snapshotLocked(), errors.NewInvalidRequestError(
			fmt.Sprintf("%s exceeds the %d byte limit", file.Name, c.opts.MaxFileBytes))
	}
	c.files = append(c.files, file)
	c.dropUploadsLocked()
	return c.snapshotLocked(), nil
}

func (c *Controller) RemoveFile(index int) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.page != PageDescriptionUploads {
		return c.snapshotLocked(), errors.NewInvalidRequestError(
			fmt.Sprintf("files can only be removed on %s", PageDescriptionUploads))
	}
	if index < 0 || index >= len(c.files) {
		return c.snapshotLocked(), errors.NewFileNotFoundError(index)
	}
	c.files = append(c.files[:index], c.files[index+1:]...)
	c.dropUploadsLocked()
	return c.snapshotLocked(), nil
}

// Next validates the current page and advances. Leaving the consent page
// starts the estimate.
func (c *Controller) Next() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.lockedLocked() {
		return c.snapshotLocked(), errors.NewNavigationLockedError(c.page.String())
	}
	target, err := transition(c.page, EventNext)
	if err != nil {
		return c.snapshotLocked(), err
	}

	c.attempted[c.page] = true
	fields, err := validation.ValidatePage(c.draft, int(c.page))
	if err != nil {
		return c.snapshotLocked(), errors.Normalize(err)
	}
	if len(fields) > 0 {
		return c.rejectLocked(fields)
	}

	if c.page == PageContactConsent {
		// fields of earlier pages may have been patched since they were left
		page, fields, err := c.firstInvalidPageLocked()
		if err != nil {
			return c.snapshotLocked(), errors.Normalize(err)
		}
		if len(fields) > 0 {
			c.enterLocked(page)
			c.attempted[page] = true
			return c.rejectLocked(fields)
		}
	}

	c.enterLocked(target)
	return c.snapshotLocked(), nil
}

func (c *Controller) Back() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.lockedLocked() {
		return c.snapshotLocked(), errors.NewNavigationLockedError(c.page.String())
	}
	target, err := transition(c.page, EventBack)
	if err != nil {
		return c.snapshotLocked(), err
	}
	c.enterLocked(target)
	return c.snapshotLocked(), nil
}

// Submit finishes a persisted session.
func (c *Controller) Submit() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.lockedLocked() {
		return c.snapshotLocked(), errors.NewNavigationLockedError(c.page.String())
	}
	target, err := transition(c.page, EventSubmit)
	if err != nil {
		return c.snapshotLocked(), err
	}
	if !c.persisted {
		return c.snapshotLocked(), errors.NewNotPersistedError()
	}
	c.enterLocked(target)
	c.logger.Info("quote submitted", map[string]interface{}{"submissionId": c.submission.ID})
	return c.snapshotLocked(), nil
}

// StartOver resets a submitted session, including a fresh run id so the
// next completion persists an independent record.
func (c *Controller) StartOver() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	target, err := transition(c.page, EventStartOver)
	if err != nil {
		return c.snapshotLocked(), err
	}
	from := c.page
	c.resetLocked()
	metrics.WizardTransitions.WithLabelValues(from.String(), target.String()).Inc()
	return c.snapshotLocked(), nil
}

// RetrySubmission reruns a failed pipeline from the review page.
func (c *Controller) RetrySubmission() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if c.page != PageEstimateReview {
		return c.snapshotLocked(), errors.NewInvalidTransitionError(c.page.String(), "retry")
	}
	c.startPipelineLocked()
	return c.snapshotLocked(), nil
}

// Wait blocks until the estimate, pipeline and notification work started so
// far has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels remote work and releases the session.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.autocomplete.Close()
	c.wg.Wait()
}

func (c *Controller) touch() {
	c.lastActive = c.now()
}

func (c *Controller) lockedLocked() bool {
	return c.page == PageGeneratingEstimate || c.persisting
}

func (c *Controller) rejectLocked(fields map[string]string) (Snapshot, error) {
	metrics.ValidationFailures.WithLabelValues(c.page.String()).Inc()
	return c.snapshotLocked(), errors.NewValidationFailedError(c.page.String(), fields)
}

func (c *Controller) firstInvalidPageLocked() (Page, map[string]string, error) {
	for p := PageContactTimeframe; p < PageContactConsent; p++ {
		fields, err := validation.ValidatePage(c.draft, int(p))
		if err != nil {
			return p, nil, err
		}
		if len(fields) > 0 {
			return p, fields, nil
		}
	}
	return PageContactConsent, nil, nil
}

// enterLocked moves to target and starts the work bound to entering it.
func (c *Controller) enterLocked(target Page) {
	from := c.page
	c.page = target
	metrics.WizardTransitions.WithLabelValues(from.String(), target.String()).Inc()
	c.logger.Debug("wizard transition", map[string]interface{}{
		"from": from.String(),
		"to":   target.String(),
	})

	switch target {
	case PageGeneratingEstimate:
		c.startEstimateLocked()
	case PageEstimateReview:
		c.startPipelineLocked()
	}
}

func (c *Controller) resetLocked() {
	c.runID = uuid.NewString()
	c.page = PageContactTimeframe
	c.draft = models.DraftSubmission{}
	c.files = nil
	c.dropUploadsLocked()
	c.attempted = make(map[Page]bool)
	c.estimate = nil
	c.persisting = false
	c.persisted = false
	c.submission = nil
	c.pipelineErr = nil
	c.autocomplete.Reset()
}

// dropUploadsLocked forgets stored assets once the attachment list changed.
func (c *Controller) dropUploadsLocked() {
	c.assets = nil
	c.uploaded = false
}

func (c *Controller) snapshotLocked() Snapshot {
	files := make([]FileInfo, len(c.files))
	for i, f := range c.files {
		files[i] = FileInfo{Name: f.Name, ContentType: f.ContentType, Size: f.Size()}
	}

	snap := Snapshot{
		SessionID:        c.id,
		Page:             c.page.String(),
		Step:             int(c.page),
		Draft:            c.draft,
		Files:            files,
		Errors:           c.visibleErrorsLocked(),
		NavigationLocked: c.lockedLocked(),
		Persisting:       c.persisting,
		Persisted:        c.persisted,
		Submission:       c.submission,
		PipelineError:    c.pipelineErr,
		Suggestions:      c.autocomplete.Suggestions(),
		AddressSelected:  c.autocomplete.Selected(),
	}
	if c.estimate != nil {
		est := *c.estimate
		snap.Estimate = &est
	}
	return snap
}

// visibleErrorsLocked reports current field errors of pages that went
// through a validation attempt; other pages stay silent.
func (c *Controller) visibleErrorsLocked() map[string]string {
	out := make(map[string]string)
	for p := PageContactTimeframe; p <= PageContactConsent; p++ {
		if !c.attempted[p] {
			continue
		}
		fields, err := validation.ValidatePage(c.draft, int(p))
		if err != nil {
			c.logger.Error("draft validation failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		for k, v := range fields {
			out[k] = v
		}
	}
	return out
}
