// internal/wizard/options.go
package wizard

import (
	"context"
	"time"

	"quote-intake/internal/common/config"
	"quote-intake/internal/models"
	leadnotify "quote-intake/internal/workers/intake/lead-notify"
)

type Estimator interface {
	RequestEstimate(ctx context.Context, draft models.DraftSubmission, fileNames []string) models.Estimate
}

type Uploader interface {
	UploadFiles(ctx context.Context, files []models.LocalFile) ([]models.UploadedAsset, error)
}

type Persister interface {
	Persist(ctx context.Context, key string, draft models.DraftSubmission, assets []models.UploadedAsset, estimate models.Estimate) (*models.Submission, error)
}

type Suggester interface {
	FetchSuggestions(ctx context.Context, text string) []models.AddressSuggestion
}

type Notifier interface {
	Notify(ctx context.Context, sub *models.Submission) leadnotify.Result
}

// Deps are the remote collaborators of a session. Notifier may be nil.
type Deps struct {
	Estimator Estimator
	Uploader  Uploader
	Persister Persister
	Suggester Suggester
	Notifier  Notifier
}

type Options struct {
	// DisplayDelay holds the generating page after the estimate settles.
	DisplayDelay   time.Duration
	DebounceWindow time.Duration
	// CallTimeout bounds each remote call made by a session.
	CallTimeout  time.Duration
	MaxFiles     int
	MaxFileBytes int
}

func DefaultOptions() Options {
	return Options{
		DisplayDelay:   800 * time.Millisecond,
		DebounceWindow: 300 * time.Millisecond,
		CallTimeout:    15 * time.Second,
		MaxFiles:       10,
		MaxFileBytes:   25 << 20,
	}
}

func LoadOptions(cfg *config.Config) Options {
	o := DefaultOptions()
	w := cfg.Wizard
	if w.EstimateDisplayDelay >= 0 {
		o.DisplayDelay = config.GetDuration(w.EstimateDisplayDelay)
	}
	if w.DebounceWindow > 0 {
		o.DebounceWindow = config.GetDuration(w.DebounceWindow)
	}
	if w.CallTimeout > 0 {
		o.CallTimeout = config.GetDuration(w.CallTimeout)
	}
	if w.MaxFiles > 0 {
		o.MaxFiles = w.MaxFiles
	}
	if w.MaxFileBytes > 0 {
		o.MaxFileBytes = w.MaxFileBytes
	}
	return o
}
