// internal/wizard/pipeline.go
package wizard

import (
	"context"
	"time"

	"quote-intake/internal/common/errors"
	"quote-intake/internal/common/metrics"
	"quote-intake/internal/models"
)

// startEstimateLocked requests the estimate for the current draft. A cached
// estimate from an earlier pass is reused even when the draft changed since.
func (c *Controller) startEstimateLocked() {
	if c.closed {
		return
	}
	run := c.runID
	draft := c.draft
	names := fileNames(c.files)
	cached := c.estimate

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		var est models.Estimate
		if cached != nil {
			est = *cached
			metrics.EstimateResults.WithLabelValues("cached").Inc()
		} else {
			est = c.requestEstimate(draft, names)
		}

		if c.opts.DisplayDelay > 0 {
			timer := time.NewTimer(c.opts.DisplayDelay)
			select {
			case <-timer.C:
			case <-c.ctx.Done():
				timer.Stop()
				return
			}
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.runID != run || c.page != PageGeneratingEstimate {
			return
		}
		c.estimate = &est
		target, err := transition(c.page, EventEstimateSettled)
		if err != nil {
			c.logger.Error("estimate settled on unexpected page", map[string]interface{}{"page": c.page.String()})
			return
		}
		c.enterLocked(target)
	}()
}

func (c *Controller) requestEstimate(draft models.DraftSubmission, names []string) models.Estimate {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.CallTimeout)
	defer cancel()

	return c.deps.Estimator.RequestEstimate(ctx, draft, names)
}

// startPipelineLocked runs upload then persist at most once per run. The
// persisting flag is set before any remote call so a second trigger is a
// no-op, and persisted is only set after the store confirmed the record.
// A successful upload is kept, so a retry after a failed persist reuses
// the stored assets instead of writing the files again.
func (c *Controller) startPipelineLocked() {
	if c.closed || c.persisted || c.persisting || c.estimate == nil {
		return
	}
	c.persisting = true
	c.pipelineErr = nil

	run := c.runID
	draft := c.draft
	files := append([]models.LocalFile(nil), c.files...)
	est := *c.estimate
	var stored []models.UploadedAsset
	if c.uploaded {
		stored = append([]models.UploadedAsset(nil), c.assets...)
	}
	uploaded := c.uploaded

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		assets := stored
		var (
			sub *models.Submission
			err error
		)
		if !uploaded {
			assets, err = c.upload(files)
		}
		if err == nil {
			sub, err = c.persist(run, draft, assets, est)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.runID != run {
			return
		}
		c.persisting = false
		if !uploaded && assets != nil {
			// files cannot change while persisting, so the batch matches c.files
			c.assets = assets
			c.uploaded = true
		}

		if err != nil {
			c.pipelineErr = errors.Normalize(err)
			metrics.PipelineRuns.WithLabelValues(outcomeOf(err)).Inc()
			c.logger.Error("submission pipeline failed", map[string]interface{}{
				"runId": run,
				"code":  string(c.pipelineErr.Code),
				"error": err.Error(),
			})
			return
		}

		c.persisted = true
		c.submission = sub
		metrics.PipelineRuns.WithLabelValues("success").Inc()
		c.logger.Info("submission pipeline finished", map[string]interface{}{
			"runId":        run,
			"submissionId": sub.ID,
		})
		c.notifyLocked(sub)
	}()
}

func (c *Controller) upload(files []models.LocalFile) ([]models.UploadedAsset, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.CallTimeout)
	defer cancel()

	assets, err := c.deps.Uploader.UploadFiles(ctx, files)
	if err != nil {
		return nil, err
	}
	if assets == nil {
		assets = []models.UploadedAsset{}
	}
	return assets, nil
}

func (c *Controller) persist(run string, draft models.DraftSubmission, assets []models.UploadedAsset, est models.Estimate) (*models.Submission, error) {
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.CallTimeout)
	defer cancel()

	return c.deps.Persister.Persist(ctx, run, draft, assets, est)
}

func (c *Controller) notifyLocked(sub *models.Submission) {
	if c.deps.Notifier == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.deps.Notifier.Notify(context.WithoutCancel(c.ctx), sub)
	}()
}

func outcomeOf(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrCodeUploadFailed:
		return "upload_failed"
	case errors.ErrCodePersistFailed:
		return "persist_failed"
	case errors.ErrCodePersistInProgress:
		return "persist_in_progress"
	default:
		return "error"
	}
}

func fileNames(files []models.LocalFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}
