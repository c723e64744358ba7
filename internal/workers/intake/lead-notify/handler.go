// internal/workers/intake/lead-notify/handler.go
package leadnotify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"quote-intake/internal/common/aws"
	"quote-intake/internal/common/logger"
	"quote-intake/internal/common/observability"
	"quote-intake/internal/common/zoho"
	"quote-intake/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

const TaskType = "lead-notify"

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type CRM interface {
	SearchLeads(ctx context.Context, email string) ([]zoho.Lead, error)
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
}

type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

// Dependencies are the outbound channels. A nil channel is skipped.
type Dependencies struct {
	SES     SESService
	SNS     SNSService
	CRM     CRM
	Process ProcessStarter
}

type Handler struct {
	config *Config
	deps   Dependencies
	obs    *observability.Observability
	logger logger.Logger
}

func NewHandler(config *Config, deps Dependencies, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		deps:   deps,
		obs:    obs,
		logger: log.WithFields(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

// Notify fans a persisted lead out to the office inbox, the office phone,
// the CRM and the follow-up process. Every step is best effort: failures
// are logged and never returned.
func (h *Handler) Notify(ctx context.Context, sub *models.Submission) Result {
	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	log := h.logger.WithFields(map[string]interface{}{"submissionId": sub.ID})

	var (
		mu     sync.Mutex
		result Result
		wg     sync.WaitGroup
	)
	run := func(step string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			if err := fn(); err != nil {
				h.obs.RecordCall(ctx, TaskType+":"+step, "error", time.Since(start))
				log.Warn("lead notification step failed", map[string]interface{}{
					"step":  step,
					"error": err.Error(),
				})
				return
			}
			h.obs.RecordCall(ctx, TaskType+":"+step, "success", time.Since(start))
		}()
	}

	if h.config.EmailEnabled && h.deps.SES != nil {
		run("email", func() error {
			if err := h.sendEmail(ctx, sub); err != nil {
				return err
			}
			mu.Lock()
			result.EmailSent = true
			mu.Unlock()
			return nil
		})
	}

	if h.config.SMSEnabled && h.deps.SNS != nil && IsUrgent(sub) {
		run("sms", func() error {
			if err := h.sendSMS(ctx, sub); err != nil {
				return err
			}
			mu.Lock()
			result.SMSSent = true
			mu.Unlock()
			return nil
		})
	}

	if h.config.CRMEnabled && h.deps.CRM != nil {
		run("crm", func() error {
			id, duplicate, err := h.pushLead(ctx, sub)
			if err != nil {
				return err
			}
			mu.Lock()
			result.CRMLeadID = id
			result.CRMDuplicate = duplicate
			mu.Unlock()
			return nil
		})
	}

	if h.config.ProcessEnabled && h.deps.Process != nil {
		run("process", func() error {
			key, err := h.deps.Process.StartProcess(ctx, h.config.ProcessID, ProcessVariables(sub))
			if err != nil {
				return err
			}
			mu.Lock()
			result.ProcessInstanceKey = key
			mu.Unlock()
			return nil
		})
	}

	wg.Wait()

	log.Info("lead notifications finished", map[string]interface{}{
		"emailSent":  result.EmailSent,
		"smsSent":    result.SMSSent,
		"crmLeadId":  result.CRMLeadID,
		"processKey": result.ProcessInstanceKey,
	})
	return result
}

// IsUrgent reports whether the office should get a text for this lead.
func IsUrgent(sub *models.Submission) bool {
	return sub.Timeframe == models.TimeframeASAP || sub.CashOfferInterest
}

func (h *Handler) sendEmail(ctx context.Context, sub *models.Submission) error {
	subject := fmt.Sprintf("New demolition lead: %s (%s)", sub.DemolitionLabel(), sub.Timeframe)
	input := aws.PlainEmail(h.config.FromEmail, h.config.OfficeEmail, subject, EmailBody(sub))
	if _, err := h.deps.SES.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send lead email: %w", err)
	}
	return nil
}

func (h *Handler) sendSMS(ctx context.Context, sub *models.Submission) error {
	msg := fmt.Sprintf("New %s lead: %s, %s, %s. %s",
		sub.Timeframe, sub.FullName(), sub.Phone, sub.DemolitionLabel(), sub.Address())
	if sub.CashOfferInterest {
		msg += " Wants a cash offer."
	}
	if _, err := h.deps.SNS.Publish(ctx, aws.TransactionalSMS(h.config.OfficePhone, msg)); err != nil {
		return fmt.Errorf("send lead sms: %w", err)
	}
	return nil
}

func (h *Handler) pushLead(ctx context.Context, sub *models.Submission) (string, bool, error) {
	existing, err := h.deps.CRM.SearchLeads(ctx, sub.Email)
	if err != nil {
		return "", false, fmt.Errorf("search crm leads: %w", err)
	}
	if len(existing) > 0 {
		return existing[0].ID, true, nil
	}

	id, err := h.deps.CRM.CreateLead(ctx, CRMLead(sub))
	if err != nil {
		return "", false, fmt.Errorf("create crm lead: %w", err)
	}
	return id, false, nil
}

// CRMLead maps a submission onto the CRM lead record.
func CRMLead(sub *models.Submission) *zoho.Lead {
	company := sub.Company
	if company == "" {
		company = sub.FullName()
	}
	return &zoho.Lead{
		Email:       sub.Email,
		FirstName:   sub.FirstName,
		LastName:    sub.LastName,
		Company:     company,
		Phone:       sub.Phone,
		Street:      sub.Street,
		City:        sub.City,
		State:       sub.State,
		ZipCode:     sub.Zip,
		Description: crmDescription(sub),
		Source:      "Website Quote",
	}
}

func crmDescription(sub *models.Submission) string {
	lines := []string{
		"Demolition: " + sub.DemolitionLabel(),
		"Timeframe: " + sub.Timeframe,
		"Estimate: " + sub.AIEstimate,
	}
	if sub.SquareFootage != "" {
		lines = append(lines, "Square footage: "+sub.SquareFootage)
	}
	if sub.Description != "" {
		lines = append(lines, "", sub.Description)
	}
	return strings.Join(lines, "\n")
}

// EmailBody renders the plain-text office summary of a lead.
func EmailBody(sub *models.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", sub.FullName())
	if sub.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", sub.Company)
	}
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	fmt.Fprintf(&b, "Phone: %s\n", sub.Phone)
	fmt.Fprintf(&b, "Timeframe: %s\n", sub.Timeframe)
	fmt.Fprintf(&b, "Demolition: %s\n", sub.DemolitionLabel())
	fmt.Fprintf(&b, "Address: %s\n", sub.Address())
	if sub.SquareFootage != "" {
		fmt.Fprintf(&b, "Square footage: %s\n", sub.SquareFootage)
	}
	fmt.Fprintf(&b, "Estimate: %s\n", sub.AIEstimate)
	fmt.Fprintf(&b, "Cash offer interest: %t\n", sub.CashOfferInterest)
	if sub.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", sub.Description)
	}
	if len(sub.UploadedFiles) > 0 {
		b.WriteString("\nFiles:\n")
		for _, u := range sub.UploadedFiles {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}
	fmt.Fprintf(&b, "\nSubmission: %s\n", sub.ID)
	return b.String()
}

// ProcessVariables are the variables handed to the follow-up process instance.
func ProcessVariables(sub *models.Submission) map[string]interface{} {
	return map[string]interface{}{
		"submissionId":      sub.ID,
		"email":             sub.Email,
		"name":              sub.FullName(),
		"phone":             sub.Phone,
		"timeframe":         sub.Timeframe,
		"demolitionType":    sub.DemolitionLabel(),
		"estimate":          sub.AIEstimate,
		"cashOfferInterest": sub.CashOfferInterest,
		"urgent":            IsUrgent(sub),
	}
}
