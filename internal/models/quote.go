// internal/models/quote.go
package models

import (
	"strings"
	"time"
)

// Timeframes offered on the first wizard page.
const (
	TimeframeASAP      = "ASAP"
	TimeframeNextWeek  = "Next Week"
	TimeframeNextMonth = "Next Month"
	TimeframeUncertain = "Uncertain"
)

var Timeframes = []string{TimeframeASAP, TimeframeNextWeek, TimeframeNextMonth, TimeframeUncertain}

// Demolition catalog.
const (
	DemoResidential = "Residential Demolition"
	DemoCommercial  = "Commercial Demolition"
	DemoInterior    = "Interior Demolition"
	DemoPool        = "Swimming Pool Removal"
	DemoConcrete    = "Concrete Removal"
	DemoMobileHome  = "Mobile Home Demolition"
	DemoShedBarn    = "Shed / Barn Removal"
	DemoOther       = "Other"
)

var DemolitionTypes = []string{
	DemoResidential,
	DemoCommercial,
	DemoInterior,
	DemoPool,
	DemoConcrete,
	DemoMobileHome,
	DemoShedBarn,
	DemoOther,
}

// ShowsSquareFootage reports whether the square footage field applies to demoType.
func ShowsSquareFootage(demoType string) bool {
	switch demoType {
	case DemoResidential, DemoCommercial, DemoInterior:
		return true
	}
	return false
}

// DraftSubmission is the in-progress form state of one wizard session.
type DraftSubmission struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Company        string `json:"company"`
	Phone          string `json:"phone"`
	Timeframe      string `json:"timeframe"`
	DemolitionType string `json:"demolitionType"`
	OtherDemoType  string `json:"otherDemoType"`
	Street         string `json:"street"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	SquareFootage  string `json:"squareFootage"`
	Description    string `json:"description"`
	CashOffer      bool   `json:"cashOffer"`
	Consent        bool   `json:"consent"`
}

// DraftPatch updates only the non-nil fields of a draft.
type DraftPatch struct {
	Email          *string `json:"email,omitempty"`
	FirstName      *string `json:"firstName,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	Company        *string `json:"company,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Timeframe      *string `json:"timeframe,omitempty"`
	DemolitionType *string `json:"demolitionType,omitempty"`
	OtherDemoType  *string `json:"otherDemoType,omitempty"`
	Street         *string `json:"street,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	Zip            *string `json:"zip,omitempty"`
	SquareFootage  *string `json:"squareFootage,omitempty"`
	Description    *string `json:"description,omitempty"`
	CashOffer      *bool   `json:"cashOffer,omitempty"`
	Consent        *bool   `json:"consent,omitempty"`
}

// Apply mutates d with the fields set in p.
func (p DraftPatch) Apply(d *DraftSubmission) {
	setString(&d.Email, p.Email)
	setString(&d.FirstName, p.FirstName)
	setString(&d.LastName, p.LastName)
	setString(&d.Company, p.Company)
	setString(&d.Phone, p.Phone)
	setString(&d.Timeframe, p.Timeframe)
	setString(&d.DemolitionType, p.DemolitionType)
	setString(&d.OtherDemoType, p.OtherDemoType)
	setString(&d.Street, p.Street)
	setString(&d.City, p.City)
	setString(&d.State, p.State)
	setString(&d.Zip, p.Zip)
	setString(&d.SquareFootage, p.SquareFootage)
	setString(&d.Description, p.Description)
	if p.CashOffer != nil {
		d.CashOffer = *p.CashOffer
	}
	if p.Consent != nil {
		d.Consent = *p.Consent
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// LocalFile is an attachment held in memory until the submission pipeline runs.
type LocalFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// Size returns the length of the file body in bytes.
func (f LocalFile) Size() int { return len(f.Data) }

// AddressSuggestion is one candidate address from the suggestion service.
type AddressSuggestion struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Formatted  string `json:"formatted"`
}

// UploadedAsset is a file after it reached object storage.
type UploadedAsset struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FallbackEstimateText is shown when the estimate service produced nothing usable.
const FallbackEstimateText = "Contact for estimate"

// Estimate is the price signal shown on the review page.
type Estimate struct {
	Text    string `json:"estimate"`
	Success bool   `json:"success"`
}

// FallbackEstimate returns the degraded estimate result.
func FallbackEstimate() Estimate {
	return Estimate{Text: FallbackEstimateText, Success: false}
}

// Lead workflow statuses.
const (
	SubmissionStatusNew       = "new"
	SubmissionStatusContacted = "contacted"
	SubmissionStatusQuoted    = "quoted"
	SubmissionStatusWon       = "won"
	SubmissionStatusLost      = "lost"
)

// Submission is the persisted lead. The JSON keys are the labelled columns of the lead store.
type Submission struct {
	ID                string     `json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	Email             string     `json:"Email"`
	FirstName         string     `json:"First Name"`
	LastName          string     `json:"Last Name"`
	Company           string     `json:"Company"`
	Phone             string     `json:"Phone"`
	Timeframe         string     `json:"Project Timeframe"`
	DemolitionType    string     `json:"What Type of Demo?"`
	OtherDemoType     string     `json:"Other Demo Type"`
	Street            string     `json:"Street Address"`
	City              string     `json:"City"`
	State             string     `json:"State"`
	Zip               string     `json:"Zip"`
	SquareFootage     string     `json:"Square Footage"`
	Description       string     `json:"Project Description"`
	UploadedFiles     []string   `json:"Uploaded Files"`
	AIEstimate        string     `json:"AI Estimate"`
	CashOfferInterest bool       `json:"Cash Offer Interest"`
	ConsentToContact  bool       `json:"Consent To Contact"`
	Status            string     `json:"status"`
	Notes             string     `json:"notes"`
	ContactedAt       *time.Time `json:"contacted_at,omitempty"`
	ContactedBy       string     `json:"contacted_by,omitempty"`
}

// FullName joins first and last name.
func (s *Submission) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Address renders the one-line project address.
func (s *Submission) Address() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.Street, s.City, strings.TrimSpace(s.State + " " + s.Zip)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// DemolitionLabel returns the freeform type for "Other" leads.
func (s *Submission) DemolitionLabel() string {
	if s.DemolitionType == DemoOther && s.OtherDemoType != "" {
		return s.OtherDemoType
	}
	return s.DemolitionType
}
