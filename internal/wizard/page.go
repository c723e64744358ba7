// internal/wizard/page.go
package wizard

import (
	"quote-intake/internal/common/errors"
)

// Page is one screen of the quote wizard.
type Page int

const (
	PageContactTimeframe Page = iota + 1
	PageProjectLocation
	PageDescriptionUploads
	PageContactConsent
	PageGeneratingEstimate
	PageEstimateReview
	PageSubmitted
)

var pageNames = map[Page]string{
	PageContactTimeframe:   "contact_timeframe",
	PageProjectLocation:    "project_location",
	PageDescriptionUploads: "description_uploads",
	PageContactConsent:     "contact_consent",
	PageGeneratingEstimate: "generating_estimate",
	PageEstimateReview:     "estimate_review",
	PageSubmitted:          "submitted",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return "unknown"
}

// IsForm reports whether the page collects draft fields.
func (p Page) IsForm() bool {
	return p >= PageContactTimeframe && p <= PageContactConsent
}

// Event drives a page transition.
type Event string

const (
	EventNext            Event = "next"
	EventBack            Event = "back"
	EventEstimateSettled Event = "estimate_settled"
	EventSubmit          Event = "submit"
	EventStartOver       Event = "start_over"
)

// transition is the pure page graph. Guards such as validation, the
// navigation lock and the persisted flag are checked by the controller.
func transition(from Page, event Event) (Page, error) {
	switch event {
	case EventNext:
		if from >= PageContactTimeframe && from <= PageContactConsent {
			return from + 1, nil
		}
	case EventBack:
		switch {
		case from >= PageProjectLocation && from <= PageContactConsent:
			return from - 1, nil
		case from == PageEstimateReview:
			return PageContactConsent, nil
		}
	case EventEstimateSettled:
		if from == PageGeneratingEstimate {
			return PageEstimateReview, nil
		}
	case EventSubmit:
		if from == PageEstimateReview {
			return PageSubmitted, nil
		}
	case EventStartOver:
		if from == PageSubmitted {
			return PageContactTimeframe, nil
		}
	}
	return from, errors.NewInvalidTransitionError(from.String(), string(event))
}
