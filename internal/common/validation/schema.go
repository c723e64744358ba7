package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode"

	"quote-intake/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Wizard pages that carry form fields.
const (
	PageContactTimeframe = 1
	PageProjectLocation  = 2
	PageDescription      = 3
	PageContactConsent   = 4
)

// PageFields lists the draft fields validated when leaving each page.
var PageFields = map[int][]string{
	PageContactTimeframe: {"email", "timeframe"},
	PageProjectLocation:  {"demolitionType", "otherDemoType", "street", "city", "state", "zip", "squareFootage"},
	PageDescription:      {},
	PageContactConsent:   {"firstName", "lastName", "company", "phone", "consent"},
}

const phoneFormat = "phone-digits"

// MinPhoneDigits is the number of digits a phone number needs after stripping formatting.
const MinPhoneDigits = 10

type phoneDigitsChecker struct{}

func (phoneDigitsChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return len(DigitsOnly(s)) >= MinPhoneDigits
}

// bareEmailChecker accepts a plain addr-spec with a dotted domain. Display
// names and angle brackets, which net/mail tolerates, are rejected.
type bareEmailChecker struct{}

func (bareEmailChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return IsBareEmail(s)
}

// IsBareEmail reports whether s is a single address like jane@example.com.
func IsBareEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	domain := s[at+1:]
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".")
}

// DigitsOnly strips everything but 0-9.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	schemaOnce  sync.Once
	baseSchema  *gojsonschema.Schema
	otherSchema *gojsonschema.Schema
	schemaErr   error
)

const nonBlank = `\S`

func draftSchema(requireOther bool) map[string]interface{} {
	required := func() map[string]interface{} {
		return map[string]interface{}{"type": "string", "pattern": nonBlank}
	}
	optional := map[string]interface{}{"type": "string"}

	otherDemo := optional
	if requireOther {
		otherDemo = required()
	}

	return map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]interface{}{
			"email":          map[string]interface{}{"type": "string", "pattern": nonBlank, "format": "email"},
			"timeframe":      map[string]interface{}{"type": "string", "enum": toInterfaces(models.Timeframes)},
			"demolitionType": map[string]interface{}{"type": "string", "enum": toInterfaces(models.DemolitionTypes)},
			"otherDemoType":  otherDemo,
			"street":         required(),
			"city":           required(),
			"state":          required(),
			"zip":            required(),
			"squareFootage":  optional,
			"description":    optional,
			"firstName":      required(),
			"lastName":       required(),
			"company":        optional,
			"phone":          map[string]interface{}{"type": "string", "pattern": nonBlank, "format": phoneFormat},
			"cashOffer":      map[string]interface{}{"type": "boolean"},
			"consent":        map[string]interface{}{"type": "boolean", "const": true},
		},
	}
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func loadSchemas() {
	gojsonschema.FormatCheckers.Add(phoneFormat, phoneDigitsChecker{})
	gojsonschema.FormatCheckers.Add("email", bareEmailChecker{})

	baseSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(draftSchema(false)))
	if schemaErr != nil {
		return
	}
	otherSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(draftSchema(true)))
}

// ValidateDraft returns field -> message for every invalid field of the draft.
func ValidateDraft(draft models.DraftSubmission) (map[string]string, error) {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return nil, fmt.Errorf("failed to compile draft schema: %w", schemaErr)
	}

	schema := baseSchema
	if draft.DemolitionType == models.DemoOther {
		schema = otherSchema
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(draft))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	fieldErrors := make(map[string]string)
	if result.Valid() {
		return fieldErrors, nil
	}
	values := fieldValues(draft)
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = prop
			}
		}
		field = strings.TrimPrefix(field, "(root).")
		if field == "" || field == "(root)" {
			continue
		}
		if _, seen := fieldErrors[field]; seen {
			continue
		}
		fieldErrors[field] = messageFor(field, values[field])
	}
	return fieldErrors, nil
}

// ValidatePage validates the draft and keeps only errors of fields on the given page.
func ValidatePage(draft models.DraftSubmission, page int) (map[string]string, error) {
	all, err := ValidateDraft(draft)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, field := range PageFields[page] {
		if msg, ok := all[field]; ok {
			out[field] = msg
		}
	}
	return out, nil
}

func fieldValues(d models.DraftSubmission) map[string]interface{} {
	return map[string]interface{}{
		"email":          d.Email,
		"timeframe":      d.Timeframe,
		"demolitionType": d.DemolitionType,
		"otherDemoType":  d.OtherDemoType,
		"street":         d.Street,
		"city":           d.City,
		"state":          d.State,
		"zip":            d.Zip,
		"firstName":      d.FirstName,
		"lastName":       d.LastName,
		"phone":          d.Phone,
		"consent":        d.Consent,
	}
}

var fieldLabels = map[string]string{
	"email":          "Email",
	"timeframe":      "Project timeframe",
	"demolitionType": "Demolition type",
	"otherDemoType":  "Please describe the demolition type",
	"street":         "Street address",
	"city":           "City",
	"state":          "State",
	"zip":            "Zip code",
	"firstName":      "First name",
	"lastName":       "Last name",
	"phone":          "Phone number",
}

var invalidMessages = map[string]string{
	"email":          "Please enter a valid email address",
	"timeframe":      "Please choose a project timeframe",
	"demolitionType": "Please choose a demolition type",
	"phone":          fmt.Sprintf("Phone number must have at least %d digits", MinPhoneDigits),
}

func messageFor(field string, value interface{}) string {
	if field == "consent" {
		return "You must agree to be contacted"
	}
	if s, ok := value.(string); ok && strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0 {
		if label, ok := fieldLabels[field]; ok {
			if field == "otherDemoType" {
				return label
			}
			return label + " is required"
		}
	}
	if msg, ok := invalidMessages[field]; ok {
		return msg
	}
	if label, ok := fieldLabels[field]; ok {
		return label + " is invalid"
	}
	return "Invalid value"
}
