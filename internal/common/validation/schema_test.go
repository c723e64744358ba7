package validation

import (
	"testing"

	"quote-intake/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() models.DraftSubmission {
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

func TestValidateDraft_Valid(t *testing.T) {
	errs, err := ValidateDraft(validDraft())
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestValidateDraft_EmptyDraftFlagsRequiredFields(t *testing.T) {
	errs, err := ValidateDraft(models.DraftSubmission{})
	require.NoError(t, err)

	for _, field := range []string{"email", "timeframe", "demolitionType", "street", "city", "state", "zip", "firstName", "lastName", "phone", "consent"} {
		assert.Contains(t, errs, field)
	}
	assert.NotContains(t, errs, "company")
	assert.NotContains(t, errs, "squareFootage")
	assert.NotContains(t, errs, "description")
	assert.NotContains(t, errs, "otherDemoType")
	assert.Equal(t, "Email is required", errs["email"])
	assert.Equal(t, "You must agree to be contacted", errs["consent"])
}

func TestValidateDraft_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(d *models.DraftSubmission)
		field   string
		message string
	}{
		{
			name:    "malformed email",
			mutate:  func(d *models.DraftSubmission) { d.Email = "not-an-email" },
			field:   "email",
			message: "Please enter a valid email address",
		},
		{
			name:    "display name form",
			mutate:  func(d *models.DraftSubmission) { d.Email = "Jane Doe <jane@example.com>" },
			field:   "email",
			message: "Please enter a valid email address",
		},
		{
			name:    "angle brackets",
			mutate:  func(d *models.DraftSubmission) { d.Email = "<a@b.com>" },
			field:   "email",
			message: "Please enter a valid email address",
		},
		{
			name:    "undotted domain",
			mutate:  func(d *models.DraftSubmission) { d.Email = "a@b" },
			field:   "email",
			message: "Please enter a valid email address",
		},
		{
			name:    "unknown timeframe",
			mutate:  func(d *models.DraftSubmission) { d.Timeframe = "Someday" },
			field:   "timeframe",
			message: "Please choose a project timeframe",
		},
		{
			name:    "short phone",
			mutate:  func(d *models.DraftSubmission) { d.Phone = "(813) 555-12" },
			field:   "phone",
			message: "Phone number must have at least 10 digits",
		},
		{
			name:    "blank street",
			mutate:  func(d *models.DraftSubmission) { d.Street = "   " },
			field:   "street",
			message: "Street address is required",
		},
		{
			name:    "consent false",
			mutate:  func(d *models.DraftSubmission) { d.Consent = false },
			field:   "consent",
			message: "You must agree to be contacted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			errs, err := ValidateDraft(d)
			require.NoError(t, err)
			assert.Equal(t, tt.message, errs[tt.field])
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidateDraft_FormattedPhoneAccepted(t *testing.T) {
	d := validDraft()
	d.Phone = "(813) 555-1234"
	errs, err := ValidateDraft(d)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestValidateDraft_OtherTypeRequirement(t *testing.T) {
	for _, demoType := range models.DemolitionTypes {
		t.Run(demoType, func(t *testing.T) {
			d := validDraft()
			d.DemolitionType = demoType
			d.OtherDemoType = ""

			errs, err := ValidateDraft(d)
			require.NoError(t, err)

			if demoType == models.DemoOther {
				assert.Contains(t, errs, "otherDemoType")

				d.OtherDemoType = "Tennis court"
				errs, err = ValidateDraft(d)
				require.NoError(t, err)
				assert.Empty(t, errs)
			} else {
				assert.NotContains(t, errs, "otherDemoType")
			}
		})
	}
}

func TestValidatePage_ScopesErrorsToPage(t *testing.T) {
	empty := models.DraftSubmission{}

	page1, err := ValidatePage(empty, PageContactTimeframe)
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	assert.Contains(t, page1, "email")
	assert.Contains(t, page1, "timeframe")

	page2, err := ValidatePage(empty, PageProjectLocation)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"demolitionType", "street", "city", "state", "zip"}, keys(page2))

	page3, err := ValidatePage(empty, PageDescription)
	require.NoError(t, err)
	assert.Empty(t, page3)

	page4, err := ValidatePage(empty, PageContactConsent)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"firstName", "lastName", "phone", "consent"}, keys(page4))
}

func TestIsBareEmail(t *testing.T) {
	tests := map[string]bool{
		"jane@example.com":            true,
		"  jane.doe+quotes@mail.co  ": true,
		"Jane Doe <jane@example.com>": false,
		"<jane@example.com>":          false,
		"jane@example":                false,
		"jane@.example.com":           false,
		"jane@example.com.":           false,
		"a@b.com, c@d.com":            false,
		"":                            false,
	}
	for input, want := range tests {
		assert.Equal(t, want, IsBareEmail(input), input)
	}
}

func TestValidatePage_RejectsNameAddrEmail(t *testing.T) {
	errs, err := ValidatePage(models.DraftSubmission{
		Email:     "Jane Doe <jane@example.com>",
		Timeframe: models.TimeframeASAP,
	}, PageContactTimeframe)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"email": "Please enter a valid email address"}, errs)
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "8135551234", DigitsOnly("+(813) 555-1234"))
	assert.Equal(t, "", DigitsOnly("abc"))
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
