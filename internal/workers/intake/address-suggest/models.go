// internal/workers/intake/address-suggest/models.go
package addresssuggest

// apiResponse is the subset of the geocoding autocomplete payload that is used.
type apiResponse struct {
	Results []apiResult `json:"results"`
}

type apiResult struct {
	AddressLine1 string `json:"address_line1"`
	Street       string `json:"street"`
	HouseNumber  string `json:"housenumber"`
	City         string `json:"city"`
	StateCode    string `json:"state_code"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Formatted    string `json:"formatted"`
}
