// internal/workers/intake/estimate-request/models.go
package estimaterequest

// Input is the metadata sent to the estimation service. Attachments travel by name only.
type Input struct {
	Timeframe      string   `json:"timeframe"`
	DemolitionType string   `json:"demolitionType"`
	OtherDemoType  string   `json:"otherDemoType,omitempty"`
	Street         string   `json:"street"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	Zip            string   `json:"zip"`
	SquareFootage  string   `json:"squareFootage,omitempty"`
	Description    string   `json:"description,omitempty"`
	CashOffer      bool     `json:"cashOffer"`
	FileNames      []string `json:"fileNames"`
}

type Output struct {
	Estimate string `json:"estimate"`
	Success  bool   `json:"success"`
}
