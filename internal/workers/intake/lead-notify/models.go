// internal/workers/intake/lead-notify/models.go
package leadnotify

// Result reports which fan-out steps went through for one lead.
type Result struct {
	EmailSent          bool   `json:"emailSent"`
	SMSSent            bool   `json:"smsSent"`
	CRMLeadID          string `json:"crmLeadId,omitempty"`
	CRMDuplicate       bool   `json:"crmDuplicate"`
	ProcessInstanceKey int64  `json:"processInstanceKey,omitempty"`
}
