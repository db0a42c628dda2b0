package model

import (
	"encoding/json"
	"time"
)

// QuotaLogEntry records the cost of one metered API operation.
type QuotaLogEntry struct {
	ID        int64           `json:"id"`
	Date      time.Time       `json:"date"`
	UnitsUsed int             `json:"unitsUsed"`
	Operation string          `json:"operation"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// QuotaStatus is the answer to "is there budget for an operation of cost C".
type QuotaStatus struct {
	HasQuota  bool `json:"hasQuota"`
	Remaining int  `json:"remaining"`
	Used      int  `json:"used"`
}

// QuotaReport is the API response for GET /api/quota.
type QuotaReport struct {
	Used      int             `json:"used"`
	Remaining int             `json:"remaining"`
	Limit     int             `json:"limit"`
	HasQuota  bool            `json:"hasQuota"`
	Logs      []QuotaLogEntry `json:"logs"`
}
