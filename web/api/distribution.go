package api

// DistributionPreviewRequest represents the query parameters for
// GET /distributions/preview
type DistributionPreviewRequest struct {
	Period       string  `query:"period"`        // Reward period selector (default: 7d)
	LookbackDays uint64  `query:"lookback_days"` // Delegation history window in days (default: 84)
	MinHP        float64 `query:"min_hp"`        // Minimum delegated HP to qualify
	Exclude      string  `query:"exclude"`       // Comma-separated accounts to exclude
	Pool         string  `query:"pool"`          // Optional explicit pool amount, skips reward lookup
}

// DelegatorShare represents one delegator's allocation in the preview
type DelegatorShare struct {
	Delegator  string `json:"delegator"`
	HP         string `json:"hp"`
	Percentage string `json:"percentage"`
	Amount     string `json:"amount"`
	Block      string `json:"block"`
}

// DistributionSummary represents the descriptive statistics of a preview
type DistributionSummary struct {
	Count  int    `json:"count"`
	Min    string `json:"min"`
	Max    string `json:"max"`
	Mean   string `json:"mean"`
	Median string `json:"median"`
	StdDev string `json:"stddev"`
}

// DistributionPreviewResponse represents the API response format for
// GET /distributions/preview
type DistributionPreviewResponse struct {
	Delegators       []DelegatorShare    `json:"delegators"`
	TotalHP          string              `json:"total_hp"`
	TotalDistributed string              `json:"total_distributed"`
	CutoffDate       string              `json:"cutoff_date"`
	EventsProcessed  int                 `json:"events_processed"`
	Summary          DistributionSummary `json:"summary"`
}
