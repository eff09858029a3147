package responses

// SearchAddressResponse body of a successful search
type SearchAddressResponse struct {
	SimplifiedAddress          string `json:"simplified_address"`
	FormattedSimplifiedAddress string `json:"formatted_simplified_address"`
	Status                     string `json:"status"`
}

// ErrorResponse body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// BatchSearchResponse reply to a new batch job
type BatchSearchResponse struct {
	JobID          string `json:"job_id"`
	TotalAddresses int    `json:"total_addresses"`
	Message        string `json:"message"`
}

// JobStatusResponse progress of a batch job
type JobStatusResponse struct {
	JobID     string  `json:"job_id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
	Processed int     `json:"processed"`
	Failed    int     `json:"failed"`
	Total     int     `json:"total"`
}

// JobResultsResponse results of a finished or running batch job
type JobResultsResponse struct {
	JobID   string      `json:"job_id"`
	Status  string      `json:"status"`
	Results interface{} `json:"results"`
}

// HealthCheckResponse reply of the health routes
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// AdminStatsResponse reply of GET /v1/admin/stats
type AdminStatsResponse struct {
	Cache         interface{} `json:"cache"`
	Sessions      interface{} `json:"sessions"`
	Jobs          int         `json:"jobs"`
	MemoryUsage   interface{} `json:"memory_usage"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	LastUpdated   string      `json:"last_updated"`
}

// SuccessResponse generic acknowledgement
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
