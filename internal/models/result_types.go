package models

// Result is the outcome shape every mutating back-office call returns.
// Callers check Success rather than the HTTP status alone.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkResult reports how many executions a batched review touched.
type BulkResult struct {
	Result
	Updated int64 `json:"updated"`
}
