package domain

import "time"

// RemediationRequest pairs a finding with a server-issued, single-use
// confirmation token. The token authorizes exactly one Confirm call and
// fails closed on expiry or reuse.
type RemediationRequest struct {
	Token     string    `json:"token"`
	Action    string    `json:"action"`
	Finding   Finding   `json:"finding"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExecutionResult reports the outcome of a confirmed remediation. Failures
// are data here, never silent: the caller always sees what happened.
type ExecutionResult struct {
	Success    bool      `json:"success"`
	Action     string    `json:"action"`
	ResourceID string    `json:"resource_id"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}
