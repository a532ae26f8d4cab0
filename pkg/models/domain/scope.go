package domain

import "time"

// Credentials is a short-lived credential bundle scoped to one account.
// The zero value means the process's ambient identity. Credentials travel
// inside a Scope and are never written to shared process state.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiry          time.Time
}

func (c Credentials) IsZero() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == "" && c.SessionToken == ""
}

// Scope carries the target of one scan request: which regions to inspect,
// which account the results belong to, and the identity to use. One Scope
// per request; concurrent scans never share one.
type Scope struct {
	Regions     []string
	AccountID   string
	Credentials Credentials
}
