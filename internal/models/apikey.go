package models

import "time"

// APIKey is a caller credential stored in the identity store.
type APIKey struct {
	Key           string
	DeveloperName string
	Enabled       bool
	UsageCount    int64
	CreatedAt     time.Time
}
