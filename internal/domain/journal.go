package domain

import "time"

// IngestRecord is one journal line describing a read of the stats file.
type IngestRecord struct {
	ID            string    `json:"id"`
	ReadAt        time.Time `json:"readAt"`
	Outcome       string    `json:"outcome"`
	Message       string    `json:"message,omitempty"`
	Attempts      int       `json:"attempts"`
	MemberCount   int       `json:"memberCount"`
	SchemaVersion string    `json:"schemaVersion,omitempty"`
	GeneratedAt   string    `json:"generatedAt,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

const OutcomeOK = "ok"
