package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is an append only trail entry written by the HTTP layer
// around ledger calls. Before and After hold JSON snapshots of the
// touched record, if the caller captured them.
type AuditRecord struct {
	ID        uuid.UUID
	ActorID   *uuid.UUID
	Action    string
	Table     string
	RecordID  *uuid.UUID
	Before    []byte
	After     []byte
	CreatedAt time.Time
}
