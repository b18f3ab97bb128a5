package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/Josczesny/BancoBrasil/internal/models"
	"github.com/Josczesny/BancoBrasil/internal/repository"
)

// AuditService records who did what around ledger and account calls.
// It is invoked by the HTTP layer, never from inside the ledger, so a
// failed audit write cannot roll back a committed money movement.
type AuditService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *AuditService {
	return &AuditService{storage: storage}
}

// Record appends an audit entry. Before and after snapshots are optional
// and marshalled to JSON when present.
func (s *AuditService) Record(ctx context.Context, actorID *uuid.UUID, action string, table string, recordID *uuid.UUID, before any, after any) (models.AuditRecord, error) {
	rec := models.AuditRecord{
		ActorID:  actorID,
		Action:   action,
		Table:    table,
		RecordID: recordID,
	}

	var err error
	if before != nil {
		if rec.Before, err = json.Marshal(before); err != nil {
			return models.AuditRecord{}, fmt.Errorf("can't marshal before snapshot. Err: %w", err)
		}
	}
	if after != nil {
		if rec.After, err = json.Marshal(after); err != nil {
			return models.AuditRecord{}, fmt.Errorf("can't marshal after snapshot. Err: %w", err)
		}
	}

	return s.storage.Audit().Append(ctx, rec)
}

func (s *AuditService) ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.AuditRecord, error) {
	return s.storage.Audit().ListByActor(ctx, actorID)
}

func (s *AuditService) ListByTable(ctx context.Context, table string) ([]models.AuditRecord, error) {
	return s.storage.Audit().ListByTable(ctx, table)
}
