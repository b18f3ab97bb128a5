package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Josczesny/BancoBrasil/internal/models"
)

type AuditRepo struct {
	DB DBTX
}

const appendAuditRecord = `-- name: AppendAuditRecord
INSERT INTO audit_records (id, actor_id, action, table_name, record_id, before_data, after_data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, actor_id, action, table_name, record_id, before_data, after_data, created_at
`

func (r *AuditRepo) Append(ctx context.Context, rec models.AuditRecord) (models.AuditRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, appendAuditRecord,
		rec.ID, rec.ActorID, rec.Action, rec.Table, rec.RecordID, rec.Before, rec.After, rec.CreatedAt)
	stored, err := pgx.CollectOneRow(rows, rowToAuditRecord)
	if err != nil {
		return stored, fmt.Errorf("db error: %w", err)
	}

	return stored, nil
}

const listAuditByActor = `-- name: ListAuditByActor
SELECT id, actor_id, action, table_name, record_id, before_data, after_data, created_at
FROM audit_records
WHERE actor_id = $1
ORDER BY created_at DESC
`

func (r *AuditRepo) ListByActor(ctx context.Context, actorID uuid.UUID) ([]models.AuditRecord, error) {
	rows, _ := r.DB.Query(ctx, listAuditByActor, actorID)
	return collectAuditRecords(rows)
}

const listAuditByTable = `-- name: ListAuditByTable
SELECT id, actor_id, action, table_name, record_id, before_data, after_data, created_at
FROM audit_records
WHERE table_name = $1
ORDER BY created_at DESC
`

func (r *AuditRepo) ListByTable(ctx context.Context, table string) ([]models.AuditRecord, error) {
	rows, _ := r.DB.Query(ctx, listAuditByTable, table)
	return collectAuditRecords(rows)
}

func collectAuditRecords(rows pgx.Rows) ([]models.AuditRecord, error) {
	recs, err := pgx.CollectRows(rows, rowToAuditRecord)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return recs, nil
}

func rowToAuditRecord(row pgx.CollectableRow) (models.AuditRecord, error) {
	var rec models.AuditRecord
	err := row.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.Table, &rec.RecordID, &rec.Before, &rec.After, &rec.CreatedAt)
	return rec, err
}
