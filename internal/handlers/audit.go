package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Josczesny/BancoBrasil/internal/handlers/render"
	"github.com/Josczesny/BancoBrasil/internal/logger"
	"github.com/Josczesny/BancoBrasil/internal/models"
)

func handleListAudit(auditService auditService, l logger.Logger) http.Handler {
	type record struct {
		ID        string          `json:"id"`
		ActorID   *string         `json:"actor_id,omitempty"`
		Action    string          `json:"action"`
		Table     string          `json:"table"`
		RecordID  *string         `json:"record_id,omitempty"`
		Before    json.RawMessage `json:"before,omitempty"`
		After     json.RawMessage `json:"after,omitempty"`
		CreatedAt time.Time       `json:"created_at"`
	}

	toRecord := func(rec models.AuditRecord) record {
		out := record{
			ID:        rec.ID.String(),
			Action:    rec.Action,
			Table:     rec.Table,
			Before:    rec.Before,
			After:     rec.After,
			CreatedAt: rec.CreatedAt,
		}
		if rec.ActorID != nil {
			s := rec.ActorID.String()
			out.ActorID = &s
		}
		if rec.RecordID != nil {
			s := rec.RecordID.String()
			out.RecordID = &s
		}
		return out
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			recs []models.AuditRecord
			err  error
		)

		switch {
		case r.URL.Query().Get("actor") != "":
			var actorID uuid.UUID
			actorID, err = uuid.Parse(r.URL.Query().Get("actor"))
			if err != nil {
				render.ServiceError(w, "Invalid actor id", http.StatusBadRequest)
				return
			}
			recs, err = auditService.ListByActor(r.Context(), actorID)
		case r.URL.Query().Get("table") != "":
			recs, err = auditService.ListByTable(r.Context(), r.URL.Query().Get("table"))
		default:
			render.ServiceError(w, "Provide 'actor' or 'table' query parameter", http.StatusBadRequest)
			return
		}
		if err != nil {
			l.Error("Failed to list audit records", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]record, 0, len(recs))
		for _, rec := range recs {
			res = append(res, toRecord(rec))
		}
		render.JSON(w, res)
	})
}
