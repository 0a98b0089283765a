package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"
)

// InsertAuditRecord appends one audit record. Records are never updated or
// deleted afterwards.
func (s *Store) InsertAuditRecord(ctx context.Context, rec *models.AuditRecord) error {
	query := `
		INSERT INTO audit_records
			(cabinet_id, compartment_number, weight_reading, sensor_type, raw_data, processed, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, rec, query,
		rec.CabinetID, rec.CompartmentNumber, rec.WeightReading, rec.SensorType,
		rec.RawData, rec.Processed, rec.ErrorMessage)
}

// ListAuditRecords retrieves audit records newest first, optionally filtered
// by cabinet and processing outcome
func (s *Store) ListAuditRecords(ctx context.Context, cabinetID *int64, processed *bool, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var conds []string
	var args []interface{}

	if cabinetID != nil {
		args = append(args, *cabinetID)
		conds = append(conds, fmt.Sprintf("cabinet_id = $%d", len(args)))
	}
	if processed != nil {
		args = append(args, *processed)
		conds = append(conds, fmt.Sprintf("processed = $%d", len(args)))
	}

	query := "SELECT * FROM audit_records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	var records []models.AuditRecord
	err := s.db.SelectContext(ctx, &records, query, args...)
	return records, err
}
