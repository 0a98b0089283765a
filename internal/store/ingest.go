package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// IngestTx scopes all mutations of one sensor batch to a single database
// transaction. BeginIngest locks the cabinet row, so concurrent batches for
// the same cabinet apply as sequential read-modify-write transactions.
type IngestTx struct {
	tx *sqlx.Tx
}

// BeginIngest starts the ingestion transaction and locks the cabinet row
func (s *Store) BeginIngest(ctx context.Context, cabinetID int64) (*IngestTx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	var id int64
	if err := tx.GetContext(ctx, &id,
		"SELECT id FROM cabinets WHERE id = $1 FOR UPDATE", cabinetID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to lock cabinet %d: %w", cabinetID, err)
	}

	return &IngestTx{tx: tx}, nil
}

// GetItemForUpdate retrieves and row-locks the item in one compartment.
// Returns (nil, nil) when the compartment is empty.
func (it *IngestTx) GetItemForUpdate(ctx context.Context, cabinetID int64, compartment int) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := it.tx.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE cabinet_id = $1 AND compartment_number = $2 FOR UPDATE",
		cabinetID, compartment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItem creates a placeholder item for a newly observed compartment
func (it *IngestTx) InsertItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items
			(cabinet_id, compartment_number, name, unit_weight, initial_weight, current_weight,
			 quantity, reorder_level, max_capacity, expiry_date, batch_number, last_scan_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return it.tx.GetContext(ctx, item, query,
		item.CabinetID, item.CompartmentNumber, item.Name, item.UnitWeight,
		item.InitialWeight, item.CurrentWeight, item.Quantity, item.ReorderLevel,
		item.MaxCapacity, item.ExpiryDate, item.BatchNumber, item.LastScanAt)
}

// UpdateItem persists the sensor-driven mutation of an existing item
func (it *IngestTx) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	_, err := it.tx.ExecContext(ctx, `
		UPDATE inventory_items SET
			name = $1, unit_weight = $2, initial_weight = $3, current_weight = $4,
			quantity = $5, last_scan_at = $6, updated_at = NOW()
		WHERE id = $7`,
		item.Name, item.UnitWeight, item.InitialWeight, item.CurrentWeight,
		item.Quantity, item.LastScanAt, item.ID)
	return err
}

// InsertAudit appends an audit record within the batch transaction
func (it *IngestTx) InsertAudit(ctx context.Context, rec *models.AuditRecord) error {
	return it.tx.GetContext(ctx, rec, `
		INSERT INTO audit_records
			(cabinet_id, compartment_number, weight_reading, sensor_type, raw_data, processed, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		rec.CabinetID, rec.CompartmentNumber, rec.WeightReading, rec.SensorType,
		rec.RawData, rec.Processed, rec.ErrorMessage)
}

// TouchCabinetSync advances the cabinet's last accepted sync timestamp
func (it *IngestTx) TouchCabinetSync(ctx context.Context, cabinetID int64) error {
	_, err := it.tx.ExecContext(ctx,
		"UPDATE cabinets SET last_sync_at = NOW(), updated_at = NOW() WHERE id = $1", cabinetID)
	return err
}

// Commit commits the batch
func (it *IngestTx) Commit() error {
	return it.tx.Commit()
}

// Rollback discards all mutations of the batch. Safe to call after Commit.
func (it *IngestTx) Rollback() error {
	return it.tx.Rollback()
}
