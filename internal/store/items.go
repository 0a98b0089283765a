package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"
)

// CreateItem inserts a new inventory item
func (s *Store) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory_items
			(cabinet_id, compartment_number, name, unit_weight, initial_weight, current_weight,
			 quantity, reorder_level, max_capacity, expiry_date, batch_number, last_scan_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, item, query,
		item.CabinetID, item.CompartmentNumber, item.Name, item.UnitWeight,
		item.InitialWeight, item.CurrentWeight, item.Quantity, item.ReorderLevel,
		item.MaxCapacity, item.ExpiryDate, item.BatchNumber, item.LastScanAt)
}

// GetItemByID retrieves an inventory item by row id
func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM inventory_items WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItemByCompartment retrieves the item occupying one compartment.
// Returns (nil, nil) when the compartment is empty.
func (s *Store) GetItemByCompartment(ctx context.Context, cabinetID int64, compartment int) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		"SELECT * FROM inventory_items WHERE cabinet_id = $1 AND compartment_number = $2",
		cabinetID, compartment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems retrieves inventory items, optionally scoped to one cabinet
func (s *Store) ListItems(ctx context.Context, cabinetID *int64) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if cabinetID != nil {
		err := s.db.SelectContext(ctx, &items,
			"SELECT * FROM inventory_items WHERE cabinet_id = $1 ORDER BY compartment_number", *cabinetID)
		return items, err
	}
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM inventory_items ORDER BY id")
	return items, err
}

// UpdateItem persists all mutable fields of an item
func (s *Store) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		UPDATE inventory_items SET
			cabinet_id = $1, compartment_number = $2, name = $3, unit_weight = $4,
			initial_weight = $5, current_weight = $6, quantity = $7, reorder_level = $8,
			max_capacity = $9, expiry_date = $10, batch_number = $11, last_scan_at = $12,
			updated_at = NOW()
		WHERE id = $13`

	res, err := s.db.ExecContext(ctx, query,
		item.CabinetID, item.CompartmentNumber, item.Name, item.UnitWeight,
		item.InitialWeight, item.CurrentWeight, item.Quantity, item.ReorderLevel,
		item.MaxCapacity, item.ExpiryDate, item.BatchNumber, item.LastScanAt, item.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// DeleteItem removes an item. Administrative removal only; sensor readings
// never delete rows.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}
