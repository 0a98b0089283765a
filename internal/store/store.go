package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetCompanyByID retrieves a company by ID
func (s *Store) GetCompanyByID(ctx context.Context, id int64) (*models.Company, error) {
	var company models.Company
	err := s.db.GetContext(ctx, &company, "SELECT * FROM companies WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// CreateCabinet inserts a new cabinet and fills in generated fields
func (s *Store) CreateCabinet(ctx context.Context, cabinet *models.Cabinet) error {
	query := `
		INSERT INTO cabinets (hardware_id, name, location, company_id, total_compartments, active, last_sync_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, cabinet, query,
		cabinet.HardwareID, cabinet.Name, cabinet.Location, cabinet.CompanyID,
		cabinet.TotalCompartments, cabinet.Active, cabinet.LastSyncAt)
}

// GetCabinetByID retrieves a cabinet by row id
func (s *Store) GetCabinetByID(ctx context.Context, id int64) (*models.Cabinet, error) {
	var cabinet models.Cabinet
	err := s.db.GetContext(ctx, &cabinet, "SELECT * FROM cabinets WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cabinet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cabinet, nil
}

// GetCabinetByHardwareID retrieves a cabinet by its hardware identifier.
// Returns (nil, nil) when no cabinet carries that identifier.
func (s *Store) GetCabinetByHardwareID(ctx context.Context, hardwareID string) (*models.Cabinet, error) {
	var cabinet models.Cabinet
	err := s.db.GetContext(ctx, &cabinet, "SELECT * FROM cabinets WHERE hardware_id = $1", hardwareID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cabinet, nil
}

// ListCabinets retrieves cabinets, optionally scoped to one company
func (s *Store) ListCabinets(ctx context.Context, companyID *int64) ([]models.Cabinet, error) {
	var cabinets []models.Cabinet
	if companyID != nil {
		err := s.db.SelectContext(ctx, &cabinets,
			"SELECT * FROM cabinets WHERE company_id = $1 AND active = TRUE ORDER BY id", *companyID)
		return cabinets, err
	}
	err := s.db.SelectContext(ctx, &cabinets,
		"SELECT * FROM cabinets WHERE active = TRUE ORDER BY id")
	return cabinets, err
}

// DeactivateCabinet soft-deletes a cabinet; audit history stays resolvable
func (s *Store) DeactivateCabinet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cabinets SET active = FALSE, updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("cabinet %d: %w", id, ErrNotFound)
	}
	return nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
