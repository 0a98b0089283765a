package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/broker"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/stock"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/store"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/tenant"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CabinetService handles cabinet registration and dashboard reads
type CabinetService struct {
	store           *store.Store
	eventPublisher  *broker.EventPublisher
	minCompartments int
	logger          *zap.Logger
}

// NewCabinetService creates a new cabinet service
func NewCabinetService(store *store.Store, eventPublisher *broker.EventPublisher, minCompartments int) *CabinetService {
	return &CabinetService{
		store:           store,
		eventPublisher:  eventPublisher,
		minCompartments: minCompartments,
		logger:          util.GetLogger(),
	}
}

// RegisterInput is the hardware self-registration payload
type RegisterInput struct {
	HardwareID   string `json:"hardware_id"`
	Name         string `json:"name"`
	Location     string `json:"location"`
	CompanyID    *int64 `json:"company_id"`
	Compartments *int   `json:"compartments"`
}

// RegisterResult reports registration as the upsert it is
type RegisterResult struct {
	Status  string          `json:"status"`
	Cabinet *models.Cabinet `json:"cabinet"`
	Message string          `json:"message,omitempty"`
}

// ConnectionInfo answers a hardware liveness probe
type ConnectionInfo struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	HardwareID   string    `json:"hardware_id"`
	CabinetFound bool      `json:"cabinet_found"`
	CabinetName  string    `json:"cabinet_name,omitempty"`
	Message      string    `json:"message"`
}

// CompartmentSlot is one slot in a cabinet's occupancy grid
type CompartmentSlot struct {
	Number   int       `json:"number"`
	Occupied bool      `json:"occupied"`
	Item     *ItemView `json:"item,omitempty"`
}

// CabinetStats summarizes a cabinet's inventory by derived status
type CabinetStats struct {
	CabinetID         int64          `json:"cabinet_id"`
	TotalCompartments int            `json:"total_compartments"`
	OccupiedSlots     int            `json:"occupied_slots"`
	TotalItems        int            `json:"total_items"`
	ByStatus          map[string]int `json:"by_status"`
	LastSyncAt        *time.Time     `json:"last_sync_at,omitempty"`
}

// validateRegister checks the registration payload against the hardware
// floor of four compartments
func (s *CabinetService) validateRegister(input *RegisterInput) error {
	var missing []string
	if input.HardwareID == "" {
		missing = append(missing, "hardware_id")
	}
	if input.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		return &ValidationError{Message: fmt.Sprintf("missing required fields: %v", missing)}
	}
	if input.Compartments != nil && *input.Compartments < s.minCompartments {
		return &ValidationError{Message: fmt.Sprintf("hardware must report at least %d compartments", s.minCompartments)}
	}
	return nil
}

// Register creates a cabinet for new hardware, or returns the existing one.
// Idempotent by hardware id.
func (s *CabinetService) Register(ctx context.Context, input *RegisterInput) (*RegisterResult, error) {
	ctx, span := util.StartSpan(ctx, "CabinetService.Register")
	defer span.End()

	if err := s.validateRegister(input); err != nil {
		return nil, err
	}

	existing, err := s.store.GetCabinetByHardwareID(ctx, input.HardwareID)
	if err != nil {
		return nil, fmt.Errorf("failed to check hardware id: %w", err)
	}
	if existing != nil {
		return &RegisterResult{
			Status:  "already_registered",
			Cabinet: existing,
		}, nil
	}

	compartments := s.minCompartments
	if input.Compartments != nil {
		compartments = *input.Compartments
	}

	now := time.Now().UTC()
	cabinet := &models.Cabinet{
		HardwareID:        input.HardwareID,
		Name:              input.Name,
		Location:          input.Location,
		CompanyID:         input.CompanyID,
		TotalCompartments: compartments,
		Active:            true,
		LastSyncAt:        &now,
	}
	if err := s.store.CreateCabinet(ctx, cabinet); err != nil {
		return nil, fmt.Errorf("failed to register cabinet: %w", err)
	}

	util.CabinetsRegisteredTotal.Inc()
	s.logger.Info("Cabinet registered",
		zap.String("hardware_id", cabinet.HardwareID),
		zap.Int64("cabinet_id", cabinet.ID))

	if s.eventPublisher != nil {
		event := &models.CabinetRegisteredEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeCabinetRegistered,
				Timestamp: time.Now(),
			},
			CabinetID:  cabinet.ID,
			HardwareID: cabinet.HardwareID,
			Name:       cabinet.Name,
		}
		if err := s.eventPublisher.PublishCabinetRegistered(ctx, event); err != nil {
			s.logger.Error("Failed to publish CabinetRegistered event", zap.Error(err))
		}
	}

	return &RegisterResult{
		Status:  "registered",
		Cabinet: cabinet,
		Message: fmt.Sprintf("hardware registered successfully as '%s'", cabinet.Name),
	}, nil
}

// TestConnection correlates a hardware id to a known cabinet. Always
// succeeds; an unknown id simply reports cabinet_found=false.
func (s *CabinetService) TestConnection(ctx context.Context, hardwareID string) (*ConnectionInfo, error) {
	info := &ConnectionInfo{
		Status:     "connected",
		Timestamp:  time.Now().UTC(),
		HardwareID: hardwareID,
		Message:    "hardware connection successful",
	}
	if hardwareID == "" {
		info.HardwareID = "unknown"
		return info, nil
	}

	cabinet, err := s.store.GetCabinetByHardwareID(ctx, hardwareID)
	if err != nil {
		return nil, err
	}
	if cabinet != nil {
		info.CabinetFound = true
		info.CabinetName = cabinet.Name
	}
	return info, nil
}

// List returns cabinets visible to the actor
func (s *CabinetService) List(ctx context.Context, actor tenant.Actor) ([]models.Cabinet, error) {
	if actor.IsSuper() {
		return s.store.ListCabinets(ctx, nil)
	}
	companyID := actor.CompanyID
	return s.store.ListCabinets(ctx, &companyID)
}

// Get retrieves one cabinet the actor may access
func (s *CabinetService) Get(ctx context.Context, actor tenant.Actor, id int64) (*models.Cabinet, error) {
	cabinet, err := s.store.GetCabinetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(cabinet.CompanyID) {
		return nil, ErrForbidden
	}
	return cabinet, nil
}

// Compartments returns the full occupancy grid, one slot per compartment
// number, empty slots included
func (s *CabinetService) Compartments(ctx context.Context, actor tenant.Actor, id int64) ([]CompartmentSlot, error) {
	cabinet, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListItems(ctx, &cabinet.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	byNumber := make(map[int]models.InventoryItem, len(items))
	for _, item := range items {
		byNumber[item.CompartmentNumber] = item
	}

	slots := make([]CompartmentSlot, 0, cabinet.TotalCompartments)
	for n := 1; n <= cabinet.TotalCompartments; n++ {
		slot := CompartmentSlot{Number: n}
		if item, ok := byNumber[n]; ok {
			slot.Occupied = true
			v := ItemView{
				InventoryItem: item,
				Status:        stock.Classify(item.Quantity, item.ReorderLevel, item.ExpiryDate, now),
			}
			if days, ok := stock.DaysToExpiry(item.ExpiryDate, now); ok {
				v.DaysToExpiry = &days
			}
			slot.Item = &v
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Stats summarizes a cabinet's inventory by derived status
func (s *CabinetService) Stats(ctx context.Context, actor tenant.Actor, id int64) (*CabinetStats, error) {
	cabinet, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListItems(ctx, &cabinet.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stats := &CabinetStats{
		CabinetID:         cabinet.ID,
		TotalCompartments: cabinet.TotalCompartments,
		OccupiedSlots:     len(items),
		TotalItems:        0,
		ByStatus:          map[string]int{},
		LastSyncAt:        cabinet.LastSyncAt,
	}
	for _, item := range items {
		status := stock.Classify(item.Quantity, item.ReorderLevel, item.ExpiryDate, now)
		stats.ByStatus[string(status)]++
		stats.TotalItems += item.Quantity
	}
	return stats, nil
}

// Deactivate soft-deletes a cabinet; its items and audit history stay in
// place for statistics
func (s *CabinetService) Deactivate(ctx context.Context, actor tenant.Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeactivateCabinet(ctx, id)
}
