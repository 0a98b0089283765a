package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/stock"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/store"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/tenant"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/util"

	"go.uber.org/zap"
)

// InventoryService handles administrative item management. Sensor-driven
// mutation goes through IngestService; this service covers the dashboard
// side of the same records.
type InventoryService struct {
	store               *store.Store
	defaultReorderLevel int
	logger              *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store *store.Store, defaultReorderLevel int) *InventoryService {
	return &InventoryService{
		store:               store,
		defaultReorderLevel: defaultReorderLevel,
		logger:              util.GetLogger(),
	}
}

// ItemView is an item plus its derived status. Status is recomputed on every
// read; it is never stored.
type ItemView struct {
	models.InventoryItem
	Status       stock.Status `json:"status"`
	DaysToExpiry *int         `json:"days_to_expiry,omitempty"`
}

// ItemInput carries administrative create/update fields. Pointer fields
// distinguish "absent" from zero values; weight aliases are resolved here
// like at the sensor boundary.
type ItemInput struct {
	CabinetID         *int64    `json:"cabinet_id"`
	CompartmentNumber *int      `json:"compartment_number"`
	Name              *string   `json:"name"`
	UnitWeight        FlexFloat `json:"unit_weight"`
	AverageWeight     FlexFloat `json:"average_weight"`
	CurrentWeight     FlexFloat `json:"current_weight"`
	Quantity          *int      `json:"quantity"`
	ReorderLevel      *int      `json:"reorder_level"`
	MaxCapacity       *int      `json:"max_capacity"`
	ExpiryDate        *string   `json:"expiry_date"`
	BatchNumber       *string   `json:"batch_number"`
}

func (in *ItemInput) unitWeight() (FlexFloat, bool) {
	if in.AverageWeight.Present() {
		return in.AverageWeight, true
	}
	if in.UnitWeight.Present() {
		return in.UnitWeight, true
	}
	return FlexFloat{}, false
}

// WeightUpdateResult is the response of a single-item weight update
type WeightUpdateResult struct {
	Item           ItemView `json:"item"`
	OldQuantity    int      `json:"old_quantity"`
	NewQuantity    int      `json:"new_quantity"`
	QuantityChange int      `json:"quantity_change"`
}

// AlertGroups buckets items by urgency for the dashboard
type AlertGroups struct {
	Critical   []ItemView `json:"critical"`
	Preventive []ItemView `json:"preventive"`
	Normal     []ItemView `json:"normal"`
}

func (s *InventoryService) view(item models.InventoryItem, now time.Time) ItemView {
	v := ItemView{
		InventoryItem: item,
		Status:        stock.Classify(item.Quantity, item.ReorderLevel, item.ExpiryDate, now),
	}
	if days, ok := stock.DaysToExpiry(item.ExpiryDate, now); ok {
		v.DaysToExpiry = &days
	}
	return v
}

// List returns items visible to the actor, optionally scoped to one cabinet
// and filtered by derived status
func (s *InventoryService) List(ctx context.Context, actor tenant.Actor, cabinetID *int64, status string) ([]ItemView, error) {
	if cabinetID != nil {
		if _, err := s.authorizedCabinet(ctx, actor, *cabinetID); err != nil {
			return nil, err
		}
	} else if !actor.IsSuper() {
		return nil, ErrForbidden
	}

	items, err := s.store.ListItems(ctx, cabinetID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		v := s.view(item, now)
		if status != "" && string(v.Status) != status {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// Get retrieves one item with its derived status
func (s *InventoryService) Get(ctx context.Context, actor tenant.Actor, id int64) (*ItemView, error) {
	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizedCabinet(ctx, actor, item.CabinetID); err != nil {
		return nil, err
	}
	v := s.view(*item, time.Now().UTC())
	return &v, nil
}

// Create registers an item administratively. Unlike sensor-created
// placeholders, the name is assigned immediately and quantity may be
// inferred right away when both weights are present.
func (s *InventoryService) Create(ctx context.Context, actor tenant.Actor, input *ItemInput) (*ItemView, error) {
	if input.CabinetID == nil {
		return nil, &ValidationError{Message: "'cabinet_id' is required"}
	}
	if input.Name == nil || *input.Name == "" {
		return nil, &ValidationError{Message: "'name' is required"}
	}
	if input.CompartmentNumber == nil {
		return nil, &ValidationError{Message: "'compartment_number' is required"}
	}

	cabinet, err := s.authorizedCabinet(ctx, actor, *input.CabinetID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	item := &models.InventoryItem{
		CabinetID:    cabinet.ID,
		Name:         *input.Name,
		ReorderLevel: s.defaultReorderLevel,
		LastScanAt:   &now,
	}
	if err := s.applyInput(item, input, cabinet); err != nil {
		return nil, err
	}

	if item.CurrentWeight != nil {
		item.Quantity = stock.InferQuantity(*item.CurrentWeight, item.UnitWeight, item.Quantity)
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("Item created",
		zap.Int64("item_id", item.ID),
		zap.Int64("cabinet_id", item.CabinetID),
		zap.String("name", item.Name))

	v := s.view(*item, now)
	return &v, nil
}

// Update applies present fields and recomputes quantity when a weight field
// changed
func (s *InventoryService) Update(ctx context.Context, actor tenant.Actor, id int64, input *ItemInput) (*ItemView, error) {
	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cabinet, err := s.authorizedCabinet(ctx, actor, item.CabinetID)
	if err != nil {
		return nil, err
	}

	if input.CabinetID != nil && *input.CabinetID != item.CabinetID {
		cabinet, err = s.authorizedCabinet(ctx, actor, *input.CabinetID)
		if err != nil {
			return nil, err
		}
		item.CabinetID = cabinet.ID
	}

	if err := s.applyInput(item, input, cabinet); err != nil {
		return nil, err
	}

	_, weightChanged := input.unitWeight()
	if (weightChanged || input.CurrentWeight.Present()) && item.CurrentWeight != nil {
		item.Quantity = stock.InferQuantity(*item.CurrentWeight, item.UnitWeight, item.Quantity)
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	v := s.view(*item, time.Now().UTC())
	return &v, nil
}

// Delete removes an item. Administrative operation only.
func (s *InventoryService) Delete(ctx context.Context, actor tenant.Actor, id int64) error {
	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.authorizedCabinet(ctx, actor, item.CabinetID); err != nil {
		return err
	}
	return s.store.DeleteItem(ctx, id)
}

// UpdateWeight applies a single weight observation to one item, using the
// same inference path as batch ingestion
func (s *InventoryService) UpdateWeight(ctx context.Context, actor tenant.Actor, id int64, weight float64) (*WeightUpdateResult, error) {
	if weight < 0 {
		return nil, &ValidationError{Message: "'weight' must be >= 0"}
	}

	item, err := s.store.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizedCabinet(ctx, actor, item.CabinetID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res := applyReading(item, weight, nil, "", now)

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return &WeightUpdateResult{
		Item:           s.view(*item, now),
		OldQuantity:    res.OldQuantity,
		NewQuantity:    res.NewQuantity,
		QuantityChange: res.QuantityChange,
	}, nil
}

// Alerts groups items by urgency. EXPIRES_SOON is critical here: the
// dashboard view treats imminent expiry as immediately actionable, while
// the ingestion response only warns about it.
func (s *InventoryService) Alerts(ctx context.Context, actor tenant.Actor, cabinetID *int64) (*AlertGroups, error) {
	views, err := s.List(ctx, actor, cabinetID, "")
	if err != nil {
		return nil, err
	}

	groups := &AlertGroups{
		Critical:   []ItemView{},
		Preventive: []ItemView{},
		Normal:     []ItemView{},
	}
	for _, v := range views {
		switch v.Status {
		case stock.StatusOutOfStock, stock.StatusExpired, stock.StatusExpiresSoon:
			groups.Critical = append(groups.Critical, v)
		case stock.StatusExpires30, stock.StatusLowStock:
			groups.Preventive = append(groups.Preventive, v)
		default:
			groups.Normal = append(groups.Normal, v)
		}
	}
	return groups, nil
}

func (s *InventoryService) applyInput(item *models.InventoryItem, input *ItemInput, cabinet *models.Cabinet) error {
	if input.CompartmentNumber != nil {
		n := *input.CompartmentNumber
		if n < 1 || n > cabinet.TotalCompartments {
			return &ValidationError{Message: fmt.Sprintf("'compartment_number' must be in 1..%d", cabinet.TotalCompartments)}
		}
		item.CompartmentNumber = n
	}
	if input.Name != nil && *input.Name != "" {
		item.Name = *input.Name
	}
	if f, ok := input.unitWeight(); ok {
		v, valid := f.Value()
		if !valid || v <= 0 {
			return &ValidationError{Message: "'unit_weight' must be a number greater than 0"}
		}
		item.UnitWeight = &v
	}
	if input.CurrentWeight.Present() {
		v, valid := input.CurrentWeight.Value()
		if !valid || v < 0 {
			return &ValidationError{Message: "'current_weight' must be a number >= 0"}
		}
		item.CurrentWeight = &v
		if item.InitialWeight == nil {
			w := v
			item.InitialWeight = &w
		}
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return &ValidationError{Message: "'quantity' must be >= 0"}
		}
		item.Quantity = *input.Quantity
	}
	if input.ReorderLevel != nil {
		if *input.ReorderLevel < 0 {
			return &ValidationError{Message: "'reorder_level' must be >= 0"}
		}
		item.ReorderLevel = *input.ReorderLevel
	}
	if input.MaxCapacity != nil {
		if *input.MaxCapacity <= 0 {
			return &ValidationError{Message: "'max_capacity' must be > 0"}
		}
		item.MaxCapacity = input.MaxCapacity
	}
	if input.ExpiryDate != nil {
		if *input.ExpiryDate == "" {
			item.ExpiryDate = nil
		} else {
			d, err := time.Parse("2006-01-02", *input.ExpiryDate)
			if err != nil {
				return &ValidationError{Message: "'expiry_date' must be YYYY-MM-DD"}
			}
			// Past dates are allowed: already-expired stock is still inventory
			item.ExpiryDate = &d
		}
	}
	if input.BatchNumber != nil {
		item.BatchNumber = *input.BatchNumber
	}
	return nil
}

func (s *InventoryService) authorizedCabinet(ctx context.Context, actor tenant.Actor, cabinetID int64) (*models.Cabinet, error) {
	cabinet, err := s.store.GetCabinetByID(ctx, cabinetID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(cabinet.CompanyID) {
		return nil, ErrForbidden
	}
	return cabinet, nil
}
