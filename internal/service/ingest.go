package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pacheco20222/gestion-botiquines-backend/internal/broker"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/models"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/redisclient"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/stock"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/store"
	"github.com/pacheco20222/gestion-botiquines-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IngestService applies untrusted sensor batches to inventory state while
// recording an audit entry for every observation, processed or rejected.
type IngestService struct {
	store               *store.Store
	redis               *redisclient.Client
	eventPublisher      *broker.EventPublisher
	defaultReorderLevel int
	logger              *zap.Logger
}

// NewIngestService creates a new ingestion service
func NewIngestService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	defaultReorderLevel int,
) *IngestService {
	return &IngestService{
		store:               store,
		redis:               redis,
		eventPublisher:      eventPublisher,
		defaultReorderLevel: defaultReorderLevel,
		logger:              util.GetLogger(),
	}
}

// CabinetSummary identifies the cabinet a batch was applied to
type CabinetSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	HardwareID string `json:"hardware_id"`
}

// CompartmentResult is the per-compartment outcome of an accepted batch
type CompartmentResult struct {
	Compartment    int      `json:"compartment"`
	Item           string   `json:"item"`
	OldWeight      *float64 `json:"old_weight"`
	NewWeight      float64  `json:"new_weight"`
	OldQuantity    int      `json:"old_quantity"`
	NewQuantity    int      `json:"new_quantity"`
	QuantityChange int      `json:"quantity_change"`
	Status         string   `json:"status"`
	Message        string   `json:"message,omitempty"`
}

// CompartmentError reports one compartment that could not be processed
type CompartmentError struct {
	Compartment *int   `json:"compartment"`
	Error       string `json:"error"`
}

// Alert flags a compartment whose new status needs attention
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// IngestResult is the structured response of one ingestion call
type IngestResult struct {
	Success   bool                `json:"success"`
	Cabinet   CabinetSummary      `json:"cabinet"`
	Results   []CompartmentResult `json:"results"`
	Errors    []CompartmentError  `json:"errors,omitempty"`
	Warnings  []string            `json:"warnings,omitempty"`
	Alerts    []Alert             `json:"alerts,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// StatusNewItem tags a compartment that reported weight with no existing
// item; a placeholder record is created with quantity 0 until an admin
// assigns a unit weight.
const StatusNewItem = "NEW_ITEM"

// Ingest processes one raw telemetry batch. Compartments are processed
// independently: one compartment's failure never aborts the others. All
// mutations and audit entries of the call commit in a single transaction; on
// an internal fault everything rolls back and a rejection audit entry is
// recorded on a best-effort basis.
func (s *IngestService) Ingest(ctx context.Context, raw []byte) (*IngestResult, error) {
	ctx, span := util.StartSpan(ctx, "IngestService.Ingest")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IngestLatency.Observe(time.Since(start).Seconds())
	}()

	payload, err := ParseSensorPayload(raw)
	if err != nil {
		util.ReadingsRejectedTotal.WithLabelValues("invalid_payload").Inc()
		s.auditRejection(ctx, nil, "", string(raw), err.Error())
		return nil, err
	}

	cabinet, err := s.store.GetCabinetByHardwareID(ctx, payload.HardwareID)
	if err != nil {
		util.ReadingsRejectedTotal.WithLabelValues("storage_fault").Inc()
		return nil, fmt.Errorf("failed to resolve cabinet: %w", err)
	}
	if cabinet == nil {
		util.ReadingsRejectedTotal.WithLabelValues("unknown_cabinet").Inc()
		s.auditRejection(ctx, nil, payload.SensorType, string(raw),
			fmt.Sprintf("cabinet not found for hardware_id: %s", payload.HardwareID))
		s.publishRejected(ctx, payload.HardwareID, "unknown cabinet")
		return nil, fmt.Errorf("%w: %s", ErrCabinetNotFound, payload.HardwareID)
	}

	// Short guard against rapid duplicate retransmissions. Best effort: the
	// row lock inside the transaction is the real serializer.
	if s.redis != nil {
		if ok, lockErr := s.redis.AcquireLock(ctx, "ingest:"+payload.HardwareID, 5*time.Second); lockErr == nil && ok {
			defer func() {
				_ = s.redis.ReleaseLock(context.Background(), "ingest:"+payload.HardwareID)
			}()
		}
	}

	now := time.Now().UTC()
	result := &IngestResult{
		Cabinet: CabinetSummary{
			ID:         cabinet.ID,
			Name:       cabinet.Name,
			HardwareID: cabinet.HardwareID,
		},
		Timestamp: now,
	}

	sharedUnit, warn := payload.SharedUnitWeight()
	if warn != "" {
		result.Warnings = append(result.Warnings, warn)
	}

	tx, err := s.store.BeginIngest(ctx, cabinet.ID)
	if err != nil {
		return nil, s.storageFault(ctx, cabinet, payload.SensorType, string(raw), err)
	}
	defer tx.Rollback()

	for i := range payload.Compartments {
		if err := s.processCompartment(ctx, tx, cabinet, &payload.Compartments[i], sharedUnit, now, result); err != nil {
			return nil, s.storageFault(ctx, cabinet, payload.SensorType, string(raw), err)
		}
	}

	if err := tx.TouchCabinetSync(ctx, cabinet.ID); err != nil {
		return nil, s.storageFault(ctx, cabinet, payload.SensorType, string(raw), err)
	}

	batchAudit := &models.AuditRecord{
		CabinetID:  &cabinet.ID,
		SensorType: payload.SensorType,
		RawData:    string(raw),
		Processed:  true,
	}
	if err := tx.InsertAudit(ctx, batchAudit); err != nil {
		return nil, s.storageFault(ctx, cabinet, payload.SensorType, string(raw), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, s.storageFault(ctx, cabinet, payload.SensorType, string(raw), err)
	}

	result.Success = len(result.Errors) == 0
	result.Alerts = buildAlerts(result.Results)

	util.ReadingsProcessedTotal.Inc()
	s.logger.Info("Sensor batch processed",
		zap.String("hardware_id", cabinet.HardwareID),
		zap.Int("compartments", len(payload.Compartments)),
		zap.Int("errors", len(result.Errors)),
		zap.Int("alerts", len(result.Alerts)))

	s.publishAccepted(ctx, cabinet, len(payload.Compartments), len(result.Errors))
	s.publishAlerts(ctx, cabinet, result)

	return result, nil
}

// processCompartment handles one compartment inside the batch transaction.
// Validation problems are recorded in the result and audit trail; only
// storage faults return an error, which aborts the whole call.
func (s *IngestService) processCompartment(
	ctx context.Context,
	tx *store.IngestTx,
	cabinet *models.Cabinet,
	comp *CompartmentReading,
	sharedUnit *float64,
	now time.Time,
	result *IngestResult,
) error {
	audit := &models.AuditRecord{
		CabinetID:         &cabinet.ID,
		CompartmentNumber: comp.Compartment,
		SensorType:        comp.Unit,
		RawData:           comp.Raw(),
	}

	weight, weightOK := comp.Weight.Value()
	if comp.Compartment == nil || !weightOK {
		return s.rejectCompartment(ctx, tx, audit, comp.Compartment, result,
			"missing compartment or weight data", "missing_fields")
	}
	audit.WeightReading = &weight

	number := *comp.Compartment
	if weight < 0 {
		return s.rejectCompartment(ctx, tx, audit, comp.Compartment, result,
			"weight must be >= 0", "negative_weight")
	}
	if number < 1 || number > cabinet.TotalCompartments {
		return s.rejectCompartment(ctx, tx, audit, comp.Compartment, result,
			fmt.Sprintf("compartment %d out of range 1..%d", number, cabinet.TotalCompartments),
			"compartment_out_of_range")
	}

	// Per-compartment override wins over the batch default; an unusable
	// override is ignored with a warning, never fatal.
	effectiveUnit, warn := comp.UnitWeightOverride()
	if warn != "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("compartment %d: %s", number, warn))
	}
	if effectiveUnit == nil {
		effectiveUnit = sharedUnit
	}

	item, err := tx.GetItemForUpdate(ctx, cabinet.ID, number)
	if err != nil {
		return err
	}

	if item == nil {
		item = newItemFromReading(cabinet.ID, number, weight, effectiveUnit, comp.Name(), s.defaultReorderLevel, now)
		if err := tx.InsertItem(ctx, item); err != nil {
			return err
		}

		audit.Processed = true
		if err := tx.InsertAudit(ctx, audit); err != nil {
			return err
		}

		util.ItemsCreatedFromSensorTotal.Inc()
		result.Results = append(result.Results, CompartmentResult{
			Compartment: number,
			Item:        displayName(item.Name),
			NewWeight:   weight,
			Status:      StatusNewItem,
			Message:     "new item record created",
		})
		return nil
	}

	res := applyReading(item, weight, effectiveUnit, comp.Name(), now)
	if err := tx.UpdateItem(ctx, item); err != nil {
		return err
	}

	audit.Processed = true
	if err := tx.InsertAudit(ctx, audit); err != nil {
		return err
	}

	util.CompartmentsUpdatedTotal.Inc()
	result.Results = append(result.Results, res)
	return nil
}

func (s *IngestService) rejectCompartment(
	ctx context.Context,
	tx *store.IngestTx,
	audit *models.AuditRecord,
	compartment *int,
	result *IngestResult,
	msg, reason string,
) error {
	audit.Processed = false
	audit.ErrorMessage = msg
	if err := tx.InsertAudit(ctx, audit); err != nil {
		return err
	}

	util.CompartmentErrorsTotal.WithLabelValues(reason).Inc()
	result.Errors = append(result.Errors, CompartmentError{
		Compartment: compartment,
		Error:       msg,
	})
	return nil
}

// applyReading applies one weight observation to an existing item and
// derives its new status. Pure with respect to storage: it only mutates the
// in-memory record.
func applyReading(item *models.InventoryItem, weight float64, unitWeight *float64, name string, now time.Time) CompartmentResult {
	oldWeight := item.CurrentWeight
	oldQuantity := item.Quantity

	if unitWeight != nil {
		item.UnitWeight = unitWeight
	}
	if item.InitialWeight == nil {
		w := weight
		item.InitialWeight = &w
	}
	if name != "" {
		item.Name = name
	}

	w := weight
	item.CurrentWeight = &w
	item.Quantity = stock.InferQuantity(weight, item.UnitWeight, item.Quantity)
	t := now
	item.LastScanAt = &t

	status := stock.Classify(item.Quantity, item.ReorderLevel, item.ExpiryDate, now)

	return CompartmentResult{
		Compartment:    item.CompartmentNumber,
		Item:           displayName(item.Name),
		OldWeight:      oldWeight,
		NewWeight:      weight,
		OldQuantity:    oldQuantity,
		NewQuantity:    item.Quantity,
		QuantityChange: item.Quantity - oldQuantity,
		Status:         string(status),
	}
}

// newItemFromReading builds the placeholder item for a compartment seen for
// the first time. Quantity starts at 0: counting needs a unit weight, which
// an admin assigns later. The observed weight is stored as both initial and
// current.
func newItemFromReading(cabinetID int64, compartment int, weight float64, unitWeight *float64, name string, reorderLevel int, now time.Time) *models.InventoryItem {
	w := weight
	w2 := weight
	t := now
	return &models.InventoryItem{
		CabinetID:         cabinetID,
		CompartmentNumber: compartment,
		Name:              name,
		UnitWeight:        unitWeight,
		InitialWeight:     &w,
		CurrentWeight:     &w2,
		Quantity:          0,
		ReorderLevel:      reorderLevel,
		LastScanAt:        &t,
	}
}

// buildAlerts derives the alert list from per-compartment results
func buildAlerts(results []CompartmentResult) []Alert {
	var alerts []Alert
	for _, res := range results {
		severity := stock.AlertSeverity(stock.Status(res.Status))
		if severity == "" {
			continue
		}
		util.AlertsRaisedTotal.WithLabelValues(severity).Inc()
		alerts = append(alerts, Alert{
			Type:    severity,
			Message: fmt.Sprintf("%s is %s", res.Item, res.Status),
		})
	}
	return alerts
}

func displayName(name string) string {
	if name == "" {
		return "unassigned"
	}
	return name
}

// Logs returns audit records newest first for debugging hardware behavior
func (s *IngestService) Logs(ctx context.Context, cabinetID *int64, processed *bool, limit int) ([]models.AuditRecord, error) {
	return s.store.ListAuditRecords(ctx, cabinetID, processed, limit)
}

// auditRejection records a batch-level rejection outside any transaction,
// best effort: the audit trail should survive even when nothing else does.
func (s *IngestService) auditRejection(ctx context.Context, cabinetID *int64, sensorType, raw, msg string) {
	rec := &models.AuditRecord{
		CabinetID:    cabinetID,
		SensorType:   sensorType,
		RawData:      raw,
		Processed:    false,
		ErrorMessage: msg,
	}
	if err := s.store.InsertAuditRecord(ctx, rec); err != nil {
		s.logger.Error("Failed to record rejection audit entry", zap.Error(err))
	}
}

func (s *IngestService) storageFault(ctx context.Context, cabinet *models.Cabinet, sensorType, raw string, err error) error {
	util.ReadingsRejectedTotal.WithLabelValues("storage_fault").Inc()
	s.auditRejection(ctx, &cabinet.ID, sensorType, raw, fmt.Sprintf("processing error: %v", err))
	return fmt.Errorf("ingestion failed for %s: %w", cabinet.HardwareID, err)
}

func (s *IngestService) publishAccepted(ctx context.Context, cabinet *models.Cabinet, compartments, errorCount int) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.ReadingAcceptedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReadingAccepted,
			Timestamp: time.Now(),
		},
		CabinetID:    cabinet.ID,
		HardwareID:   cabinet.HardwareID,
		Compartments: compartments,
		ErrorCount:   errorCount,
	}
	if err := s.eventPublisher.PublishReadingAccepted(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReadingAccepted event", zap.Error(err))
	}
}

func (s *IngestService) publishRejected(ctx context.Context, hardwareID, reason string) {
	if s.eventPublisher == nil {
		return
	}
	event := &models.ReadingRejectedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeReadingRejected,
			Timestamp: time.Now(),
		},
		HardwareID: hardwareID,
		Reason:     reason,
	}
	if err := s.eventPublisher.PublishReadingRejected(ctx, event); err != nil {
		s.logger.Error("Failed to publish ReadingRejected event", zap.Error(err))
	}
}

func (s *IngestService) publishAlerts(ctx context.Context, cabinet *models.Cabinet, result *IngestResult) {
	if s.eventPublisher == nil {
		return
	}
	for _, res := range result.Results {
		severity := stock.AlertSeverity(stock.Status(res.Status))
		if severity == "" {
			continue
		}
		event := &models.AlertRaisedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeAlertRaised,
				Timestamp: time.Now(),
			},
			CabinetID:   cabinet.ID,
			Compartment: res.Compartment,
			ItemName:    res.Item,
			Status:      res.Status,
			Severity:    severity,
		}
		if err := s.eventPublisher.PublishAlertRaised(ctx, event); err != nil {
			s.logger.Error("Failed to publish AlertRaised event", zap.Error(err))
		}
	}
}
