package worker

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

	"go.uber.org/zap"
)

// AlertWorker mirrors raised alerts into the redis cache so dashboards read
// them without touching the database
type AlertWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	redis        *redisclient.Client
	logger       *zap.Logger
}

// NewAlertWorker creates a new alert worker
func NewAlertWorker(consumer *broker.Consumer, store *store.Store, redis *redisclient.Client) *AlertWorker {
	w := &AlertWorker{
		consumer: consumer,
		store:    store,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnAlertRaised(w.handleAlertRaised)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *AlertWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting alert worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AlertWorker) Stop() error {
	w.logger.Info("Stopping alert worker")
	return w.consumer.Close()
}

func (w *AlertWorker) handleAlertRaised(ctx context.Context, event *models.AlertRaisedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		return nil
	}

	message := fmt.Sprintf("compartment %d: %s is %s", event.Compartment, event.ItemName, event.Status)
	if err := w.redis.AddActiveAlert(ctx, event.CabinetID, message); err != nil {
		return fmt.Errorf("failed to cache alert: %w", err)
	}

	w.logger.Info("Alert cached",
		zap.Int64("cabinet_id", event.CabinetID),
		zap.String("severity", event.Severity),
		zap.String("status", event.Status))

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

// SnapshotWorker rebuilds the cached cabinet inventory view after every
// accepted sensor batch
type SnapshotWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	redis        *redisclient.Client
	snapshotTTL  time.Duration
	logger       *zap.Logger
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(consumer *broker.Consumer, store *store.Store, redis *redisclient.Client, snapshotTTL time.Duration) *SnapshotWorker {
	w := &SnapshotWorker{
		consumer:    consumer,
		store:       store,
		redis:       redis,
		snapshotTTL: snapshotTTL,
		logger:      util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnReadingAccepted(w.handleReadingAccepted)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *SnapshotWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting snapshot worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *SnapshotWorker) Stop() error {
	w.logger.Info("Stopping snapshot worker")
	return w.consumer.Close()
}

type snapshotEntry struct {
	Compartment int          `json:"compartment"`
	Name        string       `json:"name,omitempty"`
	Quantity    int          `json:"quantity"`
	Status      stock.Status `json:"status"`
}

func (w *SnapshotWorker) handleReadingAccepted(ctx context.Context, event *models.ReadingAcceptedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		return nil
	}

	items, err := w.store.ListItems(ctx, &event.CabinetID)
	if err != nil {
		return fmt.Errorf("failed to load items for snapshot: %w", err)
	}

	now := time.Now().UTC()
	entries := make([]snapshotEntry, 0, len(items))
	counts := make(map[string]int, len(items))
	for _, item := range items {
		status := stock.Classify(item.Quantity, item.ReorderLevel, item.ExpiryDate, now)
		counts[string(status)]++
		entries = append(entries, snapshotEntry{
			Compartment: item.CompartmentNumber,
			Name:        item.Name,
			Quantity:    item.Quantity,
			Status:      status,
		})
	}

	if err := w.redis.SetCabinetSnapshot(ctx, event.CabinetID, entries, w.snapshotTTL); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	if err := w.redis.SetStatusCounts(ctx, event.CabinetID, counts); err != nil {
		w.logger.Error("Failed to cache status counts", zap.Error(err))
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	w.logger.Info("Cabinet snapshot refreshed",
		zap.Int64("cabinet_id", event.CabinetID),
		zap.Int("items", len(entries)))
	return nil
}
