package worker

import (
	"context"

	"sales-service/internal/broker"
	"sales-service/internal/models"
	"sales-service/internal/util"

	"go.uber.org/zap"
)

// StockWorker consumes SaleRecorded events and raises low-stock alerts
// when a committed sale leaves a product at or below the threshold.
type StockWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	threshold    int
	logger       *zap.Logger
}

// NewStockWorker creates a new stock worker
func NewStockWorker(consumer *broker.Consumer, threshold int) *StockWorker {
	w := &StockWorker{
		consumer:  consumer,
		threshold: threshold,
		logger:    util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnSaleRecorded(w.handleSaleRecorded)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *StockWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock worker", zap.Int("low_stock_threshold", w.threshold))
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *StockWorker) Stop() error {
	w.logger.Info("Stopping stock worker")
	return w.consumer.Close()
}

func (w *StockWorker) handleSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	if event.StockRemaining > w.threshold {
		return nil
	}

	util.LowStockAlertsTotal.Inc()
	w.logger.Warn("Product stock at or below threshold",
		zap.Int64("product_id", event.ProductID),
		zap.Int("stock_remaining", event.StockRemaining),
		zap.Int("threshold", w.threshold))
	return nil
}
