// internal/services/event_service.go
package services

import (
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/tracelink/provenance-backend/internal/ledger"
	"github.com/tracelink/provenance-backend/internal/models"
	"github.com/tracelink/provenance-backend/internal/utils"
)

// EventService is the production event sink: committed ledger notifications
// are logged and persisted for the event feed. Sink failures never propagate
// back into the originating operation.
type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

func (s *EventService) Emit(e ledger.Event) {
	logrus.WithFields(logrus.Fields{
		"event":      string(e.Type),
		"product_id": e.ProductID,
		"actor":      e.Actor,
	}).Info("Ledger event")

	record := &models.LedgerEvent{
		Type:      string(e.Type),
		ProductID: e.ProductID,
		ActorID:   e.Actor,
		Payload:   models.JSONB(e.Data),
		Tags:      pq.StringArray{"ledger", string(e.Type)},
		EmittedAt: e.At,
	}
	if err := s.db.Create(record).Error; err != nil {
		logrus.WithError(err).Error("Failed to persist ledger event")
	}
}

func (s *EventService) List(productID *uint64, params utils.PaginationParams) ([]models.LedgerEvent, int64, error) {
	query := s.db.Model(&models.LedgerEvent{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	allowedSortFields := []string{"emitted_at", "created_at", "type"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var events []models.LedgerEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}

	return events, total, nil
}
