package featurekit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Service provides feature resolution, grant management and cascading soft
// deletion. It integrates with the database through dbkit with enhanced
// error handling.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. On top of that the public API
// translates failures into the FeatureKit taxonomy: ErrAccessDenied,
// ErrForbidden, ErrNotFound, ErrUnknownEntity, ErrUnknownFeature and
// ErrStorage. Callers never need to recover from panics to use this
// package correctly.
//
// Example error handling:
//
//	err := service.Enforce(ctx, user, "canViewReports")
//	if err != nil {
//	    if featurekit.IsAccessDenied(err) {
//	        switch featurekit.DenialReason(err) {
//	        case featurekit.ReasonPolicyDisabled:
//	            // feature switched off globally
//	        case featurekit.ReasonNotDelegated:
//	            // feature not granted to this account
//	        }
//	    }
//	}
type Service struct {
	db        dbkit.IDB
	features  *FeatureRegistry
	entities  *EntityRegistry
	txMonitor *transactionMonitor
}

// NewService creates a new FeatureKit service.
//
// Example:
//
//	features := featurekit.DefaultFeatures()
//	entities := featurekit.DefaultEntities()
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := featurekit.NewService(features, entities, db)
func NewService(features *FeatureRegistry, entities *EntityRegistry, db dbkit.IDB) *Service {
	return &Service{
		db:        db,
		features:  features,
		entities:  entities,
		txMonitor: newTransactionMonitor(),
	}
}

// Features returns the feature registry.
func (s *Service) Features() *FeatureRegistry {
	return s.features
}

// Entities returns the entity registry.
func (s *Service) Entities() *EntityRegistry {
	return s.entities
}

// ============================================================================
// AUDIT LOG
// ============================================================================

// GetAuditLog retrieves audit log entries with optional filters.
func (s *Service) GetAuditLog(ctx context.Context, filter AuditLogFilter) ([]AuditLog, error) {
	var logs []AuditLog
	q := s.db.NewSelect().Model(&logs)
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.TargetType != "" {
		q = q.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if filter.FeatureKey != "" {
		q = q.Where("feature_key = ?", filter.FeatureKey)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("timestamp >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		q = q.Where("timestamp <= ?", filter.Until)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100 // Default limit
	}
	q = q.Limit(limit)

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	q = q.Order("timestamp DESC")
	err := dbkit.WithErr1(q.Scan(ctx), "GetAuditLog").Err()
	if err != nil {
		return nil, NewStorageError(err, "failed to read audit log")
	}

	return logs, nil
}
