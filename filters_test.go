package featurekit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewAuditLogFilter tests the filter defaults
func TestNewAuditLogFilter(t *testing.T) {
	f := NewAuditLogFilter()
	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, 0, f.Offset)
	assert.Empty(t, f.ActorID)
	assert.Empty(t, f.Action)
	assert.True(t, f.Since.IsZero())
}

// TestAuditLogFilterChaining tests the fluent builder methods
func TestAuditLogFilterChaining(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	f := NewAuditLogFilter().
		WithActor("admin-1").
		WithTarget("candidate", "cand-42").
		WithFeature(FeatureManageCandidates).
		WithAction(AuditActionSoftDeleted).
		WithTimeRange(since, until).
		WithPagination(25, 50)

	assert.Equal(t, "admin-1", f.ActorID)
	assert.Equal(t, "candidate", f.TargetType)
	assert.Equal(t, "cand-42", f.TargetID)
	assert.Equal(t, FeatureManageCandidates, f.FeatureKey)
	assert.Equal(t, AuditActionSoftDeleted, f.Action)
	assert.Equal(t, since, f.Since)
	assert.Equal(t, until, f.Until)
	assert.Equal(t, 25, f.Limit)
	assert.Equal(t, 50, f.Offset)
}

// TestAuditLogFilterValueSemantics tests that the builder does not mutate
// its receiver
func TestAuditLogFilterValueSemantics(t *testing.T) {
	base := NewAuditLogFilter()
	derived := base.WithActor("admin-1").WithLimit(10)

	assert.Empty(t, base.ActorID)
	assert.Equal(t, 100, base.Limit)
	assert.Equal(t, "admin-1", derived.ActorID)
	assert.Equal(t, 10, derived.Limit)
}

// TestAuditLogFilterPartialRange tests setting only one end of the range
func TestAuditLogFilterPartialRange(t *testing.T) {
	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	f := NewAuditLogFilter().WithSince(since)
	assert.Equal(t, since, f.Since)
	assert.True(t, f.Until.IsZero())

	f = NewAuditLogFilter().WithUntil(since)
	assert.True(t, f.Since.IsZero())
	assert.Equal(t, since, f.Until)

	f = NewAuditLogFilter().WithTargetType("employer")
	assert.Equal(t, "employer", f.TargetType)
	assert.Empty(t, f.TargetID)
}
