package featurekit

import (
	"github.com/fernandezvara/dbkit"
)

// MigrationService provides migration management functionality as an
// extension to Service.
type MigrationService struct {
	*Service
}

// NewMigrationService creates a new migration service extension.
func NewMigrationService(service *Service) *MigrationService {
	return &MigrationService{Service: service}
}

// Migrations returns all database migrations required for FeatureKit's own
// tables. The soft-deletable entity tables belong to the host application;
// FeatureKit only requires them to carry an `is_deleted` integer column
// defaulting to 0.
//
// Use dbkit.Migrate(ctx, ms.Migrations()) to run migrations.
func (ms *MigrationService) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "featurekit-001",
			Description: "Create feature_policies table",
			SQL: `
                CREATE TABLE IF NOT EXISTS feature_policies (
                    feature_key TEXT PRIMARY KEY,
                    enabled BOOLEAN NOT NULL,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "featurekit-002",
			Description: "Create admin_grants table",
			SQL: `
                CREATE TABLE IF NOT EXISTS admin_grants (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    admin_id TEXT NOT NULL,
                    feature_key TEXT NOT NULL,
                    enabled BOOLEAN NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (admin_id, feature_key)
                )`,
		},
		{
			ID:          "featurekit-003",
			Description: "Create staff_grants table",
			SQL: `
                CREATE TABLE IF NOT EXISTS staff_grants (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    staff_id TEXT NOT NULL,
                    admin_id TEXT NOT NULL,
                    feature_key TEXT NOT NULL,
                    enabled BOOLEAN NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (staff_id, admin_id, feature_key)
                )`,
		},
		{
			ID:          "featurekit-004",
			Description: "Create audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    actor_name TEXT,
                    action TEXT NOT NULL,
                    target_type TEXT NOT NULL,
                    target_id TEXT NOT NULL,
                    feature_key TEXT,
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    details JSONB
                )`,
		},
	}
}
