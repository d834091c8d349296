package featurekit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// Database defines the database operations interface for dependency injection.
type Database interface {
	dbkit.IDB
}

// FeatureChecker defines the feature resolution interface.
type FeatureChecker interface {
	CanAccess(ctx context.Context, user User, featureKey string) bool
	Enforce(ctx context.Context, user User, featureKey string) error
	EffectiveAdminFlags(ctx context.Context, adminID string) (map[string]bool, error)
	EffectiveStaffFlags(ctx context.Context, staffID, adminID string) (map[string]bool, error)
}

// GrantManager defines the policy and grant mutation interface.
type GrantManager interface {
	EnsureGlobalPolicy(ctx context.Context) error
	SetGlobalFlag(ctx context.Context, actor User, featureKey string, enabled bool) error
	SetAdminGrant(ctx context.Context, actor User, adminID, featureKey string, enabled bool) error
	RevokeAdminGrant(ctx context.Context, actor User, adminID, featureKey string) error
	SetStaffGrant(ctx context.Context, actor User, staffID, adminID, featureKey string, enabled bool) error
	RevokeStaffGrant(ctx context.Context, actor User, staffID, adminID, featureKey string) error
}

// Cascader defines the soft delete / restore / purge interface.
type Cascader interface {
	SoftDelete(ctx context.Context, entityType, id string) (*CascadeResult, error)
	Restore(ctx context.Context, entityType, id string) (*CascadeResult, error)
	PermanentlyDelete(ctx context.Context, requester User, entityType, id string) (*CascadeResult, error)
}

// RecycleBin defines the deleted-row query interface.
type RecycleBin interface {
	ListDeletedIDs(ctx context.Context, entityType string) ([]string, error)
	CountDeleted(ctx context.Context, entityType string) (int, error)
	IsDeleted(ctx context.Context, entityType, id string) (bool, error)
}

// TransactionManager defines the transaction management interface.
type TransactionManager interface {
	Transaction(ctx context.Context, fn func(tx *Service) error) error
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(tx *Service) error) error
	ReadOnlyTransaction(ctx context.Context, fn func(tx *Service) error) error
}

// HealthMonitor defines the health monitoring interface.
type HealthMonitor interface {
	Health(ctx context.Context) dbkit.HealthStatus
	IsHealthy(ctx context.Context) bool
	Ping(ctx context.Context) error
	GetPoolStats() dbkit.PoolStats
}

// PoolManager defines the connection pool management interface.
type PoolManager interface {
	ConfigureConnectionPool(config PoolConfig) error
	GetConnectionPoolConfig() (*PoolConfig, error)
	ResetConnectionPool() error
}

// TransactionMonitor defines the transaction monitoring interface.
type TransactionMonitor interface {
	GetTransactionMetrics() TransactionMetrics
	ResetTransactionMetrics()
	IsTransactionHealthy() bool
}
