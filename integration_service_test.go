package featurekit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegrationTransactionCommit tests that work inside a committed
// transaction persists
func TestIntegrationTransactionCommit(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()
	superAdmin := helper.SuperAdmin()
	admin := helper.Admin()

	err := service.Transaction(ctx, func(tx *Service) error {
		if err := tx.SetAdminGrant(ctx, superAdmin, admin.ID, FeatureViewReports, false); err != nil {
			return err
		}
		return tx.SetAdminGrant(ctx, superAdmin, admin.ID, FeatureExportData, false)
	})
	require.NoError(t, err)

	helper.AssertCannotAccess(admin, FeatureViewReports)
	helper.AssertCannotAccess(admin, FeatureExportData)
}

// TestIntegrationTransactionRollback tests that an error rolls every
// statement back
func TestIntegrationTransactionRollback(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()
	superAdmin := helper.SuperAdmin()
	admin := helper.Admin()

	failure := errors.New("business rule violated")
	err := service.Transaction(ctx, func(tx *Service) error {
		if err := tx.SetAdminGrant(ctx, superAdmin, admin.ID, FeatureViewReports, false); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)

	// The grant write was rolled back, the default is back in force.
	helper.AssertCanAccess(admin, FeatureViewReports)
	assert.False(t, service.HasExplicitAdminGrant(ctx, admin.ID, FeatureViewReports))
}

// TestIntegrationNestedTransaction tests savepoint behavior: an inner
// rollback leaves the outer work intact
func TestIntegrationNestedTransaction(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()
	superAdmin := helper.SuperAdmin()
	admin := helper.Admin()

	failure := errors.New("inner failure")
	err := service.Transaction(ctx, func(outer *Service) error {
		if err := outer.SetAdminGrant(ctx, superAdmin, admin.ID, FeatureViewReports, false); err != nil {
			return err
		}

		inner := outer.Transaction(ctx, func(inner *Service) error {
			if err := inner.SetAdminGrant(ctx, superAdmin, admin.ID, FeatureExportData, false); err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, inner, failure)

		return nil
	})
	require.NoError(t, err)

	helper.AssertCannotAccess(admin, FeatureViewReports)
	helper.AssertCanAccess(admin, FeatureExportData)
}

// TestIntegrationCascadeInsideTransaction tests running a cascade within a
// caller-owned transaction
func TestIntegrationCascadeInsideTransaction(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	employerID := helper.UniqueID("emp")
	helper.InsertEntity("employer", employerID, nil)

	failure := errors.New("abort after delete")
	err := service.Transaction(ctx, func(tx *Service) error {
		result, err := tx.SoftDelete(ctx, "employer", employerID)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(1), result.Total)
		return failure
	})
	assert.ErrorIs(t, err, failure)

	// The outer rollback swallowed the cascade.
	assert.Equal(t, 0, helper.DeletedFlag("employer", employerID))
}

// TestIntegrationReadOnlyTransaction tests a consistent multi-query read
func TestIntegrationReadOnlyTransaction(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()
	admin := helper.Admin()

	err := service.ReadOnlyTransaction(ctx, func(tx *Service) error {
		flags, err := tx.EffectiveAdminFlags(ctx, admin.ID)
		if err != nil {
			return err
		}
		assert.NotEmpty(t, flags)

		_, err = tx.ListDeletedIDs(ctx, "candidate")
		return err
	})
	require.NoError(t, err)
}

// TestIntegrationTransactionMetrics tests that transactions feed the monitor
func TestIntegrationTransactionMetrics(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	service.ResetTransactionMetrics()

	require.NoError(t, service.Transaction(ctx, func(tx *Service) error { return nil }))
	_ = service.Transaction(ctx, func(tx *Service) error { return errors.New("fail") })

	metrics := service.GetTransactionMetrics()
	assert.Equal(t, int64(2), metrics.TotalTransactions)
	assert.Equal(t, int64(1), metrics.SuccessfulTransactions)
	assert.Equal(t, int64(1), metrics.FailedTransactions)
	assert.GreaterOrEqual(t, metrics.MaxDuration, metrics.MinDuration)
}

// TestIntegrationHealthService tests the health extension over a live
// connection
func TestIntegrationHealthService(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	hs := NewHealthService(helper.GetService())
	ctx := helper.GetContext()

	assert.True(t, hs.IsHealthy(ctx))
	assert.NoError(t, hs.Ping(ctx))

	status := hs.Health(ctx)
	assert.True(t, status.Healthy)

	stats := hs.GetPoolStats()
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
}

// TestIntegrationPoolService tests pool configuration round-trips
func TestIntegrationPoolService(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	ps := NewPoolService(helper.GetService())

	config := DefaultPoolConfig()
	config.MaxOpenConnections = 10
	config.MaxIdleConnections = 3
	require.NoError(t, ps.ConfigureConnectionPool(config))

	got, err := ps.GetConnectionPoolConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, got.MaxOpenConnections)
	assert.Equal(t, 3, got.MaxIdleConnections)
	assert.Equal(t, config.ConnectionMaxLifetime, got.ConnectionMaxLifetime)

	require.NoError(t, ps.ResetConnectionPool())

	got, err = ps.GetConnectionPoolConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultPoolConfig(), *got)
}

// TestIntegrationMigrationsIdempotent tests that running migrations twice is
// safe
func TestIntegrationMigrationsIdempotent(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	// SetupTestDatabase already ran them once.
	_, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	policy, err := service.GetGlobalPolicy(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, policy)
}
