package featurekit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// insertCandidateTree inserts a candidate with one row in every dependent
// table and returns the candidate id plus the child ids keyed by entity.
func insertCandidateTree(helper *TestDataHelper) (string, map[string]string) {
	candidateID := helper.UniqueID("cand")
	helper.InsertEntity("candidate", candidateID, nil)

	children := map[string]string{}
	for _, entity := range []string{
		"document", "placement", "visa_tracking", "payment",
		"medical_tracking", "interview_tracking", "travel_tracking",
		"passport_tracking",
	} {
		childID := helper.UniqueID(entity)
		helper.InsertEntity(entity, childID, map[string]string{"candidate_id": candidateID})
		children[entity] = childID
	}
	return candidateID, children
}

// TestIntegrationSoftDeleteCandidateTree tests the full candidate fan-out
// against live rows
func TestIntegrationSoftDeleteCandidateTree(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	candidateID, children := insertCandidateTree(helper)

	result, err := service.SoftDelete(ctx, "candidate", candidateID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Total)
	assert.Equal(t, int64(1), result.Rows["candidates"])
	assert.Equal(t, int64(1), result.Rows["documents"])
	assert.Equal(t, int64(1), result.Rows["placements"])

	assert.Equal(t, 1, helper.DeletedFlag("candidate", candidateID))
	for entity, id := range children {
		assert.Equal(t, 1, helper.DeletedFlag(entity, id), "child %s not flagged", entity)
	}

	deleted, err := service.IsDeleted(ctx, "candidate", candidateID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// And back.
	result, err = service.Restore(ctx, "candidate", candidateID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Total)

	assert.Equal(t, 0, helper.DeletedFlag("candidate", candidateID))
	for entity, id := range children {
		assert.Equal(t, 0, helper.DeletedFlag(entity, id), "child %s not restored", entity)
	}
}

// TestIntegrationRestoreFilterAsymmetry tests that restore counts only rows
// that were flagged deleted while the root row flips unconditionally
func TestIntegrationRestoreFilterAsymmetry(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	candidateID, children := insertCandidateTree(helper)

	_, err := service.SoftDelete(ctx, "candidate", candidateID)
	require.NoError(t, err)
	_, err = service.Restore(ctx, "candidate", candidateID)
	require.NoError(t, err)

	// Second restore: every child is already active, so the filtered child
	// updates touch nothing; the unfiltered root update still reports its
	// row.
	result, err := service.Restore(ctx, "candidate", candidateID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, int64(1), result.Rows["candidates"])
	assert.Equal(t, int64(0), result.Rows["documents"])

	// A child deleted on its own before the parent delete comes back with
	// the parent restore: the delete overwrote blindly, so by restore time
	// the row is indistinguishable from the rest of the cascade.
	docID := children["document"]
	_, err = service.SoftDelete(ctx, "document", docID)
	require.NoError(t, err)
	_, err = service.SoftDelete(ctx, "candidate", candidateID)
	require.NoError(t, err)
	_, err = service.Restore(ctx, "candidate", candidateID)
	require.NoError(t, err)
	assert.Equal(t, 0, helper.DeletedFlag("document", docID))
}

// TestIntegrationEmployerTransitiveCascade tests the employer chain down to
// placements
func TestIntegrationEmployerTransitiveCascade(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	employerID := helper.UniqueID("emp")
	helper.InsertEntity("employer", employerID, nil)

	orderA := helper.UniqueID("order")
	orderB := helper.UniqueID("order")
	helper.InsertEntity("job_order", orderA, map[string]string{"employer_id": employerID})
	helper.InsertEntity("job_order", orderB, map[string]string{"employer_id": employerID})

	placementA := helper.UniqueID("plc")
	placementB := helper.UniqueID("plc")
	helper.InsertEntity("placement", placementA, map[string]string{"job_order_id": orderA})
	helper.InsertEntity("placement", placementB, map[string]string{"job_order_id": orderB})

	// A placement under an unrelated employer stays untouched.
	otherEmployer := helper.UniqueID("emp")
	otherOrder := helper.UniqueID("order")
	otherPlacement := helper.UniqueID("plc")
	helper.InsertEntity("employer", otherEmployer, nil)
	helper.InsertEntity("job_order", otherOrder, map[string]string{"employer_id": otherEmployer})
	helper.InsertEntity("placement", otherPlacement, map[string]string{"job_order_id": otherOrder})

	result, err := service.SoftDelete(ctx, "employer", employerID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, int64(2), result.Rows["job_orders"])
	assert.Equal(t, int64(2), result.Rows["placements"])

	assert.Equal(t, 1, helper.DeletedFlag("job_order", orderA))
	assert.Equal(t, 1, helper.DeletedFlag("placement", placementB))
	assert.Equal(t, 0, helper.DeletedFlag("placement", otherPlacement))

	// Restoring a leaf never restores its parent.
	_, err = service.Restore(ctx, "placement", placementA)
	require.NoError(t, err)
	assert.Equal(t, 0, helper.DeletedFlag("placement", placementA))
	assert.Equal(t, 1, helper.DeletedFlag("job_order", orderA))
	assert.Equal(t, 1, helper.DeletedFlag("employer", employerID))
}

// TestIntegrationSoftDeleteMissingRow tests that deleting an absent id is
// not an error
func TestIntegrationSoftDeleteMissingRow(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	result, err := service.SoftDelete(ctx, "candidate", helper.UniqueID("ghost"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Total)
}

// TestIntegrationCascadeRollback tests that a failure mid-cascade leaves
// every row untouched
func TestIntegrationCascadeRollback(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	ctx := helper.GetContext()

	// A registry wired to a table that does not exist: the root statement
	// succeeds, the child statement fails, the transaction must roll the
	// root back.
	entities := NewEntityRegistry()
	entities.Define("candidate", "candidates").
		Cascade("broken", "candidate_id")
	entities.Define("broken", "no_such_table")

	broken := NewService(DefaultFeatures(), entities, helper.GetService().db)

	candidateID := helper.UniqueID("cand")
	helper.InsertEntity("candidate", candidateID, nil)

	result, err := broken.SoftDelete(ctx, "candidate", candidateID)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, IsStorage(err))

	assert.Equal(t, 0, helper.DeletedFlag("candidate", candidateID))
}

// TestIntegrationPermanentDelete tests the purge path
func TestIntegrationPermanentDelete(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()
	superAdmin := helper.SuperAdmin()

	candidateID, children := insertCandidateTree(helper)
	_, err := service.SoftDelete(ctx, "candidate", candidateID)
	require.NoError(t, err)

	result, err := service.PermanentlyDelete(ctx, superAdmin, "candidate", candidateID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)

	// The row is gone, not flagged.
	_, err = service.IsDeleted(ctx, "candidate", candidateID)
	assert.True(t, IsNotFound(err))

	// The purge does not cascade: children keep their deleted flag.
	assert.Equal(t, 1, helper.DeletedFlag("document", children["document"]))

	// Purging again reports the missing row.
	_, err = service.PermanentlyDelete(ctx, superAdmin, "candidate", candidateID)
	assert.True(t, IsNotFound(err))
}

// TestIntegrationRecycleBin tests listing and counting soft-deleted rows
func TestIntegrationRecycleBin(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	employerID := helper.UniqueID("emp")
	helper.InsertEntity("employer", employerID, nil)
	_, err := service.SoftDelete(ctx, "employer", employerID)
	require.NoError(t, err)

	ids, err := service.ListDeletedIDs(ctx, "employer")
	require.NoError(t, err)
	assert.Contains(t, ids, employerID)

	count, err := service.CountDeleted(ctx, "employer")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 1)

	_, err = service.Restore(ctx, "employer", employerID)
	require.NoError(t, err)

	ids, err = service.ListDeletedIDs(ctx, "employer")
	require.NoError(t, err)
	assert.NotContains(t, ids, employerID)
}

// TestIntegrationCascadeAuditTrail tests that deletes and restores land in
// the audit log with their row counts
func TestIntegrationCascadeAuditTrail(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()
	admin := helper.Admin()

	ctx = WithUser(ctx, admin)
	ctx = WithIPAddress(ctx, "10.0.0.1")

	candidateID, _ := insertCandidateTree(helper)
	_, err := service.SoftDelete(ctx, "candidate", candidateID)
	require.NoError(t, err)
	_, err = service.Restore(ctx, "candidate", candidateID)
	require.NoError(t, err)

	entries, err := service.GetAuditLog(ctx, NewAuditLogFilter().
		WithTarget("candidate", candidateID))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, string(AuditActionRestored), entries[0].Action)
	assert.Equal(t, string(AuditActionSoftDeleted), entries[1].Action)
	assert.Equal(t, admin.ID, entries[1].ActorID)
	assert.Equal(t, "10.0.0.1", entries[1].IPAddress)
	assert.EqualValues(t, 9, entries[1].Details["total_rows"])
}

// TestIntegrationSoftDeleteWithRetry tests the retry wrapper over a healthy
// database
func TestIntegrationSoftDeleteWithRetry(t *testing.T) {
	helper := NewTestDataHelper(t)
	if helper == nil {
		return
	}
	service, ctx := helper.GetService(), helper.GetContext()

	employerID := helper.UniqueID("emp")
	helper.InsertEntity("employer", employerID, nil)

	result, err := service.SoftDeleteWithRetry(ctx, "employer", employerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)

	result, err = service.RestoreWithRetry(ctx, "employer", employerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
}
