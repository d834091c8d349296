// Package featurekit provides feature-gated access control and cascading
// soft deletion for back-office applications.
//
// FeatureKit grew out of a recruitment/consultancy management system with a
// three-tier account hierarchy (super_admin > admin > staff) where every
// capability of the product is a named, togglable feature. It answers two
// questions that every handler in such a system asks:
//
//  1. May this user perform this operation? (feature resolution)
//  2. When an entity is deleted or restored, which dependent rows follow it?
//     (cascading soft delete)
//
// # Core Concepts
//
// FeatureKey: An opaque string naming a togglable capability, e.g.
// "canViewReports", "isFinanceTrackingEnabled", "canAccessRecycleBin".
// Keys form a closed registry; a key not in the registry is disabled for
// everyone except the super admin.
//
// GlobalPolicy: The super_admin-owned ceiling mapping FeatureKey -> enabled.
// No lower role can exceed it.
//
// AdminGrant: The subset of globally enabled features delegated to a specific
// admin. An admin with no explicit grant row for a key is treated as granted
// (fail-open), as long as the global policy allows the key.
//
// StaffGrant: The subset of an admin's effective features delegated to a
// staff member. A staff member with no explicit grant row is treated as
// denied (fail-closed). This asymmetry with AdminGrant is deliberate and
// must not be "fixed".
//
// Entity / cascade: Soft-deletable entity types (candidate, employer,
// job_order, ...) are registered with their table, id column and dependency
// edges. Soft-deleting a parent marks every transitive dependent row deleted
// inside one transaction; restoring reverses it, but only for rows currently
// flagged deleted.
//
// # Basic Usage
//
//	// 1. Define features and entities (at application startup)
//	features := featurekit.DefaultFeatures()
//	entities := featurekit.DefaultEntities()
//
//	// 2. Create the service
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := featurekit.NewService(features, entities, db)
//
//	// 3. Run migrations
//	db.Migrate(ctx, featurekit.NewMigrationService(service).Migrations())
//
//	// 4. Seed the global policy when the super admin account is created
//	service.EnsureGlobalPolicy(ctx)
//
//	// 5. Check access before every operation
//	admin := featurekit.User{ID: adminID, Role: featurekit.RoleAdmin}
//	if err := service.Enforce(ctx, admin, "canViewReports"); err != nil {
//	    // render the denial; err says whether policy disabled it or it
//	    // was never delegated to this account
//	}
//
//	// 6. Delete and restore with cascade
//	service.SoftDelete(ctx, "candidate", candidateID)
//	service.Restore(ctx, "candidate", candidateID)
//
// # Resolution Rules
//
// For a user u and feature key k:
//
//   - super_admin: always allowed, even for unregistered keys.
//   - admin: GlobalPolicy[k] AND (AdminGrant[u,k] if present, else true).
//   - staff: GlobalPolicy[k] AND the supervising admin's effective flag
//     AND (StaffGrant[u,k] if present, else false).
//   - any other role, or a key absent from the global policy: denied.
//
// # Middleware Usage
//
//	mw := featurekit.NewMiddleware(service)
//
//	router.Handle("/reports",
//	    mw.RequireFeature("canViewReports")(reportsHandler))
//
//	router.Handle("/recycle-bin/purge",
//	    mw.RequireRole(featurekit.RoleSuperAdmin)(purgeHandler))
//
// # Cascade Semantics
//
// SoftDelete overwrites the deleted flag on every dependent row regardless
// of its current value. Restore only flips rows that are currently deleted.
// The consequence: restoring a parent also resurrects dependents that were
// deleted independently beforehand. This mirrors the behavior of the system
// FeatureKit was extracted from; see Service.Restore for details.
//
// All cascade work for one operation runs in a single database transaction.
// A failure on any table rolls back the whole operation; partial cascades
// never persist.
//
// # Audit Log
//
// Every successful policy change, grant change, delete, restore and purge is
// recorded with actor, action, target and request metadata. Audit writes are
// best-effort: a failed audit insert never rolls back the mutation itself.
package featurekit
