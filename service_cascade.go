package featurekit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// SOFT DELETE / RESTORE / PURGE
// ============================================================================

// CascadeResult reports what a delete, restore or purge touched.
// Rows maps table name to the number of rows updated there.
type CascadeResult struct {
	EntityType string
	EntityID   string
	Action     AuditAction
	Rows       map[string]int64
	Total      int64
}

// SoftDelete marks an entity and every transitive dependent as deleted, in
// one transaction. The flag is overwritten blindly on dependents regardless
// of their current value. On any failure the whole cascade rolls back and
// nothing persists.
//
// Deleting a nonexistent id is not an error; the result simply reports zero
// rows, matching the behavior of the system this was extracted from.
//
// Example:
//
//	result, err := service.SoftDelete(ctx, "candidate", candidateID)
func (s *Service) SoftDelete(ctx context.Context, entityType, id string) (*CascadeResult, error) {
	return s.runCascade(ctx, entityType, id, opSoftDelete, AuditActionSoftDeleted)
}

// Restore marks an entity as active again and cascades to its dependents,
// but only to rows currently flagged deleted. Restoring a child never
// restores its parent.
//
// Note the asymmetry with SoftDelete: because the delete side overwrites
// blindly, a restore also resurrects dependents that had been deleted
// independently before the parent was. This faithfully preserves the
// behavior of the original system; whether it is intended "restore
// everything together" semantics is a product question, not one this
// package decides.
func (s *Service) Restore(ctx context.Context, entityType, id string) (*CascadeResult, error) {
	return s.runCascade(ctx, entityType, id, opRestore, AuditActionRestored)
}

func (s *Service) runCascade(ctx context.Context, entityType, id string, op cascadeOp, action AuditAction) (*CascadeResult, error) {
	stmts, err := buildCascade(s.entities, entityType, op)
	if err != nil {
		return nil, err
	}

	result := &CascadeResult{
		EntityType: entityType,
		EntityID:   id,
		Action:     action,
		Rows:       make(map[string]int64, len(stmts)),
	}

	err = s.runInTransaction(ctx, func(idb dbkit.IDB) error {
		for _, stmt := range stmts {
			res, err := idb.NewUpdate().
				Table(stmt.Table).
				Set("is_deleted = ?", stmt.Flag).
				Where(stmt.Where, id).
				Exec(ctx)
			err = dbkit.WithErr(res, err, "Cascade:"+stmt.Table).Err()
			if err != nil {
				return NewStorageError(err, "cascade failed on "+stmt.Table).
					WithEntity(entityType, id)
			}
			rows, _ := res.RowsAffected()
			result.Rows[stmt.Table] += rows
			result.Total += rows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditCascade(ctx, result)
	return result, nil
}

// PermanentlyDelete physically removes a single row. Restricted to the super
// admin; any other requester gets ErrForbidden and the row is untouched.
// There is no cascade and no way back.
//
// Example:
//
//	result, err := service.PermanentlyDelete(ctx, superAdmin, "candidate", candidateID)
func (s *Service) PermanentlyDelete(ctx context.Context, requester User, entityType, id string) (*CascadeResult, error) {
	if requester.Role != RoleSuperAdmin {
		return nil, NewError(ErrForbidden, "permanent deletion is restricted to the super admin").
			WithFeature(FeaturePermanentlyDelete).
			WithRole(requester.Role).
			WithUser(requester.ID).
			WithEntity(entityType, id)
	}
	if err := s.Enforce(ctx, requester, FeaturePermanentlyDelete); err != nil {
		return nil, err
	}

	def := s.entities.Get(entityType)
	if def == nil {
		return nil, NewError(ErrUnknownEntity, "entity type not registered").WithEntity(entityType, id)
	}

	res, err := s.db.NewDelete().Table(def.table).
		Where(def.idColumn+" = ?", id).
		Exec(ctx)
	err = dbkit.WithErr(res, err, "PermanentlyDelete").Err()
	if err != nil {
		return nil, NewStorageError(err, "failed to delete row").WithEntity(entityType, id)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, NewError(ErrNotFound, "no such row").WithEntity(entityType, id)
	}

	result := &CascadeResult{
		EntityType: entityType,
		EntityID:   id,
		Action:     AuditActionPurged,
		Rows:       map[string]int64{def.table: rows},
		Total:      rows,
	}
	s.auditCascade(ctx, result)
	return result, nil
}

// ListDeletedIDs returns the ids of soft-deleted rows of an entity type, for
// recycle-bin screens. The caller loads full rows itself; this package does
// not know the shape of host tables.
func (s *Service) ListDeletedIDs(ctx context.Context, entityType string) ([]string, error) {
	def := s.entities.Get(entityType)
	if def == nil {
		return nil, NewError(ErrUnknownEntity, "entity type not registered").WithEntity(entityType, "")
	}

	var ids []string
	err := dbkit.WithErr1(
		s.db.NewRaw("SELECT "+def.idColumn+" FROM "+def.table+" WHERE is_deleted = 1").Scan(ctx, &ids),
		"ListDeletedIDs").Err()
	if err != nil {
		return nil, NewStorageError(err, "failed to list deleted rows").WithEntity(entityType, "")
	}
	return ids, nil
}

// CountDeleted returns the number of soft-deleted rows of an entity type.
func (s *Service) CountDeleted(ctx context.Context, entityType string) (int, error) {
	def := s.entities.Get(entityType)
	if def == nil {
		return 0, NewError(ErrUnknownEntity, "entity type not registered").WithEntity(entityType, "")
	}

	var count int
	err := dbkit.WithErr1(
		s.db.NewRaw("SELECT count(*) FROM "+def.table+" WHERE is_deleted = 1").Scan(ctx, &count),
		"CountDeleted").Err()
	if err != nil {
		return 0, NewStorageError(err, "failed to count deleted rows").WithEntity(entityType, "")
	}
	return count, nil
}

// IsDeleted reports whether the row is currently soft-deleted.
func (s *Service) IsDeleted(ctx context.Context, entityType, id string) (bool, error) {
	def := s.entities.Get(entityType)
	if def == nil {
		return false, NewError(ErrUnknownEntity, "entity type not registered").WithEntity(entityType, id)
	}

	var flag int
	err := dbkit.WithErr1(
		s.db.NewRaw("SELECT is_deleted FROM "+def.table+" WHERE "+def.idColumn+" = ?", id).Scan(ctx, &flag),
		"IsDeleted").Err()
	if err != nil {
		if dbkit.IsNotFound(err) {
			return false, NewError(ErrNotFound, "no such row").WithEntity(entityType, id)
		}
		return false, NewStorageError(err, "failed to read delete flag").WithEntity(entityType, id)
	}
	return flag == 1, nil
}

func (s *Service) auditCascade(ctx context.Context, result *CascadeResult) {
	audit := GetAuditContext(ctx)
	details := make(map[string]any, len(result.Rows)+1)
	details["total_rows"] = result.Total
	for table, rows := range result.Rows {
		details[table] = rows
	}
	// Log error but don't fail the mutation.
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:    audit.ActorID,
		ActorName:  audit.ActorName,
		Action:     result.Action,
		TargetType: result.EntityType,
		TargetID:   result.EntityID,
		IPAddress:  audit.IPAddress,
		UserAgent:  audit.UserAgent,
		RequestID:  audit.RequestID,
		Details:    details,
	})
}
