package featurekit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// POLICY AND GRANT MUTATIONS
// ============================================================================

// EnsureGlobalPolicy seeds the global policy with every registered feature
// key enabled. Call it when the super admin account is first created; keys
// that already have a policy row are left untouched, so it is safe to call
// on every startup.
func (s *Service) EnsureGlobalPolicy(ctx context.Context) error {
	for _, key := range s.features.Keys() {
		policy := &FeaturePolicy{FeatureKey: key, Enabled: true}
		result, err := s.db.NewInsert().
			Model(policy).
			On("CONFLICT (feature_key) DO NOTHING").
			Exec(ctx)
		err = dbkit.WithErr(result, err, "EnsureGlobalPolicy").Err()
		if err != nil {
			return NewStorageError(err, "failed to seed global policy").WithFeature(key)
		}
	}

	audit := GetAuditContext(ctx)
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:    audit.ActorID,
		ActorName:  audit.ActorName,
		Action:     AuditActionPolicySeeded,
		TargetType: "feature_policies",
		TargetID:   "*",
		IPAddress:  audit.IPAddress,
		UserAgent:  audit.UserAgent,
		RequestID:  audit.RequestID,
	})

	return nil
}

// SetGlobalFlag overwrites the global ceiling for a feature. Only the super
// admin may change the global policy.
//
// Example:
//
//	err := service.SetGlobalFlag(ctx, superAdmin, "isFinanceTrackingEnabled", false)
func (s *Service) SetGlobalFlag(ctx context.Context, actor User, featureKey string, enabled bool) error {
	if actor.Role != RoleSuperAdmin {
		return NewError(ErrForbidden, "only the super admin may change the global policy").
			WithFeature(featureKey).
			WithRole(actor.Role).
			WithUser(actor.ID)
	}
	if err := s.features.Validate(featureKey); err != nil {
		return err
	}

	policy := &FeaturePolicy{FeatureKey: featureKey, Enabled: enabled}
	result, err := s.db.NewInsert().
		Model(policy).
		On("CONFLICT (feature_key) DO UPDATE").
		Set("enabled = EXCLUDED.enabled").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	err = dbkit.WithErr(result, err, "SetGlobalFlag").Err()
	if err != nil {
		return NewStorageError(err, "failed to update global policy").WithFeature(featureKey)
	}

	s.auditGrantChange(ctx, actor, AuditActionPolicyUpdated, "feature_policies", featureKey, featureKey, enabled)
	return nil
}

// SetAdminGrant records an explicit delegation decision for an admin.
// Only the super admin may delegate to admins. Setting enabled=false is how
// a globally enabled feature is withheld from one admin; deleting the row
// (RevokeAdminGrant) returns the admin to the fail-open default.
func (s *Service) SetAdminGrant(ctx context.Context, actor User, adminID, featureKey string, enabled bool) error {
	if actor.Role != RoleSuperAdmin {
		return NewError(ErrForbidden, "only the super admin may change admin grants").
			WithFeature(featureKey).
			WithRole(actor.Role).
			WithUser(actor.ID)
	}
	if err := s.features.Validate(featureKey); err != nil {
		return err
	}

	grant := &AdminGrant{AdminID: adminID, FeatureKey: featureKey, Enabled: enabled}
	result, err := s.db.NewInsert().
		Model(grant).
		On("CONFLICT (admin_id, feature_key) DO UPDATE").
		Set("enabled = EXCLUDED.enabled").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	err = dbkit.WithErr(result, err, "SetAdminGrant").Err()
	if err != nil {
		return NewStorageError(err, "failed to update admin grant").
			WithFeature(featureKey).
			WithUser(adminID)
	}

	s.auditGrantChange(ctx, actor, AuditActionGrantUpdated, "admin_grants", adminID, featureKey, enabled)
	return nil
}

// RevokeAdminGrant removes the explicit grant row for an (admin, key) pair,
// returning the admin to the fail-open default.
func (s *Service) RevokeAdminGrant(ctx context.Context, actor User, adminID, featureKey string) error {
	if actor.Role != RoleSuperAdmin {
		return NewError(ErrForbidden, "only the super admin may change admin grants").
			WithFeature(featureKey).
			WithRole(actor.Role).
			WithUser(actor.ID)
	}

	result, err := s.db.NewDelete().Table("admin_grants").
		Where("admin_id = ? AND feature_key = ?", adminID, featureKey).
		Exec(ctx)
	err = dbkit.WithErr(result, err, "RevokeAdminGrant").Err()
	if err != nil {
		return NewStorageError(err, "failed to revoke admin grant").
			WithFeature(featureKey).
			WithUser(adminID)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "no explicit grant for this admin and feature").
			WithFeature(featureKey).
			WithUser(adminID)
	}

	s.auditGrantChange(ctx, actor, AuditActionGrantRevoked, "admin_grants", adminID, featureKey, false)
	return nil
}

// SetStaffGrant records a delegation from an admin to a staff member under
// their authority. The super admin may act on behalf of any admin; an admin
// may only delegate under their own id.
//
// Example:
//
//	err := service.SetStaffGrant(ctx, admin, staffID, admin.ID, "canViewReports", true)
func (s *Service) SetStaffGrant(ctx context.Context, actor User, staffID, adminID, featureKey string, enabled bool) error {
	if err := s.checkStaffGrantActor(actor, adminID, featureKey); err != nil {
		return err
	}
	if err := s.features.Validate(featureKey); err != nil {
		return err
	}

	grant := &StaffGrant{StaffID: staffID, AdminID: adminID, FeatureKey: featureKey, Enabled: enabled}
	result, err := s.db.NewInsert().
		Model(grant).
		On("CONFLICT (staff_id, admin_id, feature_key) DO UPDATE").
		Set("enabled = EXCLUDED.enabled").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	err = dbkit.WithErr(result, err, "SetStaffGrant").Err()
	if err != nil {
		return NewStorageError(err, "failed to update staff grant").
			WithFeature(featureKey).
			WithUser(staffID)
	}

	s.auditGrantChange(ctx, actor, AuditActionGrantUpdated, "staff_grants", staffID, featureKey, enabled)
	return nil
}

// RevokeStaffGrant removes the explicit grant row for a (staff, admin, key)
// triple. With no row the staff member falls back to the fail-closed
// default, i.e. denied.
func (s *Service) RevokeStaffGrant(ctx context.Context, actor User, staffID, adminID, featureKey string) error {
	if err := s.checkStaffGrantActor(actor, adminID, featureKey); err != nil {
		return err
	}

	result, err := s.db.NewDelete().Table("staff_grants").
		Where("staff_id = ? AND admin_id = ? AND feature_key = ?", staffID, adminID, featureKey).
		Exec(ctx)
	err = dbkit.WithErr(result, err, "RevokeStaffGrant").Err()
	if err != nil {
		return NewStorageError(err, "failed to revoke staff grant").
			WithFeature(featureKey).
			WithUser(staffID)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return NewError(ErrNotFound, "no explicit grant for this staff member and feature").
			WithFeature(featureKey).
			WithUser(staffID)
	}

	s.auditGrantChange(ctx, actor, AuditActionGrantRevoked, "staff_grants", staffID, featureKey, false)
	return nil
}

func (s *Service) checkStaffGrantActor(actor User, adminID, featureKey string) error {
	if actor.Role == RoleSuperAdmin {
		return nil
	}
	if actor.Role == RoleAdmin && actor.ID != "" && actor.ID == adminID {
		return nil
	}
	return NewError(ErrForbidden, "staff grants may only be changed by the supervising admin").
		WithFeature(featureKey).
		WithRole(actor.Role).
		WithUser(actor.ID)
}

func (s *Service) auditGrantChange(ctx context.Context, actor User, action AuditAction, targetType, targetID, featureKey string, enabled bool) {
	audit := GetAuditContext(ctx)
	actorID := actor.ID
	if actorID == "" {
		actorID = audit.ActorID
	}
	// Log error but don't fail the mutation.
	_ = s.logAudit(ctx, &AuditEntry{
		ActorID:    actorID,
		ActorName:  audit.ActorName,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		FeatureKey: featureKey,
		IPAddress:  audit.IPAddress,
		UserAgent:  audit.UserAgent,
		RequestID:  audit.RequestID,
		Details:    map[string]any{"enabled": enabled},
	})
}
