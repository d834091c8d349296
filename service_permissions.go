package featurekit

import "context"

// ============================================================================
// FEATURE CHECKING
// ============================================================================

// CanAccess checks whether a user may use a feature. Storage failures are
// reported as a denial; use Enforce when the caller needs to distinguish.
//
// Example:
//
//	if service.CanAccess(ctx, user, "canViewReports") {
//	    // show the reports menu
//	}
func (s *Service) CanAccess(ctx context.Context, user User, featureKey string) bool {
	if user.Role == RoleSuperAdmin {
		// No lookup needed; only the role is required.
		return true
	}
	flags, err := s.GetFlagSet(ctx, user)
	if err != nil {
		return false
	}
	return NewResolver(user, flags, s.features).CanAccess(featureKey)
}

// Enforce checks a feature and fails loudly on denial. The returned error
// carries the role, the feature key and the sub-reason (policy_disabled or
// not_delegated) so the caller can render the right message.
//
// Example:
//
//	if err := service.Enforce(ctx, user, "canManagePayments"); err != nil {
//	    return err
//	}
func (s *Service) Enforce(ctx context.Context, user User, featureKey string) error {
	if user.Role == RoleSuperAdmin {
		return nil
	}

	flags, err := s.GetFlagSet(ctx, user)
	if err != nil {
		return err
	}

	allowed, reason := NewResolver(user, flags, s.features).Explain(featureKey)
	if allowed {
		return nil
	}

	return NewError(ErrAccessDenied, s.features.Description(featureKey)).
		WithFeature(featureKey).
		WithRole(user.Role).
		WithUser(user.ID).
		WithReason(reason)
}

// EffectiveAdminFlags computes, for every key in the global policy, whether
// the admin effectively has it: global policy AND explicit grant, with the
// grant defaulting to enabled when no row exists. Pure function of current
// state; used to render admin menus.
func (s *Service) EffectiveAdminFlags(ctx context.Context, adminID string) (map[string]bool, error) {
	flags, err := s.GetFlagSet(ctx, User{ID: adminID, Role: RoleAdmin})
	if err != nil {
		return nil, err
	}
	return NewResolver(User{ID: adminID, Role: RoleAdmin}, flags, s.features).EffectiveFlags(), nil
}

// EffectiveStaffFlags computes the effective flags of a staff member under
// their supervising admin.
func (s *Service) EffectiveStaffFlags(ctx context.Context, staffID, adminID string) (map[string]bool, error) {
	user := User{ID: staffID, Role: RoleStaff, AdminID: adminID}
	flags, err := s.GetFlagSet(ctx, user)
	if err != nil {
		return nil, err
	}
	return NewResolver(user, flags, s.features).EffectiveFlags(), nil
}
