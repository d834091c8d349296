package featurekit

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/fernandezvara/dbkit"
)

// ============================================================================
// FLAG RETRIEVAL
// ============================================================================

// GetFlagSet loads the grant layers relevant to a user in one pass: the
// global policy, the explicit grants of the relevant admin (the user itself
// for admins, the supervising admin for staff) and, for staff, the explicit
// staff grants scoped to that admin.
func (s *Service) GetFlagSet(ctx context.Context, user User) (*FlagSet, error) {
	policy, err := s.GetGlobalPolicy(ctx)
	if err != nil {
		return nil, err
	}

	flags := &FlagSet{Policy: policy}

	adminID := user.ID
	if user.Role == RoleStaff {
		adminID = user.AdminID
	}
	if user.Role == RoleSuperAdmin || adminID == "" {
		return flags, nil
	}

	flags.AdminGrants, err = s.GetAdminGrants(ctx, adminID)
	if err != nil {
		return nil, err
	}

	if user.Role == RoleStaff {
		flags.StaffGrants, err = s.GetStaffGrants(ctx, user.ID, user.AdminID)
		if err != nil {
			return nil, err
		}
	}

	return flags, nil
}

// GetGlobalPolicy retrieves the full global policy map.
func (s *Service) GetGlobalPolicy(ctx context.Context) (map[string]bool, error) {
	var rows []FeaturePolicy
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rows).Scan(ctx), "GetGlobalPolicy").Err()
	if err != nil {
		return nil, NewStorageError(err, "failed to load global policy")
	}

	policy := make(map[string]bool, len(rows))
	for _, row := range rows {
		policy[row.FeatureKey] = row.Enabled
	}
	return policy, nil
}

// GetAdminGrants retrieves the explicit grant rows of an admin as a map.
// Keys without a row are simply absent (and default to granted).
func (s *Service) GetAdminGrants(ctx context.Context, adminID string) (map[string]bool, error) {
	var rows []AdminGrant
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rows).Where("admin_id = ?", adminID).Scan(ctx), "GetAdminGrants").Err()
	if err != nil {
		return nil, NewStorageError(err, "failed to load admin grants")
	}

	grants := make(map[string]bool, len(rows))
	for _, row := range rows {
		grants[row.FeatureKey] = row.Enabled
	}
	return grants, nil
}

// GetStaffGrants retrieves the explicit grant rows of a staff member under a
// specific admin. Grants from other admins are not visible here.
func (s *Service) GetStaffGrants(ctx context.Context, staffID, adminID string) (map[string]bool, error) {
	var rows []StaffGrant
	err := dbkit.WithErr1(s.db.NewSelect().Model(&rows).Where("staff_id = ? AND admin_id = ?", staffID, adminID).Scan(ctx), "GetStaffGrants").Err()
	if err != nil {
		return nil, NewStorageError(err, "failed to load staff grants")
	}

	grants := make(map[string]bool, len(rows))
	for _, row := range rows {
		grants[row.FeatureKey] = row.Enabled
	}
	return grants, nil
}

// GetResolver creates a Resolver for a user. This can be stored in context
// for repeated checks in handlers without re-querying per check.
func (s *Service) GetResolver(ctx context.Context, user User) (*Resolver, error) {
	flags, err := s.GetFlagSet(ctx, user)
	if err != nil {
		return nil, err
	}
	return NewResolver(user, flags, s.features), nil
}

// GetResolverFromContext returns the Resolver stored in context (by the
// middleware or a previous GetResolver call), or builds one from the
// context user when none is stored.
func (s *Service) GetResolverFromContext(ctx context.Context) (*Resolver, error) {
	if resolver := GetResolver(ctx); resolver != nil {
		return resolver, nil
	}
	user, ok := GetUser(ctx)
	if !ok {
		return nil, ErrNoActorID
	}
	return s.GetResolver(ctx, user)
}

// HasExplicitAdminGrant reports whether an explicit grant row exists for the
// (admin, key) pair, regardless of its value.
func (s *Service) HasExplicitAdminGrant(ctx context.Context, adminID, featureKey string) bool {
	exists, err := dbkit.Exists[AdminGrant](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("admin_id = ? AND feature_key = ?", adminID, featureKey)
	})
	if err != nil {
		return false
	}
	return exists
}

// CountStaffGrants returns the number of explicit grants an admin has issued
// to a staff member.
func (s *Service) CountStaffGrants(ctx context.Context, staffID, adminID string) (int, error) {
	return dbkit.Count[StaffGrant](ctx, s.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("staff_id = ? AND admin_id = ?", staffID, adminID)
	})
}
