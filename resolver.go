package featurekit

// Resolver answers feature checks for a specific user from a loaded FlagSet.
// It is typically created by the Service and stored in context for use in
// handlers; all methods are pure reads of the loaded state.
type Resolver struct {
	user     User
	flags    *FlagSet
	features *FeatureRegistry
}

// NewResolver creates a Resolver for a user over a loaded flag set.
func NewResolver(user User, flags *FlagSet, features *FeatureRegistry) *Resolver {
	return &Resolver{
		user:     user,
		flags:    flags,
		features: features,
	}
}

// User returns the user this resolver is for.
func (r *Resolver) User() User {
	return r.user
}

// CanAccess reports whether the user may use the feature.
//
//   - super_admin: always true, id not required.
//   - admin: global policy AND explicit grant (absent grant = granted).
//   - staff: global policy AND supervising admin's effective flag AND
//     explicit grant (absent grant = denied).
//   - unknown role, missing id, or a key absent from the global policy:
//     false.
func (r *Resolver) CanAccess(key string) bool {
	allowed, _ := r.Explain(key)
	return allowed
}

// Explain is CanAccess with the denial sub-reason: ReasonPolicyDisabled when
// the global policy blocks the key, ReasonNotDelegated when the policy
// allows it but the user's grant layer does not.
func (r *Resolver) Explain(key string) (bool, DenyReason) {
	switch r.user.Role {
	case RoleSuperAdmin:
		// The super admin owns the policy; nothing is gated for it.
		return true, ""

	case RoleAdmin:
		if r.user.ID == "" {
			return false, ReasonNotDelegated
		}
		if !r.flags.PolicyEnabled(key) {
			return false, ReasonPolicyDisabled
		}
		if !r.flags.AdminEnabled(key) {
			return false, ReasonNotDelegated
		}
		return true, ""

	case RoleStaff:
		if r.user.ID == "" || r.user.AdminID == "" {
			return false, ReasonNotDelegated
		}
		if !r.flags.PolicyEnabled(key) {
			return false, ReasonPolicyDisabled
		}
		if !r.flags.StaffEnabled(key) {
			return false, ReasonNotDelegated
		}
		return true, ""

	default:
		return false, ReasonNotDelegated
	}
}

// CanAccessAny reports whether the user may use any of the features.
func (r *Resolver) CanAccessAny(keys ...string) bool {
	for _, key := range keys {
		if r.CanAccess(key) {
			return true
		}
	}
	return false
}

// CanAccessAll reports whether the user may use all of the features.
func (r *Resolver) CanAccessAll(keys ...string) bool {
	for _, key := range keys {
		if !r.CanAccess(key) {
			return false
		}
	}
	return true
}

// EffectiveFlags returns the user's effective flag for every key in the
// global policy. Used to render menus; the feature set is small enough that
// no caching is needed.
func (r *Resolver) EffectiveFlags() map[string]bool {
	out := make(map[string]bool, len(r.flags.Policy))
	for key := range r.flags.Policy {
		out[key] = r.CanAccess(key)
	}
	return out
}

// EnabledFeatures returns the keys the user may use, in no particular order.
func (r *Resolver) EnabledFeatures() []string {
	var keys []string
	for key := range r.flags.Policy {
		if r.CanAccess(key) {
			keys = append(keys, key)
		}
	}
	return keys
}
