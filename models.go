package featurekit

import (
	"time"

	"github.com/uptrace/bun"
)

// Role is the account tier of a user. The three tiers are strictly ordered:
// super_admin supersedes admin, admin supersedes staff.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleStaff      Role = "staff"
)

// Valid reports whether the role is one of the three known tiers.
func (r Role) Valid() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleStaff
}

// User identifies the subject of a permission check. AdminID is the id of
// the supervising admin and is only meaningful for staff users.
type User struct {
	ID      string
	Role    Role
	AdminID string
}

// FeaturePolicy is one row of the global policy: the super_admin-owned
// ceiling for a single feature key.
type FeaturePolicy struct {
	bun.BaseModel `bun:"table:feature_policies,alias:fp"`

	FeatureKey string    `bun:"feature_key,pk"`
	Enabled    bool      `bun:"enabled,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AdminGrant records a feature explicitly delegated to (or withheld from)
// a specific admin account. The absence of a row means granted; the global
// policy still applies on top.
type AdminGrant struct {
	bun.BaseModel `bun:"table:admin_grants,alias:ag"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	AdminID    string    `bun:"admin_id,notnull"`
	FeatureKey string    `bun:"feature_key,notnull"`
	Enabled    bool      `bun:"enabled,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// StaffGrant records a feature delegated by an admin to a staff member under
// their authority. Scoped to the (staff, admin) pair: a grant from one admin
// is invisible under another. The absence of a row means denied.
type StaffGrant struct {
	bun.BaseModel `bun:"table:staff_grants,alias:sg"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	StaffID    string    `bun:"staff_id,notnull"`
	AdminID    string    `bun:"admin_id,notnull"`
	FeatureKey string    `bun:"feature_key,notnull"`
	Enabled    bool      `bun:"enabled,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// AuditLog records every successful mutation (policy change, grant change,
// delete, restore, purge) for compliance and debugging.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Timestamp time.Time `bun:"timestamp,notnull,default:current_timestamp"`

	// Who performed the action
	ActorID   string `bun:"actor_id,notnull"`
	ActorName string `bun:"actor_name"`

	// What action was performed
	Action string `bun:"action,notnull"` // e.g. "soft_deleted", "restored", "grant_updated"

	// Target of the action
	TargetType string `bun:"target_type,notnull"` // entity type or grant table
	TargetID   string `bun:"target_id,notnull"`
	FeatureKey string `bun:"feature_key"` // set for policy/grant changes

	// Request metadata for forensics
	IPAddress string `bun:"ip_address"`
	UserAgent string `bun:"user_agent"`
	RequestID string `bun:"request_id"`

	// Additional context (JSON)
	Details map[string]any `bun:"details,type:jsonb"`
}

// AuditAction represents the type of action in the audit log.
type AuditAction string

const (
	AuditActionPolicySeeded  AuditAction = "policy_seeded"
	AuditActionPolicyUpdated AuditAction = "policy_updated"
	AuditActionGrantUpdated  AuditAction = "grant_updated"
	AuditActionGrantRevoked  AuditAction = "grant_revoked"
	AuditActionSoftDeleted   AuditAction = "soft_deleted"
	AuditActionRestored      AuditAction = "restored"
	AuditActionPurged        AuditAction = "purged"
)

// AuditEntry is used to create new audit log entries.
type AuditEntry struct {
	ActorID    string
	ActorName  string
	Action     AuditAction
	TargetType string
	TargetID   string
	FeatureKey string
	IPAddress  string
	UserAgent  string
	RequestID  string
	Details    map[string]any
}

// ToModel converts an AuditEntry to an AuditLog model.
func (e *AuditEntry) ToModel() *AuditLog {
	return &AuditLog{
		ActorID:    e.ActorID,
		ActorName:  e.ActorName,
		Action:     string(e.Action),
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		FeatureKey: e.FeatureKey,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
		RequestID:  e.RequestID,
		Details:    e.Details,
		Timestamp:  time.Now(),
	}
}

// FlagSet holds the three grant layers for one user, loaded in a single pass
// so a permission decision can be made without further queries.
type FlagSet struct {
	// Global policy: feature key -> ceiling. A key absent here is disabled
	// for everyone below super_admin.
	Policy map[string]bool

	// Explicit admin grants for the relevant admin (the user itself for
	// admins, the supervising admin for staff). Absent key = granted.
	AdminGrants map[string]bool

	// Explicit staff grants for the user under their admin.
	// Absent key = denied. Nil for non-staff users.
	StaffGrants map[string]bool
}

// PolicyEnabled reports whether the global policy enables the key.
// Unknown keys are disabled.
func (fs *FlagSet) PolicyEnabled(key string) bool {
	return fs.Policy[key]
}

// AdminEnabled reports the effective admin-level flag for the key:
// global policy AND the explicit admin grant, defaulting to granted when no
// grant row exists.
func (fs *FlagSet) AdminEnabled(key string) bool {
	if !fs.Policy[key] {
		return false
	}
	if enabled, ok := fs.AdminGrants[key]; ok {
		return enabled
	}
	return true
}

// StaffEnabled reports the effective staff-level flag for the key:
// the admin's effective flag AND the explicit staff grant, defaulting to
// denied when no grant row exists.
func (fs *FlagSet) StaffEnabled(key string) bool {
	if !fs.AdminEnabled(key) {
		return false
	}
	enabled, ok := fs.StaffGrants[key]
	return ok && enabled
}
