package featurekit

import (
	"fmt"
	"sync"
)

// Well-known feature keys of the recruitment product FeatureKit was
// extracted from. Applications with different features can build their own
// registry; these are the defaults.
const (
	FeatureManageCandidates  = "canManageCandidates"
	FeatureManageEmployers   = "canManageEmployers"
	FeatureManageJobOrders   = "canManageJobOrders"
	FeatureManagePlacements  = "canManagePlacements"
	FeatureManageDocuments   = "canManageDocuments"
	FeatureViewReports       = "canViewReports"
	FeatureFinanceTracking   = "isFinanceTrackingEnabled"
	FeatureVisaTracking      = "isVisaTrackingEnabled"
	FeatureMedicalTracking   = "isMedicalTrackingEnabled"
	FeatureTravelTracking    = "isTravelTrackingEnabled"
	FeatureInterviewTracking = "isInterviewTrackingEnabled"
	FeaturePassportTracking  = "isPassportTrackingEnabled"
	FeatureManagePayments    = "canManagePayments"
	FeatureAccessRecycleBin  = "canAccessRecycleBin"
	FeaturePermanentlyDelete = "canPermanentlyDelete"
	FeatureManageStaff       = "canManageStaff"
	FeatureViewAuditLog      = "canViewAuditLog"
	FeatureExportData        = "canExportData"
)

// FeatureRegistry holds the closed set of feature keys known to the
// application. It is created at startup and should be treated as immutable
// after initialization. Keys outside the registry fail closed for every
// role except super_admin, so a typo in a handler cannot leak privileges.
type FeatureRegistry struct {
	mu   sync.RWMutex
	keys map[string]string // key -> description
}

// NewFeatureRegistry creates an empty feature registry.
func NewFeatureRegistry() *FeatureRegistry {
	return &FeatureRegistry{
		keys: make(map[string]string),
	}
}

// DefaultFeatures returns a registry with the feature set of the
// recruitment product.
func DefaultFeatures() *FeatureRegistry {
	r := NewFeatureRegistry()
	r.Define(FeatureManageCandidates, "create, edit and view candidate records").
		Define(FeatureManageEmployers, "create, edit and view employer records").
		Define(FeatureManageJobOrders, "create, edit and view job orders").
		Define(FeatureManagePlacements, "create, edit and view placements").
		Define(FeatureManageDocuments, "upload and manage candidate documents").
		Define(FeatureViewReports, "access the reporting screens").
		Define(FeatureFinanceTracking, "payment and finance tracking module").
		Define(FeatureVisaTracking, "visa tracking module").
		Define(FeatureMedicalTracking, "medical tracking module").
		Define(FeatureTravelTracking, "travel tracking module").
		Define(FeatureInterviewTracking, "interview tracking module").
		Define(FeaturePassportTracking, "passport tracking module").
		Define(FeatureManagePayments, "record and edit payments").
		Define(FeatureAccessRecycleBin, "view soft-deleted records").
		Define(FeaturePermanentlyDelete, "physically remove records").
		Define(FeatureManageStaff, "manage staff accounts and their grants").
		Define(FeatureViewAuditLog, "read the audit log").
		Define(FeatureExportData, "export records to external formats")
	return r
}

// Define registers a feature key. Returns the registry for chaining.
//
// Example:
//
//	registry.Define("canViewReports", "access the reporting screens").
//	    Define("canExportData", "export records")
func (r *FeatureRegistry) Define(key, description string) *FeatureRegistry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key] = description
	return r
}

// Known reports whether the key is registered.
func (r *FeatureRegistry) Known(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[key]
	return ok
}

// Validate checks that the key is registered.
func (r *FeatureRegistry) Validate(key string) error {
	if key == "" {
		return NewError(ErrUnknownFeature, "feature key cannot be empty")
	}
	if !r.Known(key) {
		return NewError(ErrUnknownFeature, fmt.Sprintf("feature key %q not registered", key)).WithFeature(key)
	}
	return nil
}

// Keys returns all registered feature keys.
func (r *FeatureRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.keys))
	for k := range r.keys {
		keys = append(keys, k)
	}
	return keys
}

// Description returns the description registered for a key, or "".
func (r *FeatureRegistry) Description(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keys[key]
}

// Len returns the number of registered keys.
func (r *FeatureRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}

// CascadeEdge is one dependency edge of the entity graph: when the parent is
// soft-deleted or restored, the same flag change is applied to all rows of
// the child entity whose foreign key references the parent.
type CascadeEdge struct {
	Child    string // child entity name
	FKColumn string // column on the child table referencing the parent id
}

// EntityDefinition describes one soft-deletable entity type: where its rows
// live and which entities depend on it.
type EntityDefinition struct {
	name     string
	table    string
	idColumn string
	edges    []CascadeEdge
	registry *EntityRegistry
}

// EntityRegistry holds all soft-deletable entity definitions and the
// dependency graph between them. Like the feature registry it is built at
// startup and treated as immutable afterwards.
type EntityRegistry struct {
	mu       sync.RWMutex
	entities map[string]*EntityDefinition
}

// NewEntityRegistry creates an empty entity registry.
func NewEntityRegistry() *EntityRegistry {
	return &EntityRegistry{
		entities: make(map[string]*EntityDefinition),
	}
}

// DefaultEntities returns the entity graph of the recruitment product:
// twelve soft-deletable entity types, with the candidate fanning out to
// seven dependent tables.
func DefaultEntities() *EntityRegistry {
	r := NewEntityRegistry()

	r.Define("candidate", "candidates").
		Cascade("document", "candidate_id").
		Cascade("placement", "candidate_id").
		Cascade("visa_tracking", "candidate_id").
		Cascade("payment", "candidate_id").
		Cascade("medical_tracking", "candidate_id").
		Cascade("interview_tracking", "candidate_id").
		Cascade("travel_tracking", "candidate_id").
		Cascade("passport_tracking", "candidate_id")

	r.Define("employer", "employers").
		Cascade("job_order", "employer_id")

	r.Define("job_order", "job_orders").
		Cascade("placement", "job_order_id")

	r.Define("placement", "placements")
	r.Define("passport_tracking", "passport_tracking")
	r.Define("visa_tracking", "visa_tracking")
	r.Define("medical_tracking", "medical_tracking")
	r.Define("interview_tracking", "interview_tracking")
	r.Define("travel_tracking", "travel_tracking")
	r.Define("payment", "payments")
	r.Define("document", "documents")
	r.Define("required_document", "required_documents")

	return r
}

// Define registers an entity with its backing table. The id column defaults
// to "id". Returns an EntityDefinition builder for cascade configuration.
//
// Example:
//
//	registry.Define("employer", "employers").
//	    Cascade("job_order", "employer_id")
func (r *EntityRegistry) Define(name, table string) *EntityDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	def := &EntityDefinition{
		name:     name,
		table:    table,
		idColumn: "id",
		registry: r,
	}
	r.entities[name] = def
	return def
}

// Get returns the entity definition, or nil if not registered.
func (r *EntityRegistry) Get(name string) *EntityDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// Validate checks that the entity type is registered.
func (r *EntityRegistry) Validate(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.entities[name]; !ok {
		return NewError(ErrUnknownEntity, fmt.Sprintf("entity type %q not registered", name)).WithEntity(name, "")
	}
	return nil
}

// Names returns all registered entity names.
func (r *EntityRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	return names
}

// IDColumn overrides the id column of the entity (default "id").
func (d *EntityDefinition) IDColumn(column string) *EntityDefinition {
	d.idColumn = column
	return d
}

// Cascade adds a dependency edge: rows of the child entity whose fkColumn
// references this entity follow it through soft delete and restore.
func (d *EntityDefinition) Cascade(child, fkColumn string) *EntityDefinition {
	d.edges = append(d.edges, CascadeEdge{Child: child, FKColumn: fkColumn})
	return d
}

// Define continues defining entities on the registry (fluent API).
func (d *EntityDefinition) Define(name, table string) *EntityDefinition {
	return d.registry.Define(name, table)
}

// Name returns the entity name.
func (d *EntityDefinition) Name() string {
	return d.name
}

// Table returns the backing table name.
func (d *EntityDefinition) Table() string {
	return d.table
}

// Edges returns the dependency edges of the entity.
func (d *EntityDefinition) Edges() []CascadeEdge {
	return d.edges
}
