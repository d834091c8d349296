package featurekit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

// skipBenchmarkIfNoDatabase skips the benchmark if database is not available
func skipBenchmarkIfNoDatabase(b *testing.B) (*Service, context.Context) {
	if !isDatabaseAvailable() {
		b.Skip("Database not available, skipping benchmark")
		return nil, nil
	}

	ctx := context.Background()
	service, err := SetupTestDatabase(ctx)
	if err != nil {
		b.Fatalf("Failed to setup test database: %v", err)
	}

	return service, ctx
}

// ============================================================================
// Resolution Benchmarks
// ============================================================================

// BenchmarkResolverCanAccess benchmarks a pure in-memory feature check
func BenchmarkResolverCanAccess(b *testing.B) {
	registry := DefaultFeatures()
	policy := make(map[string]bool, registry.Len())
	for _, key := range registry.Keys() {
		policy[key] = true
	}
	resolver := NewResolver(
		User{ID: "staff-1", Role: RoleStaff, AdminID: "admin-1"},
		&FlagSet{
			Policy:      policy,
			AdminGrants: map[string]bool{},
			StaffGrants: map[string]bool{FeatureManageCandidates: true},
		},
		registry,
	)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		resolver.CanAccess(FeatureManageCandidates)
	}
}

// BenchmarkServiceCanAccess benchmarks a feature check including the flag
// set load
func BenchmarkServiceCanAccess(b *testing.B) {
	service, ctx := skipBenchmarkIfNoDatabase(b)
	if service == nil {
		return
	}

	admin := User{ID: fmt.Sprintf("bench-admin-%d", time.Now().UnixNano()), Role: RoleAdmin}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		service.CanAccess(ctx, admin, FeatureManageCandidates)
	}
}

// ============================================================================
// Cascade Benchmarks
// ============================================================================

// BenchmarkBuildCascade benchmarks statement generation for the widest
// entity
func BenchmarkBuildCascade(b *testing.B) {
	registry := DefaultEntities()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := buildCascade(registry, "candidate", opSoftDelete); err != nil {
			b.Fatalf("buildCascade failed: %v", err)
		}
	}
}

// BenchmarkSoftDeleteRestore benchmarks a full delete and restore round trip
func BenchmarkSoftDeleteRestore(b *testing.B) {
	service, ctx := skipBenchmarkIfNoDatabase(b)
	if service == nil {
		return
	}

	employerID := fmt.Sprintf("bench-emp-%d", time.Now().UnixNano())
	_, err := service.db.NewRaw(
		"INSERT INTO employers (id, is_deleted) VALUES (?, 0)", employerID).Exec(ctx)
	if err != nil {
		b.Fatalf("Failed to insert employer: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.SoftDelete(ctx, "employer", employerID); err != nil {
			b.Errorf("SoftDelete failed: %v", err)
		}
		if _, err := service.Restore(ctx, "employer", employerID); err != nil {
			b.Errorf("Restore failed: %v", err)
		}
	}
}
