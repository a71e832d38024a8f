package rbac

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeCatalogRepo serves ListActiveKeys from a fixed slice; the resolver
// touches nothing else on the repository.
type fakeCatalogRepo struct {
	keys  []string
	calls int
}

func (f *fakeCatalogRepo) WithTx(tx *sql.Tx) Repository { return f }
func (f *fakeCatalogRepo) ListActiveKeys(ctx context.Context) ([]string, error) {
	f.calls++
	return f.keys, nil
}
func (f *fakeCatalogRepo) UpsertPermission(ctx context.Context, entry CatalogEntry) (*Permission, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) DeprecateMissing(ctx context.Context, activeKeys []string) error {
	return nil
}
func (f *fakeCatalogRepo) FindPermissionsByKeys(ctx context.Context, keys []string) ([]Permission, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) ListSystemRoles(ctx context.Context) ([]Role, error) { return nil, nil }
func (f *fakeCatalogRepo) ReplaceRolePermissions(ctx context.Context, role *Role, perms []Permission) error {
	return nil
}
func (f *fakeCatalogRepo) CreateRole(ctx context.Context, role *Role) error { return nil }
func (f *fakeCatalogRepo) FindRoleByID(ctx context.Context, companyID, id string) (*Role, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) FindAllRolesByCompany(ctx context.Context, companyID string) ([]Role, error) {
	return nil, nil
}
func (f *fakeCatalogRepo) UpdateRole(ctx context.Context, role *Role) error           { return nil }
func (f *fakeCatalogRepo) BumpMemberTokenVersions(ctx context.Context, roleID string) error {
	return nil
}

func catalogKeys() []string {
	entries := Catalog()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestResolve_SystemRoleShortCircuits(t *testing.T) {
	repo := &fakeCatalogRepo{keys: catalogKeys()}
	r := NewResolver(repo, nil)

	capability, err := r.Resolve(context.Background(), Principal{
		UserID: "u1",
		Roles: []RoleRef{
			{Name: "Employee", Permissions: []string{"leave.apply"}},
			{Name: "Super Admin", IsSystem: true},
		},
	})
	assert.NoError(t, err)
	assert.True(t, capability.IsSystemAdmin)
	assert.Empty(t, capability.Keys)
	assert.Equal(t, 0, repo.calls)
}

func TestResolve_UnionAcrossRoles(t *testing.T) {
	repo := &fakeCatalogRepo{keys: catalogKeys()}
	r := NewResolver(repo, nil)

	capability, err := r.Resolve(context.Background(), Principal{
		UserID: "u1",
		Roles: []RoleRef{
			{Name: "Employee", Permissions: []string{"leave.apply", "attendance.clock_in"}},
			{Name: "Reviewer", Permissions: []string{"timesheet.approve", "leave.apply"}},
		},
	})
	assert.NoError(t, err)
	assert.False(t, capability.IsSystemAdmin)
	assert.Len(t, capability.Keys, 3)
	assert.True(t, capability.Has("timesheet.approve"))
	// No wildcard means the catalog is never consulted.
	assert.Equal(t, 0, repo.calls)
}

func TestResolve_WildcardExpandsToFullCatalog(t *testing.T) {
	repo := &fakeCatalogRepo{keys: catalogKeys()}
	r := NewResolver(repo, nil)

	capability, err := r.Resolve(context.Background(), Principal{
		UserID: "u1",
		Roles:  []RoleRef{{Name: "Org Admin", Permissions: []string{WildcardKey}}},
	})
	assert.NoError(t, err)
	assert.False(t, capability.IsSystemAdmin)
	assert.Len(t, capability.Keys, len(Catalog()))
	for _, entry := range Catalog() {
		assert.True(t, capability.Has(entry.Key), "missing %s", entry.Key)
	}
	assert.False(t, capability.Has(WildcardKey))
}

func TestResolve_WildcardUnionsWithExplicitKeys(t *testing.T) {
	// A key deprecated out of the catalog but still attached to a role
	// survives resolution; deprecation trims the wildcard set only.
	repo := &fakeCatalogRepo{keys: []string{"leave.apply", "leave.approve"}}
	r := NewResolver(repo, nil)

	capability, err := r.Resolve(context.Background(), Principal{
		UserID: "u1",
		Roles: []RoleRef{
			{Name: "Legacy", Permissions: []string{"report.generate"}},
			{Name: "Org Admin", Permissions: []string{WildcardKey}},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, capability.Keys, 3)
	assert.True(t, capability.Has("report.generate"))
	assert.True(t, capability.Has("leave.approve"))
}

func TestResolve_NilPermissionsTreatedAsEmpty(t *testing.T) {
	repo := &fakeCatalogRepo{keys: catalogKeys()}
	r := NewResolver(repo, nil)

	capability, err := r.Resolve(context.Background(), Principal{
		UserID: "u1",
		Roles:  []RoleRef{{Name: "Bare"}},
	})
	assert.NoError(t, err)
	assert.False(t, capability.IsSystemAdmin)
	assert.Empty(t, capability.Keys)
}
