package rbac

import (
	"context"

	"go.uber.org/zap"
)

// Sync reconciles the static permission catalog into storage. Run once at
// process start, before requests are served. Idempotent: re-running with the
// same catalog is a no-op apart from timestamps.
//
// Steps: upsert every catalog entry (clearing the deprecated flag), mark
// keys absent from the catalog deprecated (they stay honored where already
// assigned, but are no longer grantable), then rewrite every system role's
// permission list to the full active set.
func Sync(ctx context.Context, repo Repository, logger *zap.Logger) error {
	log := logger.Named("rbac.sync")

	entries := Catalog()
	activeKeys := make([]string, 0, len(entries))
	allPerms := make([]Permission, 0, len(entries))

	for _, entry := range entries {
		perm, err := repo.UpsertPermission(ctx, entry)
		if err != nil {
			return err
		}
		activeKeys = append(activeKeys, entry.Key)
		allPerms = append(allPerms, *perm)
	}

	if err := repo.DeprecateMissing(ctx, activeKeys); err != nil {
		return err
	}

	systemRoles, err := repo.ListSystemRoles(ctx)
	if err != nil {
		return err
	}
	for i := range systemRoles {
		if err := repo.ReplaceRolePermissions(ctx, &systemRoles[i], allPerms); err != nil {
			return err
		}
	}

	log.Info("permission catalog synced",
		zap.Int("permissions", len(activeKeys)),
		zap.Int("system_roles", len(systemRoles)),
	)
	return nil
}
