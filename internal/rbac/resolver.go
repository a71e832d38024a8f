package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Principal is the flattened view of an authenticated user carried through a
// request: identity plus the roles loaded with their permission keys. It is
// built once by the auth middleware and never re-walked mid-check.
type Principal struct {
	UserID       string    `json:"user_id"`
	CompanyID    string    `json:"company_id"`
	TokenVersion int       `json:"token_version"`
	Roles        []RoleRef `json:"roles"`
}

// RoleRef is the resolver's input shape for one role. Permissions may be nil
// when the role was loaded without its keys; that is treated as an empty set.
type RoleRef struct {
	Name        string   `json:"name"`
	IsSystem    bool     `json:"is_system"`
	Permissions []string `json:"permissions"`
}

// Capability is the effective permission set of a principal.
type Capability struct {
	IsSystemAdmin bool                `json:"is_system_admin"`
	Keys          map[string]struct{} `json:"keys"`
}

func (c Capability) Has(key string) bool {
	_, ok := c.Keys[key]
	return ok
}

//go:generate mockgen -source=resolver.go -destination=mock/resolver_mock.go -package=mock
type Resolver interface {
	Resolve(ctx context.Context, p Principal) (Capability, error)
}

type resolver struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

const capabilityCacheTTL = 10 * time.Minute

// NewResolver builds the capability resolver. rdb may be nil; caching is
// then skipped entirely.
func NewResolver(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Resolver {
	l := zap.L().Named("rbac.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.resolver")
	}
	return &resolver{repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

func capabilityCacheKey(p Principal) string {
	// token_version in the key rotates the cache whenever roles change
	return fmt.Sprintf("rbac:caps:%s:%d", p.UserID, p.TokenVersion)
}

func (r *resolver) Resolve(ctx context.Context, p Principal) (Capability, error) {
	for _, role := range p.Roles {
		if role.IsSystem {
			return Capability{IsSystemAdmin: true, Keys: map[string]struct{}{}}, nil
		}
	}

	keys := make(map[string]struct{})
	hasWildcard := false
	for _, role := range p.Roles {
		for _, key := range role.Permissions {
			if key == WildcardKey {
				hasWildcard = true
				continue
			}
			keys[key] = struct{}{}
		}
	}

	if !hasWildcard {
		return Capability{Keys: keys}, nil
	}

	// Wildcard expansion needs the catalog, so this path is cached.
	cacheKey := capabilityCacheKey(p)
	if r.rdb != nil {
		if raw, err := r.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached Capability
			if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
				return cached, nil
			}
		}
	}

	v, err, _ := r.sf.Do(cacheKey, func() (any, error) {
		catalogKeys, err := r.repo.ListActiveKeys(ctx)
		if err != nil {
			return Capability{}, err
		}
		for _, key := range catalogKeys {
			keys[key] = struct{}{}
		}
		result := Capability{Keys: keys}

		if r.rdb != nil {
			if raw, err := json.Marshal(result); err == nil {
				if err := r.rdb.Set(ctx, cacheKey, raw, capabilityCacheTTL).Err(); err != nil {
					r.logger.Warn("capability cache write failed",
						zap.String("user_id", p.UserID),
						zap.Error(err),
					)
				}
			}
		}
		return result, nil
	})
	if err != nil {
		return Capability{}, err
	}
	return v.(Capability), nil
}
