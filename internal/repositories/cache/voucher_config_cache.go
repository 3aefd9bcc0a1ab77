package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "voucher_config"

// VoucherConfigCache stores voucher mode configurations in Redis under
// versioned keys. Invalidation bumps the version instead of deleting keys,
// so it never has to enumerate keys across a cluster; superseded entries
// simply age out through their TTL.
type VoucherConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVoucherConfigCache creates a VoucherConfigCache.
func NewVoucherConfigCache(client *redis.Client, ttl time.Duration) *VoucherConfigCache {
	return &VoucherConfigCache{client: client, ttl: ttl}
}

// Ensure VoucherConfigCache implements the VoucherConfigCache interface
var _ portsrepo.VoucherConfigCache = (*VoucherConfigCache)(nil)

func versionKey(organizationID, journalType string) string {
	return fmt.Sprintf("%s:version:%s:%s", keyPrefix, organizationID, journalType)
}

func entryKey(organizationID, journalType string, version int64) string {
	return fmt.Sprintf("%s:%s:%s:v%d", keyPrefix, organizationID, journalType, version)
}

func (c *VoucherConfigCache) version(ctx context.Context, organizationID, journalType string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(organizationID, journalType)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read config cache version: %w", err)
	}
	return v, nil
}

// Get returns the cached configuration for the current version, if any.
func (c *VoucherConfigCache) Get(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, bool, error) {
	v, err := c.version(ctx, organizationID, journalType)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, entryKey(organizationID, journalType, v)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read config cache entry: %w", err)
	}

	var cfg domain.VoucherModeConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false, fmt.Errorf("decode config cache entry: %w", err)
	}
	return &cfg, true, nil
}

// Set stores config under the current version.
func (c *VoucherConfigCache) Set(ctx context.Context, config domain.VoucherModeConfig) error {
	v, err := c.version(ctx, config.OrganizationID, config.JournalType)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("encode config cache entry: %w", err)
	}
	if err := c.client.Set(ctx, entryKey(config.OrganizationID, config.JournalType, v), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("write config cache entry: %w", err)
	}
	return nil
}

// Invalidate makes every entry cached so far for (organization, journal type) unreachable.
func (c *VoucherConfigCache) Invalidate(ctx context.Context, organizationID, journalType string) error {
	if err := c.client.Incr(ctx, versionKey(organizationID, journalType)).Err(); err != nil {
		return fmt.Errorf("bump config cache version: %w", err)
	}
	return nil
}
