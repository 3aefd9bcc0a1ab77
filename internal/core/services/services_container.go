package services

import (
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/voucher_posting_service/internal/core/ports/services"
	"github.com/SscSPs/voucher_posting_service/internal/platform/config"
)

// ContainerOption configures optional collaborators of the service container.
type ContainerOption func(*containerOptions)

type containerOptions struct {
	configCache portsrepo.VoucherConfigCache
	clock       Clock
}

// WithConfigCache puts a versioned cache in front of voucher config lookups.
func WithConfigCache(cache portsrepo.VoucherConfigCache) ContainerOption {
	return func(o *containerOptions) {
		o.configCache = cache
	}
}

// WithClock replaces the wall clock used for audit stamps and attempt timing.
func WithClock(clock Clock) ContainerOption {
	return func(o *containerOptions) {
		o.clock = clock
	}
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ContainerOption) *portssvc.ServiceContainer {
	options := containerOptions{clock: utcNow}
	for _, opt := range opts {
		opt(&options)
	}

	container := &portssvc.ServiceContainer{}

	container.Permissions = NewPermissionGate(repos.PermissionRepo, cfg.PermissionCacheSize, cfg.PermissionCacheTTL)
	container.VoucherConfig = NewVoucherConfigService(repos.ConfigRepo, options.configCache, container.Permissions)
	container.Builder = NewVoucherBuilder(repos.VoucherRepo, container.VoucherConfig, container.Permissions, options.clock)
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.AccountRepo, container.Permissions)

	engine := NewPostingEngine(repos.AccountRepo, repos.LedgerRepo, repos.PeriodRepo, repos.VoucherRepo, options.clock)
	container.Voucher = NewVoucherOrchestrator(
		repos.VoucherRepo,
		repos.ProcessRepo,
		container.Builder,
		engine,
		NewInventoryValidator(),
		container.Permissions,
		container.VoucherConfig,
		options.clock,
	)

	return container
}
