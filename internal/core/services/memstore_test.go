package services_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/voucher_posting_service/internal/apperrors"
	"github.com/SscSPs/voucher_posting_service/internal/core/domain"
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memTx stands in for a pgx.Tx. Writes are staged and applied on commit;
// voucher row locks are real mutexes released when the tx ends.
type memTx struct {
	pgx.Tx
	staged []func()
	locked []*sync.Mutex
	done   bool
}

// memStore is an in-memory implementation of every repository port the
// services depend on.
type memStore struct {
	mu sync.Mutex

	vouchers    map[string]domain.Voucher
	ledger      []domain.LedgerEntry
	processes   []domain.VoucherProcess
	accounts    map[string]domain.Account
	periods     []domain.AccountingPeriod
	configs     map[string]domain.VoucherModeConfig
	permissions map[string]bool
	members     map[string]domain.OrganizationRole
	rowLocks    map[string]*sync.Mutex

	insertErr     error
	periodErr     error
	insertCalls   int
	lockHeldDelay time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		vouchers:    map[string]domain.Voucher{},
		accounts:    map[string]domain.Account{},
		configs:     map[string]domain.VoucherModeConfig{},
		permissions: map[string]bool{},
		members:     map[string]domain.OrganizationRole{},
		rowLocks:    map[string]*sync.Mutex{},
	}
}

func (s *memStore) provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:    s,
		VoucherRepo:    s,
		LedgerRepo:     s,
		ProcessRepo:    s,
		PeriodRepo:     s,
		PermissionRepo: s,
		ConfigRepo:     s,
	}
}

// --- seeding helpers ---

func (s *memStore) addAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.AccountID] = a
}

func (s *memStore) addPeriod(p domain.AccountingPeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = append(s.periods, p)
}

func (s *memStore) addVoucher(v domain.Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[v.VoucherID] = cloneVoucher(v)
}

// grant gives actorID a permission, making it a MEMBER first if it is not one yet.
func (s *memStore) grant(actorID, orgID, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[actorID+"|"+orgID]; !ok {
		s.members[actorID+"|"+orgID] = domain.RoleMember
	}
	s.permissions[actorID+"|"+orgID+"|"+code] = true
}

func (s *memStore) join(actorID, orgID string, role domain.OrganizationRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[actorID+"|"+orgID] = role
}

func (s *memStore) setConfig(c domain.VoucherModeConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[c.OrganizationID+"|"+c.JournalType] = c
}

func (s *memStore) voucher(id string) domain.Voucher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneVoucher(s.vouchers[id])
}

func (s *memStore) entriesFor(voucherID string) []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range s.ledger {
		if e.VoucherID == voucherID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) processesFor(voucherID string) []domain.VoucherProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.VoucherProcess
	for _, p := range s.processes {
		if p.VoucherSnapshotID == voucherID {
			out = append(out, p)
		}
	}
	return out
}

func cloneVoucher(v domain.Voucher) domain.Voucher {
	v.Lines = append([]domain.VoucherLine(nil), v.Lines...)
	if v.Metadata != nil {
		m := make(map[string]any, len(v.Metadata))
		for k, val := range v.Metadata {
			m[k] = val
		}
		v.Metadata = m
	}
	return v
}

func asMemTx(tx pgx.Tx) *memTx {
	if tx == nil {
		return nil
	}
	return tx.(*memTx)
}

func (s *memStore) stage(tx pgx.Tx, op func()) {
	if mt := asMemTx(tx); mt != nil {
		mt.staged = append(mt.staged, op)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	op()
}

// --- TransactionManager ---

func (s *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{}, nil
}

func (s *memStore) Commit(ctx context.Context, tx pgx.Tx) error {
	mt := asMemTx(tx)
	if mt.done {
		return errors.New("tx already closed")
	}
	s.mu.Lock()
	for _, op := range mt.staged {
		op()
	}
	s.mu.Unlock()
	s.release(mt)
	return nil
}

func (s *memStore) Rollback(ctx context.Context, tx pgx.Tx) error {
	mt := asMemTx(tx)
	if mt.done {
		return nil
	}
	s.release(mt)
	return nil
}

func (s *memStore) release(mt *memTx) {
	mt.done = true
	mt.staged = nil
	for _, l := range mt.locked {
		l.Unlock()
	}
	mt.locked = nil
}

// --- VoucherReader / VoucherWriter / VoucherLocker ---

func (s *memStore) FindVoucherByID(ctx context.Context, organizationID, voucherID string) (*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[voucherID]
	if !ok || v.OrganizationID != organizationID {
		return nil, apperrors.ErrNotFound
	}
	c := cloneVoucher(v)
	return &c, nil
}

func (s *memStore) FindVoucherByIdempotencyKey(ctx context.Context, organizationID, key string) (*domain.Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.vouchers {
		if v.OrganizationID == organizationID && v.IdempotencyKey != nil && *v.IdempotencyKey == key {
			c := cloneVoucher(v)
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *memStore) SaveVoucher(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error {
	c := cloneVoucher(voucher)
	s.stage(tx, func() { s.vouchers[c.VoucherID] = c })
	return nil
}

func (s *memStore) ReplaceVoucherLines(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error {
	c := cloneVoucher(voucher)
	s.stage(tx, func() { s.vouchers[c.VoucherID] = c })
	return nil
}

func (s *memStore) DeleteDraftVoucher(ctx context.Context, tx pgx.Tx, organizationID, voucherID string) error {
	s.stage(tx, func() { delete(s.vouchers, voucherID) })
	return nil
}

func (s *memStore) LockVoucherForUpdate(ctx context.Context, tx pgx.Tx, voucherID string) (*domain.Voucher, error) {
	s.mu.Lock()
	lock, ok := s.rowLocks[voucherID]
	if !ok {
		lock = &sync.Mutex{}
		s.rowLocks[voucherID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	mt := asMemTx(tx)
	mt.locked = append(mt.locked, lock)

	s.mu.Lock()
	v, found := s.vouchers[voucherID]
	s.mu.Unlock()
	if !found {
		return nil, apperrors.ErrNotFound
	}
	if s.lockHeldDelay > 0 {
		time.Sleep(s.lockHeldDelay)
	}
	c := cloneVoucher(v)
	return &c, nil
}

func (s *memStore) UpdateVoucherStatus(ctx context.Context, tx pgx.Tx, voucher domain.Voucher) error {
	c := cloneVoucher(voucher)
	s.stage(tx, func() {
		current := s.vouchers[c.VoucherID]
		current.Status = c.Status
		current.PeriodID = c.PeriodID
		current.Metadata = c.Metadata
		current.ApprovedBy, current.ApprovedAt = c.ApprovedBy, c.ApprovedAt
		current.PostedBy, current.PostedAt = c.PostedBy, c.PostedAt
		current.TotalDebit, current.TotalCredit = c.TotalDebit, c.TotalCredit
		current.AuditFields = c.AuditFields
		s.vouchers[c.VoucherID] = current
	})
	return nil
}

func (s *memStore) SetIdempotencyKey(ctx context.Context, tx pgx.Tx, voucherID, key string) error {
	s.mu.Lock()
	for id, v := range s.vouchers {
		if id != voucherID && v.IdempotencyKey != nil && *v.IdempotencyKey == key {
			s.mu.Unlock()
			return apperrors.ErrConflict
		}
	}
	s.mu.Unlock()

	k := key
	s.stage(tx, func() {
		v := s.vouchers[voucherID]
		v.IdempotencyKey = &k
		s.vouchers[voucherID] = v
	})
	return nil
}

func (s *memStore) MarkReversed(ctx context.Context, tx pgx.Tx, voucherID, reversedByID, actorID string, now time.Time) error {
	s.mu.Lock()
	v, ok := s.vouchers[voucherID]
	s.mu.Unlock()
	if !ok {
		return apperrors.ErrNotFound
	}
	if v.ReversedByID != nil {
		return apperrors.ErrConflict
	}
	by := reversedByID
	s.stage(tx, func() {
		current := s.vouchers[voucherID]
		current.ReversedByID = &by
		current.Touch(actorID, now)
		s.vouchers[voucherID] = current
	})
	return nil
}

// --- Ledger ---

func (s *memStore) InsertEntries(ctx context.Context, tx pgx.Tx, entries []domain.LedgerEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	batch := append([]domain.LedgerEntry(nil), entries...)
	s.stage(tx, func() {
		s.insertCalls++
		s.ledger = append(s.ledger, batch...)
	})
	return nil
}

func (s *memStore) ListEntriesByVoucher(ctx context.Context, organizationID, voucherID string) ([]domain.LedgerEntry, error) {
	return s.entriesFor(voucherID), nil
}

func (s *memStore) ListEntriesByAccount(ctx context.Context, organizationID, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range s.ledger {
		if e.OrganizationID == organizationID && e.AccountID == accountID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.After(out[j].EntryDate) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil, nil
}

func (s *memStore) SumByAccount(ctx context.Context, organizationID, accountID string) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	debit, credit := decimal.Zero, decimal.Zero
	for _, e := range s.ledger {
		if e.OrganizationID == organizationID && e.AccountID == accountID && !e.IsArchived {
			debit = debit.Add(e.FunctionalDebit)
			credit = credit.Add(e.FunctionalCredit)
		}
	}
	return debit, credit, nil
}

// --- Processes ---

func (s *memStore) CreateProcess(ctx context.Context, process domain.VoucherProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if process.Status == domain.ProcessProcessing {
		for _, p := range s.processes {
			if p.VoucherSnapshotID == process.VoucherSnapshotID && p.Status == domain.ProcessProcessing {
				return apperrors.ErrConflict
			}
		}
	}
	s.processes = append(s.processes, process)
	return nil
}

func (s *memStore) UpdateProcess(ctx context.Context, process domain.VoucherProcess) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.processes {
		if p.ProcessID == process.ProcessID {
			s.processes[i] = process
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (s *memStore) ExpireStaleProcesses(ctx context.Context, olderThan time.Time, errorCode string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i, p := range s.processes {
		if p.Status == domain.ProcessProcessing && p.StartedAt.Before(olderThan) {
			p.Fail(now, domain.ProcessStepSaved, errorCode, "attempt expired")
			s.processes[i] = p
			n++
		}
	}
	return n, nil
}

func (s *memStore) HasOtherProcessing(ctx context.Context, tx pgx.Tx, voucherID, excludeProcessID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.processes {
		if p.VoucherSnapshotID == voucherID && p.ProcessID != excludeProcessID && p.Status == domain.ProcessProcessing {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListProcessesByVoucher(ctx context.Context, organizationID, voucherID string) ([]domain.VoucherProcess, error) {
	var out []domain.VoucherProcess
	for _, p := range s.processesFor(voucherID) {
		if p.OrganizationID == organizationID {
			out = append(out, p)
		}
	}
	return out, nil
}

// --- Accounts, periods, permissions, configs ---

func (s *memStore) FindAccountByID(ctx context.Context, organizationID, accountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountID]
	if !ok || a.OrganizationID != organizationID {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (s *memStore) FindAccountsByIDs(ctx context.Context, tx pgx.Tx, organizationID string, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if a, ok := s.accounts[id]; ok && a.OrganizationID == organizationID {
			out[id] = a
		}
	}
	return out, nil
}

func (s *memStore) FindPeriodForDate(ctx context.Context, tx pgx.Tx, organizationID string, date time.Time) (*domain.AccountingPeriod, error) {
	if s.periodErr != nil {
		return nil, s.periodErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.periods {
		if p.OrganizationID == organizationID && p.Contains(date) {
			found := p
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *memStore) HasPermission(ctx context.Context, actorID, organizationID, permissionCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permissions[actorID+"|"+organizationID+"|"+permissionCode], nil
}

func (s *memStore) FindMemberRole(ctx context.Context, actorID, organizationID string) (domain.OrganizationRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.members[actorID+"|"+organizationID]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return role, nil
}

func (s *memStore) FindActiveConfig(ctx context.Context, organizationID, journalType string) (*domain.VoucherModeConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.configs[organizationID+"|"+journalType]
	if !ok || !c.IsActive {
		return nil, apperrors.ErrNotFound
	}
	return &c, nil
}

func (s *memStore) FindConfigByID(ctx context.Context, organizationID, configID string) (*domain.VoucherModeConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.configs {
		if c.ConfigID == configID && c.OrganizationID == organizationID {
			found := c
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (s *memStore) UpsertConfig(ctx context.Context, config domain.VoucherModeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[config.OrganizationID+"|"+config.JournalType] = config
	return nil
}
