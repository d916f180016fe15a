package handlers

import (
	"context"
	"net/http"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/dohyunkim/moneytree/internal/api/middleware"
	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/pathtree"
)

// Shared in-memory mocks for the handler tests. Both stores keep rows in
// maps and honor the same semantics the postgres package implements,
// including segment-aligned subtree matching.

type mockBranchStore struct {
	nextID   int64
	branches map[int64]domain.Branch
	failOn   string // method name that should return a storage error
}

func newMockBranchStore() *mockBranchStore {
	return &mockBranchStore{nextID: 1, branches: make(map[int64]domain.Branch)}
}

func (m *mockBranchStore) fail(method string) error {
	if m.failOn == method {
		return domain.StorageErr(method+" failed", nil)
	}
	return nil
}

func (m *mockBranchStore) Create(ctx context.Context, ownerID int64, path string) (domain.Branch, error) {
	if err := m.fail("Create"); err != nil {
		return domain.Branch{}, err
	}
	for _, b := range m.branches {
		if b.OwnerID == ownerID && b.Path == path {
			return domain.Branch{}, domain.Conflictf("branch already exists - %s", path)
		}
	}
	b := domain.Branch{ID: m.nextID, OwnerID: ownerID, Path: path}
	m.branches[b.ID] = b
	m.nextID++
	return b, nil
}

func (m *mockBranchStore) Exists(ctx context.Context, ownerID int64, path string) (bool, error) {
	if err := m.fail("Exists"); err != nil {
		return false, err
	}
	for _, b := range m.branches {
		if b.OwnerID == ownerID && b.Path == path {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockBranchStore) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Branch, error) {
	if err := m.fail("ListByOwner"); err != nil {
		return nil, err
	}
	var out []domain.Branch
	for _, b := range m.branches {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockBranchStore) Subtree(ctx context.Context, ownerID int64, path string) ([]domain.Branch, error) {
	if err := m.fail("Subtree"); err != nil {
		return nil, err
	}
	var out []domain.Branch
	for _, b := range m.branches {
		if b.OwnerID == ownerID && pathtree.IsDescendantOrEqual(b.Path, path) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockBranchStore) DeleteByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Branch, error) {
	if err := m.fail("DeleteByIDs"); err != nil {
		return nil, err
	}
	var out []domain.Branch
	for _, id := range ids {
		b, ok := m.branches[id]
		if !ok || b.OwnerID != ownerID {
			continue
		}
		delete(m.branches, id)
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBranchStore) DeleteByOwner(ctx context.Context, ownerID int64) ([]domain.Branch, error) {
	if err := m.fail("DeleteByOwner"); err != nil {
		return nil, err
	}
	var out []domain.Branch
	for id, b := range m.branches {
		if b.OwnerID == ownerID {
			delete(m.branches, id)
			out = append(out, b)
		}
	}
	return out, nil
}

type mockTransactionStore struct {
	nextID int64
	txs    map[int64]domain.Transaction
	failOn string
}

func newMockTransactionStore() *mockTransactionStore {
	return &mockTransactionStore{nextID: 1, txs: make(map[int64]domain.Transaction)}
}

func (m *mockTransactionStore) fail(method string) error {
	if m.failOn == method {
		return domain.StorageErr(method+" failed", nil)
	}
	return nil
}

func (m *mockTransactionStore) Create(ctx context.Context, tx domain.Transaction) (int64, error) {
	if err := m.fail("Create"); err != nil {
		return 0, err
	}
	tx.ID = m.nextID
	m.txs[tx.ID] = tx
	m.nextID++
	return tx.ID, nil
}

func (m *mockTransactionStore) Get(ctx context.Context, ownerID, id int64) (domain.Transaction, error) {
	if err := m.fail("Get"); err != nil {
		return domain.Transaction{}, err
	}
	tx, ok := m.txs[id]
	if !ok || tx.OwnerID != ownerID {
		return domain.Transaction{}, domain.NotFoundf("transaction not found - %d", id)
	}
	return tx, nil
}

func (m *mockTransactionStore) UpdatePartial(ctx context.Context, ownerID, id int64, patch domain.TransactionPatch) error {
	if err := m.fail("UpdatePartial"); err != nil {
		return err
	}
	tx, ok := m.txs[id]
	if !ok || tx.OwnerID != ownerID {
		return domain.NotFoundf("transaction not found - %d", id)
	}
	m.txs[id] = patch.Apply(tx)
	return nil
}

func (m *mockTransactionStore) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Transaction, error) {
	if err := m.fail("ListByIDs"); err != nil {
		return nil, err
	}
	var out []domain.Transaction
	for _, id := range ids {
		tx, ok := m.txs[id]
		if !ok || tx.OwnerID != ownerID {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (m *mockTransactionStore) DeleteByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Transaction, error) {
	if err := m.fail("DeleteByIDs"); err != nil {
		return nil, err
	}
	var out []domain.Transaction
	for _, id := range ids {
		tx, ok := m.txs[id]
		if !ok || tx.OwnerID != ownerID {
			continue
		}
		delete(m.txs, id)
		out = append(out, tx)
	}
	return out, nil
}

func (m *mockTransactionStore) ListByBranches(ctx context.Context, ownerID int64, paths []string) ([]domain.Transaction, error) {
	if err := m.fail("ListByBranches"); err != nil {
		return nil, err
	}
	member := make(map[string]bool, len(paths))
	for _, p := range paths {
		member[p] = true
	}
	var out []domain.Transaction
	for _, tx := range m.txs {
		if tx.OwnerID == ownerID && member[tx.Branch] {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTransactionStore) RangeBySubtree(ctx context.Context, ownerID int64, path string, from, to civil.Date) ([]domain.Transaction, error) {
	if err := m.fail("RangeBySubtree"); err != nil {
		return nil, err
	}
	var out []domain.Transaction
	for _, tx := range m.txs {
		if tx.OwnerID != ownerID || !pathtree.IsDescendantOrEqual(tx.Branch, path) {
			continue
		}
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *mockTransactionStore) DeleteByOwner(ctx context.Context, ownerID int64) ([]domain.Transaction, error) {
	if err := m.fail("DeleteByOwner"); err != nil {
		return nil, err
	}
	var out []domain.Transaction
	for id, tx := range m.txs {
		if tx.OwnerID == ownerID {
			delete(m.txs, id)
			out = append(out, tx)
		}
	}
	return out, nil
}

// authed attaches the owner id the way the auth middleware does.
func authed(r *http.Request, ownerID int64) *http.Request {
	return r.WithContext(middleware.WithOwnerID(r.Context(), ownerID))
}
