package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// BranchRepo implements store.BranchStore on a shared *sql.DB.
type BranchRepo struct {
	db *sql.DB
}

// NewBranchRepo wraps the injected database handle.
func NewBranchRepo(db *sql.DB) *BranchRepo {
	return &BranchRepo{db: db}
}

func (r *BranchRepo) Create(ctx context.Context, ownerID int64, path string) (domain.Branch, error) {
	exists, err := r.Exists(ctx, ownerID, path)
	if err != nil {
		return domain.Branch{}, err
	}
	if exists {
		return domain.Branch{}, domain.Conflictf("branch already exists - %s", path)
	}

	var b domain.Branch
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO branch (uid, path) VALUES ($1, $2) RETURNING bid, uid, path`,
		ownerID, path,
	).Scan(&b.ID, &b.OwnerID, &b.Path)
	if err != nil {
		return domain.Branch{}, domain.StorageErr("insert branch", err)
	}
	return b, nil
}

func (r *BranchRepo) Exists(ctx context.Context, ownerID int64, path string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM branch WHERE uid = $1 AND path = $2`,
		ownerID, path,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, domain.StorageErr("query branch existence", err)
	}
	return true, nil
}

func (r *BranchRepo) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT bid, uid, path FROM branch WHERE uid = $1 ORDER BY path`,
		ownerID,
	)
	if err != nil {
		return nil, domain.StorageErr("list branches", err)
	}
	defer rows.Close()
	return scanBranches(rows)
}

// Subtree matches the path itself plus strict descendants. The LIKE
// pattern is anchored at a segment boundary, so "Home2" never matches the
// "Home" subtree.
func (r *BranchRepo) Subtree(ctx context.Context, ownerID int64, path string) ([]domain.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT bid, uid, path FROM branch
		 WHERE uid = $1 AND (path = $2 OR path LIKE $3) ORDER BY path`,
		ownerID, path, subtreePattern(path),
	)
	if err != nil {
		return nil, domain.StorageErr("query branch subtree", err)
	}
	defer rows.Close()
	return scanBranches(rows)
}

func (r *BranchRepo) DeleteByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Branch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM branch WHERE uid = $1 AND bid = ANY($2) RETURNING bid, uid, path`,
		ownerID, pq.Array(ids),
	)
	if err != nil {
		return nil, domain.StorageErr("delete branches", err)
	}
	defer rows.Close()
	return scanBranches(rows)
}

func (r *BranchRepo) DeleteByOwner(ctx context.Context, ownerID int64) ([]domain.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM branch WHERE uid = $1 RETURNING bid, uid, path`,
		ownerID,
	)
	if err != nil {
		return nil, domain.StorageErr("delete owner branches", err)
	}
	defer rows.Close()
	return scanBranches(rows)
}

func scanBranches(rows *sql.Rows) ([]domain.Branch, error) {
	var out []domain.Branch
	for rows.Next() {
		var b domain.Branch
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Path); err != nil {
			return nil, domain.StorageErr("scan branch row", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("iterate branch rows", err)
	}
	return out, nil
}
