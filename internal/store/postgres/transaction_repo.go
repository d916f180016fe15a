package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/lib/pq"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// TransactionRepo implements store.TransactionStore on a shared *sql.DB.
type TransactionRepo struct {
	db *sql.DB
}

// NewTransactionRepo wraps the injected database handle.
func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const txColumns = `tid, uid, t_date, branch, cashflow, description, receipt, c_date`

func (r *TransactionRepo) Create(ctx context.Context, tx domain.Transaction) (int64, error) {
	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO transaction (uid, t_date, branch, cashflow, description, receipt, c_date)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		 RETURNING tid`,
		tx.OwnerID, tx.Date.In(time.UTC), tx.Branch, tx.Cashflow, tx.Description, tx.Receipt, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, domain.StorageErr("insert transaction", err)
	}
	return id, nil
}

func (r *TransactionRepo) Get(ctx context.Context, ownerID, id int64) (domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE uid = $1 AND tid = $2`,
		ownerID, id,
	)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return domain.Transaction{}, domain.NotFoundf("transaction not found - %d", id)
	}
	if err != nil {
		return domain.Transaction{}, domain.StorageErr("query transaction", err)
	}
	return tx, nil
}

// UpdatePartial builds the SET clause from the fields present in the
// patch. A slot explicitly set to the empty string clears the column.
func (r *TransactionRepo) UpdatePartial(ctx context.Context, ownerID, id int64, patch domain.TransactionPatch) error {
	if patch.IsZero() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Date.Set {
		add("t_date", patch.Date.Value.In(time.UTC))
	}
	if patch.Branch.Set {
		add("branch", patch.Branch.Value)
	}
	if patch.Cashflow.Set {
		add("cashflow", patch.Cashflow.Value)
	}
	if patch.Description.Set {
		add("description", sql.NullString{String: patch.Description.Value, Valid: patch.Description.Value != ""})
	}
	if patch.Receipt.Set {
		add("receipt", sql.NullString{String: patch.Receipt.Value, Valid: patch.Receipt.Value != ""})
	}

	args = append(args, ownerID, id)
	query := fmt.Sprintf(
		`UPDATE transaction SET %s WHERE uid = $%d AND tid = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.StorageErr("update transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageErr("update transaction rows affected", err)
	}
	if n == 0 {
		return domain.NotFoundf("transaction not found - %d", id)
	}
	return nil
}

func (r *TransactionRepo) ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE uid = $1 AND tid = ANY($2)`,
		ownerID, pq.Array(ids),
	)
	if err != nil {
		return nil, domain.StorageErr("query transactions by ids", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *TransactionRepo) DeleteByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Transaction, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM transaction WHERE uid = $1 AND tid = ANY($2) RETURNING `+txColumns,
		ownerID, pq.Array(ids),
	)
	if err != nil {
		return nil, domain.StorageErr("delete transactions", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *TransactionRepo) ListByBranches(ctx context.Context, ownerID int64, paths []string) ([]domain.Transaction, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transaction WHERE uid = $1 AND branch = ANY($2)`,
		ownerID, pq.Array(paths),
	)
	if err != nil {
		return nil, domain.StorageErr("query transactions by branches", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// RangeBySubtree uses the same segment-aligned containment predicate as
// the branch subtree query, with an inclusive date range.
func (r *TransactionRepo) RangeBySubtree(ctx context.Context, ownerID int64, path string, from, to civil.Date) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transaction
		 WHERE uid = $1 AND (branch = $2 OR branch LIKE $3)
		   AND t_date >= $4 AND t_date <= $5
		 ORDER BY t_date`,
		ownerID, path, subtreePattern(path), from.In(time.UTC), to.In(time.UTC),
	)
	if err != nil {
		return nil, domain.StorageErr("query transactions by subtree", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *TransactionRepo) DeleteByOwner(ctx context.Context, ownerID int64) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM transaction WHERE uid = $1 RETURNING `+txColumns,
		ownerID,
	)
	if err != nil {
		return nil, domain.StorageErr("delete owner transactions", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		tx          domain.Transaction
		date        time.Time
		description sql.NullString
		receipt     sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &date, &tx.Branch, &tx.Cashflow, &description, &receipt, &tx.CreatedAt)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Date = civil.DateOf(date)
	tx.Description = description.String
	tx.Receipt = receipt.String
	return tx, nil
}

func scanTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, domain.StorageErr("scan transaction row", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageErr("iterate transaction rows", err)
	}
	return out, nil
}
