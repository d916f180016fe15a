// Package cascade orchestrates branch deletion: removing a branch removes
// its whole subtree, every transaction attached to any branch in it, and
// every receipt blob those transactions reference.
//
// The protocol is a linear sequence of stages with no retries and no
// compensation. Each store call is its own unit of work; a stage failure
// surfaces with the stage name and leaves earlier stages committed. The
// receipt purge is the one best-effort stage: blob deletion failures are
// logged and skipped so a transaction row can always be removed, at the
// cost of possibly orphaned blobs.
package cascade

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dohyunkim/moneytree/internal/blob"
	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/store"
)

// Stage identifies one step of the deletion protocol.
type Stage string

const (
	StageResolve            Stage = "resolve"
	StageExpand             Stage = "expand"
	StageCollect            Stage = "collect"
	StagePurgeReceipts      Stage = "purge_receipts"
	StageDeleteTransactions Stage = "delete_transactions"
	StageDeleteBranches     Stage = "delete_branches"
)

// StageError reports which stage of the cascade failed. Stages that
// completed before it are not rolled back.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cascade stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// purgeConcurrency bounds the parallel receipt purge. Items are
// independent, so the only limit is blob store courtesy.
const purgeConcurrency = 8

// Coordinator wires the three stores the cascade touches.
type Coordinator struct {
	branches     store.BranchStore
	transactions store.TransactionStore
	receipts     blob.Store
	log          zerolog.Logger
}

// New constructs a Coordinator with injected dependencies.
func New(branches store.BranchStore, transactions store.TransactionStore, receipts blob.Store, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		branches:     branches,
		transactions: transactions,
		receipts:     receipts,
		log:          log,
	}
}

// Result summarizes what a cascade removed.
type Result struct {
	Branches     []domain.Branch
	Transactions []domain.Transaction
}

// DeleteSubtree removes the branch at path, all its descendants, their
// transactions, and the transactions' receipts. A missing branch fails
// with NotFound before any mutation; the root branch is refused.
func (c *Coordinator) DeleteSubtree(ctx context.Context, ownerID int64, path string) (Result, error) {
	if path == domain.RootBranch {
		return Result{}, domain.InvalidInputf("root branch %q cannot be deleted", domain.RootBranch)
	}

	// Resolve: zero mutations on a missing target.
	exists, err := c.branches.Exists(ctx, ownerID, path)
	if err != nil {
		return Result{}, &StageError{Stage: StageResolve, Err: err}
	}
	if !exists {
		return Result{}, domain.NotFoundf("branch not found - %s", path)
	}

	// Expand: the target and every descendant, segment-aligned.
	subtree, err := c.branches.Subtree(ctx, ownerID, path)
	if err != nil {
		return Result{}, &StageError{Stage: StageExpand, Err: err}
	}

	paths := make([]string, len(subtree))
	branchIDs := make([]int64, len(subtree))
	for i, b := range subtree {
		paths[i] = b.Path
		branchIDs[i] = b.ID
	}

	// Collect: exact membership against the expanded paths, not a prefix
	// test. The expansion already did the containment work.
	affected, err := c.transactions.ListByBranches(ctx, ownerID, paths)
	if err != nil {
		return Result{}, &StageError{Stage: StageCollect, Err: err}
	}

	txIDs := make([]int64, len(affected))
	for i, tx := range affected {
		txIDs[i] = tx.ID
	}

	// Purge receipts: best-effort, parallel, log-and-continue.
	c.purgeReceipts(ctx, ownerID, affected)

	deletedTx, err := c.transactions.DeleteByIDs(ctx, ownerID, txIDs)
	if err != nil {
		return Result{}, &StageError{Stage: StageDeleteTransactions, Err: err}
	}

	deletedBranches, err := c.branches.DeleteByIDs(ctx, ownerID, branchIDs)
	if err != nil {
		return Result{}, &StageError{Stage: StageDeleteBranches, Err: err}
	}

	c.log.Info().
		Int64("uid", ownerID).
		Str("path", path).
		Int("branches", len(deletedBranches)).
		Int("transactions", len(deletedTx)).
		Msg("branch subtree deleted")

	return Result{Branches: deletedBranches, Transactions: deletedTx}, nil
}

// DeleteOwner removes every transaction, every receipt, and every branch
// of an account. Same no-compensation policy as DeleteSubtree.
func (c *Coordinator) DeleteOwner(ctx context.Context, ownerID int64) (Result, error) {
	deletedTx, err := c.transactions.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, &StageError{Stage: StageDeleteTransactions, Err: err}
	}

	if err := c.receipts.DeleteAll(ctx, ownerID); err != nil {
		// Same trade-off as the per-receipt purge: rows win over blobs.
		c.log.Error().Err(err).Int64("uid", ownerID).Msg("failed to purge owner receipts")
	}

	deletedBranches, err := c.branches.DeleteByOwner(ctx, ownerID)
	if err != nil {
		return Result{}, &StageError{Stage: StageDeleteBranches, Err: err}
	}

	c.log.Info().
		Int64("uid", ownerID).
		Int("branches", len(deletedBranches)).
		Int("transactions", len(deletedTx)).
		Msg("owner data deleted")

	return Result{Branches: deletedBranches, Transactions: deletedTx}, nil
}

// purgeReceipts deletes the receipt blob of each transaction that has
// one. Failures are logged, never returned: the cascade must make forward
// progress even when the blob store misbehaves.
func (c *Coordinator) purgeReceipts(ctx context.Context, ownerID int64, txs []domain.Transaction) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(purgeConcurrency)

	for _, tx := range txs {
		if !tx.HasReceipt() {
			continue
		}
		tx := tx
		g.Go(func() error {
			if err := c.receipts.Delete(ctx, ownerID, tx.Receipt); err != nil {
				c.log.Error().Err(err).
					Int64("uid", ownerID).
					Int64("tid", tx.ID).
					Str("receipt", tx.Receipt).
					Msg("failed to delete receipt blob")
			}
			return nil
		})
	}

	_ = g.Wait()
}
