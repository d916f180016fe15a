// Package store defines the persistence interfaces consumed by the cascade
// coordinator, the reporting aggregator, and the API handlers. The postgres
// sub-package is the concrete implementation; tests substitute in-memory
// mocks.
package store

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// BranchStore persists branch rows keyed by (owner, path).
type BranchStore interface {
	// Create inserts a new branch. The caller pre-checks existence; a
	// duplicate (owner, path) surfaces as a Conflict error.
	Create(ctx context.Context, ownerID int64, path string) (domain.Branch, error)

	// Exists reports whether (owner, path) is present.
	Exists(ctx context.Context, ownerID int64, path string) (bool, error)

	// ListByOwner returns every branch of the owner.
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Branch, error)

	// Subtree returns every branch whose path equals path or lies under it
	// at a segment boundary, including path itself.
	Subtree(ctx context.Context, ownerID int64, path string) ([]domain.Branch, error)

	// DeleteByIDs deletes the given branch rows and returns the deleted
	// rows. A storage failure surfaces as a StorageError; rows already
	// deleted are not restored.
	DeleteByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Branch, error)

	// DeleteByOwner deletes every branch of the owner, returning the
	// deleted rows. Used on account deletion.
	DeleteByOwner(ctx context.Context, ownerID int64) ([]domain.Branch, error)
}

// TransactionStore persists financial entries scoped to an owner.
type TransactionStore interface {
	// Create inserts the entry and returns its id.
	Create(ctx context.Context, tx domain.Transaction) (int64, error)

	// Get returns the entry or a NotFound error.
	Get(ctx context.Context, ownerID, id int64) (domain.Transaction, error)

	// UpdatePartial overwrites only the fields set in patch. NotFound if
	// the entry is absent.
	UpdatePartial(ctx context.Context, ownerID, id int64, patch domain.TransactionPatch) error

	// ListByIDs returns the entries matching the given ids. Ids that do
	// not exist or belong to another owner are silently absent.
	ListByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Transaction, error)

	// DeleteByIDs deletes the given entries and returns the deleted rows,
	// receipts included, so callers can purge the blobs.
	DeleteByIDs(ctx context.Context, ownerID int64, ids []int64) ([]domain.Transaction, error)

	// ListByBranches returns every entry whose branch is exactly one of
	// the given paths. Membership test, not prefix test.
	ListByBranches(ctx context.Context, ownerID int64, paths []string) ([]domain.Transaction, error)

	// RangeBySubtree returns entries whose branch lies in the subtree of
	// path (segment-aligned) and whose date falls in [from, to], ordered
	// by date ascending.
	RangeBySubtree(ctx context.Context, ownerID int64, path string, from, to civil.Date) ([]domain.Transaction, error)

	// DeleteByOwner deletes every entry of the owner, returning the
	// deleted rows. Used on account deletion.
	DeleteByOwner(ctx context.Context, ownerID int64) ([]domain.Transaction, error)
}

// UserStore persists accounts and their email verification state.
type UserStore interface {
	// CreateUser inserts an account with a hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error)

	// UserByEmail returns the account or a NotFound error.
	UserByEmail(ctx context.Context, email string) (domain.User, error)

	// UserByID returns the account or a NotFound error.
	UserByID(ctx context.Context, id int64) (domain.User, error)

	// UpdateUsername replaces the display name.
	UpdateUsername(ctx context.Context, ownerID int64, username string) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, ownerID int64, passwordHash string) error

	// UpdatePasswordByEmail replaces the hash for an email address.
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error

	// DeleteUser removes the account row.
	DeleteUser(ctx context.Context, ownerID int64) error

	// UpsertVerification stores a fresh verification code for the email.
	UpsertVerification(ctx context.Context, email, code string) error

	// Verification returns the pending code and its state, or NotFound.
	Verification(ctx context.Context, email string) (domain.Verification, error)

	// MarkVerified records that the email passed code verification.
	MarkVerified(ctx context.Context, email string) error

	// DeleteVerification discards the verification row.
	DeleteVerification(ctx context.Context, email string) error
}
