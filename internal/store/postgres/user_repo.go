package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// UserRepo implements store.UserStore on a shared *sql.DB.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo wraps the injected database handle.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO auth (username, email, password) VALUES ($1, $2, $3)
		 RETURNING uid, username, email, password`,
		username, email, passwordHash,
	).Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if err != nil {
		return domain.User{}, domain.StorageErr("insert user", err)
	}
	return u, nil
}

func (r *UserRepo) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.user(ctx, `SELECT uid, username, email, password FROM auth WHERE email = $1`, email)
}

func (r *UserRepo) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.user(ctx, `SELECT uid, username, email, password FROM auth WHERE uid = $1`, id)
}

func (r *UserRepo) user(ctx context.Context, query string, arg any) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.Password)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.NotFoundf("user not found")
	}
	if err != nil {
		return domain.User{}, domain.StorageErr("query user", err)
	}
	return u, nil
}

func (r *UserRepo) UpdateUsername(ctx context.Context, ownerID int64, username string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth SET username = $1, update_time = now() WHERE uid = $2`,
		username, ownerID,
	)
	if err != nil {
		return domain.StorageErr("update username", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("user not found")
	}
	return nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, ownerID int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth SET password = $1, update_time = now() WHERE uid = $2`,
		passwordHash, ownerID,
	)
	if err != nil {
		return domain.StorageErr("update password", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("user not found")
	}
	return nil
}

func (r *UserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE auth SET password = $1, update_time = now() WHERE email = $2`,
		passwordHash, email,
	)
	if err != nil {
		return domain.StorageErr("update password", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundf("user not found")
	}
	return nil
}

func (r *UserRepo) DeleteUser(ctx context.Context, ownerID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM auth WHERE uid = $1`, ownerID); err != nil {
		return domain.StorageErr("delete user", err)
	}
	return nil
}

func (r *UserRepo) UpsertVerification(ctx context.Context, email, code string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO email_verification (email, code, created_at) VALUES ($1, $2, now())
		 ON CONFLICT (email) DO UPDATE SET code = EXCLUDED.code, created_at = now(), verified = NULL`,
		email, code,
	)
	if err != nil {
		return domain.StorageErr("upsert verification", err)
	}
	return nil
}

func (r *UserRepo) Verification(ctx context.Context, email string) (domain.Verification, error) {
	var (
		v        domain.Verification
		verified sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT email, code, created_at, verified FROM email_verification WHERE email = $1`,
		email,
	).Scan(&v.Email, &v.Code, &v.CreatedAt, &verified)
	if err == sql.ErrNoRows {
		return domain.Verification{}, domain.NotFoundf("no verification for email")
	}
	if err != nil {
		return domain.Verification{}, domain.StorageErr("query verification", err)
	}
	if verified.Valid {
		v.VerifiedAt = verified.Time
	}
	return v, nil
}

func (r *UserRepo) MarkVerified(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE email_verification SET verified = $1 WHERE email = $2`,
		time.Now().UTC(), email,
	)
	if err != nil {
		return domain.StorageErr("mark verified", err)
	}
	return nil
}

func (r *UserRepo) DeleteVerification(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM email_verification WHERE email = $1`, email); err != nil {
		return domain.StorageErr("delete verification", err)
	}
	return nil
}
