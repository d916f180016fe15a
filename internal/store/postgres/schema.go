package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS auth (
    uid          BIGSERIAL PRIMARY KEY,
    username     VARCHAR(255) NOT NULL,
    email        VARCHAR(255) NOT NULL UNIQUE,
    password     VARCHAR(255) NOT NULL,
    is_active    BOOLEAN NOT NULL DEFAULT TRUE,
    create_time  TIMESTAMPTZ NOT NULL DEFAULT now(),
    update_time  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS email_verification (
    email        VARCHAR(255) PRIMARY KEY,
    code         VARCHAR(255) NOT NULL,
    verified     TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS branch (
    bid          BIGSERIAL PRIMARY KEY,
    uid          BIGINT NOT NULL REFERENCES auth(uid),
    path         VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS transaction (
    tid          BIGSERIAL PRIMARY KEY,
    uid          BIGINT NOT NULL REFERENCES auth(uid),
    t_date       DATE NOT NULL,
    branch       VARCHAR(255) NOT NULL,
    cashflow     BIGINT NOT NULL,
    description  TEXT,
    receipt      VARCHAR(255),
    c_date       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_branch_uid_path ON branch(uid, path);
CREATE INDEX IF NOT EXISTS idx_transaction_uid_branch ON transaction(uid, branch);
CREATE INDEX IF NOT EXISTS idx_transaction_uid_date ON transaction(uid, t_date);
`

// Migrate applies the baseline schema. Statements are idempotent, so
// running it on every startup is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
