package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Transaction is one financial entry belonging to an owner. Branch is a
// denormalized copy of the branch path, not a foreign key: the row and the
// branch row are only kept consistent by the cascade delete protocol.
type Transaction struct {
	ID          int64      `json:"tid"`
	OwnerID     int64      `json:"uid"`
	Date        civil.Date `json:"t_date"`
	Branch      string     `json:"branch"`
	Cashflow    int64      `json:"cashflow"`
	Description string     `json:"description,omitempty"`
	Receipt     string     `json:"receipt,omitempty"` // blob store file name, empty if none
	CreatedAt   time.Time  `json:"c_date"`
}

// HasReceipt reports whether a receipt blob is attached.
func (t Transaction) HasReceipt() bool {
	return t.Receipt != ""
}

// IsIncome classifies the entry by cashflow sign.
func (t Transaction) IsIncome() bool {
	return t.Cashflow > 0
}
