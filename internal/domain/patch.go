package domain

import "cloud.google.com/go/civil"

// Optional is a field-update slot that distinguishes "not provided" from
// "explicitly set to the zero value". A partial update only touches fields
// whose slot is set.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set slot holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// TransactionPatch is an explicit field-update set for partial transaction
// updates. Omitted slots leave the stored value untouched; a set slot
// overwrites it, including overwriting with an empty string or zero.
type TransactionPatch struct {
	Date        Optional[civil.Date]
	Branch      Optional[string]
	Cashflow    Optional[int64]
	Description Optional[string]
	Receipt     Optional[string]
}

// IsZero reports whether no field is set.
func (p TransactionPatch) IsZero() bool {
	return !p.Date.Set && !p.Branch.Set && !p.Cashflow.Set && !p.Description.Set && !p.Receipt.Set
}

// Apply overwrites the set fields of t and returns the result.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Date.Set {
		t.Date = p.Date.Value
	}
	if p.Branch.Set {
		t.Branch = p.Branch.Value
	}
	if p.Cashflow.Set {
		t.Cashflow = p.Cashflow.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Value
	}
	if p.Receipt.Set {
		t.Receipt = p.Receipt.Value
	}
	return t
}
