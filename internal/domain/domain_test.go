package domain

import (
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFoundf("branch not found - %s", "Home/Rent"), KindNotFound},
		{"conflict", Conflictf("branch already exists - %s", "Home/Rent"), KindConflict},
		{"invalid input", InvalidInputf("invalid date"), KindInvalidInput},
		{"unauthorized", Unauthorizedf("token expired"), KindUnauthorized},
		{"storage", StorageErr("delete branches", errors.New("conn reset")), KindStorage},
		{"dependency", DependencyErr("delete receipt", errors.New("gcs 503")), KindDependency},
		{"wrapped keeps kind", fmt.Errorf("stage failed: %w", NotFoundf("gone")), KindNotFound},
		{"plain error", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransactionPatchApply(t *testing.T) {
	base := Transaction{
		Date:        civil.Date{Year: 2024, Month: 1, Day: 15},
		Branch:      "Home/Rent",
		Cashflow:    -300,
		Description: "january rent",
		Receipt:     "a1b2.png",
	}

	t.Run("empty patch changes nothing", func(t *testing.T) {
		var p TransactionPatch
		if !p.IsZero() {
			t.Fatal("expected zero patch")
		}
		if got := p.Apply(base); got != base {
			t.Errorf("Apply() = %+v, want unchanged %+v", got, base)
		}
	})

	t.Run("set fields overwrite, unset fields survive", func(t *testing.T) {
		p := TransactionPatch{
			Cashflow: Some[int64](-350),
			Branch:   Some("Home/Rent/Utilities"),
		}
		got := p.Apply(base)
		if got.Cashflow != -350 || got.Branch != "Home/Rent/Utilities" {
			t.Errorf("set fields not applied: %+v", got)
		}
		if got.Description != base.Description || got.Date != base.Date || got.Receipt != base.Receipt {
			t.Errorf("unset fields changed: %+v", got)
		}
	})

	t.Run("explicit empty differs from omitted", func(t *testing.T) {
		p := TransactionPatch{Description: Some("")}
		if p.IsZero() {
			t.Fatal("patch with explicit empty string must not be zero")
		}
		if got := p.Apply(base); got.Description != "" {
			t.Errorf("explicit empty description not applied: %q", got.Description)
		}
	})
}
