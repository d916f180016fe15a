// Package report aggregates transactions over a branch subtree and date
// range: a flat date-ordered daily view and a monthly income/expenditure
// grouping.
package report

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/dohyunkim/moneytree/internal/domain"
	"github.com/dohyunkim/moneytree/internal/store"
)

// MonthlySummary is one calendar month of a monthly report. Income sums
// the positive cashflows, Expenditure the absolute value of the negative
// ones.
type MonthlySummary struct {
	Month       string `json:"monthly"` // "YYYY-MM"
	Income      int64  `json:"income"`
	Expenditure int64  `json:"expenditure"`
}

// Aggregator reads from the transaction store. Both reports use the
// segment-aligned subtree query, so "Home2" never leaks into a "Home"
// report.
type Aggregator struct {
	transactions store.TransactionStore
}

// New constructs an Aggregator.
func New(transactions store.TransactionStore) *Aggregator {
	return &Aggregator{transactions: transactions}
}

// Daily returns the subtree's transactions in [from, to], ordered by date
// ascending.
func (a *Aggregator) Daily(ctx context.Context, ownerID int64, path string, from, to civil.Date) ([]domain.Transaction, error) {
	txs, err := a.transactions.RangeBySubtree(ctx, ownerID, path, from, to)
	if err != nil {
		return nil, err
	}
	// The store orders by date; keep the guarantee even for stores that
	// return rows in insertion order.
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
	return txs, nil
}

// monthLabel formats a date's "YYYY-MM" grouping key.
func monthLabel(d civil.Date) string {
	return civil.Date{Year: d.Year, Month: d.Month, Day: 1}.String()[:7]
}

// Monthly groups the subtree's transactions by calendar month. Months
// with no matching transactions do not appear; the result is sorted by
// month label ascending.
func (a *Aggregator) Monthly(ctx context.Context, ownerID int64, path string, from, to civil.Date) ([]MonthlySummary, error) {
	txs, err := a.transactions.RangeBySubtree(ctx, ownerID, path, from, to)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*MonthlySummary)
	for _, tx := range txs {
		label := monthLabel(tx.Date)
		s, ok := byMonth[label]
		if !ok {
			s = &MonthlySummary{Month: label}
			byMonth[label] = s
		}
		switch {
		case tx.Cashflow > 0:
			s.Income += tx.Cashflow
		case tx.Cashflow < 0:
			s.Expenditure += -tx.Cashflow
		}
	}

	out := make([]MonthlySummary, 0, len(byMonth))
	for _, s := range byMonth {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
