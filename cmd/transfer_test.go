package cmd

import (
	"strings"
	"testing"

	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/store"
)

func TestAdoptEntriesFillsCurrency(t *testing.T) {
	doc := `[
		{"id": "a", "label": "Rent", "type": "expense", "amount": 1450, "startDate": "2025-01-01",
		 "recurrence": {"kind": "monthly"}},
		{"id": "b", "label": "Salary", "type": "income", "amount": 3000, "currency": "GBP",
		 "startDate": "2025-01-01", "recurrence": {"kind": "monthly"}}
	]`
	entries, err := store.DecodeEntries(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}

	got := adoptEntries(entries, model.Project{Currency: "EUR"})
	if got[0].Currency != "EUR" {
		t.Errorf("missing currency = %q, want EUR", got[0].Currency)
	}
	if got[1].Currency != "GBP" {
		t.Errorf("explicit currency = %q, want GBP", got[1].Currency)
	}
	if entries[0].Currency != "" {
		t.Errorf("input entry modified: %q", entries[0].Currency)
	}
}
