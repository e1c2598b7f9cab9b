package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/sample"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := SchemaVersion(s.Path())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("version/dirty = %d/%v, want 1/false", version, dirty)
	}

	// Reopening an up-to-date database is a no-op.
	again, err := Open(s.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = again.Close()
}

func TestSaveAndLoadProject(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := sample.Project(calendar.MustParse("2025-03-04"))
	end := calendar.MustParse("2025-09-30")
	p.Entries[0].EndDate = &end

	if err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	got, err := s.Project(ctx, p.ID)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if got.Name != p.Name || !got.OpeningBalance.Equal(p.OpeningBalance) || got.HorizonMonths != p.HorizonMonths {
		t.Errorf("project = %+v", got)
	}
	if len(got.Entries) != len(p.Entries) {
		t.Fatalf("entries = %d, want %d", len(got.Entries), len(p.Entries))
	}
	for i, e := range got.Entries {
		want := p.Entries[i]
		if e.ID != want.ID || e.Label != want.Label || !e.Amount.Equal(want.Amount) || e.Recurrence != want.Recurrence {
			t.Errorf("entry %d = %+v, want %+v", i, e, want)
		}
		if !e.StartDate.Equal(want.StartDate) {
			t.Errorf("entry %d StartDate = %s, want %s", i, e.StartDate, want.StartDate)
		}
	}
	if got.Entries[0].EndDate == nil || !got.Entries[0].EndDate.Equal(end) {
		t.Errorf("EndDate = %v, want %s", got.Entries[0].EndDate, end)
	}
	if got.Entries[1].EndDate != nil {
		t.Errorf("EndDate = %v, want nil", got.Entries[1].EndDate)
	}

	byName, err := s.Project(ctx, p.Name)
	if err != nil || byName.ID != p.ID {
		t.Errorf("Project(name) = %q, %v", byName.ID, err)
	}
}

func TestSaveProjectReplacesEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := sample.Project(calendar.MustParse("2025-03-04"))
	if err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	p.Entries = p.Entries[:2]
	p.OpeningBalance = decimal.RequireFromString("10.35")
	if err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject again: %v", err)
	}

	got, err := s.Project(ctx, p.ID)
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if len(got.Entries) != 2 || got.OpeningBalance.String() != "10.35" {
		t.Errorf("entries/opening = %d/%s, want 2/10.35", len(got.Entries), got.OpeningBalance)
	}
	if n, _ := s.ProjectCount(ctx); n != 1 {
		t.Errorf("ProjectCount = %d, want 1", n)
	}
}

func TestEntryCRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := model.Project{ID: "p1", Name: "Household", Currency: "EUR", HorizonMonths: 3}
	if err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}

	first := model.Entry{ID: "a", Label: "Salary", Type: model.Income, Amount: decimal.NewFromInt(100),
		StartDate: calendar.MustParse("2025-01-01"), Recurrence: model.Recurrence{Kind: model.KindMonthly}}
	second := model.Entry{ID: "b", Label: "Rent", Type: model.Expense, Amount: decimal.NewFromInt(50),
		StartDate: calendar.MustParse("2025-01-01"), Recurrence: model.Recurrence{Kind: model.KindWeekly}}
	for _, e := range []model.Entry{first, second} {
		if err := s.SaveEntry(ctx, p.ID, e); err != nil {
			t.Fatalf("SaveEntry(%s): %v", e.ID, err)
		}
	}

	first.Amount = decimal.RequireFromString("120.10")
	if err := s.SaveEntry(ctx, p.ID, first); err != nil {
		t.Fatalf("SaveEntry update: %v", err)
	}

	entries, err := s.Entries(ctx, p.ID)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "a" || !entries[0].Amount.Equal(decimal.RequireFromString("120.1")) {
		t.Fatalf("entries = %+v", entries)
	}

	if err := s.DeleteEntry(ctx, p.ID, "a"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := s.DeleteEntry(ctx, p.ID, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteEntry twice: err = %v, want ErrNotFound", err)
	}
	if err := s.SaveEntry(ctx, "missing", first); err == nil {
		t.Error("SaveEntry on missing project succeeded")
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := sample.Project(calendar.MustParse("2025-03-04"))
	if err := s.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if err := s.DeleteProject(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := s.Project(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Project after delete: err = %v, want ErrNotFound", err)
	}
	entries, err := s.Entries(ctx, p.ID)
	if err != nil || len(entries) != 0 {
		t.Errorf("Entries after delete = %d, %v", len(entries), err)
	}
	if err := s.DeleteProject(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProject twice: err = %v, want ErrNotFound", err)
	}
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, p := range []model.Project{
		{ID: "2", Name: "Zeta", HorizonMonths: 1},
		{ID: "1", Name: "Alpha", HorizonMonths: 1},
	} {
		if err := s.SaveProject(ctx, p); err != nil {
			t.Fatalf("SaveProject: %v", err)
		}
	}
	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Alpha" {
		t.Errorf("projects = %+v", projects)
	}
}

func TestEncodeDecodeEntries(t *testing.T) {
	entries := sample.Project(calendar.MustParse("2025-03-04")).Entries

	var buf bytes.Buffer
	if err := EncodeEntries(&buf, entries); err != nil {
		t.Fatalf("EncodeEntries: %v", err)
	}
	if !strings.Contains(buf.String(), `"key": "cashflowcast.entries.v1"`) {
		t.Errorf("missing key in %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"endDate": null`) {
		t.Errorf("missing null endDate in %s", buf.String())
	}

	got, err := DecodeEntries(&buf)
	if err != nil {
		t.Fatalf("DecodeEntries: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("entries = %d, want %d", len(got), len(entries))
	}
	for i := range got {
		if got[i].ID != entries[i].ID || !got[i].StartDate.Equal(entries[i].StartDate) || got[i].Recurrence != entries[i].Recurrence {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], entries[i])
		}
	}
}

func TestDecodeEntries(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr error
		check   func(t *testing.T, entries []model.Entry)
	}{
		{
			name: "bare array with legacy recurrence",
			in:   `[{"label":"Pay","type":"income","amount":-5,"startDate":"2025-01-02","recurrence":{"type":"bi-weekly"}}]`,
			check: func(t *testing.T, entries []model.Entry) {
				e := entries[0]
				if e.ID == "" {
					t.Error("ID not assigned")
				}
				if !e.Amount.IsZero() {
					t.Errorf("Amount = %s, want 0", e.Amount)
				}
				if e.Recurrence.Kind != model.KindBiweekly {
					t.Errorf("Kind = %q, want biweekly", e.Recurrence.Kind)
				}
				if e.EndDate != nil {
					t.Errorf("EndDate = %v, want nil", e.EndDate)
				}
			},
		},
		{
			name: "unknown kind becomes monthly",
			in:   `{"key":"cashflowcast.entries.v1","entries":[{"id":"x","type":"expense","amount":3,"startDate":"2025-01-02","recurrence":{"kind":"hourly"}}]}`,
			check: func(t *testing.T, entries []model.Entry) {
				if entries[0].Recurrence.Kind != model.KindMonthly {
					t.Errorf("Kind = %q, want monthly", entries[0].Recurrence.Kind)
				}
				if entries[0].Label != "Untitled entry" {
					t.Errorf("Label = %q", entries[0].Label)
				}
			},
		},
		{
			name: "untyped entries take their type from the sign",
			in: `[
				{"id":"1","label":"Rent","amount":-1450,"currency":"USD","startDate":"2025-01-01","endDate":null,
				 "recurrence":{"type":"monthly","dayOfMonth":1}},
				{"id":"2","label":"Paycheck","amount":2200.5,"currency":"USD","startDate":"2025-01-03","endDate":null,
				 "recurrence":{"type":"x-weekly","every":3}}
			]`,
			check: func(t *testing.T, entries []model.Entry) {
				rent, pay := entries[0], entries[1]
				if rent.Type != model.Expense || !rent.Amount.Equal(decimal.NewFromInt(1450)) {
					t.Errorf("Rent = %s %s, want expense 1450", rent.Type, rent.Amount)
				}
				if !rent.Signed().Equal(decimal.NewFromInt(-1450)) {
					t.Errorf("Rent signed = %s, want -1450", rent.Signed())
				}
				if rent.Recurrence != (model.Recurrence{Kind: model.KindMonthly, DayOfMonth: 1}) {
					t.Errorf("Rent recurrence = %+v", rent.Recurrence)
				}
				if pay.Type != model.Income || pay.Amount.String() != "2200.5" {
					t.Errorf("Paycheck = %s %s, want income 2200.5", pay.Type, pay.Amount)
				}
				if pay.Recurrence != (model.Recurrence{Kind: model.KindEveryWeeks, Interval: 3}) {
					t.Errorf("Paycheck recurrence = %+v", pay.Recurrence)
				}
			},
		},
		{name: "wrong key", in: `{"key":"other","entries":[]}`, wantErr: ErrUnknownFormat},
		{name: "not json", in: `hello`, wantErr: ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := DecodeEntries(strings.NewReader(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeEntries: %v", err)
			}
			tt.check(t, entries)
		})
	}

	if _, err := DecodeEntries(strings.NewReader(`[{"label":"no date"}]`)); err == nil {
		t.Error("entry without startDate accepted")
	}
}
