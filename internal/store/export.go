package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/cashflowcast/internal/model"
	"github.com/theirongolddev/cashflowcast/internal/recurrence"
)

// ExportKey identifies an entries document.
const ExportKey = "cashflowcast.entries.v1"

// ErrUnknownFormat is returned when an import document is neither an entries
// document nor a bare entry array.
var ErrUnknownFormat = errors.New("unrecognized entries document")

// Document is the JSON shape written by EncodeEntries.
type Document struct {
	Key     string        `json:"key"`
	Entries []model.Entry `json:"entries"`
}

// EncodeEntries writes entries as an indented Document.
func EncodeEntries(w io.Writer, entries []model.Entry) error {
	if entries == nil {
		entries = []model.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Document{Key: ExportKey, Entries: entries})
}

// DecodeEntries reads a Document or a bare JSON array of entries. Decoded
// entries are cleaned up the same way the entry form does: missing IDs get a
// UUID and labels get defaults, an untyped entry takes its type from the
// sign of its amount, remaining negative amounts become zero and the
// recurrence is normalized. Entries without a start date are rejected.
func DecodeEntries(r io.Reader) ([]model.Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	data = bytes.TrimSpace(data)

	var entries []model.Entry
	switch {
	case len(data) > 0 && data[0] == '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing entries: %w", err)
		}
	case len(data) > 0 && data[0] == '{':
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing entries: %w", err)
		}
		if doc.Key != ExportKey {
			return nil, fmt.Errorf("%w: key %q", ErrUnknownFormat, doc.Key)
		}
		entries = doc.Entries
	default:
		return nil, ErrUnknownFormat
	}

	for i := range entries {
		if entries[i].StartDate.IsZero() {
			return nil, fmt.Errorf("entry %d (%q): missing startDate", i, entries[i].Label)
		}
		entries[i] = cleanEntry(entries[i])
	}
	return entries, nil
}

func cleanEntry(e model.Entry) model.Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Label == "" {
		e.Label = "Untitled entry"
	}
	switch e.Type {
	case model.Income, model.Expense:
	case "":
		// Untyped entries carry their direction in the amount's sign.
		if e.Amount.IsNegative() {
			e.Type = model.Expense
			e.Amount = e.Amount.Abs()
		} else {
			e.Type = model.Income
		}
	default:
		e.Type = model.Income
	}
	if e.Amount.IsNegative() {
		e.Amount = decimal.Zero
	}
	e.Recurrence = recurrence.Normalize(e.Recurrence)
	return e
}
