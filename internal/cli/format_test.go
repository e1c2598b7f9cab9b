package cli

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSignedMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2950", "+$2,950"},
		{"-1450", "-$1,450"},
		{"0", "$0"},
		{"0.2", "$0"},
		{"0.5", "+$1"},
	}
	for _, tt := range tests {
		if got := FormatSignedMoney(decimal.RequireFromString(tt.in), "USD"); got != tt.want {
			t.Errorf("FormatSignedMoney(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(decimal.NewFromInt(1000), decimal.NewFromInt(1200), "EUR"); got != "-€200" {
		t.Errorf("FormatDelta = %q, want -€200", got)
	}
}

func TestSetLocale(t *testing.T) {
	defer func(prev language.Tag) { locale = prev }(locale)

	if err := SetLocale("de-DE"); err != nil {
		t.Fatalf("SetLocale: %v", err)
	}
	if got := FormatMoney(decimal.NewFromInt(1234567), "EUR"); got != "€1.234.567" {
		t.Errorf("FormatMoney(de-DE) = %q, want €1.234.567", got)
	}
	if err := SetLocale("not a locale!"); err == nil {
		t.Error("SetLocale(bad) succeeded, want error")
	}
}

func TestFormatMonths(t *testing.T) {
	if got := FormatMonths(1); got != "1 month" {
		t.Errorf("FormatMonths(1) = %q", got)
	}
	if got := FormatMonths(6); got != "6 months" {
		t.Errorf("FormatMonths(6) = %q", got)
	}
}

func TestFormatUpdated(t *testing.T) {
	if got := FormatUpdated(time.Time{}); got != "never" {
		t.Errorf("FormatUpdated(zero) = %q, want never", got)
	}
	if got := FormatUpdated(time.Now().Add(-3 * time.Hour)); got != "3 hours ago" {
		t.Errorf("FormatUpdated(-3h) = %q, want 3 hours ago", got)
	}
}
