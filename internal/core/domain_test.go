package core

import (
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2026, 1, 1), true},
		{NewDate(2026, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2026-03-15" {
		t.Fatalf("round trip failed: %q", d.String())
	}
	if _, err := ParseDate("15/03/2026"); err == nil {
		t.Fatalf("expected error for wrong format")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -10}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestAllocationAmount(t *testing.T) {
	salary := Money{Cents: 100000} // 1000.00

	cases := []struct {
		alloc Allocation
		want  int64
	}{
		{Allocation{Kind: Percentage, Value: 70}, 70000},
		{Allocation{Kind: Percentage, Value: 30}, 30000},
		{Allocation{Kind: Percentage, Value: 33.333}, 33333},
		{Allocation{Kind: Fixed, Value: 650}, 65000},
		{Allocation{Kind: Fixed, Value: 0.01}, 1},
	}
	for i, tc := range cases {
		if got := tc.alloc.Amount(salary); got.Cents != tc.want {
			t.Fatalf("case %d expected %d cents, got %d", i, tc.want, got.Cents)
		}
	}
}

func TestAllocationValidate(t *testing.T) {
	if err := (Allocation{Kind: Percentage, Value: 70}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Allocation{Kind: "weekly", Value: 70}).Validate(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if err := (Allocation{Kind: Fixed, Value: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative value")
	}
}

func TestExpenseRecordValidate(t *testing.T) {
	good := ExpenseRecord{
		Date:        NewDate(2026, 1, 1),
		Category:    "Food",
		Amount:      Money{Cents: 100},
		Description: "groceries",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}

	bads := []ExpenseRecord{
		{Date: Date{Time: time.Time{}}, Category: "Food", Amount: Money{Cents: 1}}, // zero date
		{Date: NewDate(2026, 1, 1), Category: "", Amount: Money{Cents: 1}},
		{Date: NewDate(2026, 1, 1), Category: "  ", Amount: Money{Cents: 1}},
		{Date: NewDate(2026, 1, 1), Category: "Food", Amount: Money{Cents: 0}},
		{Date: NewDate(2026, 1, 1), Category: "Food", Amount: Money{Cents: 1}, Description: string(long)},
		{Date: NewDate(2026, 1, 1), Category: "Food", Amount: Money{Cents: 100}, FromSavings: Money{Cents: 200}},
		{Date: NewDate(2026, 1, 1), Category: "Food", Amount: Money{Cents: 100}, FromSavings: Money{Cents: -1}},
	}
	for i, rec := range bads {
		if err := rec.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
