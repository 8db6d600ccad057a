package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2024-05-01", NewDate(2024, 5, 1), true},
		{"05/01/2024", NewDate(2024, 5, 1), true},
		{" 2024-05-01 ", NewDate(2024, 5, 1), true},
		{"", Date{}, false},
		{"yesterday", Date{}, false},
		{"2024-13-01", Date{}, false},
	}
	for i, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidDate) {
				t.Fatalf("case %d expected ErrInvalidDate, got %v", i, err)
			}
			continue
		}
		if !got.Equal(tc.want.Time) {
			t.Fatalf("case %d got %v want %v", i, got, tc.want)
		}
	}
}

func TestDateUnixRoundTrip(t *testing.T) {
	d := NewDate(2024, 5, 2)
	if got := DateFromUnix(d.Unix()); !got.Equal(d.Time) {
		t.Fatalf("got %v want %v", got, d)
	}
}

func TestSignConvention(t *testing.T) {
	cases := []struct {
		typ  TransactionType
		in   int64
		want int64
	}{
		{Credit, 2000, 2000},
		{Credit, -2000, 2000},
		{Debit, 2000, -2000},
		{Debit, -2000, -2000},
		{Transfer, 1500, 1500},
		{Transfer, -1500, -1500},
	}
	for i, tc := range cases {
		if got := Sign(tc.typ, tc.in); got != tc.want {
			t.Fatalf("case %d: Sign(%s, %d) = %d, want %d", i, tc.typ, tc.in, got, tc.want)
		}
	}
}

func TestTransactionTypeValid(t *testing.T) {
	for _, typ := range []TransactionType{Debit, Credit, Transfer} {
		if !typ.Valid() {
			t.Fatalf("%s should be valid", typ)
		}
	}
	if TransactionType("Withdrawal").Valid() {
		t.Fatalf("unexpected valid type")
	}
}

func TestAccountTypeValid(t *testing.T) {
	for _, typ := range []AccountType{Cash, Checking, Savings, CreditCard} {
		if !typ.Valid() {
			t.Fatalf("%s should be valid", typ)
		}
	}
	if AccountType("Credit Card").Valid() {
		t.Fatalf("legacy spelling should not be valid")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:    Money{Cents: -2000},
		Date:      NewDate(2024, 5, 1),
		Type:      Debit,
		AccountID: 1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Amount: Money{Cents: 100}, Date: NewDate(2024, 5, 1), Type: "Refund", AccountID: 1}, ErrInvalidTransactionType},
		{Transaction{Amount: Money{Cents: 0}, Date: NewDate(2024, 5, 1), Type: Debit, AccountID: 1}, ErrInvalidAmount},
		{Transaction{Amount: Money{Cents: 100}, Date: Date{Time: time.Time{}}, Type: Debit, AccountID: 1}, ErrInvalidDate},
		{Transaction{Amount: Money{Cents: 100}, Date: NewDate(2024, 5, 1), Type: Debit}, ErrUnknownAccount},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d got %v want %v", i, err, tc.want)
		}
	}
}
