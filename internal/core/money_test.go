package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12", 1200, true},
		{".5", 50, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"", 0, false},
		{"-12.34", 0, false},
		{"+12.34", 0, false},
		{"0", 0, false},
		{"12.34.56", 0, false},
		{"abc", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
		if got != tc.want {
			t.Fatalf("case %d (%q) got %d want %d", i, tc.in, got, tc.want)
		}
	}
}

func TestParseSignedDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"20.00", 2000, true},
		{"+20.00", 2000, true},
		{"-20.00", -2000, true},
		{"-0", 0, false},
		{"--1", 0, false},
	}
	for i, tc := range cases {
		got, err := ParseSignedDecimalToCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("case %d (%q) expected ok, got %v", i, tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d (%q) expected error", i, tc.in)
		}
		if got != tc.want {
			t.Fatalf("case %d (%q) got %d want %d", i, tc.in, got, tc.want)
		}
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 1234}).Units(); got != 12.34 {
		t.Fatalf("got %v", got)
	}
}
