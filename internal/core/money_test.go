package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "integer", input: "12", want: 1200},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "one decimal", input: "12.3", want: 1230},
		{name: "rounds third decimal up", input: "12.346", want: 1235},
		{name: "rounds third decimal down", input: "12.344", want: 1234},
		{name: "leading dot", input: ".5", want: 50},
		{name: "whitespace trimmed", input: " 7.25 ", want: 725},
		{name: "zero rejected", input: "0", wantErr: true},
		{name: "negative rejected", input: "-5", wantErr: true},
		{name: "plus sign rejected", input: "+5", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "letters rejected", input: "12a", wantErr: true},
		{name: "double dot rejected", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d cents, want %d", got, tt.want)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		want  string
	}{
		{name: "plain", money: Money{Cents: 1234}, want: "12.34"},
		{name: "whole", money: Money{Cents: 5000}, want: "50.00"},
		{name: "sub-peso", money: Money{Cents: 5}, want: "0.05"},
		{name: "negative", money: Money{Cents: -250}, want: "-2.50"},
		{name: "zero", money: Money{Cents: 0}, want: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.money)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("marshal: got %s, want %s", data, tt.want)
			}
			var back Money
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if back != tt.money {
				t.Errorf("round-trip: got %+v, want %+v", back, tt.money)
			}
		})
	}
}

func TestMoneyUnmarshalQuotedString(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"12.50"`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Cents != 1250 {
		t.Errorf("got %d cents, want 1250", m.Cents)
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 123450}).String(); got != "₱1234.50" {
		t.Errorf("got %s", got)
	}
	if got := (Money{Cents: -75}).String(); got != "-₱0.75" {
		t.Errorf("got %s", got)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Errorf("positive amount rejected: %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero amount accepted")
	}
	if err := (Money{Cents: -100}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative amount accepted")
	}
}
