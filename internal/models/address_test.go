package models

import (
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "checksummed",
			input: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			want:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		},
		{
			name:  "lowercase is accepted and checksummed on output",
			input: "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
			want:  "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		},
		{
			name:  "no prefix",
			input: "fb6916095ca1df60bb79ce92ce3ea74c37c5d359",
			want:  "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		},
		{
			name:    "bad checksum",
			input:   "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			wantErr: true,
		},
		{
			name:    "too short",
			input:   "0x1234",
			wantErr: true,
		},
		{
			name:    "not hex",
			input:   "0xzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAddress(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) failed: %v", tt.input, err)
			}
			if got.Hex() != tt.want {
				t.Errorf("Hex() = %s, want %s", got.Hex(), tt.want)
			}
		})
	}
}

func TestAddressText(t *testing.T) {
	a := MustParseAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")

	text, err := a.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText failed: %v", err)
	}

	var b Address
	if err := b.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText failed: %v", err)
	}
	if a != b {
		t.Errorf("got %s, want %s", b, a)
	}
}

func TestDeriveAddress(t *testing.T) {
	a := DeriveAddress([]byte("treasury-1"))
	b := DeriveAddress([]byte("treasury-1"))
	c := DeriveAddress([]byte("treasury-2"))

	if a != b {
		t.Error("expected derivation to be deterministic")
	}
	if a == c {
		t.Error("expected different seeds to derive different addresses")
	}
	if a.IsZero() {
		t.Error("expected derived address to be non-zero")
	}
}

func TestParseRunID(t *testing.T) {
	id, err := ParseRunID("0x01")
	if err != nil {
		t.Fatalf("ParseRunID failed: %v", err)
	}
	if id[31] != 1 {
		t.Errorf("expected last byte 1, got %d", id[31])
	}
	if id.Hex() != "0x0000000000000000000000000000000000000000000000000000000000000001" {
		t.Errorf("unexpected hex: %s", id.Hex())
	}

	if _, err := ParseRunID(""); err == nil {
		t.Error("expected error for empty run id")
	}
	if _, err := ParseRunID("0x" + strings.Repeat("a", 65)); err == nil {
		t.Error("expected error for oversized run id")
	}
}
