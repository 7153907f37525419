package currency

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		local     string
		reference string
		rate      float64
		wantErr   bool
	}{
		{"valid", "PKR", "USD", 280.0, false},
		{"zero rate", "PKR", "USD", 0, true},
		{"negative rate", "PKR", "USD", -1, true},
		{"empty local", "", "USD", 280.0, true},
		{"empty reference", "PKR", "", 280.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.local, tt.reference, tt.rate)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	conv, err := New("PKR", "USD", 280.0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		price    float64
		currency string
		wantLoc  float64
		wantRef  float64
		wantErr  bool
	}{
		{"local currency", 560.0, "PKR", 560.0, 2.0, false},
		{"reference currency", 2.0, "USD", 560.0, 2.0, false},
		{"rounds reference to cents", 546.0, "PKR", 546.0, 1.95, false},
		{"unknown currency", 10.0, "EUR", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.Normalize(tt.price, tt.currency)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if math.Abs(got.Local-tt.wantLoc) > 1e-9 {
				t.Errorf("Local = %v, want %v", got.Local, tt.wantLoc)
			}
			if math.Abs(got.Reference-tt.wantRef) > 1e-9 {
				t.Errorf("Reference = %v, want %v", got.Reference, tt.wantRef)
			}
		})
	}
}

func TestSupports(t *testing.T) {
	conv, _ := New("PKR", "USD", 280.0)

	if !conv.Supports("PKR") || !conv.Supports("USD") {
		t.Error("expected configured currencies to be supported")
	}
	if conv.Supports("EUR") {
		t.Error("did not expect EUR to be supported")
	}
}
