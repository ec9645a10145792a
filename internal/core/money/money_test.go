package money

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{in: "19.99", want: 1999},
		{in: "100", want: 10000},
		{in: "5.5", want: 550},
		{in: ".75", want: 75},
		{in: "$12.00", want: 1200},
		{in: "-3.10", want: -310},
		{in: "0.005", want: 1},
		{in: "0.004", want: 0},
		{in: "2.999", want: 300},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.2.3", wantErr: true},
		{in: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %d", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmount_Percent(t *testing.T) {
	tests := []struct {
		name   string
		amount Amount
		pct    int
		want   Amount
	}{
		{name: "20% of 100.00", amount: 10000, pct: 20, want: 2000},
		{name: "10% of 50.00", amount: 5000, pct: 10, want: 500},
		{name: "15% of 33.33 rounds half up", amount: 3333, pct: 15, want: 500}, // 499.95
		{name: "30% of 0.05 rounds half up", amount: 5, pct: 30, want: 2},       // 1.5
		{name: "20% of 0.02 rounds down", amount: 2, pct: 20, want: 0},          // 0.4
		{name: "100% keeps amount", amount: 1234, pct: 100, want: 1234},
		{name: "zero percent", amount: 1234, pct: 0, want: 0},
		{name: "negative rounds away from zero", amount: -5, pct: 30, want: -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.Percent(tt.pct); got != tt.want {
				t.Errorf("Percent(%d) = %d, want %d", tt.pct, got, tt.want)
			}
		})
	}
}

func TestAmount_String(t *testing.T) {
	if got := Amount(2000).String(); got != "20.00" {
		t.Errorf("String() = %q, want %q", got, "20.00")
	}
	if got := Amount(-5).String(); got != "-0.05" {
		t.Errorf("String() = %q, want %q", got, "-0.05")
	}
	if got := Amount(500).Display(); got != "$5.00" {
		t.Errorf("Display() = %q, want %q", got, "$5.00")
	}
}

func TestAmount_JSON(t *testing.T) {
	type payload struct {
		Total Amount  `json:"total"`
		Maybe *Amount `json:"maybe"`
	}

	data, err := json.Marshal(payload{Total: 500})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"total":5.00,"maybe":null}` {
		t.Errorf("Marshal = %s", data)
	}

	var got payload
	if err := json.Unmarshal([]byte(`{"total":19.99,"maybe":"2.50"}`), &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Total != 1999 {
		t.Errorf("Total = %d, want 1999", got.Total)
	}
	if got.Maybe == nil || *got.Maybe != 250 {
		t.Errorf("Maybe = %v, want 250", got.Maybe)
	}

	if err := json.Unmarshal([]byte(`{"total":1e3}`), &got); err == nil {
		t.Error("expected error for exponent notation")
	}
}
