package assistant

import (
	"encoding/json"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseEnvelopeDecoding(t *testing.T) {
	raw := "```json\n" + `{
		"isPurchase": true,
		"data": {
			"itemName": "Milk",
			"storeName": "Walmart",
			"price": 3.49,
			"quantity": 2,
			"unit": "gal",
			"date": "2025-03-14"
		},
		"responseMessage": "Got it, 2 gallons of milk from Walmart."
	}` + "\n```"

	var env parseEnvelope
	if err := json.Unmarshal([]byte(stripFences(raw)), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.IsPurchase || env.Data == nil {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Data.ItemName != "Milk" || env.Data.Quantity != 2 {
		t.Fatalf("data = %+v", env.Data)
	}
	if env.ResponseMessage == "" {
		t.Fatal("missing response message")
	}
}

func TestParseEnvelopeNonPurchase(t *testing.T) {
	raw := `{"isPurchase": false, "data": null, "responseMessage": "Happy to help with budgeting questions!"}`
	var env parseEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.IsPurchase || env.Data != nil {
		t.Fatalf("envelope = %+v", env)
	}
}
