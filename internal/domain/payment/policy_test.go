package payment_test

import (
	"testing"

	"serper-mcp/internal/domain/payment"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name      string
		atomic    string
		decimals  int
		wantPrice string
		wantErr   bool
	}{
		{name: "usdc-style six decimals", atomic: "10000000000000", decimals: 6, wantPrice: "10000000"},
		{name: "one cent at six decimals", atomic: "10000", decimals: 6, wantPrice: "0.01"},
		{name: "eighteen decimals", atomic: "1000000000000000000", decimals: 18, wantPrice: "1"},
		{name: "zero amount", atomic: "0", decimals: 6, wantPrice: "0"},
		{name: "not an integer", atomic: "1.5", wantErr: true},
		{name: "empty", atomic: "", wantErr: true},
		{name: "negative", atomic: "-1", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol, err := payment.NewPolicy("0xtoken", "sepolia", tt.atomic, tt.decimals, "0xoperator", "IATPWallet", "1")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewPolicy() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPolicy() error = %v", err)
			}
			if pol.Amount.String() != tt.atomic {
				t.Errorf("NewPolicy() Amount = %s, want %s", pol.Amount.String(), tt.atomic)
			}
			if pol.Price.String() != tt.wantPrice {
				t.Errorf("NewPolicy() Price = %s, want %s", pol.Price.String(), tt.wantPrice)
			}
		})
	}
}

func TestPolicy_Requirements(t *testing.T) {
	pol, err := payment.NewPolicy("0xtoken", "sepolia", "10000", 6, "0xoperator", "IATPWallet", "1")
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}

	req := pol.Requirements("serper_search", "Google web search")

	if req.Scheme != payment.SchemeExact {
		t.Errorf("Requirements().Scheme = %q, want exact", req.Scheme)
	}
	if req.Network != "sepolia" {
		t.Errorf("Requirements().Network = %q, want sepolia", req.Network)
	}
	if req.MaxAmountRequired != "10000" {
		t.Errorf("Requirements().MaxAmountRequired = %q, want 10000", req.MaxAmountRequired)
	}
	if req.PayTo != "0xoperator" {
		t.Errorf("Requirements().PayTo = %q, want 0xoperator", req.PayTo)
	}
	if req.Asset != "0xtoken" {
		t.Errorf("Requirements().Asset = %q, want 0xtoken", req.Asset)
	}
	if req.Resource != "serper_search" {
		t.Errorf("Requirements().Resource = %q, want serper_search", req.Resource)
	}
	if req.Extra["name"] != "IATPWallet" || req.Extra["version"] != "1" {
		t.Errorf("Requirements().Extra = %v, want signing domain name/version", req.Extra)
	}
}
