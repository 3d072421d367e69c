package mcp

import (
	"testing"

	domainserper "serper-mcp/internal/domain/serper"
)

func TestToolSpecs(t *testing.T) {
	specs, err := ToolSpecs("0xoperator")
	if err != nil {
		t.Fatalf("ToolSpecs() error = %v", err)
	}

	want := map[string]domainserper.Endpoint{
		"serper_search":  domainserper.EndpointSearch,
		"serper_news":    domainserper.EndpointNews,
		"serper_scholar": domainserper.EndpointScholar,
	}

	if len(specs) != len(want) {
		t.Fatalf("ToolSpecs() returned %d tools, want %d", len(specs), len(want))
	}

	for _, spec := range specs {
		endpoint, ok := want[spec.Name]
		if !ok {
			t.Errorf("unexpected tool %q", spec.Name)
			continue
		}
		if spec.Endpoint != endpoint {
			t.Errorf("tool %q endpoint = %q, want %q", spec.Name, spec.Endpoint, endpoint)
		}
		if spec.Policy.Asset != policyAsset {
			t.Errorf("tool %q asset = %q, want %q", spec.Name, spec.Policy.Asset, policyAsset)
		}
		if spec.Policy.Network != policyNetwork {
			t.Errorf("tool %q network = %q, want %q", spec.Name, spec.Policy.Network, policyNetwork)
		}
		if spec.Policy.Amount.String() != policyAtomicAmount {
			t.Errorf("tool %q amount = %s, want %s", spec.Name, spec.Policy.Amount.String(), policyAtomicAmount)
		}
		if spec.Policy.PayTo != "0xoperator" {
			t.Errorf("tool %q payTo = %q, want 0xoperator", spec.Name, spec.Policy.PayTo)
		}
	}
}

func TestPaymentRequiredPayload(t *testing.T) {
	specs, err := ToolSpecs("0xoperator")
	if err != nil {
		t.Fatalf("ToolSpecs() error = %v", err)
	}

	payload := paymentRequiredPayload(specs[0].Policy)

	if payload["error"] != "Payment required or insufficient" {
		t.Errorf("payload error = %v, want payment-required message", payload["error"])
	}
	if payload["code"] != 402 {
		t.Errorf("payload code = %v, want 402", payload["code"])
	}

	required, ok := payload["required_payment"].(map[string]any)
	if !ok {
		t.Fatalf("payload required_payment = %T, want map", payload["required_payment"])
	}
	if required["token"] != policyAsset {
		t.Errorf("required_payment token = %v, want %s", required["token"], policyAsset)
	}
	if required["network"] != policyNetwork {
		t.Errorf("required_payment network = %v, want %s", required["network"], policyNetwork)
	}
	if required["amount"] != policyAtomicAmount {
		t.Errorf("required_payment amount = %v, want %s", required["amount"], policyAtomicAmount)
	}
}

func TestShapeSuccess(t *testing.T) {
	body := map[string]any{
		"organic":        []any{map[string]any{"title": "Go"}},
		"knowledgeGraph": map[string]any{"title": "Go (programming language)"},
	}

	payload := shapeSuccess(body)

	if payload["status"] != "success" {
		t.Errorf("payload status = %v, want success", payload["status"])
	}
	if _, ok := payload["organic"]; !ok {
		t.Error("payload missing organic results")
	}
	if _, ok := payload["knowledgeGraph"]; !ok {
		t.Error("payload missing knowledgeGraph")
	}

	// Upstream body must not be mutated.
	if _, ok := body["status"]; ok {
		t.Error("shapeSuccess mutated the upstream body")
	}
}

func TestShapeSuccess_UpstreamStatusDoesNotClobber(t *testing.T) {
	payload := shapeSuccess(map[string]any{"status": "weird-upstream-value"})
	if payload["status"] != "success" {
		t.Errorf("payload status = %v, want success", payload["status"])
	}
}
