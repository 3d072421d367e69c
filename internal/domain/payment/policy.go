package payment

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Policy is the fixed payment terms one operation requires when payment,
// rather than a caller credential, authorizes the call. Token, network and
// amount are embedded in source; the pay-to address is the operator's
// receipt address from configuration. Immutable after construction.
type Policy struct {
	// Asset is the settlement token contract address. Compared
	// case-sensitively against the payload's asset.
	Asset string

	// Network is the settlement network identifier.
	Network string

	// Amount is the required price in atomic units.
	Amount *big.Int

	// Price is the same amount expressed in whole token units.
	Price decimal.Decimal

	// Decimals is the token's decimal precision.
	Decimals int

	// PayTo is the operator's payment-receipt address.
	PayTo string

	// DomainName and DomainVersion identify the EIP-712 signing domain the
	// facilitator verifies signatures against.
	DomainName    string
	DomainVersion string
}

// NewPolicy builds a policy from an atomic-unit amount string. The decimal
// price is derived from the atomic amount so the two representations can
// never drift apart.
func NewPolicy(asset, network, atomicAmount string, decimals int, payTo, domainName, domainVersion string) (Policy, error) {
	amount := new(big.Int)
	if _, ok := amount.SetString(atomicAmount, 10); !ok {
		return Policy{}, fmt.Errorf("invalid atomic amount %q", atomicAmount)
	}
	if amount.Sign() < 0 {
		return Policy{}, fmt.Errorf("atomic amount must not be negative")
	}

	price := decimal.NewFromBigInt(amount, 0).Shift(int32(-decimals))

	return Policy{
		Asset:         asset,
		Network:       network,
		Amount:        amount,
		Price:         price,
		Decimals:      decimals,
		PayTo:         payTo,
		DomainName:    domainName,
		DomainVersion: domainVersion,
	}, nil
}

// Requirements is the wire form of a policy: what the server advertises in
// a payment-required response and what the facilitator verifies a payload
// against.
type Requirements struct {
	Scheme            string            `json:"scheme"`
	Network           string            `json:"network"`
	MaxAmountRequired string            `json:"maxAmountRequired"`
	Resource          string            `json:"resource"`
	Description       string            `json:"description"`
	MimeType          string            `json:"mimeType"`
	PayTo             string            `json:"payTo"`
	MaxTimeoutSeconds int               `json:"maxTimeoutSeconds"`
	Asset             string            `json:"asset"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// Requirements renders the policy for a given resource identifier.
func (p Policy) Requirements(resource, description string) Requirements {
	return Requirements{
		Scheme:            SchemeExact,
		Network:           p.Network,
		MaxAmountRequired: p.Amount.String(),
		Resource:          resource,
		Description:       description,
		MimeType:          "application/json",
		PayTo:             p.PayTo,
		MaxTimeoutSeconds: 60,
		Asset:             p.Asset,
		Extra: map[string]string{
			"name":    p.DomainName,
			"version": p.DomainVersion,
		},
	}
}
