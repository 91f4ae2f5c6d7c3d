// Package orders is the sample business domain driven by the passivate CLI:
// order confirmation for VIP customers and a multi-step approval queue.
package orders

import (
	"context"

	"github.com/aretw0/passivate/pkg/domain"
	"github.com/aretw0/passivate/pkg/dsl"
)

// Tree ids.
const (
	ConfirmationTreeID = "order-confirmation"
	ApprovalTreeID     = "order-approval"
)

// Capability names.
const (
	CapSendConfirmation = "send-confirmation"
	CapCheckPrices      = "check-prices"
	CapCheckNumber      = "check-number"
	CapCallPhone        = "call-phone-confirm"
	CapSendEmail        = "send-email-notice"
	CapFinalConfirm     = "final-confirm"
	CapSignAndRecord    = "sign-and-record"
)

// CustomerType distinguishes customers that get per-item confirmations.
type CustomerType string

const (
	CustomerVIP    CustomerType = "VIP"
	CustomerNormal CustomerType = "Normal"
)

type Customer struct {
	Name  string       `json:"name"`
	Type  CustomerType `json:"type"`
	Phone string       `json:"phone,omitempty"`
	Email string       `json:"email,omitempty"`
}

type Product struct {
	SKU   string  `json:"sku"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type OrderItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Order is the parameter carried through both trees.
type Order struct {
	ID       string      `json:"id"`
	Customer Customer    `json:"customer"`
	Items    []OrderItem `json:"items"`
}

// IsVIP reports whether the order belongs to a VIP customer.
func (o Order) IsVIP() bool {
	return o.Customer.Type == CustomerVIP
}

// Total is the sum of price times quantity over all items.
func (o Order) Total() float64 {
	var total float64
	for _, it := range o.Items {
		total += it.Product.Price * float64(it.Quantity)
	}
	return total
}

// ConfirmationTree sends one confirmation per item when rule holds for the
// order. A nil rule selects VIP customers.
func ConfirmationTree(rule domain.Predicate) (*domain.Tree, error) {
	each := dsl.Named("items", dsl.Each(func(_ context.Context, o Order) ([]OrderItem, error) {
		return o.Items, nil
	}, dsl.Named("confirm", dsl.Do(CapSendConfirmation))))

	var root *domain.Conditional
	if rule == nil {
		root = dsl.When(Order.IsVIP, each)
	} else {
		root = &domain.Conditional{Predicate: rule, Then: each}
	}
	return dsl.Tree[Order](ConfirmationTreeID, dsl.Named("vip", root))
}

// ApprovalTree runs the approval queue front to back. A failing check stops
// the run at that step; continuing the stored checkpoint retries it.
func ApprovalTree() (*domain.Tree, error) {
	return dsl.Tree[Order](ApprovalTreeID, dsl.Seq(
		dsl.Named("prices", dsl.Do(CapCheckPrices)),
		dsl.Named("number", dsl.Do(CapCheckNumber)),
		dsl.Named("phone", dsl.Do(CapCallPhone)),
		dsl.Named("email", dsl.Do(CapSendEmail)),
		dsl.Named("confirm", dsl.Do(CapFinalConfirm)),
		dsl.Named("sign", dsl.Do(CapSignAndRecord)),
	))
}

// Sample returns a demo order with three items.
func Sample(id string, vip bool) Order {
	typ := CustomerNormal
	if vip {
		typ = CustomerVIP
	}
	return Order{
		ID: id,
		Customer: Customer{
			Name:  "Ada Lovelace",
			Type:  typ,
			Phone: "+44 20 7946 0000",
			Email: "ada@example.com",
		},
		Items: []OrderItem{
			{Product: Product{SKU: "BK-001", Name: "Analytical Notes", Price: 42}, Quantity: 1},
			{Product: Product{SKU: "PN-014", Name: "Brass Gear Set", Price: 19.5}, Quantity: 2},
			{Product: Product{SKU: "CD-220", Name: "Punch Cards", Price: 3.25}, Quantity: 100},
		},
	}
}
