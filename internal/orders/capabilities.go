package orders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/passivate/pkg/dsl"
	"github.com/aretw0/passivate/pkg/registry"
)

// Capability failures.
var (
	ErrInvalidPrice    = errors.New("item has no valid price")
	ErrInvalidQuantity = errors.New("item has no valid quantity")
	ErrNoContact       = errors.New("customer has no contact")
)

// Desk implements the order capabilities by writing one line per effect.
type Desk struct {
	mu  sync.Mutex
	out io.Writer
}

// NewDesk creates a desk reporting to out.
func NewDesk(out io.Writer) *Desk {
	return &Desk{out: out}
}

// Register binds every order capability in reg.
func (d *Desk) Register(reg *registry.Registry) {
	reg.Register(CapSendConfirmation, d.SendConfirmation)
	reg.Register(CapCheckPrices, d.CheckPrices)
	reg.Register(CapCheckNumber, d.CheckNumber)
	reg.Register(CapCallPhone, d.CallPhone)
	reg.Register(CapSendEmail, d.SendEmail)
	reg.Register(CapFinalConfirm, d.FinalConfirm)
	reg.Register(CapSignAndRecord, d.SignAndRecord)
}

func (d *Desk) printf(format string, args ...any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, format+"\n", args...)
}

func (d *Desk) SendConfirmation(_ context.Context, param any) error {
	item, err := dsl.As[OrderItem](param)
	if err != nil {
		return err
	}
	d.printf("confirmation sent: %s x%d", item.Product.SKU, item.Quantity)
	return nil
}

func (d *Desk) CheckPrices(_ context.Context, param any) error {
	o, err := dsl.As[Order](param)
	if err != nil {
		return err
	}
	for _, it := range o.Items {
		if it.Product.Price <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidPrice, it.Product.SKU)
		}
	}
	d.printf("prices checked: %s total %.2f", o.ID, o.Total())
	return nil
}

func (d *Desk) CheckNumber(_ context.Context, param any) error {
	o, err := dsl.As[Order](param)
	if err != nil {
		return err
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order %s is empty", ErrInvalidQuantity, o.ID)
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, it.Product.SKU)
		}
	}
	d.printf("quantities checked: %s", o.ID)
	return nil
}

func (d *Desk) CallPhone(_ context.Context, param any) error {
	o, err := dsl.As[Order](param)
	if err != nil {
		return err
	}
	if o.Customer.Phone == "" {
		return fmt.Errorf("%w: no phone for %s", ErrNoContact, o.Customer.Name)
	}
	d.printf("phone confirmation: %s", o.Customer.Phone)
	return nil
}

func (d *Desk) SendEmail(_ context.Context, param any) error {
	o, err := dsl.As[Order](param)
	if err != nil {
		return err
	}
	if o.Customer.Email == "" {
		return fmt.Errorf("%w: no email for %s", ErrNoContact, o.Customer.Name)
	}
	d.printf("email notice: %s", o.Customer.Email)
	return nil
}

func (d *Desk) FinalConfirm(_ context.Context, param any) error {
	o, err := dsl.As[Order](param)
	if err != nil {
		return err
	}
	d.printf("order confirmed: %s", o.ID)
	return nil
}

func (d *Desk) SignAndRecord(_ context.Context, param any) error {
	o, err := dsl.As[Order](param)
	if err != nil {
		return err
	}
	d.printf("signed and recorded: %s", o.ID)
	return nil
}
