package billing

import (
	"fmt"
	"strings"

	"github.com/stluc/hms/internal/store"
)

// PaymentRequest is what the cashier enters for a payment. Which fields are
// required depends on the method.
type PaymentRequest struct {
	Method       string  `json:"method"`
	CashTendered float64 `json:"cash_tendered,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	CardNumber   string  `json:"card_number,omitempty"`
	CardExpiry   string  `json:"card_expiry,omitempty"`
	CardCVV      string  `json:"card_cvv,omitempty"`
	CardHolder   string  `json:"card_holder,omitempty"`
}

// Details validates the request against the amount due and returns what is
// kept on the transaction.
func (r PaymentRequest) Details(total float64) (*store.PaymentDetails, error) {
	if r.Method == "" {
		return nil, fmt.Errorf("%w: payment method is required", store.ErrInvalid)
	}
	m, ok := findMethod(r.Method)
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment method %q", store.ErrInvalid, r.Method)
	}

	switch {
	case m.ID == "cash":
		if r.CashTendered < total {
			return nil, fmt.Errorf("%w: cash tendered must be at least %.2f Gdes", store.ErrInvalid, total)
		}
		return &store.PaymentDetails{CashTendered: r.CashTendered, Change: r.CashTendered - total}, nil
	case m.Mobile:
		ref := strings.TrimSpace(r.Reference)
		if ref == "" {
			return nil, fmt.Errorf("%w: transaction reference is required for %s", store.ErrInvalid, m.Name)
		}
		return &store.PaymentDetails{Reference: ref}, nil
	case m.Card:
		number := strings.ReplaceAll(strings.TrimSpace(r.CardNumber), " ", "")
		if number == "" || strings.TrimSpace(r.CardExpiry) == "" || strings.TrimSpace(r.CardCVV) == "" || strings.TrimSpace(r.CardHolder) == "" {
			return nil, fmt.Errorf("%w: card number, expiry, CVV and holder are required", store.ErrInvalid)
		}
		return &store.PaymentDetails{CardLast4: lastFour(number), CardHolder: strings.TrimSpace(r.CardHolder)}, nil
	default:
		ref := strings.TrimSpace(r.Reference)
		if ref == "" {
			return nil, fmt.Errorf("%w: transfer reference is required", store.ErrInvalid)
		}
		return &store.PaymentDetails{Reference: ref}, nil
	}
}

func lastFour(number string) string {
	r := []rune(number)
	if len(r) <= 4 {
		return number
	}
	return string(r[len(r)-4:])
}
