package enum

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PaymentMethod represents how a settlement is paid
type PaymentMethod int

const (
	PaymentMethodCash     PaymentMethod = 1
	PaymentMethodCard     PaymentMethod = 2
	PaymentMethodTransfer PaymentMethod = 3
	PaymentMethodOther    PaymentMethod = 4
)

var paymentMethodNames = map[PaymentMethod]string{
	PaymentMethodCash:     "CASH",
	PaymentMethodCard:     "CARD",
	PaymentMethodTransfer: "TRANSFER",
	PaymentMethodOther:    "OTHER",
}

// labels used by the remote sales service
var paymentMethodLabels = map[PaymentMethod]string{
	PaymentMethodCash:     "EFECTIVO",
	PaymentMethodCard:     "TARJETA",
	PaymentMethodTransfer: "TRANSFERENCIA",
	PaymentMethodOther:    "OTRO",
}

func (m PaymentMethod) String() string {
	if name, ok := paymentMethodNames[m]; ok {
		return name
	}
	return "UNKNOWN"
}

// Label returns the wire label sent to the remote sales service.
func (m PaymentMethod) Label() string {
	return paymentMethodLabels[m]
}

// IsValid reports whether m is one of the four accepted methods.
func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethodNames[m]
	return ok
}

// ParsePaymentMethod accepts either the English name or the wire label,
// case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for m, name := range paymentMethodNames {
		if s == name || s == paymentMethodLabels[m] {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown payment method %q", s)
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = PaymentMethod(i)
		return nil
	}
	parsed, err := ParsePaymentMethod(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
