package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentStatus represents how much of an order has been settled
type PaymentStatus int

const (
	PaymentStatusPending  PaymentStatus = 0
	PaymentStatusPaid     PaymentStatus = 1
	PaymentStatusPartial  PaymentStatus = 2
	PaymentStatusRefunded PaymentStatus = 3
)

var paymentStatusNames = [...]string{"Pending", "Paid", "Partial", "Refunded"}

func (p PaymentStatus) String() string {
	if !p.Valid() {
		return "Pending"
	}
	return paymentStatusNames[p]
}

func (p PaymentStatus) Valid() bool {
	return p >= PaymentStatusPending && int(p) < len(paymentStatusNames)
}

func (p PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !PaymentStatus(i).Valid() {
			return fmt.Errorf("invalid payment status %d", i)
		}
		*p = PaymentStatus(i)
		return nil
	}
	for i, name := range paymentStatusNames {
		if name == str {
			*p = PaymentStatus(i)
			return nil
		}
	}
	return fmt.Errorf("invalid payment status %q", str)
}

func (p PaymentStatus) Value() (driver.Value, error) {
	return int64(p), nil
}

func (p *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentStatusPending
		return nil
	}
	switch v := value.(type) {
	case int64:
		*p = PaymentStatus(v)
	case int32:
		*p = PaymentStatus(v)
	case int:
		*p = PaymentStatus(v)
	}
	return nil
}
