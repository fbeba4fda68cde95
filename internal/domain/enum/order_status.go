package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus int

const (
	OrderStatusProcessing OrderStatus = 0
	OrderStatusCompleted  OrderStatus = 1
	OrderStatusCancelled  OrderStatus = 2
	OrderStatusReturned   OrderStatus = 3
)

var orderStatusNames = [...]string{"Processing", "Completed", "Cancelled", "Returned"}

func (s OrderStatus) String() string {
	if !s.Valid() {
		return "Processing"
	}
	return orderStatusNames[s]
}

// Valid reports whether s is one of the known statuses
func (s OrderStatus) Valid() bool {
	return s >= OrderStatusProcessing && int(s) < len(orderStatusNames)
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !OrderStatus(i).Valid() {
			return fmt.Errorf("invalid order status %d", i)
		}
		*s = OrderStatus(i)
		return nil
	}
	parsed, err := ParseOrderStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseOrderStatus maps a status name to its value, ignoring case
func ParseOrderStatus(str string) (OrderStatus, error) {
	for i, name := range orderStatusNames {
		if strings.EqualFold(name, str) {
			return OrderStatus(i), nil
		}
	}
	return OrderStatusProcessing, fmt.Errorf("invalid order status %q", str)
}

func (s OrderStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	if value == nil {
		*s = OrderStatusProcessing
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = OrderStatus(v)
	case int32:
		*s = OrderStatus(v)
	case int:
		*s = OrderStatus(v)
	}
	return nil
}
