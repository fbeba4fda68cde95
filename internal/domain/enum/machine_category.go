package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// MachineCategory is the fixed classification of inventory items.
// Stored as its lower-case name.
type MachineCategory string

const (
	CategoryExcavator  MachineCategory = "excavator"
	CategoryLoader     MachineCategory = "loader"
	CategoryGenerator  MachineCategory = "generator"
	CategoryCompressor MachineCategory = "compressor"
	CategoryPump       MachineCategory = "pump"
	CategoryTractor    MachineCategory = "tractor"
	CategoryForklift   MachineCategory = "forklift"
	CategoryCrane      MachineCategory = "crane"
	CategoryDrill      MachineCategory = "drill"
	CategorySparePart  MachineCategory = "spare_part"
	CategoryOther      MachineCategory = "other"
)

// MachineCategories lists every accepted category
var MachineCategories = []MachineCategory{
	CategoryExcavator, CategoryLoader, CategoryGenerator, CategoryCompressor,
	CategoryPump, CategoryTractor, CategoryForklift, CategoryCrane,
	CategoryDrill, CategorySparePart, CategoryOther,
}

func (c MachineCategory) String() string {
	return string(c)
}

func (c MachineCategory) Valid() bool {
	for _, known := range MachineCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseMachineCategory is case-insensitive and accepts "spare part" / "spare-part"
func ParseMachineCategory(s string) (MachineCategory, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := MachineCategory(norm)
	if !c.Valid() {
		return "", fmt.Errorf("invalid machine category %q", s)
	}
	return c, nil
}

func (c *MachineCategory) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseMachineCategory(str)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c MachineCategory) Value() (driver.Value, error) {
	return string(c), nil
}

func (c *MachineCategory) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = CategoryOther
	case string:
		*c = MachineCategory(v)
	case []byte:
		*c = MachineCategory(v)
	}
	return nil
}
