package enums

import "fmt"

// LocationKind classifies a stock location. Retail hubs are customer-facing
// sell-through points: they never act as restock sources and are excluded
// from low-stock alerting.
type LocationKind string

const (
	LocationKindWarehouse LocationKind = "warehouse"
	LocationKindRetailHub LocationKind = "retail_hub"
	LocationKindCustomer  LocationKind = "customer"
)

var validLocationKinds = []LocationKind{
	LocationKindWarehouse,
	LocationKindRetailHub,
	LocationKindCustomer,
}

// String implements fmt.Stringer.
func (l LocationKind) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LocationKind.
func (l LocationKind) IsValid() bool {
	for _, candidate := range validLocationKinds {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTransferSource reports whether stock may be pulled from this kind of
// location to restock or fulfill.
func (l LocationKind) IsTransferSource() bool {
	return l == LocationKindWarehouse
}

// ParseLocationKind converts the raw string to LocationKind.
func ParseLocationKind(value string) (LocationKind, error) {
	for _, candidate := range validLocationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid location kind %q", value)
}
