package domain

// ItemCategory classifies a scanned device.
type ItemCategory string

const (
	ItemPhone      ItemCategory = "Phone"
	ItemBattery    ItemCategory = "Battery"
	ItemLaptop     ItemCategory = "Laptop"
	ItemCable      ItemCategory = "Cable"
	ItemPeripheral ItemCategory = "Peripheral"
)

// ItemCondition is the assessed state of a scanned device.
type ItemCondition string

const (
	ConditionGood    ItemCondition = "Good"
	ConditionDamaged ItemCondition = "Damaged"
	ConditionBroken  ItemCondition = "Broken"
)

// ScannedItem is a static catalog entry returned by the scanner.
type ScannedItem struct {
	ID             string        `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Category       ItemCategory  `json:"category" yaml:"category"`
	Condition      ItemCondition `json:"condition" yaml:"condition"`
	EstimatedValue float64       `json:"estimatedValue" yaml:"estimatedValue"`
	CarbonValue    float64       `json:"carbonValue" yaml:"carbonValue"`
	Repairable     bool          `json:"repairable" yaml:"repairable"`
	RepairShops    []string      `json:"repairShops,omitempty" yaml:"repairShops,omitempty"`
}

// Clone returns a copy with its own repair shop slice.
func (s ScannedItem) Clone() ScannedItem {
	if s.RepairShops != nil {
		s.RepairShops = append([]string(nil), s.RepairShops...)
	}
	return s
}
