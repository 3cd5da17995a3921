package domain

import (
	"errors"
	"time"
)

// BinCategory is the kind of waste a bin accepts.
type BinCategory string

const (
	BinGeneral BinCategory = "General"
	BinBattery BinCategory = "Battery"
	BinMobile  BinCategory = "Mobile"
)

// BinStatus is the operational status of a bin.
type BinStatus string

const (
	BinActive      BinStatus = "Active"
	BinFull        BinStatus = "Full"
	BinMaintenance BinStatus = "Maintenance"
)

const (
	MinFillLevel = 0
	MaxFillLevel = 100

	// CriticalFillLevel is the level above which a bin is flagged red on the map.
	CriticalFillLevel = 80
)

// ErrBinNotFound is returned by lookups for an unknown bin id.
var ErrBinNotFound = errors.New("bin not found")

// Bin is a physical collection point.
type Bin struct {
	ID             string      `json:"id" yaml:"id"`
	Lat            float64     `json:"lat" yaml:"lat"`
	Lng            float64     `json:"lng" yaml:"lng"`
	Category       BinCategory `json:"type" yaml:"type"`
	FillLevel      int         `json:"fillLevel" yaml:"fillLevel"`
	Status         BinStatus   `json:"status" yaml:"status"`
	Address        string      `json:"address" yaml:"address"`
	LastCollection *time.Time  `json:"lastCollection,omitempty" yaml:"lastCollection,omitempty"`
}

// Critical reports whether the bin is close to overflowing.
func (b Bin) Critical() bool {
	return b.FillLevel > CriticalFillLevel
}

// Collect empties the bin and marks it active again.
func (b *Bin) Collect(at time.Time) {
	b.FillLevel = MinFillLevel
	b.Status = BinActive
	ts := at
	b.LastCollection = &ts
}

// Clone returns a copy that does not share the collection timestamp.
func (b Bin) Clone() Bin {
	if b.LastCollection != nil {
		ts := *b.LastCollection
		b.LastCollection = &ts
	}
	return b
}

// ClampFillLevel bounds a level to [MinFillLevel, MaxFillLevel].
func ClampFillLevel(level int) int {
	if level < MinFillLevel {
		return MinFillLevel
	}
	if level > MaxFillLevel {
		return MaxFillLevel
	}
	return level
}
