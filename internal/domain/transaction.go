package domain

import "time"

// Transaction records one completed deposit.
type Transaction struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Item      string    `json:"item"`
	Weight    float64   `json:"weight"`
	Credits   int       `json:"credits"`
}
