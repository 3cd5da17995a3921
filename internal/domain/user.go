package domain

// User is the recycler profile shown on the profile screen.
type User struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Credits      int     `json:"credits" yaml:"credits"`
	CarbonSaved  float64 `json:"carbonSaved" yaml:"carbonSaved"`
	Rank         string  `json:"rank" yaml:"rank"`
	Neighborhood string  `json:"neighborhood" yaml:"neighborhood"`
}
