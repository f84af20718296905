package domain

// MalaysiaLocation is one gazetteer entry.
type MalaysiaLocation struct {
	Name      string   `json:"name" yaml:"name"`
	State     string   `json:"state" yaml:"state"`
	Latitude  float64  `json:"latitude" yaml:"latitude"`
	Longitude float64  `json:"longitude" yaml:"longitude"`
	Aliases   []string `json:"aliases" yaml:"aliases"`
}
