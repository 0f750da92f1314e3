package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

type DistanceGroup struct {
	Name  string  `json:"name" validate:"required,max=50"`
	MinKM float64 `json:"min_km" validate:"gte=0"`
	MaxKM float64 `json:"max_km" validate:"gtefield=MinKM"`
	Fee   float64 `json:"fee" validate:"gte=0"`
}

type DistanceGroups []DistanceGroup

func (d *DistanceGroups) Scan(value interface{}) error {
	return scanJSON(value, d)
}

func (d DistanceGroups) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	return jsonValue([]DistanceGroup(d))
}

// Find returns the group with the given name.
func (d DistanceGroups) Find(name string) (DistanceGroup, bool) {
	for _, g := range d {
		if g.Name == name {
			return g, true
		}
	}
	return DistanceGroup{}, false
}

// Duplicate returns the first repeated group name, or "".
func (d DistanceGroups) Duplicate() string {
	seen := make(map[string]bool, len(d))
	for _, g := range d {
		if seen[g.Name] {
			return g.Name
		}
		seen[g.Name] = true
	}
	return ""
}

type TransportRoute struct {
	ID             string         `json:"id" db:"id"`
	BranchID       string         `json:"branch_id" db:"branch_id"`
	Name           string         `json:"name" db:"name"`
	VehicleNo      string         `json:"vehicle_no" db:"vehicle_no"`
	DriverName     string         `json:"driver_name" db:"driver_name"`
	DriverPhone    string         `json:"driver_phone" db:"driver_phone"`
	Stops          pq.StringArray `json:"stops" db:"stops"`
	DistanceGroups DistanceGroups `json:"distance_groups" db:"distance_groups"`
	Status         string         `json:"status" db:"status"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`

	StudentCount int `json:"student_count" db:"student_count"`
}
