package domain

import "fmt"

// RideDraft is the transient bag of fields assembled by the creation
// dialogue. It never outlives the dialogue session that owns it.
type RideDraft struct {
	Plate    string
	PhotoRef string
	Color    string

	StartName string
	EndName   string
	Price     string

	// GPS share is optional; HasCoords distinguishes "declined" from (0, 0).
	Latitude  float64
	Longitude float64
	HasCoords bool
}

// FromProfile seeds a draft with whatever the profile already carries.
func (d *RideDraft) FromProfile(p *DriverProfile) {
	if p == nil {
		return
	}
	d.Plate = p.Plate()
	d.PhotoRef = p.PhotoRef()
	d.Color = p.Color()
}

// IsComplete checks that every required field is present. Coordinates are
// not required.
func (d *RideDraft) IsComplete() bool {
	return d.Plate != "" && d.PhotoRef != "" && d.Color != "" &&
		d.StartName != "" && d.EndName != "" && d.Price != ""
}

// Route renders the start → end description the driver is notified with.
func (d *RideDraft) Route() string {
	return fmt.Sprintf("%s → %s", d.StartName, d.EndName)
}
