package domain

// ProfileField names one of the per-driver attributes that survive across
// rides within the process lifetime.
type ProfileField string

const (
	FieldPlate ProfileField = "plate"
	FieldPhoto ProfileField = "photo"
	FieldColor ProfileField = "color"
)

// IsValid checks if the field name is one the profile knows.
func (f ProfileField) IsValid() bool {
	switch f {
	case FieldPlate, FieldPhoto, FieldColor:
		return true
	}
	return false
}

// DriverProfile holds the vehicle attributes a driver supplies once and
// reuses on every subsequent ride posting.
type DriverProfile struct {
	plate    string
	photoRef string // opaque handle to the stored vehicle photo
	color    string
}

// Set writes one field. Unknown field names fail with ErrInvalidField.
func (p *DriverProfile) Set(field ProfileField, value string) error {
	switch field {
	case FieldPlate:
		p.plate = value
	case FieldPhoto:
		p.photoRef = value
	case FieldColor:
		p.color = value
	default:
		return ErrInvalidField
	}
	return nil
}

// Has reports whether the field already carries a value.
func (p *DriverProfile) Has(field ProfileField) bool {
	switch field {
	case FieldPlate:
		return p.plate != ""
	case FieldPhoto:
		return p.photoRef != ""
	case FieldColor:
		return p.color != ""
	}
	return false
}

// FirstMissing returns the first absent field in collection order, or false
// when the profile is complete.
func (p *DriverProfile) FirstMissing() (ProfileField, bool) {
	for _, f := range []ProfileField{FieldPlate, FieldPhoto, FieldColor} {
		if !p.Has(f) {
			return f, true
		}
	}
	return "", false
}

// IsComplete checks that every profile field is present.
func (p *DriverProfile) IsComplete() bool {
	_, missing := p.FirstMissing()
	return !missing
}

// Getters (encapsulation)

func (p *DriverProfile) Plate() string    { return p.plate }
func (p *DriverProfile) PhotoRef() string { return p.photoRef }
func (p *DriverProfile) Color() string    { return p.color }
