package deform

// PressureModel converts a vertical ground reaction force into pressure.
type PressureModel struct{}

// Pressure returns force / area, or 0 when there is no contact area.
func (PressureModel) Pressure(verticalForce, contactArea float64) float64 {
	if contactArea <= 0 {
		return 0
	}
	return verticalForce / contactArea
}
