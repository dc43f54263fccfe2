package synth

// Common seasonal multipliers for attendance months
const (
	NormalMultiplier        = 1.0
	LowAttendanceMultiplier = 0.95
	HolidayMultiplier       = 0.90
)

// SeasonalTable maps a period label to an attendance multiplier
type SeasonalTable map[string]float64

// Multiplier returns the multiplier for label, 1.0 when the label is not listed
func (t SeasonalTable) Multiplier(label string) float64 {
	if m, ok := t[label]; ok && m > 0 {
		return m
	}
	return NormalMultiplier
}
