package tts

// Voice identifies a synthesis voice on the backing service.
type Voice struct {
	// Name is the provider-specific voice identifier
	// (e.g., "en-US-JennyNeural").
	Name string

	// Rate adjusts speaking rate as a relative factor (0.5–2.0, 1.0 = default).
	// Zero means "provider default".
	Rate float64

	// Pitch adjusts voice pitch in relative semitones (-10 to +10, 0 = default).
	Pitch float64
}
