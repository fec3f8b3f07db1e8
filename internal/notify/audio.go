package notify

import "io"

// AudioCue plays a short sound next to a delivered notification. Failures
// are never shown to the user.
type AudioCue interface {
	Play() error
}

type NoopCue struct{}

func (NoopCue) Play() error { return nil }

// BellCue rings the terminal bell.
type BellCue struct {
	W io.Writer
}

func (b BellCue) Play() error {
	if b.W == nil {
		return nil
	}
	_, err := io.WriteString(b.W, "\a")
	return err
}
