package game

import "context"

// Bridge is the presentation layer as seen by a session. Outbound calls are
// fire-and-forget notifications; implementations must not block.
type Bridge interface {
	ConsentRequested(slot Slot, title, message string)
	MultipleFacesDetected()
	NoCameraAvailable()
	RevealPhoto(slot Slot)
	RevealScoreButton(slot Slot)
	AllResultsRequested(slot Slot, text string)
	SessionChanged(snap Snapshot)

	// PhotoRevealReady and ScoreRevealReady return channels closed once the
	// presentation layer listens for the matching reveal of slot.
	PhotoRevealReady(slot Slot) <-chan struct{}
	ScoreRevealReady(slot Slot) <-chan struct{}
}

// Camera captures a photo for a slot. It returns ErrCameraUnavailable when no
// device can take pictures and ErrCaptureCancelled when the player backs out.
type Camera interface {
	Capture(ctx context.Context, slot Slot) (*Image, error)
}
