// Package camera implements game.Camera for a browser that takes the photo.
//
// A capture request is announced to the player's device, which answers with an
// upload, a cancel or a report that it has no camera.
package camera

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/kiliankoe/faceoff/internal/game"
)

var (
	ErrNoPendingCapture = errors.New("no capture pending for player")
	ErrCaptureBusy      = errors.New("capture already pending for player")
	ErrNotAnImage       = errors.New("upload is not an image")
)

type result struct {
	img *game.Image
	err error
}

// Remote hands capture requests to a remote device and waits for its answer.
type Remote struct {
	notify func(slot game.Slot)

	mu      sync.Mutex
	pending map[game.Slot]chan result
}

// New returns a camera that calls notify whenever a capture is requested.
func New(notify func(slot game.Slot)) *Remote {
	return &Remote{notify: notify, pending: make(map[game.Slot]chan result)}
}

func (r *Remote) Capture(ctx context.Context, slot game.Slot) (*game.Image, error) {
	r.mu.Lock()
	if r.pending[slot] != nil {
		r.mu.Unlock()
		return nil, ErrCaptureBusy
	}
	ch := make(chan result, 1)
	r.pending[slot] = ch
	r.mu.Unlock()

	if r.notify != nil {
		r.notify(slot)
	}
	select {
	case res := <-ch:
		return res.img, res.err
	case <-ctx.Done():
		r.mu.Lock()
		if r.pending[slot] == ch {
			delete(r.pending, slot)
		}
		r.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Pending reports whether slot has an unanswered capture request.
func (r *Remote) Pending(slot game.Slot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending[slot] != nil
}

func (r *Remote) resolve(slot game.Slot, res result) error {
	r.mu.Lock()
	ch := r.pending[slot]
	delete(r.pending, slot)
	r.mu.Unlock()
	if ch == nil {
		return ErrNoPendingCapture
	}
	ch <- res
	return nil
}

// Deliver answers a pending capture with uploaded bytes. The content type is
// sniffed from the data; anything but an image is rejected and the capture
// stays pending.
func (r *Remote) Deliver(slot game.Slot, data []byte) (*game.Image, error) {
	if !r.Pending(slot) {
		return nil, ErrNoPendingCapture
	}
	img, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	if err := r.resolve(slot, result{img: img}); err != nil {
		return nil, err
	}
	return img, nil
}

// Cancel ends a pending capture as if the player closed the camera.
func (r *Remote) Cancel(slot game.Slot) error {
	return r.resolve(slot, result{err: game.ErrCaptureCancelled})
}

// Unavailable ends a pending capture because the device has no camera.
func (r *Remote) Unavailable(slot game.Slot) error {
	return r.resolve(slot, result{err: game.ErrCameraUnavailable})
}

// Sniff wraps data as an image, detecting its content type from the bytes.
func Sniff(data []byte) (*game.Image, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, ErrNotAnImage
	}
	return game.NewImage(mt.String(), data, nil), nil
}
