package camera

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiliankoe/faceoff/internal/game"
)

// Smallest valid PNG header; enough for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func startCapture(t *testing.T, r *Remote, ctx context.Context, slot game.Slot) <-chan result {
	t.Helper()
	out := make(chan result, 1)
	go func() {
		img, err := r.Capture(ctx, slot)
		out <- result{img, err}
	}()
	deadline := time.Now().Add(time.Second)
	for !r.Pending(slot) {
		if time.Now().After(deadline) {
			t.Fatal("capture never became pending")
		}
		time.Sleep(time.Millisecond)
	}
	return out
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for capture")
	}
	return result{}
}

func TestDeliverImage(t *testing.T) {
	var notified []game.Slot
	r := New(func(s game.Slot) { notified = append(notified, s) })
	ch := startCapture(t, r, context.Background(), game.PlayerB)

	img, err := r.Deliver(game.PlayerB, pngHeader)
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if img.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %s", img.ContentType)
	}
	res := await(t, ch)
	if res.err != nil || res.img != img {
		t.Fatalf("expected delivered image, got %v", res.err)
	}
	if len(notified) != 1 || notified[0] != game.PlayerB {
		t.Fatalf("expected one notification for PlayerB, got %v", notified)
	}
	if r.Pending(game.PlayerB) {
		t.Fatal("expected nothing pending after delivery")
	}
}

func TestDeliverRejectsNonImage(t *testing.T) {
	r := New(nil)
	ch := startCapture(t, r, context.Background(), game.PlayerA)

	if _, err := r.Deliver(game.PlayerA, []byte("hello, world")); !errors.Is(err, ErrNotAnImage) {
		t.Fatalf("expected ErrNotAnImage, got %v", err)
	}
	if !r.Pending(game.PlayerA) {
		t.Fatal("expected capture still pending after bad upload")
	}
	_ = r.Cancel(game.PlayerA)
	await(t, ch)
}

func TestDeliverWithoutRequest(t *testing.T) {
	r := New(nil)
	if _, err := r.Deliver(game.PlayerA, pngHeader); !errors.Is(err, ErrNoPendingCapture) {
		t.Fatalf("expected ErrNoPendingCapture, got %v", err)
	}
}

func TestCancelAndUnavailable(t *testing.T) {
	r := New(nil)

	ch := startCapture(t, r, context.Background(), game.PlayerA)
	if err := r.Cancel(game.PlayerA); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res := await(t, ch); !errors.Is(res.err, game.ErrCaptureCancelled) {
		t.Fatalf("expected ErrCaptureCancelled, got %v", res.err)
	}

	ch = startCapture(t, r, context.Background(), game.PlayerA)
	if err := r.Unavailable(game.PlayerA); err != nil {
		t.Fatalf("unavailable: %v", err)
	}
	if res := await(t, ch); !errors.Is(res.err, game.ErrCameraUnavailable) {
		t.Fatalf("expected ErrCameraUnavailable, got %v", res.err)
	}
}

func TestSecondCaptureBusy(t *testing.T) {
	r := New(nil)
	ch := startCapture(t, r, context.Background(), game.PlayerA)

	if _, err := r.Capture(context.Background(), game.PlayerA); !errors.Is(err, ErrCaptureBusy) {
		t.Fatalf("expected ErrCaptureBusy, got %v", err)
	}
	_ = r.Cancel(game.PlayerA)
	await(t, ch)
}

func TestCaptureContextCancelled(t *testing.T) {
	r := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	ch := startCapture(t, r, ctx, game.PlayerB)

	cancel()
	if res := await(t, ch); !errors.Is(res.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", res.err)
	}
	if r.Pending(game.PlayerB) {
		t.Fatal("expected cancelled capture removed")
	}
	if err := r.Cancel(game.PlayerB); !errors.Is(err, ErrNoPendingCapture) {
		t.Fatalf("expected ErrNoPendingCapture, got %v", err)
	}
}
