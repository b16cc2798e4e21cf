package emotion

import (
	"math/rand"
	"strings"
	"testing"
)

func TestCatalogOrder(t *testing.T) {
	want := []string{"Anger", "Contempt", "Disgust", "Fear", "Happiness", "Neutral", "Sadness", "Surprise"}
	all := All()
	if len(all) != len(want) {
		t.Fatalf("expected %d kinds, got %d", len(want), len(all))
	}
	for i, k := range all {
		if k.Label() != want[i] {
			t.Fatalf("expected label %s at %d, got %s", want[i], i, k.Label())
		}
	}
	if Happiness.PromptPhrase() != "happy" {
		t.Fatalf("expected prompt phrase happy, got %s", Happiness.PromptPhrase())
	}
	if Contempt.PromptPhrase() != "disrespectful" {
		t.Fatalf("expected prompt phrase disrespectful, got %s", Contempt.PromptPhrase())
	}
}

func TestPickExcludingNeverReturnsPrevious(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for _, prev := range All() {
		for i := 0; i < 1000; i++ {
			if got := PickExcluding(rnd, prev); got == prev {
				t.Fatalf("PickExcluding(%s) returned the excluded kind", prev)
			}
		}
	}
}

func TestPickCoversCatalog(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	seen := map[Kind]bool{}
	for i := 0; i < 1000; i++ {
		k := Pick(rnd)
		if !k.Valid() {
			t.Fatalf("picked invalid kind %d", k)
		}
		seen[k] = true
	}
	if len(seen) != Count {
		t.Fatalf("expected all %d kinds drawn, got %d", Count, len(seen))
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{
		0.0:    "0%",
		1.0:    "100%",
		0.4567: "45.67%",
		0.5:    "50%",
		0.125:  "12.5%",
		0.8:    "80%",
		0.0001: "0.01%",
	}
	for in, want := range cases {
		if got := FormatPercent(in); got != want {
			t.Fatalf("FormatPercent(%v): expected %s, got %s", in, want, got)
		}
	}
}

func TestBreakdown(t *testing.T) {
	var s Scores
	s[Happiness] = 1.0
	got := Breakdown(s)
	lines := strings.Split(got, "\n")
	if len(lines) != Count {
		t.Fatalf("expected %d lines, got %d: %q", Count, len(lines), got)
	}
	if lines[0] != "Anger: 0%" {
		t.Fatalf("expected first line Anger: 0%%, got %s", lines[0])
	}
	if lines[4] != "Happiness: 100%" {
		t.Fatalf("expected Happiness: 100%%, got %s", lines[4])
	}
	if strings.HasSuffix(got, "\n") {
		t.Fatal("breakdown should not end with a newline")
	}
}

func TestParse(t *testing.T) {
	k, err := Parse("surprise")
	if err != nil || k != Surprise {
		t.Fatalf("expected Surprise, got %v (%v)", k, err)
	}
	if _, err := Parse("boredom"); err != ErrUnknownKind {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
