// Package emotion holds the fixed catalog of emotions a photo is scored against.
package emotion

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

type Kind int

const (
	Anger Kind = iota
	Contempt
	Disgust
	Fear
	Happiness
	Neutral
	Sadness
	Surprise
)

// Count is the number of kinds in the catalog.
const Count = 8

var ErrUnknownKind = errors.New("unknown emotion")

var labels = [Count]string{"Anger", "Contempt", "Disgust", "Fear", "Happiness", "Neutral", "Sadness", "Surprise"}

// phrases complete "take a selfie looking ..."
var phrases = [Count]string{"angry", "disrespectful", "disgusted", "scared", "happy", "blank", "sad", "surprised"}

// All returns every kind in catalog order.
func All() []Kind {
	out := make([]Kind, Count)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) Valid() bool { return k >= 0 && k < Count }

func (k Kind) Label() string {
	if !k.Valid() {
		return ""
	}
	return labels[k]
}

func (k Kind) PromptPhrase() string {
	if !k.Valid() {
		return ""
	}
	return phrases[k]
}

func (k Kind) String() string { return k.Label() }

// Parse looks a kind up by its label, ignoring case.
func Parse(label string) (Kind, error) {
	for i, l := range labels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return Kind(i), nil
		}
	}
	return 0, ErrUnknownKind
}

// Pick draws a kind uniformly. A nil rnd uses the shared source.
func Pick(rnd *rand.Rand) Kind {
	if rnd == nil {
		return Kind(rand.Intn(Count))
	}
	return Kind(rnd.Intn(Count))
}

// PickExcluding draws until the result differs from previous.
func PickExcluding(rnd *rand.Rand, previous Kind) Kind {
	for {
		k := Pick(rnd)
		if k != previous {
			return k
		}
	}
}

// Scores holds one face's confidence per kind, each in [0,1].
type Scores [Count]float64

func (s Scores) Get(k Kind) float64 {
	if !k.Valid() {
		return 0
	}
	return s[k]
}

// FormatPercent renders v as a percentage rounded to at most two decimals,
// trailing zeros trimmed: 0.4567 -> "45.67%", 0.5 -> "50%".
func FormatPercent(v float64) string {
	p := math.Round(v*10000) / 100
	if p == 0 {
		p = 0 // drop negative zero
	}
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// Breakdown lists every kind with its percentage, one per line in catalog order.
func Breakdown(s Scores) string {
	var sb strings.Builder
	for i, l := range labels {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l)
		sb.WriteString(": ")
		sb.WriteString(FormatPercent(s[i]))
	}
	return sb.String()
}
