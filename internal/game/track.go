package game

// Track is the mutable UI and result state of one slot.
type Track struct {
	Photo              *Photo
	ScoreText          string
	Results            string
	CaptureEnabled     bool
	CaptureRowVisible  bool
	ScoreButtonEnabled bool
	ScoreButtonVisible bool
	Scoring            bool
	PhotoVisible       bool
}

func defaultTrack() Track {
	return Track{CaptureEnabled: true, CaptureRowVisible: true}
}

func (t Track) HasPhoto() bool { return t.Photo != nil }

// controls is the part of the enablement touched when a turn starts and
// restored when it ends.
type controls struct {
	otherCapture bool
	ownScore     bool
}

// TrackView is the JSON shape of a track sent to the presentation layer.
type TrackView struct {
	Player             int    `json:"player"`
	HasPhoto           bool   `json:"hasPhoto"`
	PhotoID            string `json:"photoId,omitempty"`
	ScoreText          string `json:"scoreText"`
	CaptureEnabled     bool   `json:"captureEnabled"`
	CaptureRowVisible  bool   `json:"captureRowVisible"`
	ScoreButtonEnabled bool   `json:"scoreButtonEnabled"`
	ScoreButtonVisible bool   `json:"scoreButtonVisible"`
	Scoring            bool   `json:"scoring"`
	PhotoVisible       bool   `json:"photoVisible"`
}

func (t *Track) view(s Slot) TrackView {
	v := TrackView{
		Player:             s.Number(),
		HasPhoto:           t.HasPhoto(),
		ScoreText:          t.ScoreText,
		CaptureEnabled:     t.CaptureEnabled,
		CaptureRowVisible:  t.CaptureRowVisible,
		ScoreButtonEnabled: t.ScoreButtonEnabled,
		ScoreButtonVisible: t.ScoreButtonVisible,
		Scoring:            t.Scoring,
		PhotoVisible:       t.PhotoVisible,
	}
	if t.Photo != nil {
		v.PhotoID = t.Photo.ID
	}
	return v
}
