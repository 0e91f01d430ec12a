package models

import "time"

// ChromaticKeys is the 12-note chromatic key catalog, root candidates for
// the epoch key.
var ChromaticKeys = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ScaleModes lists the supported scale modes in catalog order.
var ScaleModes = []string{"pentatonic", "major", "minor", "dorian", "mixolydian", "lydian"}

// ScaleIntervals maps the six supported scale modes to semitone offsets
// from the root. Scale notes are derived by walking the chromatic set from
// the key root.
var ScaleIntervals = map[string][]int{
	"pentatonic": {0, 2, 4, 7, 9},
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"minor":      {0, 2, 3, 5, 7, 8, 10},
	"dorian":     {0, 2, 3, 5, 7, 9, 10},
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
	"lydian":     {0, 2, 4, 6, 7, 9, 11},
}

// DefaultScale is used when a nomination names a key without a scale.
const DefaultScale = "pentatonic"

// BPM bounds for epoch parameters and nominations.
const (
	MinBPM = 60
	MaxBPM = 200
)

// IsValidKey checks membership in the chromatic key catalog.
func IsValidKey(key string) bool {
	for _, k := range ChromaticKeys {
		if k == key {
			return true
		}
	}
	return false
}

// IsValidScale checks membership in the scale mode catalog.
func IsValidScale(scale string) bool {
	_, ok := ScaleIntervals[scale]
	return ok
}

// ScaleNotes derives the note names of a key/scale pair from the interval
// table. Unknown scales fall back to pentatonic, unknown keys to C.
func ScaleNotes(key, scale string) []string {
	root := 0
	for i, k := range ChromaticKeys {
		if k == key {
			root = i
			break
		}
	}
	intervals, ok := ScaleIntervals[scale]
	if !ok {
		intervals = ScaleIntervals[DefaultScale]
	}
	notes := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		notes = append(notes, ChromaticKeys[(root+iv)%12])
	}
	return notes
}

// Epoch is the current global musical parameter set, mutated only by the
// ritual cycle.
type Epoch struct {
	Epoch      int       `json:"epoch"`
	BPM        int       `json:"bpm"`
	Key        string    `json:"key"`
	Scale      string    `json:"scale"`
	ScaleNotes []string  `json:"scaleNotes"`
	StartedAt  time.Time `json:"startedAt"`
}
