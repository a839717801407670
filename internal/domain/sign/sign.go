// Package sign holds the pose keyframe model and the immutable sign dictionary.
package sign

import (
	"fmt"
	"sort"
	"strings"
)

// HandShape tags a hand configuration. The set is open: any non-empty tag is
// valid, the constants below are the shapes shipped with the built-in table.
type HandShape string

// Known hand shapes.
const (
	PalmOut    HandShape = "palm-out"
	Fist       HandShape = "fist"
	PalmUp     HandShape = "palm-up"
	Flat       HandShape = "flat"
	Relaxed    HandShape = "relaxed"
	Open       HandShape = "open"
	Pinch      HandShape = "pinch"
	IndexPoint HandShape = "index-point"
)

// PoseKeyframe is one body configuration in a sign's animation.
type PoseKeyframe struct {
	LeftArmAngle   float64   `json:"left_arm" koanf:"left_arm"`
	RightArmAngle  float64   `json:"right_arm" koanf:"right_arm"`
	LeftHandShape  HandShape `json:"left_hand" koanf:"left_hand"`
	RightHandShape HandShape `json:"right_hand" koanf:"right_hand"`
	Description    string    `json:"description" koanf:"description"`
}

// DefaultPose is the idle pose and the fallback for unknown words.
var DefaultPose = PoseKeyframe{
	LeftArmAngle:   30,
	RightArmAngle:  30,
	LeftHandShape:  Relaxed,
	RightHandShape: Relaxed,
	Description:    "Neutral position",
}

// Dictionary maps normalized words and phrases to keyframe sequences.
// It is read-only after construction and safe for concurrent use.
type Dictionary struct {
	entries map[string][]PoseKeyframe
	words   []string
}

// New validates entries and returns a frozen dictionary. Keys are normalized;
// two keys that normalize to the same phrase are rejected.
func New(entries map[string][]PoseKeyframe) (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string][]PoseKeyframe, len(entries))}
	for raw, frames := range entries {
		key := Normalize(raw)
		if key == "" {
			return nil, fmt.Errorf("%w: empty word", ErrInvalidEntry)
		}
		if _, dup := d.entries[key]; dup {
			return nil, fmt.Errorf("%w: duplicate word %q", ErrInvalidEntry, key)
		}
		if len(frames) == 0 {
			return nil, fmt.Errorf("%w: %q has no keyframes", ErrInvalidEntry, key)
		}
		for i, f := range frames {
			if f.LeftHandShape == "" || f.RightHandShape == "" {
				return nil, fmt.Errorf("%w: %q keyframe %d has no hand shape", ErrInvalidEntry, key, i)
			}
		}
		d.entries[key] = append([]PoseKeyframe(nil), frames...)
		d.words = append(d.words, key)
	}
	sort.Strings(d.words)
	return d, nil
}

// Lookup returns a copy of the sequence for the whole normalized phrase.
func (d *Dictionary) Lookup(word string) ([]PoseKeyframe, bool) {
	frames, ok := d.entries[Normalize(word)]
	if !ok {
		return nil, false
	}
	return append([]PoseKeyframe(nil), frames...), true
}

// Contains reports whether the phrase is a key.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.entries[Normalize(word)]
	return ok
}

// Words returns the sorted keys.
func (d *Dictionary) Words() []string {
	return append([]string(nil), d.words...)
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// Normalize lowercases, trims and collapses internal whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// FirstToken returns the first whitespace-separated token of the normalized
// text, or "" when there is none.
func FirstToken(text string) string {
	fields := strings.Fields(strings.ToLower(text))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
