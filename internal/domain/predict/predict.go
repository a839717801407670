// Package predict defines the contract for the external gesture classifier
// and how its labels map onto the sign dictionary.
package predict

import (
	"context"

	"github.com/okian/signconnect/internal/domain/sign"
)

// NoHandLabel is returned by the classifier when no hand is in the frame.
const NoHandLabel = "No Hand Detected"

// Image is one captured camera frame.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Predictor classifies a captured frame into a raw label.
type Predictor interface {
	// Predict returns the classifier label, honoring ctx for cancellation.
	Predict(ctx context.Context, img Image) (string, error)
}

// Dictionary is the subset of the sign dictionary used to interpret labels.
type Dictionary interface {
	Contains(word string) bool
}

// Result is an interpreted classifier label.
type Result struct {
	Label        string
	Word         string
	HandDetected bool
	Known        bool
}

// Interpret maps a raw label onto the dictionary. Labels are matched as
// whole phrases, so "Thank You" resolves to the "thank you" entry.
func Interpret(label string, dict Dictionary) Result {
	if label == NoHandLabel {
		return Result{Label: label}
	}
	word := sign.Normalize(label)
	r := Result{Label: label, Word: word, HandDetected: true}
	if word != "" && dict != nil {
		r.Known = dict.Contains(word)
	}
	return r
}
