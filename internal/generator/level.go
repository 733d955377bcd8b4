package generator

import (
	"strings"

	"github.com/yeqown/go-qrcode/v2"
)

// Level is the QR error correction level. Higher levels tolerate more
// damage at the cost of data capacity.
type Level int

const (
	LevelLow      Level = iota // recovers ~7% of codewords
	LevelMedium                // ~15%
	LevelQuartile              // ~25%
	LevelHigh                  // ~30%
)

// Labels as shown in the error-correction dropdown, in robustness order.
var levelLabels = []string{
	"Low (7%)",
	"Medium (15%)",
	"Quartile (25%)",
	"High (30%)",
}

// Labels returns the four selectable error-correction labels.
func Labels() []string {
	out := make([]string, len(levelLabels))
	copy(out, levelLabels)
	return out
}

// ParseLevel maps a human-readable label to a Level. Both the dropdown
// labels ("Medium (15%)") and bare names ("medium", "m") are accepted;
// anything unknown defaults to Medium.
func ParseLevel(label string) Level {
	for i, l := range levelLabels {
		if label == l {
			return Level(i)
		}
	}
	switch {
	case equalsAny(label, "low", "l"):
		return LevelLow
	case equalsAny(label, "medium", "m"):
		return LevelMedium
	case equalsAny(label, "quartile", "quart", "q"):
		return LevelQuartile
	case equalsAny(label, "high", "h"):
		return LevelHigh
	}
	return LevelMedium
}

func equalsAny(s string, candidates ...string) bool {
	for _, c := range candidates {
		if strings.EqualFold(s, c) {
			return true
		}
	}
	return false
}

// String returns the dropdown label for the level.
func (l Level) String() string {
	if l < LevelLow || l > LevelHigh {
		return levelLabels[LevelMedium]
	}
	return levelLabels[l]
}

// ErrorCorrection returns the encode option selecting this level's error
// correction, preserving the Low < Medium < Quartile < High ordering.
func (l Level) ErrorCorrection() qrcode.EncodeOption {
	switch l {
	case LevelLow:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionLow)
	case LevelQuartile:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionQuart)
	case LevelHigh:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest)
	default:
		return qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionMedium)
	}
}
