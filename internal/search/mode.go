package search

import "fmt"

// Mode selects the search strategy. It is a closed set: every dispatch over
// Mode is an exhaustive switch so adding a mode is a compile-visible change.
type Mode int

const (
	// ModeMemory queries the in-memory lexical index.
	ModeMemory Mode = iota

	// ModeVectorText ranks posts by text-space embedding similarity.
	ModeVectorText

	// ModeVectorClipText ranks media by CLIP-space similarity to a text
	// query.
	ModeVectorClipText

	// ModeVectorClipImage ranks media by CLIP-space similarity to an
	// image query.
	ModeVectorClipImage
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeMemory:
		return "memory"
	case ModeVectorText:
		return "vector-text"
	case ModeVectorClipText:
		return "vector-clip-text"
	case ModeVectorClipImage:
		return "vector-clip-image"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a wire name into a Mode. "vector" is accepted as an
// alias for "vector-text".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "memory", "":
		return ModeMemory, nil
	case "vector", "vector-text":
		return ModeVectorText, nil
	case "vector-clip-text":
		return ModeVectorClipText, nil
	case "vector-clip-image":
		return ModeVectorClipImage, nil
	default:
		return ModeMemory, &ValidationError{Reason: fmt.Sprintf("unknown search mode %q", s)}
	}
}

// wantsImage reports whether the mode takes an image query instead of text.
func (m Mode) wantsImage() bool {
	return m == ModeVectorClipImage
}
