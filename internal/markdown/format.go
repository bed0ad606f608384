package markdown

import (
	"fmt"
	"unicode/utf16"
)

// Action is an editor toolbar action
type Action string

const (
	ActionBold     Action = "bold"
	ActionItalic   Action = "italic"
	ActionHeading  Action = "heading"
	ActionBullet   Action = "bullet"
	ActionNumbered Action = "numbered"
	ActionLink     Action = "link"
	ActionImage    Action = "image"
	ActionQuote    Action = "quote"
	ActionCode     Action = "code"
)

var actionMarkers = map[Action][2]string{
	ActionBold:     {"**", "**"},
	ActionItalic:   {"*", "*"},
	ActionHeading:  {"## ", ""},
	ActionBullet:   {"- ", ""},
	ActionNumbered: {"1. ", ""},
	ActionLink:     {"[", "](url)"},
	ActionImage:    {"![alt text](", ")"},
	ActionQuote:    {"> ", ""},
	ActionCode:     {"`", "`"},
}

// Format wraps the range [start, end) of source in the markers of action and
// returns the new source with the cursor placed after the inserted text.
//
// Offsets and the cursor count UTF-16 code units, as browser selections do. They
// are clamped to the source, swapped when reversed, and moved off the middle of a
// surrogate pair.
func Format(source string, start, end int, action Action) (string, int, error) {
	markers, ok := actionMarkers[action]
	if !ok {
		return "", 0, fmt.Errorf("unknown format action %q", action)
	}

	units := utf16.Encode([]rune(source))
	start, end = clamp(start, len(units)), clamp(end, len(units))
	if start > end {
		start, end = end, start
	}
	start, end = unitBoundary(units, start), unitBoundary(units, end)

	before, after := utf16.Encode([]rune(markers[0])), utf16.Encode([]rune(markers[1]))
	selected := units[start:end]

	out := make([]uint16, 0, len(units)+len(before)+len(after))
	out = append(out, units[:start]...)
	out = append(out, before...)
	out = append(out, selected...)
	out = append(out, after...)
	out = append(out, units[end:]...)

	return string(utf16.Decode(out)), start + len(before) + len(selected) + len(after), nil
}

// ParseAction returns the action with the given name
func ParseAction(name string) (Action, bool) {
	a := Action(name)
	_, ok := actionMarkers[a]
	return a, ok
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

// unitBoundary moves i back to the start of the character it falls inside
func unitBoundary(units []uint16, i int) int {
	if i > 0 && i < len(units) && isLowSurrogate(units[i]) && isHighSurrogate(units[i-1]) {
		return i - 1
	}
	return i
}

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u < 0xDC00 }

func isLowSurrogate(u uint16) bool { return u >= 0xDC00 && u < 0xE000 }
