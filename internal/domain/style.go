package domain

// StyleKey names one display attribute of a card. The core copies style
// values verbatim and never interprets them.
type StyleKey string

const (
	StyleTextSize   StyleKey = "textSize"
	StyleTextColor  StyleKey = "textColor"
	StyleTextAlign  StyleKey = "textAlign"
	StyleHighlight  StyleKey = "highlight"
	StyleBorder     StyleKey = "border"
	StyleBackground StyleKey = "background"
	StyleLocked     StyleKey = "locked"
)

var knownStyleKeys = map[StyleKey]struct{}{
	StyleTextSize:   {},
	StyleTextColor:  {},
	StyleTextAlign:  {},
	StyleHighlight:  {},
	StyleBorder:     {},
	StyleBackground: {},
	StyleLocked:     {},
}

// Valid reports whether k belongs to the fixed style key set.
func (k StyleKey) Valid() bool {
	_, ok := knownStyleKeys[k]
	return ok
}

// Style is the display attribute bag of an element.
type Style map[StyleKey]string

// Clone returns an independent copy. A nil style stays nil.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge overlays patch onto a copy of s. Keys set to "" in patch are removed;
// keys absent from patch keep their current value.
func (s Style) Merge(patch Style) Style {
	out := s.Clone()
	if out == nil {
		out = make(Style, len(patch))
	}
	for k, v := range patch {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
