package domain

import "strings"

type ElementType string

const (
	ElementTypeText  ElementType = "text"
	ElementTypeImage ElementType = "image"
)

// Element is a card placed on a node's canvas. Text and image cards share the
// positional fields; the variant-specific fields are left zero for the other type.
type Element struct {
	ID     string      `json:"id"`
	Type   ElementType `json:"type"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Style  Style       `json:"style,omitempty"`

	// text
	Text     string `json:"text,omitempty"`
	AutoSize bool   `json:"autoSize,omitempty"`

	// image
	ImageDataID   string `json:"imageDataId,omitempty"`
	StorageWidth  int    `json:"storageWidth,omitempty"`
	StorageHeight int    `json:"storageHeight,omitempty"`
	ZIndex        *int   `json:"zIndex,omitempty"`
}

func (e Element) IsText() bool  { return e.Type == ElementTypeText }
func (e Element) IsImage() bool { return e.Type == ElementTypeImage }

// IsBlank reports whether a text element has no visible content.
func (e Element) IsBlank() bool {
	return e.IsText() && strings.TrimSpace(e.Text) == ""
}

// Clone returns a copy that shares no mutable state with e.
func (e Element) Clone() Element {
	out := e
	out.Style = e.Style.Clone()
	if e.ZIndex != nil {
		z := *e.ZIndex
		out.ZIndex = &z
	}
	return out
}

// DisplayTitle is the title a node gets when the user navigates into this element.
func (e Element) DisplayTitle() string {
	if e.IsImage() {
		return ImageTitle
	}
	return TruncateTitle(e.Text)
}

// ElementPatch is a partial update. Nil fields are left untouched; Style is
// merged shallowly into the existing style.
type ElementPatch struct {
	X             *float64 `json:"x,omitempty"`
	Y             *float64 `json:"y,omitempty"`
	Width         *float64 `json:"width,omitempty"`
	Height        *float64 `json:"height,omitempty"`
	Text          *string  `json:"text,omitempty"`
	AutoSize      *bool    `json:"autoSize,omitempty"`
	ImageDataID   *string  `json:"imageDataId,omitempty"`
	StorageWidth  *int     `json:"storageWidth,omitempty"`
	StorageHeight *int     `json:"storageHeight,omitempty"`
	ZIndex        *int     `json:"zIndex,omitempty"`
	Style         Style    `json:"style,omitempty"`

	// ClearZIndex removes the z-index. A non-nil ZIndex in the same patch wins.
	ClearZIndex bool `json:"clearZIndex,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p ElementPatch) IsEmpty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Text == nil && p.AutoSize == nil && p.ImageDataID == nil &&
		p.StorageWidth == nil && p.StorageHeight == nil && p.ZIndex == nil &&
		!p.ClearZIndex && len(p.Style) == 0
}

// Apply merges the patch into e and returns the result.
func (p ElementPatch) Apply(e Element) Element {
	out := e.Clone()
	if p.X != nil {
		out.X = *p.X
	}
	if p.Y != nil {
		out.Y = *p.Y
	}
	if p.Width != nil {
		out.Width = *p.Width
	}
	if p.Height != nil {
		out.Height = *p.Height
	}
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.AutoSize != nil {
		out.AutoSize = *p.AutoSize
	}
	if p.ImageDataID != nil {
		out.ImageDataID = *p.ImageDataID
	}
	if p.StorageWidth != nil {
		out.StorageWidth = *p.StorageWidth
	}
	if p.StorageHeight != nil {
		out.StorageHeight = *p.StorageHeight
	}
	if p.ClearZIndex {
		out.ZIndex = nil
	}
	if p.ZIndex != nil {
		z := *p.ZIndex
		out.ZIndex = &z
	}
	if len(p.Style) > 0 {
		out.Style = out.Style.Merge(p.Style)
	}
	return out
}

// Inverse captures, from e, the current values of exactly the fields present in p.
// Style keys that e does not have are recorded as "" so that re-applying the
// inverse removes them again.
func (p ElementPatch) Inverse(e Element) ElementPatch {
	var inv ElementPatch
	if p.X != nil {
		inv.X = Ptr(e.X)
	}
	if p.Y != nil {
		inv.Y = Ptr(e.Y)
	}
	if p.Width != nil {
		inv.Width = Ptr(e.Width)
	}
	if p.Height != nil {
		inv.Height = Ptr(e.Height)
	}
	if p.Text != nil {
		inv.Text = Ptr(e.Text)
	}
	if p.AutoSize != nil {
		inv.AutoSize = Ptr(e.AutoSize)
	}
	if p.ImageDataID != nil {
		inv.ImageDataID = Ptr(e.ImageDataID)
	}
	if p.StorageWidth != nil {
		inv.StorageWidth = Ptr(e.StorageWidth)
	}
	if p.StorageHeight != nil {
		inv.StorageHeight = Ptr(e.StorageHeight)
	}
	if p.ZIndex != nil || p.ClearZIndex {
		if e.ZIndex != nil {
			inv.ZIndex = Ptr(*e.ZIndex)
		} else {
			inv.ClearZIndex = true
		}
	}
	if len(p.Style) > 0 {
		inv.Style = make(Style, len(p.Style))
		for k := range p.Style {
			inv.Style[k] = e.Style[k]
		}
	}
	return inv
}

// Clone deep-copies the patch.
func (p ElementPatch) Clone() ElementPatch {
	out := ElementPatch{Style: p.Style.Clone(), ClearZIndex: p.ClearZIndex}
	if p.X != nil {
		out.X = Ptr(*p.X)
	}
	if p.Y != nil {
		out.Y = Ptr(*p.Y)
	}
	if p.Width != nil {
		out.Width = Ptr(*p.Width)
	}
	if p.Height != nil {
		out.Height = Ptr(*p.Height)
	}
	if p.Text != nil {
		out.Text = Ptr(*p.Text)
	}
	if p.AutoSize != nil {
		out.AutoSize = Ptr(*p.AutoSize)
	}
	if p.ImageDataID != nil {
		out.ImageDataID = Ptr(*p.ImageDataID)
	}
	if p.StorageWidth != nil {
		out.StorageWidth = Ptr(*p.StorageWidth)
	}
	if p.StorageHeight != nil {
		out.StorageHeight = Ptr(*p.StorageHeight)
	}
	if p.ZIndex != nil {
		out.ZIndex = Ptr(*p.ZIndex)
	}
	return out
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T { return &v }
