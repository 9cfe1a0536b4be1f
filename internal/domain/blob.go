package domain

// Blob is an encoded image payload (typically a data URL) stored apart from the tree.
type Blob struct {
	ID   string `json:"id"`
	Data string `json:"data"`
}
