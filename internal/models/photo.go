package models

// Photo is a single image uploaded to an event.
type Photo struct {
	// ID is the document key.
	ID string `json:"-"`

	// URL holds the image data, usually an encoded data URL.
	URL string `json:"url"`

	// EventID references the event the photo was added to.
	EventID string `json:"eventId"`

	// AddedBy is the uploader's user ID.
	AddedBy string `json:"addedBy"`
}

// SetID implements Keyed.
func (p *Photo) SetID(id string) { p.ID = id }

// Keyed is implemented by documents whose ID comes from their store key.
type Keyed interface {
	SetID(id string)
}
