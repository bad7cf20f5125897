package models

import "slices"

// DefaultEventImage is the cover used for newly created events.
const DefaultEventImage = "/new-event-celebration.jpg"

// Event represents a named occasion with a member roster and photos.
type Event struct {
	// ID is the document key.
	ID string `json:"-"`

	Title string `json:"title"`

	// Date is kept as entered (e.g. "2024-06-01").
	Date string `json:"date"`

	Image string `json:"image"`

	// Members must equal len(MemberIDs). The store does not enforce it;
	// the handlers that change MemberIDs keep both in step.
	Members int `json:"members"`

	// CreatedBy is the user ID of the creator.
	CreatedBy string `json:"createdBy"`

	MemberIDs []string `json:"memberIds"`

	// GroupID is the owning group. Empty for events created without one.
	GroupID string `json:"groupId,omitempty"`
}

// SetID implements Keyed.
func (e *Event) SetID(id string) { e.ID = id }

// HasMember reports whether userID is listed in e.MemberIDs.
func (e *Event) HasMember(userID string) bool {
	return slices.Contains(e.MemberIDs, userID)
}
