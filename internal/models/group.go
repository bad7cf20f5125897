package models

import "slices"

// Group represents a family collection that owns events.
// A locked group is only visible to its members.
type Group struct {
	// ID is the document key.
	ID string `json:"-"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Avatar is an image URL or an encoded data URL.
	Avatar string `json:"avatar"`

	// EventsCount is the number of events created inside the group.
	EventsCount int `json:"eventsCount"`

	// LastActivity is a human readable label, e.g. "Just created".
	LastActivity string `json:"lastActivity"`

	// IsLocked hides the group's contents from non-members.
	IsLocked bool `json:"isLocked"`

	// Members is the list of user IDs in the group. Always contains the creator.
	Members []string `json:"members"`
}

// SetID implements Keyed.
func (g *Group) SetID(id string) { g.ID = id }

// HasMember reports whether userID is listed in g.Members.
func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}
