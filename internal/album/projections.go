package album

import "github.com/mmynk/familyalbum/internal/models"

// EventsTab filters the events screen.
type EventsTab string

const (
	EventsAll     EventsTab = "all"
	EventsCreated EventsTab = "created"
	// EventsMembers is shown as a tab but filters nothing.
	EventsMembers EventsTab = "members"
)

// AlbumTab filters the album screen.
type AlbumTab string

const (
	AlbumAll   AlbumTab = "all"
	AlbumAdded AlbumTab = "added"
)

// FilteredEvents returns the events created by userID for EventsCreated and
// events unchanged for any other tab.
func FilteredEvents(tab EventsTab, events []models.Event, userID string) []models.Event {
	if tab != EventsCreated {
		return events
	}
	var out []models.Event
	for _, e := range events {
		if e.CreatedBy == userID {
			out = append(out, e)
		}
	}
	return out
}

// FilteredPhotos returns the photos of eventID, narrowed to those added by
// userID for AlbumAdded.
func FilteredPhotos(tab AlbumTab, photos []models.Photo, eventID, userID string) []models.Photo {
	var out []models.Photo
	for _, p := range photos {
		if p.EventID != eventID {
			continue
		}
		if tab == AlbumAdded && p.AddedBy != userID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PhotoCount counts the photos of eventID.
func PhotoCount(photos []models.Photo, eventID string) int {
	n := 0
	for _, p := range photos {
		if p.EventID == eventID {
			n++
		}
	}
	return n
}

// EventsInGroup returns the events of groupID plus events with no group.
func EventsInGroup(events []models.Event, groupID string) []models.Event {
	var out []models.Event
	for _, e := range events {
		if e.GroupID == "" || e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out
}

// EventMembers returns the users listed in e.MemberIDs, in users order.
func EventMembers(e *models.Event, users []models.User) []models.User {
	if e == nil {
		return nil
	}
	var out []models.User
	for _, u := range users {
		if e.HasMember(u.ID) {
			out = append(out, u)
		}
	}
	return out
}
