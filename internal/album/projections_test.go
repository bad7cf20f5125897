package album

import (
	"slices"
	"testing"

	"github.com/mmynk/familyalbum/internal/models"
)

func eventIDs(events []models.Event) []string {
	var ids []string
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func photoIDs(photos []models.Photo) []string {
	var ids []string
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestFilteredEvents(t *testing.T) {
	events := []models.Event{
		{ID: "e1", CreatedBy: "u1"},
		{ID: "e2", CreatedBy: "u2"},
		{ID: "e3", CreatedBy: "u1"},
	}

	tests := []struct {
		tab  EventsTab
		want []string
	}{
		{EventsCreated, []string{"e1", "e3"}},
		{EventsAll, []string{"e1", "e2", "e3"}},
		{EventsMembers, []string{"e1", "e2", "e3"}},
		{"", []string{"e1", "e2", "e3"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			got := eventIDs(FilteredEvents(tt.tab, events, "u1"))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilteredEvents(%q) = %v, want %v", tt.tab, got, tt.want)
			}
		})
	}

	if got := FilteredEvents(EventsCreated, events, "nobody"); len(got) != 0 {
		t.Errorf("expected no events for unknown creator, got %v", eventIDs(got))
	}
}

func TestFilteredPhotos(t *testing.T) {
	photos := []models.Photo{
		{ID: "p1", EventID: "e1", AddedBy: "u1"},
		{ID: "p2", EventID: "e2", AddedBy: "u1"},
		{ID: "p3", EventID: "e1", AddedBy: "u2"},
		{ID: "p4", EventID: "e1", AddedBy: "u1"},
	}

	if got := photoIDs(FilteredPhotos(AlbumAll, photos, "e1", "u1")); !slices.Equal(got, []string{"p1", "p3", "p4"}) {
		t.Errorf("all tab: got %v", got)
	}
	if got := photoIDs(FilteredPhotos(AlbumAdded, photos, "e1", "u1")); !slices.Equal(got, []string{"p1", "p4"}) {
		t.Errorf("added tab: got %v", got)
	}
	if got := FilteredPhotos(AlbumAll, photos, "missing", "u1"); len(got) != 0 {
		t.Errorf("expected no photos for unknown event, got %v", photoIDs(got))
	}
}

func TestPhotoCount(t *testing.T) {
	photos := []models.Photo{
		{ID: "p1", EventID: "e1"},
		{ID: "p2", EventID: "e2"},
		{ID: "p3", EventID: "e1"},
	}

	if got := PhotoCount(photos, "e1"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := PhotoCount(nil, "e1"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestEventsInGroup(t *testing.T) {
	events := []models.Event{
		{ID: "e1", GroupID: "g1"},
		{ID: "e2", GroupID: "g2"},
		{ID: "e3"},
	}

	if got := eventIDs(EventsInGroup(events, "g1")); !slices.Equal(got, []string{"e1", "e3"}) {
		t.Errorf("got %v", got)
	}
}

func TestEventMembers(t *testing.T) {
	users := []models.User{{ID: "u1"}, {ID: "u2"}, {ID: "u3"}}
	e := &models.Event{MemberIDs: []string{"u3", "u1", "ghost"}}

	got := EventMembers(e, users)
	if len(got) != 2 || got[0].ID != "u1" || got[1].ID != "u3" {
		t.Errorf("unexpected members: %+v", got)
	}
	if EventMembers(nil, users) != nil {
		t.Error("expected nil for no event")
	}
}
