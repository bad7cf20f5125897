// Package models defines the documents stored by the family album.
//
// # Collections
//
// Each model maps to one top-level collection of the document store:
//   - User: users/{id}
//   - Group: groups/{id} (a "family member" card in the album UI)
//   - Event: events/{id}
//   - Photo: photos/{id}
//
// # Identity
//
// IDs are the document keys. They are never trusted from the document body:
// whoever decodes a snapshot sets ID from the key. Only User also writes its
// id into the body, matching records created by earlier clients.
//
// # Relationships
//
// Relationships are plain ID strings (Group.Members, Event.MemberIDs,
// Event.GroupID, Photo.EventID). Nothing cascades: deleting an event leaves
// its photos in place, deleting a group leaves its events.
package models
