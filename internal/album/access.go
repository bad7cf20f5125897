package album

import "github.com/mmynk/familyalbum/internal/models"

// CanAccessGroup reports whether userID may open g.
// Unlocked groups are open to everyone; locked ones only to members.
func CanAccessGroup(g *models.Group, userID string) bool {
	if !g.IsLocked {
		return true
	}
	return g.HasMember(userID)
}

// IsGroupMember reports whether userID is a member of g.
func IsGroupMember(g *models.Group, userID string) bool {
	return g.HasMember(userID)
}
