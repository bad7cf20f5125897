package album

import (
	"testing"

	"github.com/mmynk/familyalbum/internal/models"
)

func TestCanAccessGroup(t *testing.T) {
	tests := []struct {
		name  string
		group models.Group
		user  string
		want  bool
	}{
		{"unlocked non-member", models.Group{Members: []string{"u1"}}, "u2", true},
		{"unlocked no members", models.Group{}, "u2", true},
		{"locked member", models.Group{IsLocked: true, Members: []string{"u1"}}, "u1", true},
		{"locked non-member", models.Group{IsLocked: true, Members: []string{"u1"}}, "u2", false},
		{"locked empty user", models.Group{IsLocked: true, Members: []string{"u1"}}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessGroup(&tt.group, tt.user); got != tt.want {
				t.Errorf("CanAccessGroup() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsGroupMember(t *testing.T) {
	g := &models.Group{Members: []string{"u1", "u3"}}

	if !IsGroupMember(g, "u3") {
		t.Error("u3 should be a member")
	}
	if IsGroupMember(g, "u2") {
		t.Error("u2 should not be a member")
	}
}
