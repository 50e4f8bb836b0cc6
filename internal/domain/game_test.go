package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGame_NormalizeLists(t *testing.T) {
	g := &Game{
		Platforms: []string{" PC", "Switch", "PC", ""},
		Genres:    []string{"RPG", "Action", "RPG "},
	}

	g.NormalizeLists()

	assert.Equal(t, []string{"PC", "Switch"}, g.Platforms)
	assert.Equal(t, []string{"Action", "RPG"}, g.Genres)
}

func TestGame_Status(t *testing.T) {
	g := &Game{Status: GameStatusPending}
	assert.False(t, g.IsPublished())

	g.Status = GameStatusPublished
	assert.True(t, g.IsPublished())
	assert.False(t, g.HasCover())
}

func TestUser_Name(t *testing.T) {
	u := &User{Email: "kim@example.com"}
	assert.Equal(t, "kim@example.com", u.Name())

	u.DisplayName = "Kim"
	assert.Equal(t, "Kim", u.Name())
	assert.False(t, u.IsAdmin())

	u.Role = RoleAdmin
	assert.True(t, u.IsAdmin())
}
