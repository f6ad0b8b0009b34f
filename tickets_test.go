package main

import (
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
)

type fakeMember struct {
	roles    []snowflake.ID
	display  string
	username string
}

func (f fakeMember) RoleIDs() []snowflake.ID { return f.roles }
func (f fakeMember) DisplayName() string     { return f.display }
func (f fakeMember) Username() string        { return f.username }

func TestCalculateTicketsBaseOnly(t *testing.T) {
	member := fakeMember{display: "Player", username: "player"}

	tickets := CalculateTickets(member, map[string]BonusRole{}, false, "", 1)

	assert.Equal(t, 1, tickets.Base)
	assert.Empty(t, tickets.Roles)
	assert.Zero(t, tickets.Tag)
	assert.Equal(t, 1, TotalTickets(tickets))
}

func TestCalculateTicketsWithBonusRole(t *testing.T) {
	vipID := snowflake.ID(1234567890)
	member := fakeMember{
		roles:    []snowflake.ID{vipID, snowflake.ID(42)},
		display:  "Player",
		username: "player",
	}
	bonusRoles := map[string]BonusRole{
		vipID.String(): {Name: "VIP", Quantity: 3, Abbreviation: "V"},
	}

	tickets := CalculateTickets(member, bonusRoles, false, "", 1)

	assert.Equal(t, 3, tickets.Roles["VIP"].Quantity)
	assert.Equal(t, "V", tickets.Roles["VIP"].Abbreviation)
	assert.Equal(t, 4, TotalTickets(tickets))
}

func TestCalculateTicketsServerTag(t *testing.T) {
	member := fakeMember{display: "Player [CLAN]", username: "player"}

	tickets := CalculateTickets(member, map[string]BonusRole{}, true, "[CLAN]", 2)
	assert.Equal(t, 2, tickets.Tag)
	assert.Equal(t, 3, TotalTickets(tickets))

	// tag match is case-insensitive and also checks the username
	tickets = CalculateTickets(fakeMember{display: "Player", username: "ana[clan]"},
		map[string]BonusRole{}, true, "[CLAN]", 2)
	assert.Equal(t, 2, tickets.Tag)

	// disabled check awards nothing even when the tag is present
	tickets = CalculateTickets(member, map[string]BonusRole{}, false, "[CLAN]", 2)
	assert.Zero(t, tickets.Tag)

	// empty tag never matches
	tickets = CalculateTickets(member, map[string]BonusRole{}, true, "", 2)
	assert.Zero(t, tickets.Tag)
}

func TestFormatTicketLines(t *testing.T) {
	lines := FormatTicketLines(Tickets{
		Base:  1,
		Roles: map[string]RoleTicket{"VIP": {Quantity: 3, Abbreviation: "V"}},
		Tag:   2,
	})

	assert.Len(t, lines, 3)
	assert.Equal(t, "1 ficha base", lines[0])
	assert.Contains(t, lines, "+3 ficha(s) - VIP (V)")
	assert.Contains(t, lines, "+2 ficha(s) - TAG do servidor")
}

func TestAbbreviateName(t *testing.T) {
	assert.Equal(t, "João Si.", AbbreviateName("João", "Silva"))
	assert.Equal(t, "Ana Me.", AbbreviateName("Ana", "melo"))
	assert.Equal(t, "Ana M.", AbbreviateName("Ana", "M"))
}

func TestIsValidName(t *testing.T) {
	valid := []string{"João", "Maria Clara", "André"}
	for _, name := range valid {
		assert.True(t, IsValidName(name), name)
	}

	invalid := []string{
		"",
		"  ",
		"Jo",           // token too short
		"3ana",         // leading digit
		"ana!",         // non-alphabet
		"aaaanderson",  // repeated run
		"bcdfg",        // no vowel
		"aeiou",        // no consonant
		"Maria C",      // short token
	}
	for _, name := range invalid {
		assert.False(t, IsValidName(name), name)
	}
}
