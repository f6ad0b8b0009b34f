package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/disgoorg/snowflake/v2"
)

// RaffleMember is the narrow view of a guild member the calculator needs:
// held roles plus the two names the tag check inspects.
type RaffleMember interface {
	RoleIDs() []snowflake.ID
	DisplayName() string
	Username() string
}

// CalculateTickets computes a member's ticket breakdown from the raffle
// configuration. Pure: no store access, no Discord calls.
func CalculateTickets(member RaffleMember, bonusRoles map[string]BonusRole, tagEnabled bool, serverTag string, tagQuantity int) Tickets {
	tickets := Tickets{
		Base:  1,
		Roles: map[string]RoleTicket{},
		Tag:   0,
	}

	for _, roleID := range member.RoleIDs() {
		if bonus, ok := bonusRoles[roleID.String()]; ok {
			tickets.Roles[bonus.Name] = RoleTicket{
				Quantity:     bonus.Quantity,
				Abbreviation: bonus.Abbreviation,
			}
		}
	}

	if tagEnabled && serverTag != "" {
		tag := strings.ToLower(strings.TrimSpace(serverTag))
		display := strings.ToLower(member.DisplayName())
		username := strings.ToLower(member.Username())
		if strings.Contains(display, tag) || strings.Contains(username, tag) {
			tickets.Tag = tagQuantity
		}
	}

	return tickets
}

// TotalTickets is base + role bonuses + tag bonus.
func TotalTickets(t Tickets) int {
	total := t.Base
	for _, rt := range t.Roles {
		total += rt.Quantity
	}
	total += t.Tag
	return total
}

// FormatTicketLines renders a breakdown as the lines shown in /verificar.
func FormatTicketLines(t Tickets) []string {
	lines := []string{"1 ficha base"}

	for roleName, rt := range t.Roles {
		lines = append(lines, fmt.Sprintf("+%d ficha(s) - %s (%s)", rt.Quantity, roleName, rt.Abbreviation))
	}

	if t.Tag > 0 {
		lines = append(lines, fmt.Sprintf("+%d ficha(s) - TAG do servidor", t.Tag))
	}

	return lines
}

// AbbreviateName shortens "first last" to "first La." for the detailed list.
func AbbreviateName(firstName, lastName string) string {
	runes := []rune(lastName)
	first := ""
	second := ""
	if len(runes) > 0 {
		first = strings.ToUpper(string(runes[0]))
	}
	if len(runes) > 1 {
		second = strings.ToLower(string(runes[1]))
	}
	return fmt.Sprintf("%s %s%s.", firstName, first, second)
}

var (
	nameAlphabetRe   = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
	nameLeadingDigit = regexp.MustCompile(`^\d`)
	nameVowels       = "aeiouáéíóúâêîôûãõ"
)

// IsValidName applies a series of independent plausibility filters to a
// human name: alphabet-only, no leading digit, no token of 2 letters or
// fewer, no run of the same letter 4+ times, and at least one vowel and one
// consonant. Available to the registration flow but not wired into it.
func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) < 2 {
		return false
	}

	if !nameAlphabetRe.MatchString(name) {
		return false
	}

	if nameLeadingDigit.MatchString(name) {
		return false
	}

	for _, part := range strings.Fields(name) {
		if len([]rune(part)) <= 2 {
			return false
		}
	}

	if hasRepeatedRun(strings.ToLower(name), 4) {
		return false
	}

	hasVowel := false
	hasConsonant := false
	for _, r := range strings.ToLower(name) {
		if strings.ContainsRune(nameVowels, r) {
			hasVowel = true
		} else if unicode.IsLetter(r) {
			hasConsonant = true
		}
	}

	return hasVowel && hasConsonant
}

// hasRepeatedRun reports a run of the same rune of at least n. RE2 has no
// backreferences, so the (.)\1{3,} check is a loop.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
