package main

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParticipants() map[string]Participant {
	return map[string]Participant{
		"222": {
			UserID:    "222",
			FirstName: "Bia",
			LastName:  "Melo",
			FullName:  "Bia Melo",
			Tickets: Tickets{
				Base:  1,
				Roles: map[string]RoleTicket{},
			},
			RegisteredAt: "2026-01-02T00:00:00Z",
		},
		"111": {
			UserID:    "111",
			FirstName: "Ana",
			LastName:  "Lima",
			FullName:  "Ana Lima",
			Tickets: Tickets{
				Base:  1,
				Roles: map[string]RoleTicket{"VIP": {Quantity: 2, Abbreviation: "V"}},
				Tag:   1,
			},
			RegisteredAt: "2026-01-01T00:00:00Z",
		},
	}
}

func TestBuildSimpleList(t *testing.T) {
	list := BuildSimpleList(testParticipants())

	assert.Equal(t, "Ana Lima\nBia Melo\n", list)
}

func TestBuildDetailedList(t *testing.T) {
	list := BuildDetailedList(testParticipants())

	// one line per ticket: base, then role bonuses, then tag
	assert.Equal(t,
		"Ana Li.\n"+
			"Ana Li. V\n"+
			"Ana Li. V\n"+
			"Ana Li. TAG\n"+
			"\n"+
			"Bia Me.\n"+
			"\n",
		list)
}

func TestChunkMessage(t *testing.T) {
	assert.Equal(t, []string{""}, ChunkMessage("", 10))
	assert.Equal(t, []string{"abc"}, ChunkMessage("abc", 10))

	chunks := ChunkMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestChunkMessageKeepsRunesWhole(t *testing.T) {
	// a long accented-name list, shifted across every byte alignment so the
	// cut lands inside a multibyte rune for at least one padding
	for pad := 0; pad < 10; pad++ {
		content := strings.Repeat("x", pad) + strings.Repeat("João Sá\n", 400)
		chunks := ChunkMessage(content, 1900)

		for i, chunk := range chunks {
			assert.True(t, utf8.ValidString(chunk), "pad %d chunk %d", pad, i)
			assert.LessOrEqual(t, len(chunk), 1900)
		}
		assert.Equal(t, content, strings.Join(chunks, ""))
	}
}

func TestBuildParticipantCSV(t *testing.T) {
	csvData, err := BuildParticipantCSV(testParticipants())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(csvData), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "user_id,first_name,last_name,full_name,tickets,registered_at", lines[0])

	// sorted by full name, tickets cell is the JSON breakdown
	assert.True(t, strings.HasPrefix(lines[1], "111,Ana,Lima,Ana Lima,"))
	assert.Contains(t, lines[1], `""VIP""`)
	assert.Contains(t, lines[1], `""quantity"":2`)
	assert.True(t, strings.HasPrefix(lines[2], "222,Bia,Melo,Bia Melo,"))
}
