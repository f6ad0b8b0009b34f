package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.json")
	store, err := NewDatabase(path, false)
	require.NoError(t, err)
	return store
}

func TestParticipantLifecycle(t *testing.T) {
	store := newTestDB(t)

	assert.False(t, store.IsRegistered("111"))

	store.AddParticipant("111", "João", "Silva", "João Silva", "999",
		Tickets{Base: 1, Roles: map[string]RoleTicket{}}, "2026-01-01T00:00:00Z")

	assert.True(t, store.IsRegistered("111"))
	p, ok := store.GetParticipant("111")
	require.True(t, ok)
	assert.Equal(t, "João Silva", p.FullName)
	assert.Equal(t, "999", p.MessageID)

	store.RemoveParticipant("111")
	assert.False(t, store.IsRegistered("111"))

	// removing again is a no-op
	store.RemoveParticipant("111")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")

	store, err := NewDatabase(path, false)
	require.NoError(t, err)

	store.AddParticipant("111", "Maria", "Souza", "Maria Souza", "888",
		Tickets{
			Base:  1,
			Roles: map[string]RoleTicket{"VIP": {Quantity: 3, Abbreviation: "V"}},
			Tag:   2,
		}, "2026-01-02T12:00:00Z")
	store.AddToBlacklist("222", "troll", "spam")
	store.SetHashtag("#Sorteio2026")
	store.AddBonusRole("1234567890", "VIP", 3, "V")
	two := 2
	store.SetTagEnabled(true, "[CLAN]", &two)
	store.SetInscricaoChannel("555")

	reloaded, err := NewDatabase(path, true)
	require.NoError(t, err)

	p, ok := reloaded.GetParticipant("111")
	require.True(t, ok)
	assert.Equal(t, 3, p.Tickets.Roles["VIP"].Quantity)
	assert.Equal(t, 2, p.Tickets.Tag)
	assert.True(t, reloaded.IsBlacklisted("222"))

	settings := reloaded.RaffleSettings()
	assert.Equal(t, "#Sorteio2026", settings.Hashtag)
	assert.Equal(t, "VIP", settings.BonusRoles["1234567890"].Name)
	assert.True(t, settings.TagEnabled)
	assert.Equal(t, "[CLAN]", settings.ServerTag)
	assert.Equal(t, 2, settings.TagQuantity)
	assert.Equal(t, "555", reloaded.GetInscricaoChannel())
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "database.json")

	store, err := NewDatabase(path, true)
	require.NoError(t, err)
	assert.Empty(t, store.AllParticipants())
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewDatabase(path, true)
	assert.Error(t, err)

	store, err := NewDatabase(path, false)
	require.NoError(t, err)
	assert.Empty(t, store.AllParticipants())
}

func TestLoadRepairsNilMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"config":{}}`), 0644))

	store, err := NewDatabase(path, true)
	require.NoError(t, err)

	assert.NotNil(t, store.AllParticipants())
	assert.NotNil(t, store.Blacklist())
	assert.NotNil(t, store.RaffleSettings().BonusRoles)
}

func TestBlacklist(t *testing.T) {
	store := newTestDB(t)

	store.AddToBlacklist("222", "troll", "spam")
	store.AddToBlacklist("333", "alt", "Sem motivo especificado")

	assert.True(t, store.IsBlacklisted("222"))
	assert.False(t, store.IsBlacklisted("444"))
	assert.Len(t, store.Blacklist(), 2)

	store.RemoveFromBlacklist("222")
	assert.False(t, store.IsBlacklisted("222"))
	assert.Len(t, store.Blacklist(), 1)

	entry := store.Blacklist()[0]
	assert.Equal(t, "333", entry.UserID)
	assert.NotEmpty(t, entry.AddedAt)
}

func TestIsNameTaken(t *testing.T) {
	store := newTestDB(t)

	store.AddParticipant("111", "João", "Silva", "João Silva", "1",
		Tickets{Base: 1, Roles: map[string]RoleTicket{}}, "2026-01-01T00:00:00Z")

	assert.True(t, store.IsNameTaken("João", "Silva"))
	assert.False(t, store.IsNameTaken("João", "Souza"))
}

func TestUpdateTickets(t *testing.T) {
	store := newTestDB(t)

	store.AddParticipant("111", "Ana", "Lima", "Ana Lima", "1",
		Tickets{Base: 1, Roles: map[string]RoleTicket{}}, "2026-01-01T00:00:00Z")

	store.UpdateTickets("111", Tickets{
		Base:  1,
		Roles: map[string]RoleTicket{"VIP": {Quantity: 3, Abbreviation: "V"}},
	})
	p, _ := store.GetParticipant("111")
	assert.Equal(t, 3, p.Tickets.Roles["VIP"].Quantity)

	// participant left between recompute and write: silent no-op
	store.UpdateTickets("404", Tickets{Base: 1})
	assert.False(t, store.IsRegistered("404"))
}

func TestSetTagEnabledQuantity(t *testing.T) {
	store := newTestDB(t)

	three := 3
	store.SetTagEnabled(true, "[CLAN]", &three)
	assert.Equal(t, 3, store.RaffleSettings().TagQuantity)

	// nil means "leave as is"
	store.SetTagEnabled(false, "", nil)
	settings := store.RaffleSettings()
	assert.False(t, settings.TagEnabled)
	assert.Equal(t, 3, settings.TagQuantity)

	// an explicit zero clears the bonus
	zero := 0
	store.SetTagEnabled(true, "[CLAN]", &zero)
	assert.Equal(t, 0, store.RaffleSettings().TagQuantity)
}

func TestBonusRoles(t *testing.T) {
	store := newTestDB(t)

	store.AddBonusRole("100", "VIP", 3, "V")
	store.AddBonusRole("200", "Booster", 2, "B")
	assert.Len(t, store.RaffleSettings().BonusRoles, 2)

	store.RemoveBonusRole("100")
	settings := store.RaffleSettings()
	assert.Len(t, settings.BonusRoles, 1)
	assert.Equal(t, "Booster", settings.BonusRoles["200"].Name)
}

func TestRaffleSettingsIsACopy(t *testing.T) {
	store := newTestDB(t)
	store.AddBonusRole("100", "VIP", 3, "V")

	settings := store.RaffleSettings()
	settings.BonusRoles["100"] = BonusRole{Name: "mutated"}
	delete(settings.BonusRoles, "100")

	assert.Equal(t, "VIP", store.RaffleSettings().BonusRoles["100"].Name)
}

func TestClearParticipants(t *testing.T) {
	store := newTestDB(t)

	store.AddParticipant("111", "Ana", "Lima", "Ana Lima", "1",
		Tickets{Base: 1, Roles: map[string]RoleTicket{}}, "2026-01-01T00:00:00Z")
	store.AddToBlacklist("222", "troll", "spam")
	store.AddBonusRole("100", "VIP", 3, "V")
	store.SetHashtag("#Sorteio2026")
	store.LockHashtag()

	store.ClearParticipants()

	assert.Empty(t, store.AllParticipants())
	assert.False(t, store.RaffleSettings().HashtagLocked)
	// blacklist and config survive a clear
	assert.True(t, store.IsBlacklisted("222"))
	assert.Equal(t, "#Sorteio2026", store.RaffleSettings().Hashtag)
	assert.Len(t, store.RaffleSettings().BonusRoles, 1)
}

func TestClearAll(t *testing.T) {
	store := newTestDB(t)

	store.AddParticipant("111", "Ana", "Lima", "Ana Lima", "1",
		Tickets{Base: 1, Roles: map[string]RoleTicket{}}, "2026-01-01T00:00:00Z")
	store.AddToBlacklist("222", "troll", "spam")
	store.SetHashtag("#Sorteio2026")

	store.ClearAll()

	assert.Empty(t, store.AllParticipants())
	assert.Empty(t, store.Blacklist())
	assert.Equal(t, "", store.RaffleSettings().Hashtag)
	assert.Equal(t, 1, store.RaffleSettings().TagQuantity)
}

func TestStatistics(t *testing.T) {
	store := newTestDB(t)

	store.AddParticipant("111", "Ana", "Lima", "Ana Lima", "1",
		Tickets{
			Base:  1,
			Roles: map[string]RoleTicket{"VIP": {Quantity: 3, Abbreviation: "V"}},
			Tag:   2,
		}, "2026-01-01T00:00:00Z")
	store.AddParticipant("222", "Bia", "Melo", "Bia Melo", "2",
		Tickets{
			Base:  1,
			Roles: map[string]RoleTicket{"VIP": {Quantity: 3, Abbreviation: "V"}},
		}, "2026-01-01T00:00:00Z")
	store.AddParticipant("333", "Caio", "Reis", "Caio Reis", "3",
		Tickets{Base: 1, Roles: map[string]RoleTicket{}}, "2026-01-01T00:00:00Z")

	stats := store.GetStatistics()

	assert.Equal(t, 3, stats.TotalParticipants)
	// 3 base + 3 + 3 role + 2 tag
	assert.Equal(t, 11, stats.TotalTickets)
	// counts holders, not quantities
	assert.Equal(t, 2, stats.TicketsByRole["VIP"])
	assert.Equal(t, 1, stats.TicketsByTag)
}
