package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// --- Phase 1: Configuration & Environment ---

type Config struct {
	Token        string
	GuildID      string
	DatabasePath string
	OwnerIDs     []string
	HealthPort   string
	Silent       bool
	StrictLoad   bool
}

var GlobalConfig *Config

// LoadConfig initializes the configuration from environment variables.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("DISCORD_TOKEN")
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		folder := "."
		if info, err := os.Stat("data"); err == nil && info.IsDir() {
			folder = "./data"
		}
		dbPath = filepath.Join(folder, "database.json")
	}

	silent, _ := strconv.ParseBool(os.Getenv("SILENT"))
	strictLoad, _ := strconv.ParseBool(os.Getenv("STRICT_LOAD"))

	healthPort := os.Getenv("PORT")
	if healthPort == "" {
		healthPort = "10000"
	}

	ownerIDsStr := os.Getenv("OWNER_IDS")
	var ownerIDs []string
	if ownerIDsStr != "" {
		ownerIDs = strings.Split(ownerIDsStr, ",")
		for i := range ownerIDs {
			ownerIDs[i] = strings.TrimSpace(ownerIDs[i])
		}
	}

	cfg := &Config{
		Token:        token,
		GuildID:      os.Getenv("GUILD_ID"),
		DatabasePath: dbPath,
		OwnerIDs:     ownerIDs,
		HealthPort:   healthPort,
		Silent:       silent,
		StrictLoad:   strictLoad,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Silent {
		SetSilentMode(true)
	}

	GlobalConfig = cfg
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf(MsgConfigMissingToken)
	}
	if c.GuildID != "" && (len(c.GuildID) < 17 || len(c.GuildID) > 20) {
		return fmt.Errorf("invalid GUILD_ID: must be a valid Snowflake")
	}
	return nil
}

// --- Phase 2: Document Model ---

// RoleTicket is one role-based bonus entry in a participant's breakdown,
// keyed by the bonus role's display name.
type RoleTicket struct {
	Quantity     int    `json:"quantity"`
	Abbreviation string `json:"abbreviation"`
}

// Tickets is a participant's full ticket breakdown. Base is always 1.
type Tickets struct {
	Base  int                   `json:"base"`
	Roles map[string]RoleTicket `json:"roles"`
	Tag   int                   `json:"tag"`
}

type Participant struct {
	UserID       string  `json:"user_id"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	FullName     string  `json:"full_name"`
	MessageID    string  `json:"message_id"`
	Tickets      Tickets `json:"tickets"`
	RegisteredAt string  `json:"registered_at"`
}

type BlacklistEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
	AddedAt  string `json:"added_at"`
}

// BonusRole is a configured per-role ticket bonus, keyed by role ID.
type BonusRole struct {
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	Abbreviation string `json:"abbreviation"`
}

// RaffleConfig is the singleton per-raffle configuration. Empty strings
// mean "unset" (the previous deployment wrote nulls; they load as "").
type RaffleConfig struct {
	Hashtag          string               `json:"hashtag"`
	HashtagLocked    bool                 `json:"hashtag_locked"`
	BonusRoles       map[string]BonusRole `json:"bonus_roles"`
	TagEnabled       bool                 `json:"tag_enabled"`
	ServerTag        string               `json:"server_tag"`
	TagQuantity      int                  `json:"tag_quantity"`
	ChatLockEnabled  bool                 `json:"chat_lock_enabled"`
	ChatLockChannel  string               `json:"chat_lock_channel"`
	InscricaoChannel string               `json:"inscricao_channel"`
}

// Document is the whole persisted state. It is loaded wholesale at startup
// and rewritten wholesale after every mutation.
type Document struct {
	Participants map[string]Participant `json:"participants"`
	Blacklist    []BlacklistEntry       `json:"blacklist"`
	Config       RaffleConfig           `json:"config"`
}

func defaultDocument() Document {
	return Document{
		Participants: map[string]Participant{},
		Blacklist:    []BlacklistEntry{},
		Config: RaffleConfig{
			BonusRoles:  map[string]BonusRole{},
			TagQuantity: 1,
		},
	}
}

// --- Phase 3: Store ---

// Database owns the document. Handlers run on goroutines (see safeGo in the
// loader), so every read-modify-write sequence holds the mutex.
//
// Persistence faults are logged and never returned to callers: a storage
// hiccup must not take the bot down or fail a user's registration. The cost
// is that in-memory state can silently diverge from disk.
type Database struct {
	path   string
	strict bool

	mu   sync.Mutex
	data Document
}

// NewDatabase creates the store and loads the backing document if present.
// With strict=false a missing or corrupt file falls back to the empty
// document; with strict=true a corrupt file is a startup error.
func NewDatabase(path string, strict bool) (*Database, error) {
	db := &Database{
		path:   path,
		strict: strict,
		data:   defaultDocument(),
	}
	if err := db.load(); err != nil {
		if strict {
			return nil, err
		}
		LogDatabase(MsgDatabaseLoadFail, err)
	}
	return db, nil
}

func (db *Database) load() error {
	raw, err := os.ReadFile(db.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}

	if doc.Participants == nil {
		doc.Participants = map[string]Participant{}
	}
	if doc.Blacklist == nil {
		doc.Blacklist = []BlacklistEntry{}
	}
	if doc.Config.BonusRoles == nil {
		doc.Config.BonusRoles = map[string]BonusRole{}
	}

	db.data = doc
	LogDatabase(MsgDatabaseLoaded, len(doc.Participants), len(doc.Blacklist))
	return nil
}

// save rewrites the whole document. Callers hold db.mu.
func (db *Database) save() {
	raw, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		LogDatabase(MsgDatabaseSaveFail, err)
		return
	}
	if err := os.WriteFile(db.path, raw, 0644); err != nil {
		LogDatabase(MsgDatabaseSaveFail, err)
	}
}

// AddParticipant records a registration. Uniqueness is the caller's job:
// check IsRegistered first.
func (db *Database) AddParticipant(userID, firstName, lastName, fullName, messageID string, tickets Tickets, registeredAt string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Participants[userID] = Participant{
		UserID:       userID,
		FirstName:    firstName,
		LastName:     lastName,
		FullName:     fullName,
		MessageID:    messageID,
		Tickets:      tickets,
		RegisteredAt: registeredAt,
	}
	db.save()
}

func (db *Database) RemoveParticipant(userID string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.data.Participants[userID]; ok {
		delete(db.data.Participants, userID)
		db.save()
	}
}

func (db *Database) GetParticipant(userID string) (Participant, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.data.Participants[userID]
	return p, ok
}

func (db *Database) IsRegistered(userID string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, ok := db.data.Participants[userID]
	return ok
}

// IsNameTaken reports whether another participant already registered under
// the same full name.
func (db *Database) IsNameTaken(firstName, lastName string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	fullName := firstName + " " + lastName
	for _, p := range db.data.Participants {
		if p.FullName == fullName {
			return true
		}
	}
	return false
}

// AllParticipants returns a copy of the participant map.
func (db *Database) AllParticipants() map[string]Participant {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[string]Participant, len(db.data.Participants))
	for id, p := range db.data.Participants {
		out[id] = p
	}
	return out
}

// UpdateTickets replaces a participant's breakdown in place. No-op if the
// participant is gone (left the server between recompute and write).
func (db *Database) UpdateTickets(userID string, tickets Tickets) {
	db.mu.Lock()
	defer db.mu.Unlock()

	p, ok := db.data.Participants[userID]
	if !ok {
		return
	}
	p.Tickets = tickets
	db.data.Participants[userID] = p
	db.save()
}

func (db *Database) AddToBlacklist(userID, username, reason string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Blacklist = append(db.data.Blacklist, BlacklistEntry{
		UserID:   userID,
		Username: username,
		Reason:   reason,
		AddedAt:  time.Now().Format(time.RFC3339),
	})
	db.save()
}

func (db *Database) RemoveFromBlacklist(userID string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	kept := db.data.Blacklist[:0]
	for _, e := range db.data.Blacklist {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	db.data.Blacklist = kept
	db.save()
}

func (db *Database) IsBlacklisted(userID string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, e := range db.data.Blacklist {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func (db *Database) Blacklist() []BlacklistEntry {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]BlacklistEntry, len(db.data.Blacklist))
	copy(out, db.data.Blacklist)
	return out
}

func (db *Database) SetHashtag(hashtag string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Config.Hashtag = hashtag
	db.save()
}

// LockHashtag marks the hashtag as locked. Recorded state only; nothing
// enforces it against further /hashtag calls.
func (db *Database) LockHashtag() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Config.HashtagLocked = true
	db.save()
}

// SetTagEnabled updates the tag bonus. A nil quantity keeps the stored
// value; an explicit 0 zeroes the bonus.
func (db *Database) SetTagEnabled(enabled bool, tag string, quantity *int) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Config.TagEnabled = enabled
	db.data.Config.ServerTag = tag
	if quantity != nil {
		db.data.Config.TagQuantity = *quantity
	}
	db.save()
}

func (db *Database) AddBonusRole(roleID, name string, quantity int, abbreviation string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Config.BonusRoles[roleID] = BonusRole{
		Name:         name,
		Quantity:     quantity,
		Abbreviation: abbreviation,
	}
	db.save()
}

func (db *Database) RemoveBonusRole(roleID string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.data.Config.BonusRoles[roleID]; ok {
		delete(db.data.Config.BonusRoles, roleID)
		db.save()
	}
}

func (db *Database) SetChatLock(enabled bool, channelID string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Config.ChatLockEnabled = enabled
	if channelID != "" {
		db.data.Config.ChatLockChannel = channelID
	}
	db.save()
}

func (db *Database) SetInscricaoChannel(channelID string) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Config.InscricaoChannel = channelID
	db.save()
}

func (db *Database) GetInscricaoChannel() string {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.data.Config.InscricaoChannel
}

// RaffleSettings returns a copy of the raffle configuration, with the bonus
// role map deep-copied so the calculator never aliases store state.
func (db *Database) RaffleSettings() RaffleConfig {
	db.mu.Lock()
	defer db.mu.Unlock()

	cfg := db.data.Config
	roles := make(map[string]BonusRole, len(cfg.BonusRoles))
	for id, r := range cfg.BonusRoles {
		roles[id] = r
	}
	cfg.BonusRoles = roles
	return cfg
}

// ClearParticipants empties the participant set and unlocks the hashtag.
// Blacklist and the rest of the config are untouched.
func (db *Database) ClearParticipants() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data.Participants = map[string]Participant{}
	db.data.Config.HashtagLocked = false
	db.save()
	LogDatabase(MsgDatabaseCleared)
}

// ClearAll resets the entire document to factory defaults.
func (db *Database) ClearAll() {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data = defaultDocument()
	db.save()
	LogDatabase(MsgDatabaseFullReset)
}

// --- Phase 4: Statistics ---

type Statistics struct {
	TotalParticipants int
	TotalTickets      int
	TicketsByRole     map[string]int
	TicketsByTag      int
}

// GetStatistics aggregates over all participants. TicketsByRole counts
// participants holding each role bonus, not the summed quantities.
func (db *Database) GetStatistics() Statistics {
	db.mu.Lock()
	defer db.mu.Unlock()

	stats := Statistics{
		TicketsByRole: map[string]int{},
	}

	for _, p := range db.data.Participants {
		stats.TotalTickets++ // base ticket

		for roleName, rt := range p.Tickets.Roles {
			stats.TotalTickets += rt.Quantity
			stats.TicketsByRole[roleName]++
		}

		if p.Tickets.Tag > 0 {
			stats.TotalTickets += p.Tickets.Tag
			stats.TicketsByTag++
		}
	}

	stats.TotalParticipants = len(db.data.Participants)
	return stats
}
