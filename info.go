package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/gocarina/gocsv"
)

// ===========================
// Command Registration
// ===========================

func init() {
	adminPerm := discord.PermissionAdministrator
	guildOnly := []discord.InteractionContextType{
		discord.InteractionContextTypeGuild,
	}

	RegisterCommand(discord.SlashCommandCreate{
		Name:        "verificar",
		Description: "Verificar seu status de inscrição",
		Contexts:    guildOnly,
	}, handleVerificar)

	RegisterCommand(discord.SlashCommandCreate{
		Name:        "estatisticas",
		Description: "Ver estatísticas do sorteio",
		Contexts:    guildOnly,
	}, handleEstatisticas)

	RegisterCommand(discord.SlashCommandCreate{
		Name:        "ajuda",
		Description: "Mostrar comandos disponíveis",
		Contexts:    guildOnly,
	}, handleAjuda)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "lista",
		Description:              "[ADMIN] Listar todos os participantes",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "tipo",
				Description: "Tipo de lista",
				Required:    false,
				Choices: []discord.ApplicationCommandOptionChoiceString{
					{Name: "Sem fichas", Value: "simples"},
					{Name: "Com fichas", Value: "detalhada"},
				},
			},
		},
	}, handleLista)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "exportar",
		Description:              "[ADMIN] Exportar lista de participantes (CSV)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
	}, handleExportar)
}

// ===========================
// Handlers
// ===========================

func handleVerificar(event *events.ApplicationCommandInteractionCreate) {
	userID := event.User().ID.String()

	p, ok := db.GetParticipant(userID)
	if !ok {
		_ = event.CreateMessage(ephemeralMessage(MsgRaffleNotRegistered))
		return
	}

	lines := strings.Join(FormatTicketLines(p.Tickets), "\n")
	content := fmt.Sprintf(MsgRaffleStatusFound, p.FullName, TotalTickets(p.Tickets), lines)
	if err := event.CreateMessage(ephemeralMessage(content)); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleEstatisticas(event *events.ApplicationCommandInteractionCreate) {
	stats := db.GetStatistics()

	var sb strings.Builder
	sb.WriteString("📊 **Estatísticas do Sorteio**\n")
	sb.WriteString(fmt.Sprintf("• Total de participantes: %d\n", stats.TotalParticipants))
	sb.WriteString(fmt.Sprintf("• Total de fichas: %d\n\n", stats.TotalTickets))
	sb.WriteString("**Fichas por cargo:**\n")

	roleNames := make([]string, 0, len(stats.TicketsByRole))
	for name := range stats.TicketsByRole {
		roleNames = append(roleNames, name)
	}
	sort.Strings(roleNames)
	for _, name := range roleNames {
		sb.WriteString(fmt.Sprintf("• %s: %d\n", name, stats.TicketsByRole[name]))
	}

	if stats.TicketsByTag > 0 {
		sb.WriteString(fmt.Sprintf("\n**Com tag do servidor:** %d", stats.TicketsByTag))
	}

	if err := event.CreateMessage(ephemeralMessage(sb.String())); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleAjuda(event *events.ApplicationCommandInteractionCreate) {
	content := "**Comandos Públicos:**\n" +
		"/verificar - Verificar seu status de inscrição\n" +
		"/estatisticas - Ver estatísticas do sorteio\n" +
		"/ajuda - Mostrar esta mensagem\n\n" +
		"**Comandos Administrativos:**\n" +
		"/setup_inscricao - Configurar botão e canal de inscritos\n" +
		"/hashtag - Definir a hashtag oficial do sorteio\n" +
		"/tag - Configurar verificação de tag do servidor\n" +
		"/fichas - Adicionar fichas extras para cargos\n" +
		"/tirar - Remover fichas extras de cargos\n" +
		"/lista - Listar todos os participantes\n" +
		"/exportar - Exportar lista de participantes\n" +
		"/atualizar - Atualizar fichas dos participantes\n" +
		"/limpar - Limpar inscrições e mensagens\n" +
		"/blacklist - Gerenciar lista de bloqueios\n" +
		"/chat - Controlar quem pode escrever no canal\n" +
		"/anunciar - Enviar anúncio (mensagem/foto/video/embed/titulo)\n"

	if err := event.CreateMessage(ephemeralMessage(content)); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleLista(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	tipo := "simples"
	if t, ok := data.OptString("tipo"); ok {
		tipo = t
	}

	participants := db.AllParticipants()
	if len(participants) == 0 {
		_ = event.CreateMessage(ephemeralMessage(MsgRaffleNoParticipants))
		return
	}

	var response string
	if tipo == "detalhada" {
		response = BuildDetailedList(participants)
	} else {
		response = BuildSimpleList(participants)
	}

	// Discord caps messages at 2000 chars; split and follow up
	chunks := ChunkMessage(response, 1900)
	if err := event.CreateMessage(discord.NewMessageCreateBuilder().
		SetContent(chunks[0]).
		SetEphemeral(true).
		Build()); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
		return
	}
	for _, chunk := range chunks[1:] {
		_, _ = event.Client().Rest.CreateFollowupMessage(event.ApplicationID(), event.Token(),
			discord.NewMessageCreateBuilder().
				SetContent(chunk).
				SetEphemeral(true).
				Build())
	}
}

func handleExportar(event *events.ApplicationCommandInteractionCreate) {
	participants := db.AllParticipants()
	if len(participants) == 0 {
		_ = event.CreateMessage(ephemeralMessage(MsgRaffleNothingToExport))
		return
	}

	csvData, err := BuildParticipantCSV(participants)
	if err != nil {
		LogRaffle(MsgRaffleExportFail, err)
		_ = event.CreateMessage(ephemeralMessage(ErrRaffleExport))
		return
	}

	if err := event.CreateMessage(discord.NewMessageCreateBuilder().
		AddFile("participantes.csv", "", strings.NewReader(csvData)).
		SetEphemeral(true).
		Build()); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

// ===========================
// List & Export Builders
// ===========================

// sortedParticipants returns the participants ordered by full name.
func sortedParticipants(participants map[string]Participant) []Participant {
	out := make([]Participant, 0, len(participants))
	for _, p := range participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// BuildSimpleList is one full name per line.
func BuildSimpleList(participants map[string]Participant) string {
	var sb strings.Builder
	for _, p := range sortedParticipants(participants) {
		sb.WriteString(p.FullName)
		sb.WriteString("\n")
	}
	return sb.String()
}

// BuildDetailedList renders one line per ticket: the abbreviated name for
// the base ticket, then one line per role-bonus ticket carrying the role's
// abbreviation, then one line per tag ticket.
func BuildDetailedList(participants map[string]Participant) string {
	var sb strings.Builder
	for _, p := range sortedParticipants(participants) {
		baseName := AbbreviateName(p.FirstName, p.LastName)
		sb.WriteString(baseName)
		sb.WriteString("\n")

		roleNames := make([]string, 0, len(p.Tickets.Roles))
		for name := range p.Tickets.Roles {
			roleNames = append(roleNames, name)
		}
		sort.Strings(roleNames)
		for _, name := range roleNames {
			rt := p.Tickets.Roles[name]
			for i := 0; i < rt.Quantity; i++ {
				sb.WriteString(fmt.Sprintf("%s %s\n", baseName, rt.Abbreviation))
			}
		}

		for i := 0; i < p.Tickets.Tag; i++ {
			sb.WriteString(fmt.Sprintf("%s TAG\n", baseName))
		}

		sb.WriteString("\n")
	}
	return sb.String()
}

// ChunkMessage splits content into pieces of at most size bytes, never
// cutting through a multibyte rune (accented names would otherwise yield
// invalid UTF-8 that the API rejects).
func ChunkMessage(content string, size int) []string {
	if content == "" {
		return []string{""}
	}
	var chunks []string
	for len(content) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		chunks = append(chunks, content[:cut])
		content = content[cut:]
	}
	return append(chunks, content)
}

type participantCSVRow struct {
	UserID       string `csv:"user_id"`
	FirstName    string `csv:"first_name"`
	LastName     string `csv:"last_name"`
	FullName     string `csv:"full_name"`
	Tickets      string `csv:"tickets"`
	RegisteredAt string `csv:"registered_at"`
}

// BuildParticipantCSV renders the export CSV. The tickets column carries
// the JSON form of the breakdown.
func BuildParticipantCSV(participants map[string]Participant) (string, error) {
	rows := make([]participantCSVRow, 0, len(participants))
	for _, p := range sortedParticipants(participants) {
		tickets, err := json.Marshal(p.Tickets)
		if err != nil {
			return "", err
		}
		rows = append(rows, participantCSVRow{
			UserID:       p.UserID,
			FirstName:    p.FirstName,
			LastName:     p.LastName,
			FullName:     p.FullName,
			Tickets:      string(tickets),
			RegisteredAt: p.RegisteredAt,
		})
	}
	return gocsv.MarshalString(&rows)
}
