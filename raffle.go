package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
)

const (
	signupButtonID = "inscrever_button"
	signupModalID  = "inscricao_modal"
)

// ===========================
// Command Registration
// ===========================

func init() {
	adminPerm := discord.PermissionAdministrator

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "setup_inscricao",
		Description:              "[ADMIN] Configurar botão de inscrição e canal de inscritos",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts: []discord.InteractionContextType{
			discord.InteractionContextTypeGuild,
		},
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionChannel{
				Name:        "canal_botao",
				Description: "Canal onde o botão será criado",
				Required:    true,
				ChannelTypes: []discord.ChannelType{
					discord.ChannelTypeGuildText,
				},
			},
			discord.ApplicationCommandOptionChannel{
				Name:        "canal_inscricoes",
				Description: "Canal onde as inscrições aparecerão",
				Required:    true,
				ChannelTypes: []discord.ChannelType{
					discord.ChannelTypeGuildText,
				},
			},
			discord.ApplicationCommandOptionString{
				Name:        "mensagem",
				Description: "Mensagem personalizada (opcional)",
				Required:    false,
			},
			discord.ApplicationCommandOptionAttachment{
				Name:        "midia",
				Description: "Foto ou vídeo para anexar (opcional)",
				Required:    false,
			},
		},
	}, handleSetupInscricao)

	RegisterComponentHandler(signupButtonID, handleSignupButton)
	RegisterModalHandler(signupModalID, handleSignupModal)
}

// ===========================
// Helpers
// ===========================

// ephemeralMessage builds the standard ephemeral reply used across commands.
func ephemeralMessage(content string) discord.MessageCreate {
	return discord.NewMessageCreateBuilder().
		SetIsComponentsV2(true).
		AddComponents(
			discord.NewContainer(
				discord.NewTextDisplay(content),
			),
		).
		SetEphemeral(true).
		Build()
}

// ephemeralUpdate is the deferred-response counterpart of ephemeralMessage.
func ephemeralUpdate(content string) discord.MessageUpdate {
	return discord.NewMessageUpdateBuilder().
		SetIsComponentsV2(true).
		AddComponents(
			discord.NewContainer(
				discord.NewTextDisplay(content),
			),
		).
		Build()
}

// guildMember adapts a resolved interaction member to the calculator's view.
type guildMember struct {
	m discord.ResolvedMember
}

func (g guildMember) RoleIDs() []snowflake.ID { return g.m.RoleIDs }
func (g guildMember) DisplayName() string     { return g.m.EffectiveName() }
func (g guildMember) Username() string        { return g.m.User.Username }

// ===========================
// /setup_inscricao
// ===========================

func handleSetupInscricao(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	buttonChannel := data.Channel("canal_botao")
	signupChannel := data.Channel("canal_inscricoes")

	content := MsgRaffleDefaultSignup
	if msg, ok := data.OptString("mensagem"); ok && strings.TrimSpace(msg) != "" {
		content = msg
	}

	_ = event.DeferCreateMessage(true)

	db.SetInscricaoChannel(signupChannel.ID.String())

	builder := discord.NewMessageCreateBuilder().
		SetContent(content).
		AddActionRow(discord.NewPrimaryButton(MsgRaffleSignupButton, signupButtonID))

	if attachment, ok := data.OptAttachment("midia"); ok {
		resp, err := HttpClient.Get(attachment.URL)
		if err != nil {
			LogRaffle(MsgRaffleMediaFetchFail, attachment.Filename, err)
		} else {
			defer resp.Body.Close()
			builder.AddFile(attachment.Filename, "", resp.Body)
		}
	}

	if _, err := event.Client().Rest.CreateMessage(buttonChannel.ID, builder.Build()); err != nil {
		LogRaffle(MsgRafflePostFail, err)
		_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
			ephemeralUpdate(ErrRaffleSetupFail))
		return
	}

	LogRaffle(MsgRaffleSetupDone, buttonChannel.Name, signupChannel.Name)
	_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		ephemeralUpdate(fmt.Sprintf(MsgRaffleSetupSuccess, buttonChannel.ID, signupChannel.ID)))
}

// ===========================
// Signup Button & Modal
// ===========================

func handleSignupButton(event *events.ComponentInteractionCreate) {
	minName := 3

	err := event.Modal(discord.ModalCreate{
		CustomID: signupModalID,
		Title:    MsgRaffleModalTitle,
		Components: []discord.LayoutComponent{
			discord.NewActionRow(discord.TextInputComponent{
				CustomID:    "nome",
				Style:       discord.TextInputStyleShort,
				Label:       "Primeiro Nome",
				Placeholder: "Digite seu primeiro nome",
				Required:    true,
				MinLength:   &minName,
				MaxLength:   50,
			}),
			discord.NewActionRow(discord.TextInputComponent{
				CustomID:    "sobrenome",
				Style:       discord.TextInputStyleShort,
				Label:       "Sobrenome",
				Placeholder: "Digite seu sobrenome",
				Required:    true,
				MinLength:   &minName,
				MaxLength:   50,
			}),
			discord.NewActionRow(discord.TextInputComponent{
				CustomID:    "hashtag",
				Style:       discord.TextInputStyleShort,
				Label:       "Hashtag do Sorteio",
				Placeholder: "Ex: #Sorteio2025",
				Required:    true,
				MaxLength:   100,
			}),
		},
	})
	if err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

// handleSignupModal runs the registration gate: blacklist, duplicate,
// hashtag, channel. Order matters; the blacklist wins over everything.
func handleSignupModal(event *events.ModalSubmitInteractionCreate) {
	userID := event.User().ID.String()
	nome := strings.TrimSpace(event.Data.Text("nome"))
	sobrenome := strings.TrimSpace(event.Data.Text("sobrenome"))
	hashtag := strings.TrimSpace(event.Data.Text("hashtag"))

	if db.IsBlacklisted(userID) {
		_ = event.CreateMessage(ephemeralMessage(ErrRaffleBlacklisted))
		return
	}

	if db.IsRegistered(userID) {
		_ = event.CreateMessage(ephemeralMessage(ErrRaffleAlreadyIn))
		return
	}

	settings := db.RaffleSettings()
	if settings.Hashtag == "" {
		_ = event.CreateMessage(ephemeralMessage(ErrRaffleNoHashtag))
		return
	}

	if !strings.EqualFold(hashtag, settings.Hashtag) {
		_ = event.CreateMessage(ephemeralMessage(fmt.Sprintf(ErrRaffleWrongHashtag, settings.Hashtag)))
		return
	}

	channelIDStr := db.GetInscricaoChannel()
	if channelIDStr == "" {
		_ = event.CreateMessage(ephemeralMessage(ErrRaffleNoChannel))
		return
	}
	channelID, err := snowflake.Parse(channelIDStr)
	if err != nil {
		_ = event.CreateMessage(ephemeralMessage(ErrRaffleNoChannel))
		return
	}

	_ = event.DeferCreateMessage(true)

	msg, err := event.Client().Rest.CreateMessage(channelID, discord.NewMessageCreateBuilder().
		SetContentf("%s\n%s %s\n%s", discord.UserMention(event.User().ID), nome, sobrenome, hashtag).
		Build())
	if err != nil {
		LogRaffle(MsgRafflePostFail, err)
		_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
			ephemeralUpdate(ErrRaffleGeneric))
		return
	}

	var tickets Tickets
	if member := event.Member(); member != nil {
		tickets = CalculateTickets(guildMember{*member}, settings.BonusRoles,
			settings.TagEnabled, settings.ServerTag, settings.TagQuantity)
	} else {
		tickets = Tickets{Base: 1, Roles: map[string]RoleTicket{}}
	}

	db.AddParticipant(
		userID,
		nome,
		sobrenome,
		nome+" "+sobrenome,
		msg.ID.String(),
		tickets,
		time.Now().Format(time.RFC3339),
	)

	LogRaffle(MsgRaffleRegistered, nome+" "+sobrenome, userID, TotalTickets(tickets))
	_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		ephemeralUpdate(MsgRaffleSuccess))
}
