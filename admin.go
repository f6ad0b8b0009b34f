package main

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/omit"
	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/time/rate"
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
		Name:                     "hashtag",
		Description:              "[ADMIN] Definir a hashtag oficial do sorteio",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "hashtag",
				Description: "A hashtag do sorteio",
				Required:    true,
			},
		},
	}, handleHashtag)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "tag",
		Description:              "[ADMIN] Configurar verificação de tag do servidor",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "tag",
				Description: "A tag do servidor",
				Required:    true,
			},
			discord.ApplicationCommandOptionInt{
				Name:        "quantidade",
				Description: "Fichas concedidas pela tag (padrão: 1)",
				Required:    false,
			},
		},
	}, handleTag)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "fichas",
		Description:              "[ADMIN] Adicionar fichas extras para cargos",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionRole{
				Name:        "cargo",
				Description: "O cargo que concede fichas extras",
				Required:    true,
			},
			discord.ApplicationCommandOptionInt{
				Name:        "quantidade",
				Description: "Quantidade de fichas extras",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "abreviacao",
				Description: "Abreviação usada na lista detalhada",
				Required:    true,
			},
		},
	}, handleFichas)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "tirar",
		Description:              "[ADMIN] Remover fichas extras de cargos",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionRole{
				Name:        "cargo",
				Description: "O cargo a remover",
				Required:    true,
			},
		},
	}, handleTirar)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "atualizar",
		Description:              "[ADMIN] Atualizar fichas dos participantes",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
	}, handleAtualizar)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "blacklist",
		Description:              "[ADMIN] Gerenciar lista de bloqueios",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionString{
				Name:        "acao",
				Description: "Ação a executar",
				Required:    true,
				Choices: []discord.ApplicationCommandOptionChoiceString{
					{Name: "add", Value: "add"},
					{Name: "remove", Value: "remove"},
				},
			},
			discord.ApplicationCommandOptionUser{
				Name:        "usuario",
				Description: "O usuário alvo",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "motivo",
				Description: "Motivo do bloqueio",
				Required:    false,
			},
		},
	}, handleBlacklist)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "chat",
		Description:              "[ADMIN] Controlar quem pode escrever no canal (inscrições via botão)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionChannel{
				Name:        "canal",
				Description: "O canal a controlar",
				Required:    true,
			},
			discord.ApplicationCommandOptionBool{
				Name:        "estado",
				Description: "true bloqueia, false desbloqueia",
				Required:    true,
			},
		},
	}, handleChat)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "limpar",
		Description:              "[ADMIN] Limpar inscrições e mensagens",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionChannel{
				Name:        "canal_limpar",
				Description: "Canal para apagar as mensagens do bot (opcional)",
				Required:    false,
			},
		},
	}, handleLimpar)

	RegisterCommand(discord.SlashCommandCreate{
		Name:                     "anunciar",
		Description:              "[ADMIN] Enviar anúncio (mensagem/foto/video/embed/titulo)",
		DefaultMemberPermissions: omit.New(&adminPerm),
		Contexts:                 guildOnly,
		Options: []discord.ApplicationCommandOption{
			discord.ApplicationCommandOptionChannel{
				Name:        "canal",
				Description: "Canal de destino",
				Required:    true,
			},
			discord.ApplicationCommandOptionString{
				Name:        "titulo",
				Description: "Título do anúncio",
				Required:    false,
			},
			discord.ApplicationCommandOptionString{
				Name:        "mensagem",
				Description: "Texto do anúncio",
				Required:    false,
			},
			discord.ApplicationCommandOptionAttachment{
				Name:        "anexar",
				Description: "Foto ou vídeo para anexar",
				Required:    false,
			},
			discord.ApplicationCommandOptionBool{
				Name:        "usar_embed",
				Description: "Enviar como embed",
				Required:    false,
			},
		},
	}, handleAnunciar)
}

// ===========================
// Handlers
// ===========================

func handleHashtag(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	hashtag := data.String("hashtag")

	db.SetHashtag(hashtag)
	if err := event.CreateMessage(ephemeralMessage(fmt.Sprintf(MsgRaffleHashtagSet, hashtag))); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleTag(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	tag := data.String("tag")
	quantity := 1
	if q, ok := data.OptInt("quantidade"); ok {
		quantity = q
	}

	db.SetTagEnabled(true, tag, &quantity)
	if err := event.CreateMessage(ephemeralMessage(fmt.Sprintf(MsgRaffleTagSet, tag, quantity))); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleFichas(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	role := data.Role("cargo")
	quantity := data.Int("quantidade")
	abbreviation := data.String("abreviacao")

	db.AddBonusRole(role.ID.String(), role.Name, quantity, abbreviation)
	if err := event.CreateMessage(ephemeralMessage(fmt.Sprintf(MsgRaffleBonusSet, role.ID, quantity, abbreviation))); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleTirar(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	role := data.Role("cargo")

	db.RemoveBonusRole(role.ID.String())
	if err := event.CreateMessage(ephemeralMessage(fmt.Sprintf(MsgRaffleBonusRemoved, role.ID))); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

// restMember adapts a REST-fetched member to the calculator's view.
type restMember struct {
	m discord.Member
}

func (r restMember) RoleIDs() []snowflake.ID { return r.m.RoleIDs }
func (r restMember) DisplayName() string     { return r.m.EffectiveName() }
func (r restMember) Username() string        { return r.m.User.Username }

// handleAtualizar recomputes every participant's tickets from their current
// roles. Member lookups go through REST and are paced so a big participant
// list does not trip the rate limit.
func handleAtualizar(event *events.ApplicationCommandInteractionCreate) {
	guildID := event.GuildID()
	if guildID == nil {
		return
	}

	_ = event.DeferCreateMessage(true)

	settings := db.RaffleSettings()
	limiter := rate.NewLimiter(rate.Limit(4), 5)
	count := 0

	for userID := range db.AllParticipants() {
		if err := limiter.Wait(AppContext); err != nil {
			break
		}

		id, err := snowflake.Parse(userID)
		if err != nil {
			continue
		}

		member, err := event.Client().Rest.GetMember(*guildID, id)
		if err != nil {
			LogRaffle(MsgRaffleMemberFetchFail, userID, err)
			continue
		}

		tickets := CalculateTickets(restMember{*member}, settings.BonusRoles,
			settings.TagEnabled, settings.ServerTag, settings.TagQuantity)
		db.UpdateTickets(userID, tickets)
		count++
	}

	LogRaffle(MsgRaffleRecomputed, count)
	_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		ephemeralUpdate(fmt.Sprintf(MsgRaffleTicketsUpdated, count)))
}

func handleBlacklist(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	action := data.String("acao")
	user := data.User("usuario")
	reason := "Sem motivo especificado"
	if r, ok := data.OptString("motivo"); ok {
		reason = r
	}

	var content string
	switch action {
	case "add":
		db.AddToBlacklist(user.ID.String(), user.Username, reason)
		content = fmt.Sprintf(MsgRaffleBanned, user.ID, reason)
	case "remove":
		db.RemoveFromBlacklist(user.ID.String())
		content = fmt.Sprintf(MsgRaffleUnbanned, user.ID)
	default:
		content = ErrRaffleBlacklistAction
	}

	if err := event.CreateMessage(ephemeralMessage(content)); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

func handleChat(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	channel := data.Channel("canal")
	locked := data.Bool("estado")

	db.SetChatLock(locked, channel.ID.String())

	content := fmt.Sprintf(MsgRaffleChatUnlocked, channel.ID)
	if locked {
		content = fmt.Sprintf(MsgRaffleChatLocked, channel.ID)
	}
	if err := event.CreateMessage(ephemeralMessage(content)); err != nil {
		LogRaffle(MsgRaffleRespondError, err)
	}
}

// handleLimpar clears the participant set and optionally purges the bot's
// own messages from a channel (up to 500, newest first).
func handleLimpar(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()

	_ = event.DeferCreateMessage(true)

	db.ClearParticipants()

	deleted := 0
	if channel, ok := data.OptChannel("canal_limpar"); ok {
		selfUser, selfOk := event.Client().Caches.SelfUser()

		var before snowflake.ID
		for page := 0; page < 5; page++ {
			messages, err := event.Client().Rest.GetMessages(channel.ID, 0, before, 0, 100)
			if err != nil {
				LogRaffle(MsgRafflePurgeFail, channel.Name, err)
				break
			}
			if len(messages) == 0 {
				break
			}

			var toDelete []snowflake.ID
			for _, msg := range messages {
				if selfOk && msg.Author.ID == selfUser.ID {
					toDelete = append(toDelete, msg.ID)
				}
				before = msg.ID
			}

			if len(toDelete) > 0 {
				if err := event.Client().Rest.BulkDeleteMessages(channel.ID, toDelete); err != nil {
					LogRaffle(MsgRafflePurgeFail, channel.Name, err)
					break
				}
				deleted += len(toDelete)
			}
		}
	}

	_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		ephemeralUpdate(fmt.Sprintf(MsgRaffleCleared, deleted)))
}

func handleAnunciar(event *events.ApplicationCommandInteractionCreate) {
	data := event.SlashCommandInteractionData()
	channel := data.Channel("canal")
	titulo, _ := data.OptString("titulo")
	mensagem, _ := data.OptString("mensagem")
	useEmbed := false
	if e, ok := data.OptBool("usar_embed"); ok {
		useEmbed = e
	}

	_ = event.DeferCreateMessage(true)

	builder := discord.NewMessageCreateBuilder()

	if useEmbed {
		embed := discord.NewEmbedBuilder()
		if titulo != "" {
			embed.SetTitle(titulo)
		}
		if mensagem != "" {
			embed.SetDescription(mensagem)
		}
		builder.SetEmbeds(embed.Build())
	} else {
		switch {
		case titulo != "" && mensagem != "":
			builder.SetContentf("**%s**\n\n%s", titulo, mensagem)
		case titulo != "":
			builder.SetContentf("**%s**", titulo)
		case mensagem != "":
			builder.SetContent(mensagem)
		}
	}

	if attachment, ok := data.OptAttachment("anexar"); ok {
		resp, err := HttpClient.Get(attachment.URL)
		if err != nil {
			LogRaffle(MsgRaffleMediaFetchFail, attachment.Filename, err)
		} else {
			defer resp.Body.Close()
			builder.AddFile(attachment.Filename, "", resp.Body)
		}
	}

	if _, err := event.Client().Rest.CreateMessage(channel.ID, builder.Build()); err != nil {
		LogRaffle(MsgRaffleAnnounceFail, err)
		_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
			ephemeralUpdate(ErrRaffleAnnounceFail))
		return
	}

	_, _ = event.Client().Rest.UpdateInteractionResponse(event.ApplicationID(), event.Token(),
		ephemeralUpdate(MsgRaffleAnnounceSent))
}
