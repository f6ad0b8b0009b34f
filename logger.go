package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	// Style definitions
	infoColor     = color.New(color.FgHiBlack)
	warnColor     = color.New(color.FgHiYellow)
	errorColor    = color.New(color.FgHiRed)
	fatalColor    = color.New(color.FgHiRed, color.Bold)
	databaseColor = color.New(color.FgHiBlack)
	raffleColor   = color.New(color.FgHiMagenta)
	healthColor   = color.New(color.FgHiMagenta)

	IsSilent  = false
	LogToFile = false

	// Global default logger
	Logger *slog.Logger

	// Log file handling
	logFile *os.File
	logMu   sync.Mutex
)

func init() {
	InitLogger(false, false)
}

// InitLogger initializes the global structured logger
func InitLogger(silent bool, saveToFile bool) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	LogToFile = saveToFile
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	// Clean up previous file if it exists (e.g. during reload)
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout
	var err error

	if LogToFile {
		exePath, exeErr := os.Executable()
		logName := "sorteio.log" // Fallback
		if exeErr == nil {
			logName = filepath.Base(exePath) + ".log"
		}

		logFile, err = os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", logName, err)
		} else {
			writer = io.MultiWriter(os.Stdout, logFile)
		}
	}

	// Force colors to be enabled even if writing to a file/pipe avoids detection
	color.NoColor = false

	handler := NewBotLogHandler(writer, &BotLogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func SetSilentMode(silent bool) {
	InitLogger(silent, LogToFile)
}

// --- Log Functions ---

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

// LogFatal panics instead of calling os.Exit so deferred cleanup still runs;
// main recovers the panic and exits.
func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), slog.LevelError+4, msg)
	panic(msg)
}

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

func LogDatabase(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "database"))
}

func LogRaffle(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "raffle"))
}

func LogHealth(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "health"))
}

// --- Custom Slog Handler ---

type BotLogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

type BotLogHandler struct {
	w    io.Writer
	opts *BotLogHandlerOptions
	mu   *sync.Mutex
}

func NewBotLogHandler(w io.Writer, opts *BotLogHandlerOptions) *BotLogHandler {
	if opts == nil {
		opts = &BotLogHandlerOptions{Level: slog.LevelInfo}
	}
	return &BotLogHandler{
		w:    w,
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *BotLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Silent {
		return false
	}
	return level >= h.opts.Level.Level()
}

func (h *BotLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Silent {
		return nil
	}

	timeStr := time.Now().Format("15:04:05")
	var levelStr string
	var levelColor *color.Color

	switch {
	case r.Level >= slog.LevelError+4: // Fatal
		levelStr = "FATAL"
		levelColor = fatalColor
	case r.Level >= slog.LevelError:
		levelStr = "ERROR"
		levelColor = errorColor
	case r.Level >= slog.LevelWarn:
		levelStr = "WARN"
		levelColor = warnColor
	case r.Level >= slog.LevelInfo:
		levelStr = "INFO"
		levelColor = infoColor
	}

	// Extract component if present
	component := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	// Output: 15:04:05 [INFO] [COMPONENT] Message
	// Timestamp is always printed in default color.
	fmt.Fprintf(h.w, "%s", timeStr)

	if component != "" {
		// Component-specific logs: Level tag (if not INFO) is isolated, Message bleeds component color
		if levelStr != "INFO" {
			fmt.Fprintf(h.w, " %s", levelColor.Sprintf("[%s]", levelStr))
		}
		compColor := getComponentColor(component)
		fmt.Fprintf(h.w, " %s\n", compColor.Sprintf("[%s] %s", component, r.Message))
	} else {
		// General logs: Level tag color bleeds into the message
		fmt.Fprintf(h.w, " %s\n", levelColor.Sprintf("[%s] %s", levelStr, r.Message))
	}

	return nil
}

func (h *BotLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *BotLogHandler) WithGroup(name string) slog.Handler       { return h }

func getComponentColor(name string) *color.Color {
	switch name {
	case "DATABASE":
		return databaseColor
	case "RAFFLE":
		return raffleColor
	case "HEALTH":
		return healthColor
	default:
		return color.New(color.FgCyan)
	}
}

// @config
const (
	MsgConfigFailedToLoad = "Failed to load config: %v"
	MsgConfigMissingToken = "DISCORD_TOKEN is not set in .env file"
)

// @database
const (
	MsgDatabaseLoaded      = "Database loaded (%d participants, %d blacklisted)"
	MsgDatabaseLoadFail    = "Failed to load database, starting with defaults: %v"
	MsgDatabaseSaveFail    = "Failed to save database: %v"
	MsgDatabaseCleared     = "Participants cleared"
	MsgDatabaseFullReset   = "Database reset to factory defaults"
	MsgDatabaseStrictAbort = "Refusing to start with an unreadable database (STRICT_LOAD=true): %v"
)

// @loader
const (
	MsgLoaderPanicRecovered     = "Recovered from panic in handler: %v"
	MsgLoaderSyncCommands       = "Syncing commands... (Mode: %s)"
	MsgLoaderProdStarting       = "Registering commands globally..."
	MsgLoaderProdFail           = "failed to register global commands: %w"
	MsgLoaderProdRegistered     = "Registered global command: %s"
	MsgLoaderDevStarting        = "Registering commands to guild: %s"
	MsgLoaderDevFail            = "Failed to register guild commands: %v"
	MsgLoaderDevRegistered      = "Registered guild command: %s"
	MsgLoaderDevGlobalClear     = "Clearing global commands..."
	MsgLoaderDevGlobalClearFail = "Failed to clear global commands: %v"
	MsgDaemonStarting           = "Starting..."
)

// @bot
const (
	MsgBotStarting      = "Starting %s..."
	MsgBotReady         = "%s is ready! (ID: %s) (PID: %d) (Took %dms)"
	MsgBotShutdown      = "Shutting down %s..."
	MsgBotKillingOld    = "Killing running instance... (PID: %d)"
	MsgBotOldTerminated = "Old instance terminated."
	MsgBotRegisterFail  = "Command registration failed: %v"
	MsgGenericError     = "%v"
)

// @health
const (
	MsgHealthListening = "Healthcheck endpoint listening on port %s"
	MsgHealthStopped   = "Healthcheck endpoint stopped: %v"
)

// @raffle
const (
	// System logs
	MsgRaffleRespondError    = "Failed to respond to interaction: %v"
	MsgRafflePostFail        = "Failed to post registration message: %v"
	MsgRaffleRegistered      = "Registered participant %s (%s) with %d tickets"
	MsgRaffleSetupDone       = "Signup button posted in #%s, registrations go to #%s"
	MsgRaffleMemberFetchFail = "Failed to fetch member %s: %v"
	MsgRaffleRecomputed      = "Recomputed tickets for %d participants"
	MsgRafflePurgeFail       = "Failed to purge messages in %s: %v"
	MsgRaffleExportFail      = "Failed to build participant export: %v"
	MsgRaffleAnnounceFail    = "Failed to send announcement: %v"
	MsgRaffleMediaFetchFail  = "Failed to fetch attachment %s: %v"

	// User-facing messages (pt-BR, as the community speaks)
	ErrRaffleBlacklisted      = "🚫 Você está banido e não pode participar."
	ErrRaffleAlreadyIn        = "⚠️ Você já está inscrito no sorteio."
	ErrRaffleNoHashtag        = "⚠️ Hashtag não configurada."
	ErrRaffleWrongHashtag     = "❌ Hashtag incorreta!\nCorreta: %s"
	ErrRaffleNoChannel        = "❌ Canal de inscrições não configurado."
	ErrRaffleGeneric          = "❌ Erro ao processar inscrição."
	MsgRaffleSuccess          = "✅ Inscrição realizada com sucesso!"
	MsgRaffleSetupSuccess     = "✅ Configuração concluída!\n\n• Botão criado em: <#%s>\n• Inscrições aparecem em: <#%s>"
	ErrRaffleSetupFail        = "❌ Erro ao configurar inscrição. Verifique os logs."
	MsgRaffleDefaultSignup    = "🎉 **SORTEIO ABERTO!**\nClique no botão abaixo para participar."
	MsgRaffleSignupButton     = "Inscrever-se no Sorteio"
	MsgRaffleModalTitle       = "Inscrição no Sorteio"
	MsgRaffleHashtagSet       = "✅ Hashtag definida: %s"
	MsgRaffleTagSet           = "✅ Tag configurada:\nTag: %s\nFichas: %d"
	MsgRaffleBonusSet         = "✅ Bônus configurado:\nCargo: <@&%s>\nFichas: %d\nAbreviação: %s"
	MsgRaffleBonusRemoved     = "✅ Bônus removido do cargo <@&%s>"
	MsgRaffleTicketsUpdated   = "✅ Atualizadas fichas de %d participantes."
	MsgRaffleBanned           = "✅ <@%s> foi banido do sorteio.\nMotivo: %s"
	MsgRaffleUnbanned         = "✅ <@%s> foi desbanido do sorteio."
	ErrRaffleBlacklistAction  = "❌ Ação inválida. Use \"add\" ou \"remove\"."
	MsgRaffleChatLocked       = "✅ Chat <#%s> bloqueado (inscrições via botão)."
	MsgRaffleChatUnlocked     = "✅ Chat <#%s> desbloqueado (inscrições via botão)."
	MsgRaffleCleared          = "✅ Inscrições limpas. Mensagens deletadas: %d"
	MsgRaffleAnnounceSent     = "✅ Anúncio enviado."
	ErrRaffleAnnounceFail     = "❌ Erro ao enviar anúncio."
	MsgRaffleNotRegistered    = "❌ Você não está inscrito no sorteio."
	MsgRaffleStatusFound      = "✅ Inscrição encontrada:\nNome: %s\nFichas: %d\n%s"
	MsgRaffleNoParticipants   = "Nenhum participante inscrito ainda."
	MsgRaffleNothingToExport  = "Nenhum participante para exportar."
	ErrRaffleExport           = "❌ Erro ao exportar participantes."
)
