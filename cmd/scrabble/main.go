// Command scrabble runs one game at the terminal: hot-seat on one machine, or
// hosted for guests who join over websockets or a shared redis channel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/fuubian/Scrabble-sub000/internal/app"
	"github.com/fuubian/Scrabble-sub000/internal/app/lobby"
	"github.com/fuubian/Scrabble-sub000/internal/bot"
	"github.com/fuubian/Scrabble-sub000/internal/config"
	"github.com/fuubian/Scrabble-sub000/internal/dictionary"
	"github.com/fuubian/Scrabble-sub000/internal/domain"
	"github.com/fuubian/Scrabble-sub000/internal/game"
	"github.com/fuubian/Scrabble-sub000/internal/logging"
	"github.com/fuubian/Scrabble-sub000/internal/ports"
	"github.com/fuubian/Scrabble-sub000/internal/store"
	"github.com/fuubian/Scrabble-sub000/internal/transport/redisbus"
	"github.com/fuubian/Scrabble-sub000/internal/transport/ws"
	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

const tokenIssuer = "scrabble"

type options struct {
	mode      string
	name      string
	bots      int
	guests    int
	token     string
	url       string
	transport string
}

func main() {
	var opts options
	flag.StringVar(&opts.mode, "mode", "local", "local, host or join")
	flag.StringVar(&opts.name, "name", "", "player name, generated when empty")
	flag.IntVar(&opts.bots, "bots", 1, "computer players (local and host)")
	flag.IntVar(&opts.guests, "guests", 1, "remote players to wait for (host)")
	flag.StringVar(&opts.token, "token", "", "admission token (join)")
	flag.StringVar(&opts.url, "url", "", "host websocket url (join), defaults to HOST_URL")
	flag.StringVar(&opts.transport, "transport", "ws", "ws or redis")
	flag.Parse()

	settings := config.LoadSettings()
	logger := logging.New(os.Stderr, settings.LogLevel, settings.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, settings, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("main: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, settings config.Settings, logger runtime.Logger) error {
	if err := config.LoadGameConfig(settings.GameConfigPath); err != nil {
		logger.Warn("main: game config %s not loaded, using defaults: %v", settings.GameConfigPath, err)
	}
	rules := config.Rules()

	var dict ports.Dictionary
	if wl, err := dictionary.Load(settings.DictionaryPath); err != nil {
		logger.Warn("main: no dictionary (%v), every word is accepted and computer players pass", err)
		dict = dictionary.Permissive{}
	} else {
		logger.Info("main: dictionary with %d words", wl.Len())
		dict = wl
	}

	stats, closeStats, err := store.Open(ctx, settings.StatsDriver, settings.StatsDSN)
	if err != nil {
		return fmt.Errorf("open stats store: %w", err)
	}
	defer func() {
		if err := closeStats(); err != nil {
			logger.Warn("main: closing stats store: %v", err)
		}
	}()

	console := NewConsole(os.Stdin, os.Stdout)
	lob := lobby.NewService(stats, nil)

	switch opts.mode {
	case "local":
		return runHost(ctx, opts, settings, rules, dict, stats, lob, console, logger, false)
	case "host":
		return runHost(ctx, opts, settings, rules, dict, stats, lob, console, logger, true)
	case "join":
		return runJoin(ctx, opts, settings, rules, dict, lob, console, logger)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
}

// runHost deals the game. With remote set it also admits guests and publishes
// every turn to them.
func runHost(ctx context.Context, opts options, settings config.Settings, rules config.GameConfig, dict ports.Dictionary,
	stats ports.StatsStore, lob *lobby.Service, console *Console, logger runtime.Logger, remote bool) error {

	name, err := lob.Join(opts.name, false)
	if err != nil {
		return err
	}
	if err := lob.SetReady(name, true); err != nil {
		return err
	}

	var guestNames []string
	if remote {
		for i := 0; i < opts.guests; i++ {
			g, err := lob.Join(fmt.Sprintf("Guest %d", i+1), false)
			if err != nil {
				return err
			}
			if err := lob.SetReady(g, true); err != nil {
				return err
			}
			guestNames = append(guestNames, g)
		}
	}

	if err := bot.LoadIdentities(settings.BotIdentitiesPath); err != nil {
		logger.Warn("main: bot identities not loaded: %v", err)
	}
	level, err := bot.ParseLevel(rules.BotLevel)
	if err != nil {
		logger.Warn("main: %v, using greedy", err)
		level = bot.BotLevelGreedy
	}
	agents := make([]*bot.Agent, 0, opts.bots)
	for i := 0; i < opts.bots; i++ {
		agent, err := bot.NewAgent(bot.GetBotIdentity(i), dict, level)
		if err != nil {
			return err
		}
		agentName, err := lob.Join(agent.Name, true)
		if err != nil {
			return err
		}
		agent.Name = agentName
		agents = append(agents, agent)
	}

	specs, err := lob.Seats()
	if err != nil {
		return err
	}
	roster := bot.Roster{}
	for i, spec := range specs {
		for _, a := range agents {
			if spec.Computer && spec.Name == a.Name {
				roster[i] = a
			}
		}
	}

	model := game.New(specs, dict, game.Options{RackSize: rules.RackSize, BingoBonus: rules.BingoBonus})
	if err := model.Start(); err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	sessionID := uuid.NewString()
	participant := uuid.NewString()
	cfg := app.SessionConfig{ID: sessionID, Participant: participant, LocalSeat: app.AnySeat, Authoritative: true, Rules: rules}
	deps := app.Deps{Model: model, Selector: roster, Renderer: console, Prompter: console, Lobby: lob, Stats: stats, Logger: logger}

	if remote {
		cfg.LocalSeat = 0
		tokens := app.NewTokenService(settings.SessionSecret, tokenIssuer)

		network, shutdown, err := openHostNetwork(ctx, opts, settings, sessionID, participant, tokens, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		deps.Network = network

		for i, spec := range specs {
			for _, g := range guestNames {
				if spec.Name != g {
					continue
				}
				token, err := tokens.Issue(app.Admission{SessionID: sessionID, Participant: uuid.NewString(), Seat: i})
				if err != nil {
					return err
				}
				if opts.transport == "redis" {
					fmt.Fprintf(os.Stdout, "%s: scrabble -mode join -transport redis -token %s\n", g, token)
					continue
				}
				joinURL, err := ws.JoinURL(settings.HostURL, token)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "%s: %s\n", g, joinURL)
			}
		}
	}

	session := app.NewSession(cfg, deps)
	return play(ctx, session, model, console, lob)
}

func openHostNetwork(ctx context.Context, opts options, settings config.Settings, sessionID, participant string,
	tokens *app.TokenService, logger runtime.Logger) (ports.Network, func(), error) {

	if opts.transport == "redis" {
		return openRedis(ctx, settings, sessionID, participant, logger)
	}

	host := ws.NewHost(sessionID, tokens, logger)
	srv := &http.Server{Addr: settings.ListenAddr, Handler: host.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("main: http server: %v", err)
		}
	}()
	go func() {
		for a := range host.Joined() {
			logger.Info("main: seat %d joined (%d connected)", a.Seat, host.Guests())
		}
	}()
	logger.Info("main: hosting session %s on %s", sessionID, settings.ListenAddr)

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("main: http shutdown: %v", err)
		}
		if err := host.Close(); err != nil {
			logger.Warn("main: closing host: %v", err)
		}
	}
	return host, shutdown, nil
}

func openRedis(ctx context.Context, settings config.Settings, sessionID, participant string, logger runtime.Logger) (ports.Network, func(), error) {
	if settings.RedisAddr == "" {
		return nil, nil, errors.New("redis transport needs REDIS_ADDR")
	}
	client, err := redisbus.NewClient(ctx, settings.RedisAddr, "", 0)
	if err != nil {
		return nil, nil, err
	}
	bus, err := redisbus.New(ctx, client, sessionID, participant, logger)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	shutdown := func() {
		if err := bus.Close(); err != nil {
			logger.Warn("main: closing bus: %v", err)
		}
		_ = client.Close()
	}
	return bus, shutdown, nil
}

// runJoin follows a session dealt by another participant.
func runJoin(ctx context.Context, opts options, settings config.Settings, rules config.GameConfig, dict ports.Dictionary,
	lob *lobby.Service, console *Console, logger runtime.Logger) error {

	if opts.token == "" {
		return errors.New("join needs -token")
	}
	admission, err := app.PeekAdmission(opts.token)
	if err != nil {
		return err
	}

	var (
		network  ports.Network
		shutdown func()
	)
	if opts.transport == "redis" {
		network, shutdown, err = openRedis(ctx, settings, admission.SessionID, admission.Participant, logger)
		if err != nil {
			return err
		}
	} else {
		hostURL := opts.url
		if hostURL == "" {
			hostURL = settings.HostURL
		}
		client, err := ws.Dial(ctx, hostURL, opts.token, logger)
		if err != nil {
			return err
		}
		network = client
		shutdown = func() {
			if err := client.Close(); err != nil {
				logger.Warn("main: closing connection: %v", err)
			}
		}
	}
	defer shutdown()

	if _, err := lob.Join(opts.name, false); err != nil {
		return err
	}

	model := game.New(nil, dict, game.Options{RackSize: rules.RackSize, BingoBonus: rules.BingoBonus})
	session := app.NewSession(app.SessionConfig{
		ID:          admission.SessionID,
		Participant: admission.Participant,
		LocalSeat:   admission.Seat,
		Rules:       rules,
	}, app.Deps{Model: model, Network: network, Renderer: console, Prompter: console, Lobby: lob, Logger: logger})
	return play(ctx, session, model, console, lob)
}

// play runs the session while console commands are fed to it.
func play(ctx context.Context, session *app.Session, model *game.Game, console *Console, lob *lobby.Service) error {
	go feedCommands(ctx, session, console)

	err := session.Run(ctx)
	if model.GameState() == domain.StateGameOver {
		printStandings(console, model.Players())
	}
	printLobby(console, lob)
	return err
}

func printStandings(console *Console, players []domain.Player) {
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })
	fmt.Fprintln(console.out, "final scores:")
	for i, p := range players {
		fmt.Fprintf(console.out, "  %d. %-16s %4d\n", i+1, p.Name, p.Score)
	}
}

func feedCommands(ctx context.Context, session *app.Session, console *Console) {
	select {
	case <-session.Ready():
	case <-session.Done():
		return
	}
	fmt.Fprintln(console.out, helpText)

	for {
		select {
		case <-session.Done():
			return
		case <-console.Closed():
			_ = session.Submit(ctx, app.Leave{Reason: "input closed"})
			return
		case line := <-console.Commands():
			if line == "help" || line == "h" {
				fmt.Fprintln(console.out, helpText)
				continue
			}
			intent, err := parseCommand(line)
			if err != nil && !errors.Is(err, errQuit) {
				console.ShowError(err)
				continue
			}
			if err := session.Submit(ctx, intent); err != nil {
				return
			}
			if errors.Is(err, errQuit) {
				return
			}
		}
	}
}

func printLobby(console *Console, lob *lobby.Service) {
	result := lob.LastResult()
	if result.Reason != "" {
		console.ShowNotice("back in the lobby: " + result.Reason)
	}
	for _, m := range lob.Members() {
		if m.Stats == nil {
			fmt.Fprintf(console.out, "  %-16s no games recorded\n", m.Name)
			continue
		}
		fmt.Fprintf(console.out, "  %-16s games %d  won %d  best %d\n", m.Name, m.Stats.Games, m.Stats.Wins, m.Stats.BestScore)
	}
}
