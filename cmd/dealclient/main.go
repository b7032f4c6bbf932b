package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"dealclient/internal/card"
	"dealclient/internal/config"
	"dealclient/internal/logging"
	"dealclient/internal/room"
	"dealclient/internal/storage"
	"dealclient/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	server := flag.String("server", "", "server websocket URL")
	roomID := flag.String("room", "", "room to join")
	player := flag.String("player", "", "local player id")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	for dst, v := range map[*string]string{&cfg.ServerURL: *server, &cfg.Room: *roomID, &cfg.PlayerID: *player} {
		if v != "" {
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("open database")
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := transport.Dial(ctx, joinURL(cfg.ServerURL, cfg.Room, cfg.PlayerID), transport.Options{
		SendQueue: cfg.SendQueue,
		Log:       logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("connect")
	}
	defer conn.Close()

	out := newConsole(os.Stdout)
	r, err := room.Open(ctx, conn, room.Options{
		Room:              cfg.Room,
		Self:              cfg.PlayerID,
		VetoTimeout:       cfg.VetoTimeout,
		VetoGrace:         cfg.VetoGrace,
		SettlementTimeout: cfg.SettlementTimeout,
		DialogTimeout:     cfg.DialogTimeout,
		Store:             store,
		UI:                out,
		Log:               logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("open room")
	}
	defer r.Close()

	go func() {
		if err := conn.Run(ctx); err != nil {
			logger.WithError(err).Error("connection lost")
		}
		stop()
	}()

	logger.WithFields(logrus.Fields{"room": cfg.Room, "player": cfg.PlayerID}).Info("joined room")
	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line := <-lines:
			if out.offer(line) {
				continue
			}
			if quit := command(ctx, r, out, line); quit {
				return
			}
		}
	}
}

func joinURL(server, roomID, player string) string {
	u, err := url.Parse(server)
	if err != nil {
		return server
	}
	q := u.Query()
	q.Set("room", roomID)
	q.Set("player", player)
	u.RawQuery = q.Encode()
	return u.String()
}

// command runs one console command and reports whether to quit.
func command(ctx context.Context, r *room.Room, out *console, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "play":
		if len(fields) != 2 {
			out.ReportError("usage: play <card-id>")
			return false
		}
		// Play waits on dialogs answered by later input lines.
		go r.Play(ctx, fields[1])
	case "pay":
		if err := r.Pay(ctx, fields[1:]); err != nil {
			out.ReportError(err.Error())
		}
	case "cancel":
		if err := r.Cancel(); err != nil {
			out.ReportError(err.Error())
		}
	case "hand":
		printHand(r, out)
	case "quit", "exit":
		return true
	default:
		out.ReportError(fmt.Sprintf("unknown command %q (play, pay, cancel, hand, quit)", fields[0]))
	}
	return false
}

func printHand(r *room.Room, out *console) {
	v := r.View()
	if v == nil || v.Self == nil {
		out.ReportError("waiting for the game state")
		return
	}
	turn := "waiting"
	if v.IsMyTurn() {
		turn = fmt.Sprintf("your turn, %d actions left", v.Snapshot.ActionsRemaining)
	}
	out.printf("%s\n", turn)
	for _, c := range v.Self.Hand {
		out.printf("  %-12s %s\n", c.ID, describe(c))
	}
	if o, ok := r.Obligation(); ok {
		out.printf("you owe %s %dM (pay <card-ids>)\n", o.Recipient, o.Amount)
	}
}

func describe(c card.Card) string {
	name := c.Name
	if name == "" {
		name = string(c.Type)
	}
	switch c.Type {
	case card.TypeAction:
		return fmt.Sprintf("%s [%s, %dM]", name, c.Action, c.Value)
	case card.TypeProperty:
		colors := make([]string, len(c.Colors))
		for i, col := range c.Colors {
			colors[i] = string(col)
		}
		return fmt.Sprintf("%s [%s]", name, strings.Join(colors, "/"))
	}
	return fmt.Sprintf("%s [%dM]", name, c.Value)
}
