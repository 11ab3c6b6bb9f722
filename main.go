package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"localboard/internal/client"
	"localboard/internal/config"
	boardnet "localboard/internal/net"
	"localboard/internal/state"
	"localboard/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (default $"+config.EnvFile+")")
	port := flag.Int("port", 0, "listen port, overrides the config file")
	headless := flag.Bool("headless", false, "run the host without a window")
	noMDNS := flag.Bool("no-mdns", false, "do not advertise the host on the local network")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *noMDNS {
		cfg.Advertise = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if link := flag.Arg(0); strings.HasPrefix(link, boardnet.URLScheme) {
		runClient(ctx, cfg, link)
		return
	}
	runHost(ctx, stop, cfg, *headless)
}

func runHost(ctx context.Context, stop context.CancelFunc, cfg config.Config, headless bool) {
	log.Println("Starting as HOST")

	hub := boardnet.NewHub(state.NewOperationLog(), cfg.SendQueue, cfg.MaxMessageBytes)
	go hub.Run(ctx)

	if cfg.Advertise {
		server, err := boardnet.Advertise(cfg.ServiceName, cfg.Port)
		if err != nil {
			log.Printf("[MDNS] Advertising disabled: %v", err)
		} else {
			defer server.Shutdown()
		}
	}

	shareLink := boardnet.ShareLink(cfg.Port)
	log.Printf("Share link: %s", shareLink)

	router := boardnet.NewRouter(hub, boardnet.Canvas{Width: cfg.CanvasWidth, Height: cfg.CanvasHeight})
	served := make(chan error, 1)
	go func() { served <- boardnet.Serve(ctx, cfg.Addr(), router) }()

	if headless {
		if err := <-served; err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
		return
	}

	local := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	board := ui.NewBoardWidget(cfg.CanvasWidth, cfg.CanvasHeight)
	go connect(ctx, local, board)
	ui.RunApp(local, shareLink, board)

	stop()
	if err := <-served; err != nil {
		log.Printf("[HTTP] Server stopped: %v", err)
	}
}

func runClient(ctx context.Context, cfg config.Config, link string) {
	log.Println("Starting as CLIENT")
	address := strings.TrimSuffix(strings.TrimPrefix(link, boardnet.URLScheme), "/")
	if address == "" {
		found, err := boardnet.Browse(cfg.ServiceName, 3*time.Second)
		if err != nil {
			log.Fatalf("Could not find a host: %v", err)
		}
		address = found
	}

	board := ui.NewBoardWidget(cfg.CanvasWidth, cfg.CanvasHeight)
	go connect(ctx, address, board)
	ui.RunApp(address, "", board)
}

// connect joins the host at address and feeds its events into board until
// the connection ends.
func connect(ctx context.Context, address string, board *ui.BoardWidget) {
	var (
		session *client.Session
		err     error
	)
	rec := client.NewReconciler(board.Surface(), board.Changed)
	// the host's listener may still be starting
	for attempt := 0; attempt < 10; attempt++ {
		session, err = client.Dial(ctx, address, rec)
		if err == nil || ctx.Err() != nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}
	if err != nil {
		board.SetStatus(fmt.Sprintf("Connection failed: %v", err))
		return
	}
	defer session.Close()

	board.Attach(session)
	board.SetStatus("Connected to " + address)

	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		board.SetStatus(fmt.Sprintf("Disconnected from host: %v", err))
	}
}
