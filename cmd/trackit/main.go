package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"trackit/internal/cli"
	"trackit/internal/client"
	"trackit/internal/config"
	"trackit/internal/logging"
	"trackit/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "client configuration file")
	flag.Usage = func() { cli.PrintHelp(os.Stderr) }
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Prefix: "trackit"})

	sessions, err := client.NewSessionStore(cfg.SessionPath)
	if err != nil {
		log.Fatal("cannot locate session file", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Run(ctx, flag.Args(), cli.Env{
		Client:   client.New(cfg.ServerURL, cfg.Timeout),
		Sessions: sessions,
		Token:    cfg.Token,
		Timeout:  cfg.Timeout,
		RunBoard: tui.Run,
	})
	stop()
	os.Exit(code)
}
