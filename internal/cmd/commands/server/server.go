package server

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/mediaops/stagehand/internal/api"
	"github.com/mediaops/stagehand/internal/cmd/base"
	"github.com/mediaops/stagehand/internal/config"
	"github.com/mediaops/stagehand/internal/server"
	"github.com/mediaops/stagehand/internal/workflow"
	"github.com/mediaops/stagehand/pkg/pcloud"
	"github.com/mediaops/stagehand/pkg/worksection"
)

// shutdownGrace is how long in-flight deliveries get to finish after
// the listener stops.
const shutdownGrace = 30 * time.Second

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the webhook server"
}

func (c *Command) Help() string {
	return `Usage: stagehand server -config=<path>

  Runs the Stagehand webhook server: listens for Worksection project
  webhooks and provisions pCloud folders for created projects.` + "\n\n" + c.flagUsage()
}

func (c *Command) flagUsage() string {
	return `Options:

  -config=<path>
      Path to the HCL configuration file. Required.`
}

func (c *Command) Flags() *flag.FlagSet {
	f := flag.NewFlagSet("server", flag.ContinueOnError)
	f.StringVar(&c.flagConfig, "config", "", "Path to config file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if c.flagConfig == "" {
		c.UI.Error("-config flag is required")
		return 1
	}

	cfg, err := config.Load(afero.NewOsFs(), c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "stagehand",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	tracker, err := worksection.NewClient(cfg.Tracker, logger.Named("tracker"))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating tracker client: %v", err))
		return 1
	}

	storage, err := pcloud.NewClient(cfg.Storage, logger.Named("pcloud"))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating storage client: %v", err))
		return 1
	}
	folders := pcloud.NewFolderService(storage, logger.Named("pcloud"))
	sharer := pcloud.NewShareService(storage, folders, logger.Named("pcloud"))

	wf := workflow.New(tracker, folders, sharer, cfg.RootFolder, logger.Named("workflow"))
	dispatcher := workflow.NewDispatcher(wf, cfg.Webhook.QueueSize, logger.Named("dispatcher"))

	srv := server.Server{
		Config:     cfg,
		Logger:     logger.Named("api"),
		Dispatcher: dispatcher,
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Webhook.Path, api.WebhookHandler(srv))
	mux.Handle("/health", api.HealthHandler(srv))
	mux.Handle("/api/v1/status", api.StatusHandler(srv))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The consumer is deliberately not tied to the signal context:
	// deliveries accepted before shutdown get the drain grace period.
	dispatcher.Start()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening for webhooks",
			"addr", cfg.ListenAddr, "path", cfg.Webhook.Path)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down HTTP server", "error", err)
	}

	// Finish deliveries that were accepted before the listener closed.
	dispatcher.Drain(shutdownGrace)
	return 0
}
