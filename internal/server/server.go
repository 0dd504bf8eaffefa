package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/mediaops/stagehand/internal/config"
	"github.com/mediaops/stagehand/internal/workflow"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger

	// Dispatcher queues webhook deliveries for sequential processing.
	Dispatcher *workflow.Dispatcher
}
