package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"serper-mcp/internal/domain/payment"
	"serper-mcp/internal/domain/serper"
	"serper-mcp/internal/infrastructure/config"
	"serper-mcp/internal/infrastructure/facilitator"
	"serper-mcp/internal/infrastructure/logger"
	serperclient "serper-mcp/internal/infrastructure/serper"
	"serper-mcp/internal/interfaces/httpserver"
	mcproute "serper-mcp/internal/interfaces/httpserver/routes/mcp"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Bool("payment_testing_mode", cfg.PaymentTestingMode).
		Msg("Starting Serper MCP service")

	if !cfg.HasOperatorKey() {
		log.Warn().Msg("SERPER_API_KEY not set; paid calls will fail until configured")
	}
	if cfg.PaymentTestingMode {
		log.Warn().Msg("Payment testing mode enabled; facilitator verification is bypassed")
	}

	// Initialize infrastructure
	retryCfg := serperclient.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.SerperRetryMaxAttempts
	retryCfg.InitialDelay = time.Duration(cfg.SerperRetryInitialDelay) * time.Millisecond
	retryCfg.MaxDelay = time.Duration(cfg.SerperRetryMaxDelay) * time.Millisecond
	retryCfg.BackoffFactor = cfg.SerperRetryBackoffFactor

	upstream := serperclient.NewClient(cfg.SerperBaseURL, time.Duration(cfg.SerperHTTPTimeout)*time.Second, retryCfg)
	facilitatorClient := facilitator.NewClient(cfg.FacilitatorURL, cfg.FacilitatorAPIKey, cfg.PaymentTestingMode)

	// Payment gate and domain service
	gate := payment.NewGate(facilitatorClient)
	service := serper.NewService(upstream, gate, cfg.SerperAPIKey)

	// MCP routes
	specs, err := mcproute.ToolSpecs(cfg.PaymentAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build tool registry")
	}
	serperMCP := mcproute.NewSerperMCP(service, facilitatorClient, specs)
	mcpRoute := mcproute.NewMCPRoute(serperMCP)

	// Start server
	server := httpserver.NewHTTPServer(cfg, mcpRoute)
	log.Info().Str("address", ":"+cfg.HTTPPort).Msg("Server listening")

	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
