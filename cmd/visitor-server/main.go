package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pandasuvm/visitor-management-system/internal/config"
	"github.com/pandasuvm/visitor-management-system/internal/db"
	"github.com/pandasuvm/visitor-management-system/internal/httpapi"
	"github.com/pandasuvm/visitor-management-system/internal/notify"
	"github.com/pandasuvm/visitor-management-system/internal/notify/textbridge"
	"github.com/pandasuvm/visitor-management-system/internal/notify/wabridge"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/service"
	"github.com/pandasuvm/visitor-management-system/internal/visitor/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "visitor-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{Units: cfg.SeedUnits}); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	requests := sqlite.NewRequestStore(conn, writer, time.Duration(cfg.ValidityHours)*time.Hour)
	units := sqlite.NewUnitStore(conn, writer)

	// Core
	pending := service.NewPendingTable()
	passes := service.NewGatepassIssuer(requests)
	engine := service.NewEngine(requests, pending, passes, notify.WhatsAppJID, logger)

	// Transports.  The WhatsApp bridge is the primary resident channel;
	// when it has no send URL configured, alerts go to the log instead.
	wa := wabridge.New(engine, wabridge.Config{SendURL: cfg.WABridgeSendURL, Token: cfg.WABridgeToken}, logger)
	txt := textbridge.New(engine, textbridge.Config{SendURL: cfg.TextBridgeSendURL, Token: cfg.TextBridgeToken}, logger)

	var gateway notify.Gateway = wa
	if cfg.WABridgeSendURL == "" {
		gateway = notify.NewLogOnly(logger)
	}

	intake := service.NewIntakeService(requests, units, pending, gateway, notify.WhatsAppJID, logger)

	pruner := service.NewCorrelationPruner(pending, service.PrunerConfig{
		RetentionHours: cfg.CorrelationRetentionHours,
		IntervalHours:  cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:            logger,
		Addr:              cfg.HTTPAddr,
		Intake:            intake,
		Passes:            passes,
		Requests:          requests,
		Units:             units,
		WABridgeInbound:   wa.HandleInbound,
		TextBridgeInbound: txt.HandleInbound,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
