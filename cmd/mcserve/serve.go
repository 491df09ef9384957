package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mcserve/contract"
	"mcserve/internal"
	"mcserve/repositories"
	"mcserve/repositories/storage"
	"mcserve/runtime"
	"mcserve/runtime/workers"
	"mcserve/sink"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	grpc3 "github.com/mama165/sdk-go/grpc"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"vawter.tech/stopper"
)

const (
	httpShutdownTimeout = 5 * time.Second
	// stopGrace is added to STOP_TIMEOUT before the remaining goroutines are cancelled.
	stopGrace = 5 * time.Second
)

// serve initializes all components, manages the server lifecycle, and centralizes error reporting.
func serve(ctx context.Context, config internal.Config) (int, error) {
	// 1. Logger
	logger := logs.GetLoggerFromString(config.LogLevel)
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	// 2. Optional journal (BadgerDB) and chat index (Bluge)
	var sinks []contract.EventSink
	var statusOpts []internal.StatusOption

	if config.BadgerFilepath != "" {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		// Defer ensures the database lock is released and buffers are flushed before the function returns.
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		journal := repositories.NewEventRepository(db, logger, config.JournalPageSize)
		sinks = append(sinks, storage.NewDiskSink(journal, logger))
		statusOpts = append(statusOpts, internal.WithJournal(journal))

		if logger.Enabled(ctx, slog.LevelDebug) {
			url := fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort)
			logger.Info("Debug Badger inspector available", "url", url)
			database.StartDebugServer(db, config.DebugPort, "/inspect", JournalMapper)
		}
	}

	if config.EnableSearch {
		blugeConfig := bluge.InMemoryOnlyConfig()
		if config.SearchFilepath != "" {
			blugeConfig = bluge.DefaultConfig(config.SearchFilepath)
		}
		blugeWriter, err := bluge.OpenWriter(blugeConfig)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
		}
		defer func() {
			logger.Info("Closing Bluge...")
			_ = blugeWriter.Close()
		}()

		index := sink.NewChatIndex(blugeWriter, logger)
		sinks = append(sinks, index)
		statusOpts = append(statusOpts, internal.WithSearch(index))
	}

	// 3. Setup Supervision & Orchestration
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(logger, sup, registry, runtime.Settings{
		Process: runtime.ProcessConfig{
			Command:     config.ServerCommand,
			Args:        config.Args(),
			Dir:         config.ServerDir,
			StopCommand: config.StopCommand,
			StopTimeout: config.StopTimeout,
		},
		TimelineCapacity:  config.TimelineCapacity,
		BufferSize:        config.BufferSize,
		SinkTimeout:       config.SinkTimeout,
		HealthInterval:    config.HealthInterval,
		CensoredWordsFile: config.CensoredWordsFile,
		CharReplacement:   charReplacement,
	})
	orchestrator.Add(sinks...)
	reporter := internal.NewHealthReporter(logger)
	orchestrator.Observe(reporter)

	// 4. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The goroutines outlive ctx: each one is stopped explicitly, in order.
	sctx := stopper.WithContext(context.WithoutCancel(ctx))
	errChan := make(chan error, 4)

	// 5. Start the Engine (server process and consumers)
	sctx.Go(func(sctx *stopper.Context) error {
		logger.Info("Starting orchestrator...")
		if err := orchestrator.Start(sctx); err != nil {
			errChan <- fmt.Errorf("orchestrator error: %w", err)
			return err
		}
		return nil
	})

	// 6. Status page
	status := internal.NewStatusServer(logger, orchestrator.Engine(), orchestrator.Filter(), registry,
		append(statusOpts, internal.WithVersion(version))...)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           status.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sctx.Go(func(*stopper.Context) error {
		logger.Info("Starting status server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("status server error: %w", err)
			return err
		}
		return nil
	})

	// 7. Optional gRPC health endpoint
	var grpcServer *grpc.Server
	if config.GrpcPort > 0 {
		address := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
		listener, err := net.Listen("tcp", address)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
		}
		grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(grpc3.UnaryLoggingInterceptor(logger)))
		healthpb.RegisterHealthServer(grpcServer, reporter.Server())
		sctx.Go(func(*stopper.Context) error {
			logger.Info("Starting gRPC health server", "address", address)
			if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errChan <- fmt.Errorf("gRPC server error: %w", err)
				return err
			}
			return nil
		})
	}

	// 8. Operator console
	consoleCtx, cancelConsole := context.WithCancel(sctx)
	defer cancelConsole()
	console := internal.NewConsole(logger, os.Stdin, os.Stdout, orchestrator.Engine(), orchestrator)
	sctx.Go(func(*stopper.Context) error {
		return console.Run(consoleCtx)
	})

	// 9. Wait for Stop or Error
	// The execution blocks here until a signal, the end of the console input or a crash.
	code := exitOK
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case <-orchestrator.ShutdownRequested():
	case runErr = <-errChan:
		code = exitRuntime
	}

	// 10. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	cancelConsole()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Status server did not stop cleanly", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	reporter.Shutdown()
	orchestrator.Stop()

	sctx.Stop(config.StopTimeout + stopGrace)
	if err := sctx.Wait(); err != nil && runErr == nil {
		logger.Warn("A component stopped with an error", "error", err)
	}
	logger.Info("Program stopped cleanly")
	return code, runErr
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}

// JournalMapper renders a journal entry for the Badger inspector.
func JournalMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	evt, err := repositories.DecodeDiskEvent(val)
	if err != nil {
		row.Detail = "Error: decode failed"
		return row
	}
	row.Type = string(evt.Kind)
	row.Detail = describe(evt)
	return row
}
