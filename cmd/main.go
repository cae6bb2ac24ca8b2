package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-graph/dispatch"
	"chat-graph/internal"
	"chat-graph/repositories"
	"chat-graph/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle. Keeping
// the logic out of main ensures deferred cleanup (badger close, sequence
// release) executes on every exit path.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Storage (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("badger open: %w", err)
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return err
	}
	defer messages.Close()

	// 3. Event dispatcher (push channel fan-out)
	dispatcher := dispatch.NewDispatcher(log, dispatch.NewRegistry(), config.EventBufferSize)
	go func() {
		_ = dispatcher.Run(ctx)
	}()

	// 4. Resolver layer. The transport adapter (request/response cycle plus
	// push delivery) plugs in on top of this bundle.
	resolvers := services.Resolvers{
		Auth:     services.NewAuthService(users, config.AuthTokenDuration),
		Users:    services.NewUserService(users),
		Groups:   services.NewGroupService(groups, users, messages, dispatcher, log),
		Messages: services.NewMessageService(groups, messages, dispatcher, log),
	}
	log.Info("resolver layer ready", "operations", resolvers.Operations())

	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, nil, nil)
		log.Info("debug inspect server started", "port", config.DebugPort)
	}

	log.Info("chat-graph ready", "host", config.Host, "port", config.Port)
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}
