package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/common-nighthawk/go-figure"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/agrobridge/auth-service/auth"
	"github.com/agrobridge/auth-service/events"
	"github.com/agrobridge/auth-service/internal/config"
	"github.com/agrobridge/auth-service/server"
	"github.com/agrobridge/auth-service/token"
	"github.com/agrobridge/auth-service/token/keys"
	"github.com/agrobridge/auth-service/token/ledger"
	"github.com/agrobridge/auth-service/token/ledger/migrations"
	"github.com/agrobridge/auth-service/token/revocation"
	"github.com/agrobridge/auth-service/users"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Missing or unreadable signing keys are a startup failure, never a
	// degraded mode.
	keyPair, err := keys.Load(c.GetKeyID(), c.GetPrivateKeyPath(), c.GetPublicKeyPath())
	if err != nil {
		log.Fatalf("Failed to load signing keys: %s\n", err)
	}

	db, err := openPostgres(c)
	if err != nil {
		return fmt.Errorf("openPostgres: %w", err)
	}
	defer db.Close()

	redisOptions, err := redis.ParseURL(c.GetRedisURL())
	if err != nil {
		return fmt.Errorf("redis.ParseURL: %w", err)
	}
	redisClient := redis.NewClient(redisOptions)
	defer redisClient.Close()

	publisher, err := newEventPublisher(redisClient)
	if err != nil {
		return fmt.Errorf("newEventPublisher: %w", err)
	}
	defer publisher.Close()

	codec, err := token.NewCodec(keyPair, c.GetIssuer(), c.GetAudience(),
		token.WithTokenTTLs(c.GetAccessTokenTTL(), c.GetRefreshTokenTTL()))
	if err != nil {
		return fmt.Errorf("token.NewCodec: %w", err)
	}

	authService, err := auth.NewService(
		auth.Repos{Users: users.NewPostgresRepo(db), Ledger: ledger.NewPostgresRepo(db)},
		codec,
		revocation.NewRedisStore(redisClient),
		events.NewWatermillPublisher(publisher),
		auth.WithLogger(logger),
		auth.WithRefreshTimeout(c.GetRefreshTimeout()),
	)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	s, err := server.New(c, authService, keyPair, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: s}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func openPostgres(c config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.GetPostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("goose.SetDialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return nil, fmt.Errorf("goose.Up: %w", err)
	}

	return db, nil
}

func newEventPublisher(client *redis.Client) (*redisstream.Publisher, error) {
	return redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		watermill.NewStdLogger(false, false),
	)
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
