package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"courier/internal/api"
	"courier/internal/config"
	"courier/internal/conversation"
	"courier/internal/db"
	"courier/internal/mail"
	"courier/internal/otel"
	"courier/internal/store"
	"courier/internal/token"
	"courier/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "courier",
		Short:         "Direct-messaging backend",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			_ = godotenv.Load()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}

			pool, err := db.OpenPool(ctx, cfg.DBDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			return db.Migrate(ctx, pool)
		},
	}
}

func serve() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	cleanup, err := otel.Init(ctx, version.Name, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init otel")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown otel")
		}
	}()

	orm, err := db.Connect(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer func() {
		if err := db.Close(orm); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}()

	pool, err := db.OpenPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open pgx pool")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	users := store.NewUsers(orm)
	messages := store.NewMessages(orm, pool)
	revoked := store.NewRevokedTokens(orm)
	audit := store.NewAudit(orm)

	tokens, err := token.NewService(token.Config{
		SessionSecret: []byte(cfg.SessionSecret),
		ResetSecret:   []byte(cfg.ResetSecret),
		SessionTTL:    cfg.SessionTTL,
		ResetTTL:      cfg.ResetTTL,
	}, token.NewLedger(revoked))
	if err != nil {
		log.Fatal().Err(err).Msg("init token service")
	}

	mailer, err := mail.NewSMTP(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init mailer")
	}

	app, err := api.New(api.Deps{
		Users:    users,
		Messages: messages,
		Tokens:   tokens,
		Engine:   conversation.NewEngine(messages, users),
		Mailer:   mailer,
		Audit:    audit,
		Ready:    pool.Ping,
	}, api.Config{
		PublicBaseURL:  cfg.PublicBaseURL,
		AllowedOrigins: cfg.AllowedOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init api")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(app.Routes(), version.Name),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting courier")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
	return nil
}
