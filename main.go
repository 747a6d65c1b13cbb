package main

import (
	"context"
	"errors"
	"fmt"
	"jobmail/compose"
	"jobmail/config"
	"jobmail/locales"
	"jobmail/mailer"
	"jobmail/middleware"
	"jobmail/models"
	"jobmail/server"
	"jobmail/storage"
	"jobmail/utils"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Opts with all CLI options
type Opts struct {
	Config  string `short:"c" long:"config" env:"JOBMAIL_CONFIG" default:"config.toml" description:"config file"`
	EnvFile string `long:"env-file" default:".env" description:"dotenv file loaded before the config"`

	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", opts.EnvFile, err)
	}

	cfg, err := config.LoadConfig(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		utils.Log.Info("Termination signal received")
		cancel()
	}()

	if err := run(ctx, cfg, opts.Debug); err != nil {
		utils.Log.Error("Server failed: %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()
	utils.Log.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, debug bool) error {
	level := utils.ParseLevel(cfg.Log.Level)
	if debug {
		level = utils.DEBUG
	}
	settings := storage.NewSettingsStorage(cfg.Storage.SettingsFile)
	current := settings.Load()

	var secrets []string
	for _, key := range models.SecretKeys {
		if v := current.Get(key); v != "" {
			secrets = append(secrets, v)
		}
	}
	if cfg.Access.Secret != "" {
		secrets = append(secrets, cfg.Access.Secret)
	}
	utils.SetupLog(level, os.Stdout, secrets...)
	utils.Log.Info("Starting jobmail version %s", revision)

	if err := utils.InitI18n(locales.FS); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	resumes := storage.NewResumeStorage(cfg.Storage.ResumeDir, cfg.Storage.PreferredResume)
	generator := compose.NewGenerator(settings, compose.WithInterval(cfg.Compose.Interval()))

	transport, err := mailer.NewTransport(cfg.Mail, settings)
	if err != nil {
		return err
	}
	var archiver mailer.Archiver
	if cfg.IMAP.Enabled() {
		archiver = mailer.NewIMAPArchiver(cfg.IMAP, settings)
	}
	sender := mailer.NewSender(transport, settings, resumes, archiver)

	guard := middleware.NewAccessGuard(settings, cfg.Access.Secret, time.Duration(cfg.Access.TokenTTL)*time.Hour)

	sessions, err := storage.NewSessionStorage(filepath.Join(cfg.Server.DataDir, "sessions.db"))
	if err != nil {
		return fmt.Errorf("failed to open session storage: %w", err)
	}
	defer sessions.Close()

	limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimit, time.Minute)
	go limiter.Run(ctx, time.Minute)
	go cleanupSessions(ctx, sessions, time.Hour)

	app, err := server.New(server.Deps{
		Config:    cfg,
		Settings:  settings,
		Resumes:   resumes,
		Generator: generator,
		Sender:    sender,
		Guard:     guard,
		Sessions:  sessions,
		Limiter:   limiter,
		Version:   revision,
	})
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			utils.Log.Warn("Shutdown error: %v", err)
		}
	}()

	utils.Log.WithFields(map[string]interface{}{
		"transport": transport.Name(),
		"settings":  settings.Path(),
		"resumes":   cfg.Storage.ResumeDir,
	}).Info("Listening on %s", cfg.Addr())
	return app.Listen(cfg.Addr())
}

// cleanupSessions drops expired sessions every interval until ctx is done
func cleanupSessions(ctx context.Context, sessions *storage.SessionStorage, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.Cleanup()
			if err != nil {
				utils.Log.Warn("Session cleanup failed: %v", err)
				continue
			}
			if n > 0 {
				utils.Log.Debug("Removed %d expired sessions", n)
			}
		}
	}
}
