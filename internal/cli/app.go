package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"symptom-triage/internal/appointment"
	"symptom-triage/internal/config"
	"symptom-triage/internal/consultation"
	"symptom-triage/internal/knowledge"
	"symptom-triage/internal/nlp"
	"symptom-triage/internal/platform/telegram"
	"symptom-triage/internal/ratelimit"
	"symptom-triage/internal/report"
	"symptom-triage/internal/server"
	"symptom-triage/internal/store"
	"symptom-triage/internal/triage"
)

// app holds the wired services shared by the subcommands.
type app struct {
	cfg          *config.Config
	log          *zap.Logger
	db           *store.DB
	consultation consultation.Service
	appointments appointment.Service
	reports      *report.Service
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	db, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	kb := knowledge.Default()

	var tg report.TelegramClient
	if cfg.TelegramEnabled() {
		tg = telegram.NewClientWithBaseURL(cfg.Telegram.Token, cfg.Telegram.BaseURL)
	} else {
		log.Info("telegram not configured, emergency alerts and report delivery are off")
	}
	reports := report.NewService(tg, cfg.Telegram.ChatID, kb, cfg.Report.FontPath, log)

	svc := consultation.NewService(
		consultation.NewRepository(db),
		triage.NewAnalyzer(kb),
		nlp.NewFactory(cfg.Tokenizer),
		log,
		consultation.WithNotifier(reports),
		consultation.WithExporter(reports),
	)

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		consultation: svc,
		appointments: appointment.NewService(appointment.NewRepository(db), log),
		reports:      reports,
	}, nil
}

func (a *app) httpServer() *server.Server {
	handler := server.NewRouter(server.Deps{
		Consultation: a.consultation,
		Appointments: a.appointments,
		Limiter:      ratelimit.New(a.cfg.RateLimit.RPS, a.cfg.RateLimit.Burst, 10*time.Minute, time.Minute),
		MaxBodyBytes: a.cfg.HTTP.MaxBodyBytes,
		Health:       a.db.PingContext,
		Log:          a.log,
	})
	return server.New(a.cfg.HTTP, handler, a.log)
}

// Close waits for pending alerts before closing the store.
func (a *app) Close() error {
	return errors.Join(a.consultation.Close(), a.db.Close())
}
