package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"symptom-triage/internal/consultation"
	"symptom-triage/internal/knowledge"
)

// ErrDisabled is returned by operations that need Telegram when no bot
// token or chat is configured.
var ErrDisabled = errors.New("telegram reporting is not configured")

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	kb           *knowledge.Base
	fontPath     string
	log          *zap.Logger
}

// NewService builds the reporting service. A nil client or zero chat id
// disables everything that talks to Telegram; PDF rendering still works.
func NewService(tg TelegramClient, doctorChatID int64, kb *knowledge.Base, fontPath string, log *zap.Logger) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		kb:           kb,
		fontPath:     fontPath,
		log:          log,
	}
}

func (s *Service) Enabled() bool {
	return s.tgClient != nil && s.doctorChatID != 0
}

// NotifyEmergency posts a short alert to the doctor chat.
func (s *Service) NotifyEmergency(ctx context.Context, e consultation.Emergency) error {
	if !s.Enabled() {
		s.log.Debug("emergency alert skipped, telegram disabled", zap.Int64("record_id", e.RecordID))
		return nil
	}
	if err := s.tgClient.SendMessage(ctx, s.doctorChatID, s.alertText(e)); err != nil {
		return fmt.Errorf("send emergency alert: %w", err)
	}
	s.log.Info("emergency alert sent", zap.Int64("record_id", e.RecordID), zap.String("user_id", e.UserID))
	return nil
}

func (s *Service) alertText(e consultation.Emergency) string {
	var urgent []string
	for _, c := range e.Conditions {
		if s.kb.IsEmergency(c) {
			urgent = append(urgent, c)
		}
	}

	var b strings.Builder
	b.WriteString("🚨 Emergency triage\n")
	fmt.Fprintf(&b, "User: %s\n", e.UserID)
	fmt.Fprintf(&b, "Record: %d (%s)\n", e.RecordID, e.Timestamp.Format(dateLayout))
	fmt.Fprintf(&b, "Symptoms: %s\n", strings.Join(e.Symptoms, ", "))
	fmt.Fprintf(&b, "Urgent conditions: %s\n", strings.Join(urgent, ", "))
	fmt.Fprintf(&b, "Message: %s", truncate(e.UserInput, alertInputRunes))
	return b.String()
}

// SendHistory renders the user's log and delivers it to the doctor chat.
func (s *Service) SendHistory(ctx context.Context, userID string, records []consultation.Record) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	doc, err := s.HistoryPDF(userID, records)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("history_%s.pdf", userID)
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, doc, name); err != nil {
		return fmt.Errorf("send history report: %w", err)
	}
	s.log.Info("history report sent", zap.String("user_id", userID), zap.Int("records", len(records)))
	return nil
}

const alertInputRunes = 280

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
