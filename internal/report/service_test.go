package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"symptom-triage/internal/consultation"
	"symptom-triage/internal/knowledge"
	"symptom-triage/internal/nlp"
	"symptom-triage/internal/triage"
)

type fakeTelegram struct {
	chatID   int64
	messages []string
	docs     map[string][]byte
	err      error
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.chatID = chatID
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeTelegram) SendDocument(_ context.Context, chatID int64, data []byte, name string) error {
	if f.err != nil {
		return f.err
	}
	if f.docs == nil {
		f.docs = map[string][]byte{}
	}
	f.chatID = chatID
	f.docs[name] = data
	return nil
}

// testFont finds a DejaVu font on the host, skipping the test when none is
// installed.
func testFont(t *testing.T) string {
	t.Helper()
	for _, p := range fallbackFonts {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("no DejaVuSans.ttf on this host")
	return ""
}

func emergency() consultation.Emergency {
	return consultation.Emergency{
		RecordID:   12,
		UserID:     "dana",
		UserInput:  "crushing chest pain and shortness of breath",
		Symptoms:   []string{"chest pain", "shortness of breath"},
		Conditions: []string{"asthma", "pneumonia", "covid", "heart problems", "heart attack", "angina", "anxiety"},
		Language:   "en",
		Timestamp:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestNotifyEmergency(t *testing.T) {
	tg := &fakeTelegram{}
	s := NewService(tg, 99, knowledge.Default(), "", zap.NewNop())

	require.NoError(t, s.NotifyEmergency(context.Background(), emergency()))
	require.Len(t, tg.messages, 1)
	assert.Equal(t, int64(99), tg.chatID)

	msg := tg.messages[0]
	assert.Contains(t, msg, "User: dana")
	assert.Contains(t, msg, "Record: 12 (04.03.2026 05:06)")
	assert.Contains(t, msg, "Symptoms: chest pain, shortness of breath")
	assert.Contains(t, msg, "Urgent conditions: pneumonia, heart problems, heart attack, angina")
	assert.NotContains(t, msg, "asthma")
}

func TestNotifyEmergencyDisabled(t *testing.T) {
	for _, s := range []*Service{
		NewService(nil, 99, knowledge.Default(), "", zap.NewNop()),
		NewService(&fakeTelegram{}, 0, knowledge.Default(), "", zap.NewNop()),
	} {
		assert.False(t, s.Enabled())
		assert.NoError(t, s.NotifyEmergency(context.Background(), emergency()))
	}
}

func TestNotifyEmergencyError(t *testing.T) {
	tg := &fakeTelegram{err: errors.New("bad gateway")}
	s := NewService(tg, 1, knowledge.Default(), "", zap.NewNop())
	err := s.NotifyEmergency(context.Background(), emergency())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestAlertTruncatesLongInput(t *testing.T) {
	e := emergency()
	e.UserInput = string(make([]rune, 1000))
	s := NewService(nil, 0, knowledge.Default(), "", zap.NewNop())
	text := s.alertText(e)
	assert.Less(t, len([]rune(text)), 600)
}

func TestHistoryPDFMissingFont(t *testing.T) {
	s := NewService(nil, 0, knowledge.Default(), filepath.Join(t.TempDir(), "nope.ttf"), zap.NewNop())
	_, err := s.HistoryPDF("dana", nil)
	require.ErrorIs(t, err, consultation.ErrExportUnavailable)
	assert.Contains(t, err.Error(), "nope.ttf")
}

func TestHistoryPDF(t *testing.T) {
	font := testFont(t)
	a := triage.NewAnalyzer(knowledge.Default())
	res := a.Analyze(nlp.Words{}, "fever and cough", triage.English)

	var records []consultation.Record
	for i := 0; i < 80; i++ {
		records = append(records, consultation.Record{
			ID:          int64(i + 1),
			UserID:      "dana",
			UserInput:   "fever and cough",
			BotResponse: res.Response,
			Symptoms:    res.Symptoms,
			Conditions:  res.Ranking.Conditions(),
			Language:    "en",
			Timestamp:   time.Date(2026, 1, 1, 0, i, 0, 0, time.UTC),
		})
	}

	s := NewService(nil, 0, knowledge.Default(), font, zap.NewNop())
	doc, err := s.HistoryPDF("dana", records)
	require.NoError(t, err)
	assert.True(t, len(doc) > 4 && string(doc[:4]) == "%PDF")
}

func TestSendHistory(t *testing.T) {
	s := NewService(nil, 0, knowledge.Default(), "", zap.NewNop())
	assert.ErrorIs(t, s.SendHistory(context.Background(), "dana", nil), ErrDisabled)

	font := testFont(t)
	tg := &fakeTelegram{}
	s = NewService(tg, 5, knowledge.Default(), font, zap.NewNop())
	require.NoError(t, s.SendHistory(context.Background(), "dana", nil))
	assert.Contains(t, tg.docs, "history_dana.pdf")
}

func TestPlainText(t *testing.T) {
	a := triage.NewAnalyzer(knowledge.Default())
	res := a.Analyze(nlp.Words{}, "I have a rash", triage.English)

	paras := PlainText(res.Response)
	require.NotEmpty(t, paras)
	assert.Equal(t, "I understand you have rash.", paras[0])
	assert.Contains(t, paras, "Based on your symptoms, the most likely possibilities are:")
	assert.Contains(t, paras, "allergies (score 2)")
	for _, p := range paras {
		assert.NotContains(t, p, "<")
	}
}
