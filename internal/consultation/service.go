package consultation

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"symptom-triage/internal/knowledge"
	"symptom-triage/internal/nlp"
	"symptom-triage/internal/triage"
)

// EmergencyNotifier tells a clinician about an exchange that carried the
// emergency flag.
type EmergencyNotifier interface {
	NotifyEmergency(ctx context.Context, e Emergency) error
}

// HistoryExporter renders a user's log as a document.
type HistoryExporter interface {
	HistoryPDF(userID string, records []Record) ([]byte, error)
}

type Service interface {
	// Handle triages one utterance and logs the exchange. The response is
	// only returned once the log append has succeeded.
	Handle(ctx context.Context, req Request) (*Response, error)
	History(ctx context.Context, userID string, limit int) ([]Record, error)
	ExportHistory(ctx context.Context, userID string) ([]byte, error)
	Symptoms() []knowledge.Symptom
	// Close waits for in-flight emergency notifications.
	Close() error
}

type Option func(*service)

func WithNotifier(n EmergencyNotifier) Option {
	return func(s *service) { s.notifier = n }
}

func WithExporter(e HistoryExporter) Option {
	return func(s *service) { s.exporter = e }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

const (
	userLockStripes = 64
	notifyTimeout   = 15 * time.Second
)

type service struct {
	repo     Repository
	analyzer *triage.Analyzer
	log      *zap.Logger
	notifier EmergencyNotifier
	exporter HistoryExporter
	now      func() time.Time

	newTokenizer nlp.Factory
	tokOnce      sync.Once
	tok          nlp.Tokenizer
	tokErr       error

	// Appends for one user are serialized so that log order, timestamp
	// order and the order responses are returned all agree.
	// Stamps are strictly increasing per stripe, hence per user, and the
	// state stays fixed-size however many user ids callers invent.
	userLocks [userLockStripes]sync.Mutex
	lastStamp [userLockStripes]time.Time

	notifications sync.WaitGroup
}

func NewService(repo Repository, analyzer *triage.Analyzer, tokenizers nlp.Factory, log *zap.Logger, opts ...Option) Service {
	s := &service{
		repo:         repo,
		analyzer:     analyzer,
		log:          log,
		now:          time.Now,
		newTokenizer: tokenizers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) tokenizer() (nlp.Tokenizer, error) {
	s.tokOnce.Do(func() {
		s.tok, s.tokErr = s.newTokenizer()
		if s.tokErr != nil {
			s.log.Error("tokenizer factory failed", zap.Error(s.tokErr))
		}
	})
	if s.tokErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenizerUnavailable, s.tokErr)
	}
	return s.tok, nil
}

func (s *service) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.Message == nil {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	message := *req.Message
	if n := utf8.RuneCountInString(message); n > MaxMessageRunes {
		return nil, fmt.Errorf("%w: message has %d characters, limit is %d", ErrInvalidInput, n, MaxMessageRunes)
	}

	tok, err := s.tokenizer()
	if err != nil {
		return nil, err
	}

	lang, ok := triage.ParseLanguage(req.Language)
	if !ok {
		s.log.Warn("unsupported language, using English", zap.String("language", req.Language))
	}

	res := s.analyzer.Analyze(tok, message, lang)
	ordered := res.Ranking.Ordered()

	rec := &Record{
		UserID:      normalizeUser(req.UserID),
		UserInput:   message,
		BotResponse: res.Response,
		Symptoms:    res.Symptoms,
		Conditions:  conditionKeys(ordered),
		Language:    lang.String(),
	}
	if err := s.commit(ctx, rec); err != nil {
		return nil, err
	}

	s.log.Debug("triaged message",
		zap.Int64("record_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.Strings("symptoms", rec.Symptoms),
		zap.Bool("emergency", res.Emergency),
	)

	if res.Emergency && s.notifier != nil {
		s.notify(Emergency{
			RecordID:   rec.ID,
			UserID:     rec.UserID,
			UserInput:  rec.UserInput,
			Symptoms:   rec.Symptoms,
			Conditions: rec.Conditions,
			Language:   rec.Language,
			Timestamp:  rec.Timestamp,
		})
	}

	return &Response{
		Response:   res.Response,
		Symptoms:   res.Symptoms,
		Conditions: res.Ranking.Scores(),
		Ranked:     ordered,
		Emergency:  res.Emergency,
		Language:   lang.String(),
		RecordID:   rec.ID,
		Timestamp:  rec.Timestamp,
	}, nil
}

// commit stamps and appends rec while holding the user's lock.
func (s *service) commit(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stripe := stripeOf(rec.UserID)
	s.userLocks[stripe].Lock()
	defer s.userLocks[stripe].Unlock()

	rec.Timestamp = s.nextStamp(stripe)
	if err := s.repo.Append(ctx, rec); err != nil {
		s.log.Error("interaction log append failed", zap.String("user_id", rec.UserID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func stripeOf(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % userLockStripes)
}

// nextStamp returns a UTC time, at microsecond resolution, strictly after
// the previous stamp issued on the stripe. Callers hold the stripe's lock.
func (s *service) nextStamp(stripe int) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if last := s.lastStamp[stripe]; !now.After(last) {
		now = last.Add(time.Microsecond)
	}
	s.lastStamp[stripe] = now
	return now
}

func (s *service) notify(e Emergency) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		// Detached from the request: the alert must go out even after the
		// client has its answer.
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyEmergency(ctx, e); err != nil {
			s.log.Warn("emergency notification failed", zap.Int64("record_id", e.RecordID), zap.Error(err))
		}
	}()
}

func (s *service) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	return s.repo.Recent(ctx, normalizeUser(userID), limit)
}

func (s *service) ExportHistory(ctx context.Context, userID string) ([]byte, error) {
	if s.exporter == nil {
		return nil, ErrExportUnavailable
	}
	userID = normalizeUser(userID)
	records, err := s.repo.Recent(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return s.exporter.HistoryPDF(userID, records)
}

func (s *service) Symptoms() []knowledge.Symptom {
	kb := s.analyzer.Catalog()
	keys := kb.Symptoms()
	out := make([]knowledge.Symptom, 0, len(keys))
	for _, k := range keys {
		sym, _ := kb.Symptom(k)
		out = append(out, sym)
	}
	return out
}

func (s *service) Close() error {
	s.notifications.Wait()
	return nil
}

func conditionKeys(ordered []triage.ConditionScore) []string {
	keys := make([]string, len(ordered))
	for i, cs := range ordered {
		keys[i] = cs.Condition
	}
	return keys
}
