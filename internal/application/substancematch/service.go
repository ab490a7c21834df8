// Package substancematch orchestrates the matching pipeline: vocabulary
// lifecycle, cached batch matching, and asynchronous match jobs.
package substancematch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medcodelab/substance-mapper/internal/domain/matching"
	"github.com/medcodelab/substance-mapper/internal/domain/vocabulary"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/database/redis"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/messaging/kafka"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/logging"
	"github.com/medcodelab/substance-mapper/internal/infrastructure/monitoring/prometheus"
	"github.com/medcodelab/substance-mapper/pkg/errors"
)

// Publisher publishes job and result events.  *kafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, msg *kafka.ProducerMessage) error
}

// Locker guards the refresh loop so only one instance fetches at a time.
// *redis.Mutex satisfies it.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Dependencies wires the service.  Matcher, Provider and Logger are
// required; the rest degrade gracefully when absent.
type Dependencies struct {
	Matcher    *matching.Matcher
	Provider   vocabulary.Provider
	Repository vocabulary.Repository
	Cache      redis.Cache
	CacheTTL   time.Duration
	Publisher  Publisher
	Metrics    *prometheus.AppMetrics
	Logger     logging.Logger
	Source     string
}

// Service maps free-text substance records to canonical vocabulary texts.
type Service struct {
	matcher   *matching.Matcher
	provider  vocabulary.Provider
	repo      vocabulary.Repository
	cache     redis.Cache
	cacheTTL  time.Duration
	publisher Publisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
	source    string

	// optionsFP keys cached results to the active matcher configuration.
	optionsFP string

	mu    sync.RWMutex
	vocab *vocabulary.Vocabulary
}

func NewService(deps Dependencies) (*Service, error) {
	if deps.Matcher == nil {
		return nil, errors.New(errors.ErrCodeValidation, "matcher required")
	}
	if deps.Provider == nil {
		return nil, errors.New(errors.ErrCodeValidation, "vocabulary provider required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Source == "" {
		deps.Source = "api"
	}
	if deps.CacheTTL == 0 {
		deps.CacheTTL = time.Hour
	}

	return &Service{
		matcher:   deps.Matcher,
		provider:  deps.Provider,
		repo:      deps.Repository,
		cache:     deps.Cache,
		cacheTTL:  deps.CacheTTL,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		source:    deps.Source,
		optionsFP: optionsFingerprint(deps.Matcher.Options()),
	}, nil
}

// optionsFingerprint folds the matching configuration into the cache key so
// a config change never serves results computed under the old one.
func optionsFingerprint(o matching.Options) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%.6f|%t|%d|%s|%s|%t",
		o.Threshold, o.OnlyFirstMatch, o.MaxPerMatchID,
		o.SplitPattern, o.JoinDelimiter, o.Preprocess)))
	return hex.EncodeToString(h[:8])
}

// RefreshVocabulary fetches the current reference list, persists it when a
// repository is configured, and swaps it in.  An empty list is surfaced as a
// warning and still installed: matching then yields empty outputs rather
// than failing.
func (s *Service) RefreshVocabulary(ctx context.Context) error {
	start := time.Now()

	vocab, err := s.provider.Fetch(ctx)
	if err != nil {
		s.observeRefresh("error", time.Since(start))
		if s.metrics != nil {
			prometheus.RecordError(s.metrics, "vocabulary", string(errors.GetCode(err)))
		}
		return err
	}

	if s.repo != nil {
		if err := s.repo.ReplaceAll(ctx, vocab.Entries()); err != nil {
			// The in-memory copy still serves; persistence catches up on
			// the next refresh.
			s.logger.Error("Failed to persist vocabulary snapshot", logging.Err(err))
		}
	}

	s.install(vocab)
	s.observeRefresh("success", time.Since(start))

	if vocab.IsEmpty() {
		s.logger.Warn("Reference vocabulary is empty; all outputs will be empty",
			logging.String("code", string(errors.ErrCodeVocabularyEmpty)))
	} else {
		s.logger.Info("Vocabulary refreshed",
			logging.Int("entries", vocab.Len()),
			logging.String("version", vocab.Version()))
	}
	return nil
}

// LoadFromRepository installs the last persisted snapshot, used at startup
// when the remote source is unreachable.
func (s *Service) LoadFromRepository(ctx context.Context) error {
	if s.repo == nil {
		return errors.New(errors.ErrCodeVocabularyNotLoaded, "no vocabulary repository configured")
	}
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	vocab := vocabulary.New(entries)
	s.install(vocab)
	s.logger.Info("Vocabulary loaded from repository", logging.Int("entries", vocab.Len()))
	return nil
}

func (s *Service) install(vocab *vocabulary.Vocabulary) {
	s.mu.Lock()
	s.vocab = vocab
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.VocabularySize.WithLabelValues(s.source).Set(float64(vocab.Len()))
	}
}

func (s *Service) observeRefresh(status string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.VocabularyRefreshesTotal.WithLabelValues(s.source, status).Inc()
	s.metrics.VocabularyRefreshDuration.WithLabelValues(s.source).Observe(elapsed.Seconds())
}

// Vocabulary returns the active vocabulary, or nil before the first load.
func (s *Service) Vocabulary() *vocabulary.Vocabulary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vocab
}

// StartRefreshLoop refreshes the vocabulary every interval until ctx is
// done.  With a Locker, instances coordinate so only one fetches per tick.
func (s *Service) StartRefreshLoop(ctx context.Context, interval time.Duration, locker Locker) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.refreshTick(ctx, locker)
			}
		}
	}()
}

func (s *Service) refreshTick(ctx context.Context, locker Locker) {
	if locker != nil {
		ok, err := locker.TryLock(ctx)
		if err != nil {
			s.logger.Warn("Vocabulary refresh lock failed", logging.Err(err))
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := locker.Unlock(ctx); err != nil {
				s.logger.Warn("Vocabulary refresh unlock failed", logging.Err(err))
			}
		}()
	}
	if err := s.RefreshVocabulary(ctx); err != nil {
		s.logger.Error("Scheduled vocabulary refresh failed", logging.Err(err))
	}
}

// MatchBatch maps records to aligned results.  Cached rows are reused;
// misses run through the matcher and are written back.  The output always
// has one result per input record.
func (s *Service) MatchBatch(ctx context.Context, records []string) ([]matching.Result, error) {
	vocab := s.Vocabulary()
	if vocab == nil {
		return nil, errors.New(errors.ErrCodeVocabularyNotLoaded, "reference vocabulary not loaded")
	}

	start := time.Now()
	results := make([]matching.Result, len(records))

	var pending []int
	if s.cache != nil && !vocab.IsEmpty() {
		for i, record := range records {
			var cached matching.Result
			err := s.cache.Get(ctx, s.resultKey(vocab, record), &cached)
			if err == nil {
				s.recordCacheAccess(true)
				results[i] = cached
				continue
			}
			if err != redis.ErrCacheMiss {
				s.logger.Warn("Match result cache read failed", logging.Err(err))
			}
			s.recordCacheAccess(false)
			pending = append(pending, i)
		}
	} else {
		pending = make([]int, len(records))
		for i := range records {
			pending[i] = i
		}
	}

	if len(pending) > 0 {
		toMatch := make([]string, len(pending))
		for j, i := range pending {
			toMatch[j] = records[i]
		}
		computed, err := s.matcher.MatchBatch(ctx, vocab, toMatch)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMatchingFailed, "match batch failed")
		}
		for j, i := range pending {
			results[i] = computed[j]
			if s.cache != nil && !vocab.IsEmpty() {
				if err := s.cache.Set(ctx, s.resultKey(vocab, records[i]), computed[j], s.cacheTTL); err != nil {
					s.logger.Warn("Match result cache write failed", logging.Err(err))
				}
			}
		}
	}

	s.observeBatch(results, time.Since(start))
	return results, nil
}

// MatchTexts is MatchBatch reduced to the joined output strings.
func (s *Service) MatchTexts(ctx context.Context, records []string) ([]string, error) {
	results, err := s.MatchBatch(ctx, records)
	if err != nil {
		return nil, err
	}
	outputs := make([]string, len(results))
	for i, r := range results {
		outputs[i] = r.Output
	}
	return outputs, nil
}

func (s *Service) resultKey(vocab *vocabulary.Vocabulary, record string) string {
	recordHash := sha256.Sum256([]byte(record))
	return fmt.Sprintf("result:%s:%s:%s",
		vocab.Version(), s.optionsFP, hex.EncodeToString(recordHash[:12]))
}

func (s *Service) recordCacheAccess(hit bool) {
	if s.metrics != nil {
		prometheus.RecordCacheAccess(s.metrics, "match_results", hit)
	}
}

func (s *Service) observeBatch(results []matching.Result, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	prometheus.RecordBatch(s.metrics, s.source, len(results), elapsed)
	for _, res := range results {
		s.metrics.FragmentsPerRecord.WithLabelValues().Observe(float64(res.Fragments))
		matched := 0
		for _, m := range res.Matches {
			s.metrics.MatchOutcomesTotal.WithLabelValues(string(m.Outcome)).Inc()
			s.metrics.CandidatesPerFragment.WithLabelValues().Observe(float64(m.Candidates))
			matched++
		}
		// Fragments without a selection had no threshold-passing candidate.
		for i := matched; i < res.Fragments; i++ {
			s.metrics.MatchOutcomesTotal.WithLabelValues(prometheus.OutcomeNone).Inc()
			s.metrics.CandidatesPerFragment.WithLabelValues().Observe(0)
		}
	}
}

// SubmitJob publishes records as an asynchronous match job and returns the
// job ID.
func (s *Service) SubmitJob(ctx context.Context, records []string) (string, error) {
	if s.publisher == nil {
		return "", errors.New(errors.ErrCodeNotImplemented, "job publishing not configured")
	}
	if len(records) == 0 {
		return "", errors.New(errors.ErrCodeJobInvalid, "job has no records")
	}

	jobID := uuid.NewString()
	env, err := kafka.NewEventEnvelope(kafka.EventTypeMatchJobSubmitted, s.source, kafka.MatchJobPayload{
		JobID:       jobID,
		Records:     records,
		SubmittedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}
	msg, err := env.ToMessage(kafka.TopicMatchJobs)
	if err != nil {
		return "", err
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		if s.metrics != nil {
			s.metrics.JobsSubmittedTotal.WithLabelValues("error").Inc()
		}
		return "", err
	}

	if s.metrics != nil {
		s.metrics.JobsSubmittedTotal.WithLabelValues("success").Inc()
	}
	s.logger.Info("Match job submitted",
		logging.String("job_id", jobID),
		logging.Int("records", len(records)))
	return jobID, nil
}

// ProcessJobMessage handles one job message from the broker: decode, match,
// publish the aligned result.  It is wired as the consumer handler for the
// jobs topic.
func (s *Service) ProcessJobMessage(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()

	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return err
	}
	var job kafka.MatchJobPayload
	if err := env.DecodePayload(&job); err != nil {
		return err
	}

	results, err := s.MatchBatch(ctx, job.Records)
	if err != nil {
		if s.metrics != nil {
			s.metrics.JobsProcessedTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	outputs := make([]string, len(results))
	for i, r := range results {
		outputs[i] = r.Output
	}

	resultEnv, err := kafka.NewEventEnvelope(kafka.EventTypeMatchJobCompleted, s.source, kafka.MatchResultPayload{
		JobID:             job.JobID,
		Outputs:           outputs,
		Results:           results,
		VocabularyVersion: s.Vocabulary().Version(),
		CompletedAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	resultEnv.TraceID = env.TraceID

	if s.publisher != nil {
		resultMsg, err := resultEnv.ToMessage(kafka.TopicMatchResults)
		if err != nil {
			return err
		}
		if err := s.publisher.Publish(ctx, resultMsg); err != nil {
			if s.metrics != nil {
				s.metrics.JobsProcessedTotal.WithLabelValues("error").Inc()
			}
			return err
		}
	}

	if s.metrics != nil {
		s.metrics.JobsProcessedTotal.WithLabelValues("success").Inc()
		s.metrics.JobProcessDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	}
	s.logger.Info("Match job processed",
		logging.String("job_id", job.JobID),
		logging.Int("records", len(job.Records)),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}
