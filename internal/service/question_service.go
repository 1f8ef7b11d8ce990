package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/config"
	"github.com/stemsi/formbuilder/internal/forest"
	"github.com/stemsi/formbuilder/internal/metrics"
	"github.com/stemsi/formbuilder/internal/model"
	"github.com/stemsi/formbuilder/internal/repository"
)

// QuestionService owns the working form. Every change replaces the forest
// with a rewritten copy and mirrors it to the store before returning.
type QuestionService struct {
	mu        sync.Mutex
	questions model.Forest
	submitted *model.Submission
	// pending holds store keys whose last write failed.
	pending map[string]struct{}

	repo repository.KVRepository
	key  string
	ids  *forest.IDGenerator
	now  func() time.Time
	log  zerolog.Logger
}

// NewQuestionService creates a QuestionService storing its form under key.
// Call Load once before serving.
func NewQuestionService(repo repository.KVRepository, key string, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questions: model.Forest{},
		pending:   make(map[string]struct{}),
		repo:      repo,
		key:       key,
		ids:       forest.NewIDGenerator(),
		now:       time.Now,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Load rehydrates the form from the store. A missing or malformed value
// starts an empty form; only a failing store is reported.
func (s *QuestionService) Load(ctx context.Context) error {
	raw, found, err := s.repo.Get(ctx, config.StoreKey.FormKey(s.key))
	if err != nil {
		return fmt.Errorf("load form: %w", err)
	}

	questions := model.Forest{}
	if found {
		questions, err = decodeForest(raw)
		if err != nil {
			s.log.Warn().Err(err).Str("key", s.key).Msg("Saved form is unreadable, starting empty")
			questions = model.Forest{}
		}
	}

	var submitted *model.Submission
	rawSub, found, err := s.repo.Get(ctx, config.StoreKey.SubmissionKey(s.key))
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if found {
		var sub model.Submission
		if err := json.Unmarshal([]byte(rawSub), &sub); err != nil {
			s.log.Warn().Err(err).Msg("Saved submission is unreadable, ignoring")
		} else {
			if sub.Questions == nil {
				sub.Questions = model.Forest{}
			}
			submitted = &sub
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = questions
	s.submitted = submitted
	s.ids.Observe(forest.MaxID(questions))
	metrics.QuestionCount.Set(float64(forest.Count(questions)))

	s.log.Info().
		Int("questions", forest.Count(questions)).
		Bool("submitted", submitted != nil).
		Msg("Form loaded")
	return nil
}

func decodeForest(raw string) (model.Forest, error) {
	f, err := forest.Decode([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := forest.CheckIDs(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Questions returns a copy of the working form.
func (s *QuestionService) Questions() model.Forest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return forest.Clone(s.questions)
}

// AddQuestion appends an empty ShortAnswer question at the top level.
func (s *QuestionService) AddQuestion(ctx context.Context) (model.Question, model.Forest) {
	id := s.ids.Next()
	out, _ := s.apply(ctx, "add_question", func(f model.Forest) (model.Forest, error) {
		return forest.AddTopLevel(f, id), nil
	})
	q, _ := forest.Find(out, id)
	return q, out
}

// AddChildQuestion appends an empty child under a TrueFalse question. A
// missing parent yields forest.ErrNotFound and a ShortAnswer parent
// forest.ErrNotTrueFalse; the form is unchanged in both cases.
func (s *QuestionService) AddChildQuestion(ctx context.Context, parentID int64) (model.Question, model.Forest, error) {
	id := s.ids.Next()
	out, err := s.apply(ctx, "add_child_question", func(f model.Forest) (model.Forest, error) {
		return forest.AddChild(f, parentID, id)
	})
	if err != nil {
		return model.Question{}, out, err
	}
	q, _ := forest.Find(out, id)
	return q, out, nil
}

// UpdateQuestion replaces the text and, when kind is non-nil, the kind.
func (s *QuestionService) UpdateQuestion(ctx context.Context, id int64, text string, kind *model.QuestionKind) (model.Forest, error) {
	return s.apply(ctx, "update_question", func(f model.Forest) (model.Forest, error) {
		return forest.Update(f, id, text, kind)
	})
}

// SetText replaces the text of a question.
func (s *QuestionService) SetText(ctx context.Context, id int64, text string) (model.Forest, error) {
	return s.apply(ctx, "set_text", func(f model.Forest) (model.Forest, error) {
		return forest.SetText(f, id, text)
	})
}

// SetKind changes the kind of a question. Children are kept.
func (s *QuestionService) SetKind(ctx context.Context, id int64, kind model.QuestionKind) (model.Forest, error) {
	return s.apply(ctx, "set_kind", func(f model.Forest) (model.Forest, error) {
		return forest.SetKind(f, id, kind)
	})
}

// DeleteQuestion removes a question and its subtree.
func (s *QuestionService) DeleteQuestion(ctx context.Context, id int64) (model.Forest, error) {
	return s.apply(ctx, "delete_question", func(f model.Forest) (model.Forest, error) {
		return forest.Delete(f, id)
	})
}

// MoveQuestion reorders the top level. Out-of-range indices are rejected
// with forest.ErrIndexOutOfRange.
func (s *QuestionService) MoveQuestion(ctx context.Context, from, to int) (model.Forest, error) {
	return s.apply(ctx, "move_question", func(f model.Forest) (model.Forest, error) {
		return forest.Move(f, from, to)
	})
}

// Replace swaps the whole form, e.g. when importing a saved file.
func (s *QuestionService) Replace(ctx context.Context, questions model.Forest) (model.Forest, error) {
	if err := forest.CheckIDs(questions); err != nil {
		return nil, err
	}
	questions = forest.Clone(questions)
	forest.Normalize(questions)
	s.ids.Observe(forest.MaxID(questions))
	return s.apply(ctx, "replace", func(model.Forest) (model.Forest, error) {
		return questions, nil
	})
}

// Reset empties the form. The last submission is kept.
func (s *QuestionService) Reset(ctx context.Context) model.Forest {
	out, _ := s.apply(ctx, "reset", func(model.Forest) (model.Forest, error) {
		return model.Forest{}, nil
	})
	return out
}

// Submit freezes the current form as the latest submission.
func (s *QuestionService) Submit(ctx context.Context) model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := model.Submission{
		ID:          uuid.New(),
		SubmittedAt: s.now().UTC(),
		Questions:   forest.Clone(s.questions),
	}
	s.submitted = &sub

	if b, err := json.Marshal(sub); err != nil {
		s.log.Error().Err(err).Msg("Encode submission failed")
	} else {
		_ = s.write(ctx, config.StoreKey.SubmissionKey(s.key), string(b))
	}

	s.log.Info().
		Str("submission_id", sub.ID.String()).
		Int("questions", forest.Count(sub.Questions)).
		Msg("Form submitted")

	return copySubmission(sub)
}

// Submitted returns the latest submission, or nil before the first submit.
func (s *QuestionService) Submitted() *model.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted == nil {
		return nil
	}
	sub := copySubmission(*s.submitted)
	return &sub
}

func copySubmission(sub model.Submission) model.Submission {
	sub.Questions = forest.Clone(sub.Questions)
	return sub
}

// apply runs one rewrite under the lock and persists the result. When fn
// fails the form is left as it was and a copy of it is returned with the
// error. Lookups that miss are expected and only logged at debug level.
func (s *QuestionService) apply(ctx context.Context, op string, fn func(model.Forest) (model.Forest, error)) (model.Forest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.questions)
	switch {
	case errors.Is(err, forest.ErrNotFound), errors.Is(err, forest.ErrNotTrueFalse):
		metrics.FormMutations.WithLabelValues(op, metrics.ResultNoop).Inc()
		s.log.Debug().Err(err).Str("op", op).Msg("Mutation ignored")
		return forest.Clone(s.questions), err
	case err != nil:
		metrics.FormMutations.WithLabelValues(op, metrics.ResultInvalid).Inc()
		s.log.Warn().Err(err).Str("op", op).Msg("Mutation rejected")
		return forest.Clone(s.questions), err
	}

	s.questions = next
	metrics.FormMutations.WithLabelValues(op, metrics.ResultApplied).Inc()
	metrics.QuestionCount.Set(float64(forest.Count(next)))

	b, err := forest.Encode(next)
	if err != nil {
		s.log.Error().Err(err).Str("op", op).Msg("Encode form failed")
	} else {
		_ = s.write(ctx, config.StoreKey.FormKey(s.key), string(b))
	}

	return forest.Clone(next), nil
}

// write stores value under key. A failure is logged and the key is left
// pending for FlushPending; the in-memory form stays authoritative.
func (s *QuestionService) write(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.repo.Set(context.WithoutCancel(ctx), key, value)
	metrics.PersistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PersistFailures.Inc()
		s.pending[key] = struct{}{}
		s.log.Error().Err(err).Str("key", key).Msg("Persist failed")
		return err
	}
	delete(s.pending, key)
	return nil
}

// Pending reports how many store keys are waiting to be rewritten.
func (s *QuestionService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// FlushPending rewrites every key whose last write failed with the current
// state. It returns the number of keys written.
func (s *QuestionService) FlushPending(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		flushed int
		errs    []error
	)
	for key := range s.pending {
		value, err := s.snapshot(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.write(ctx, key, value); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", key, err))
			continue
		}
		flushed++
	}
	return flushed, errors.Join(errs...)
}

// snapshot encodes the current value for one of the service's store keys.
func (s *QuestionService) snapshot(key string) (string, error) {
	switch key {
	case config.StoreKey.FormKey(s.key):
		b, err := forest.Encode(s.questions)
		return string(b), err
	case config.StoreKey.SubmissionKey(s.key):
		if s.submitted == nil {
			return "", fmt.Errorf("no submission to write")
		}
		b, err := json.Marshal(s.submitted)
		return string(b), err
	default:
		return "", fmt.Errorf("unknown store key %q", key)
	}
}
