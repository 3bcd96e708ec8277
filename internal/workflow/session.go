package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docflow/internal/domain"
	"docflow/internal/port"
	"docflow/internal/transform"
)

// SessionConfig holds the collaborators and timings of a Session.
type SessionConfig struct {
	Machine    Machine
	Processor  port.DocumentProcessor
	Store      port.DocumentStore
	ResetDelay time.Duration
	Logger     *zap.Logger
}

// Session owns one user's workflow. Events are applied one at a time; the
// processing job and the save run on goroutines bound to the session context
// and are canceled by Close.
type Session struct {
	ownerID string
	cfg     SessionConfig
	logger  *zap.Logger

	mu         sync.Mutex
	state      State
	content    []byte
	resetTimer *time.Timer
	lastActive time.Time
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a Session in the initial state.
func NewSession(ownerID string, cfg SessionConfig) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ownerID:    ownerID,
		cfg:        cfg,
		logger:     logger.With(zap.String("owner_id", ownerID)),
		state:      Initial(),
		lastActive: time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// View returns the rendered current state.
func (s *Session) View() View {
	return s.Render(s.State())
}

// Render renders st with the session's machine.
func (s *Session) Render(st State) View {
	return s.cfg.Machine.Render(st)
}

// LastActive returns when the session last accepted an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SelectFile records the selected file and submits it for processing in the
// background. The step does not advance; call Next once a document exists.
func (s *Session) SelectFile(file domain.FileRef, content []byte) (State, error) {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	return s.dispatch(FileSelected{File: file}, func() {
		s.content = content
		gen := s.state.Generation
		input := port.FileInput{
			Name:        file.Name,
			ContentType: file.ContentType,
			Size:        file.Size,
			Body:        bytes.NewReader(content),
		}
		s.goAsync(func(ctx context.Context) {
			s.runJob(ctx, gen, input)
		})
	})
}

// File returns the selected file and its content for preview.
func (s *Session) File() (domain.FileRef, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.FileRef{}, nil, domain.ErrSessionClosed
	}
	if s.state.File == nil {
		return domain.FileRef{}, nil, domain.ErrNoFile
	}
	return *s.state.File, s.content, nil
}

func (s *Session) runJob(ctx context.Context, gen uint64, input port.FileInput) {
	s.logger.Info("processing started", zap.String("file", input.Name), zap.Uint64("generation", gen))

	raw, err := s.cfg.Processor.Submit(ctx, input, func(job domain.UploadJob) {
		_, _ = s.dispatch(JobUpdated{Generation: gen, Job: job}, nil)
	})
	if err != nil {
		s.logger.Warn("processing failed", zap.String("file", input.Name), zap.Error(err))
		_, _ = s.dispatch(ProcessingFailed{Generation: gen, Err: err}, nil)
		return
	}

	doc := transform.Transform(raw)
	s.logger.Info("processing completed",
		zap.String("file", input.Name), zap.String("document_type", doc.Type), zap.Float64("confidence", doc.Confidence))
	_, _ = s.dispatch(ProcessingSucceeded{Generation: gen, Document: doc}, nil)
}

// Next advances one step.
func (s *Session) Next() (State, error) {
	return s.dispatch(Next{}, nil)
}

// Back retreats one step or clears the selection at the first step.
func (s *Session) Back() (State, error) {
	return s.dispatch(Back{}, nil)
}

// EditField replaces one extracted value during review.
func (s *Session) EditField(key string, value interface{}) (State, error) {
	return s.dispatch(EditField{Key: key, Value: value}, nil)
}

// Confirm starts the save of the reviewed document. On success the whole
// workflow resets after the configured delay.
func (s *Session) Confirm() (State, error) {
	return s.dispatch(ConfirmRequested{}, func() {
		input := s.saveInput()
		gen := s.state.Generation
		s.goAsync(func(ctx context.Context) {
			s.runSave(ctx, gen, input)
		})
	})
}

func (s *Session) runSave(ctx context.Context, gen uint64, input port.SaveInput) {
	result, err := s.cfg.Store.Save(ctx, input)
	if err != nil {
		s.logger.Error("save failed", zap.String("document_id", input.Document.ID.String()), zap.Error(err))
		_, _ = s.dispatch(SaveFailed{Generation: gen, Err: err}, nil)
		return
	}

	s.logger.Info("document saved", zap.String("document_id", result.ID), zap.String("location", result.Location))
	_, err = s.dispatch(SaveSucceeded{Generation: gen, SavedID: result.ID}, func() {
		s.scheduleReset(gen)
	})
	if err != nil {
		s.logger.Debug("save result dropped", zap.Error(err))
	}
}

// scheduleReset must be called with s.mu held.
func (s *Session) scheduleReset(gen uint64) {
	if s.state.Save != domain.SaveSucceeded || s.state.Generation != gen {
		return
	}
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.resetTimer = time.AfterFunc(s.cfg.ResetDelay, func() {
		_, _ = s.dispatch(ResetElapsed{Generation: gen}, nil)
	})
}

// saveInput must be called with s.mu held, after ConfirmRequested was applied.
func (s *Session) saveInput() port.SaveInput {
	st := s.state
	doc := *st.Document

	data, err := json.Marshal(doc.ExtractedData)
	if err != nil {
		data = []byte("{}")
	}
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		fields = []byte("[]")
	}

	reviewed := domain.ReviewedDocument{
		ID:          uuid.New(),
		OwnerID:     s.ownerID,
		DocType:     doc.Type,
		Title:       doc.Title,
		Confidence:  doc.Confidence,
		Data:        data,
		Fields:      fields,
		ConfirmedAt: time.Now().UTC(),
		Document:    doc,
	}
	var ref domain.FileRef
	if st.File != nil {
		ref = *st.File
		reviewed.FileName = ref.Name
	}
	if st.Job != nil {
		reviewed.JobID = st.Job.ID
	}
	return port.SaveInput{Document: reviewed, File: s.content, FileRef: ref}
}

// dispatch applies ev under the session lock. onApplied, when non-nil, runs
// under the same lock after a successful transition.
func (s *Session) dispatch(ev Event, onApplied func()) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.state, domain.ErrSessionClosed
	}

	next, err := s.cfg.Machine.Reduce(s.state, ev)
	if err != nil {
		s.logger.Debug("transition rejected", zap.String("event", EventName(ev)), zap.Error(err))
		return s.state, err
	}

	prev := s.state
	s.state = next
	if next.File == nil {
		s.content = nil
	}
	if prev.Step != next.Step || prev.Save != next.Save {
		s.logger.Debug("workflow transition",
			zap.String("event", EventName(ev)),
			zap.String("step", next.Step.String()),
			zap.String("save", string(next.Save)))
	}
	if _, ok := ev.(JobUpdated); !ok {
		s.lastActive = time.Now()
	}
	if onApplied != nil {
		onApplied()
	}
	return s.state, nil
}

// goAsync must be called with s.mu held on an open session so that Close
// cannot reach wg.Wait before the Add.
func (s *Session) goAsync(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Close cancels in-flight work, stops a pending reset and waits for
// background goroutines to exit. Later calls return ErrSessionClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", s.ownerID, domain.ErrSessionClosed)
	}
	s.closed = true
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.logger.Debug("session closed")
	return nil
}
