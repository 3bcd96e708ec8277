package workflow_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docflow/internal/domain"
	"docflow/internal/port"
	"docflow/internal/workflow"
	"docflow/mocks"
)

// gatedProcessor blocks each Submit until release is closed.
type gatedProcessor struct {
	release chan struct{}
	payload domain.RawPayload
	err     error
	calls   atomic.Int32
	body    atomic.Value
}

func newGatedProcessor(payload string, err error) *gatedProcessor {
	return &gatedProcessor{release: make(chan struct{}), payload: domain.RawPayload(payload), err: err}
}

func (p *gatedProcessor) Submit(ctx context.Context, file port.FileInput, observe port.JobObserver) (domain.RawPayload, error) {
	p.calls.Add(1)
	data, _ := io.ReadAll(file.Body)
	p.body.Store(string(data))
	observe(domain.UploadJob{ID: "job-1", Status: domain.JobStatusPolling, Attempts: 1})

	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.payload, nil
}

const resumePayload = `{"data":{"document_type":"resume","confidence":"0.8","full_name":"Ada"}}`

func newSession(proc port.DocumentProcessor, store port.DocumentStore, m workflow.Machine) *workflow.Session {
	return workflow.NewSession("user-1", workflow.SessionConfig{
		Machine:    m,
		Processor:  proc,
		Store:      store,
		ResetDelay: 50 * time.Millisecond,
	})
}

func waitForDocument(t *testing.T, s *workflow.Session) {
	t.Helper()
	assert.Eventually(t, func() bool {
		return s.State().Document != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSession_ConfirmResetsOnceAfterDelay(t *testing.T) {
	proc := newGatedProcessor(resumePayload, nil)
	store := new(mocks.MockDocumentStore)
	store.On("Save", mock.Anything, mock.MatchedBy(func(in port.SaveInput) bool {
		return in.Document.OwnerID == "user-1" &&
			in.Document.DocType == "resume" &&
			in.Document.FileName == "cv.pdf" &&
			string(in.File) == "%PDF-1.4"
	})).Return(&port.SaveResult{ID: "saved-1", Location: "memory://saved-1"}, nil).Once()

	s := newSession(proc, store, workflow.Machine{})
	defer s.Close()

	st, err := s.SelectFile(domain.FileRef{Name: "cv.pdf", ContentType: "application/pdf"}, []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, st.Processing)
	assert.Equal(t, domain.StepUpload, st.Step)

	_, err = s.Next()
	assert.ErrorIs(t, err, domain.ErrWorkflowBusy)

	close(proc.release)
	waitForDocument(t, s)
	assert.Equal(t, "%PDF-1.4", proc.body.Load())
	assert.Equal(t, "Resume Processing", s.State().Document.Title)

	_, err = s.Next()
	require.NoError(t, err)
	_, err = s.EditField("fullName", "Ada Lovelace")
	require.NoError(t, err)
	_, err = s.Next()
	require.NoError(t, err)

	st, err = s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, domain.SaveSaving, st.Save)

	assert.Eventually(t, func() bool {
		return s.State().Save == domain.SaveSucceeded
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, "saved-1", s.State().SavedID)

	_, err = s.Confirm()
	assert.ErrorIs(t, err, domain.ErrWorkflowBusy)

	assert.Eventually(t, func() bool {
		st := s.State()
		return st.Step == domain.StepUpload && st.Document == nil && st.File == nil && st.Save == domain.SaveIdle
	}, time.Second, 5*time.Millisecond)

	store.AssertExpectations(t)
}

func TestSession_SaveFailureKeepsDocument(t *testing.T) {
	proc := newGatedProcessor(resumePayload, nil)
	close(proc.release)
	store := new(mocks.MockDocumentStore)
	store.On("Save", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

	s := newSession(proc, store, workflow.Machine{})
	defer s.Close()

	_, err := s.SelectFile(domain.FileRef{Name: "cv.pdf"}, []byte("x"))
	require.NoError(t, err)
	waitForDocument(t, s)
	_, _ = s.Next()
	_, _ = s.Next()
	_, err = s.Confirm()
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return s.State().Error != ""
	}, time.Second, 2*time.Millisecond)

	st := s.State()
	assert.Equal(t, domain.SaveIdle, st.Save)
	assert.Equal(t, "Failed to update database", st.Error)
	assert.Equal(t, domain.StepConfirm, st.Step)
	assert.NotNil(t, st.Document)
	assert.True(t, s.View().Actions.Confirm)
}

func TestSession_ProcessingFailure(t *testing.T) {
	proc := newGatedProcessor("", domain.NewProcessingFailedError("job-1", "corrupt file"))
	close(proc.release)

	s := newSession(proc, new(mocks.MockDocumentStore), workflow.Machine{})
	defer s.Close()

	_, err := s.SelectFile(domain.FileRef{Name: "bad.pdf"}, []byte("x"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return !s.State().Processing
	}, time.Second, 2*time.Millisecond)

	st := s.State()
	assert.Nil(t, st.Document)
	assert.Equal(t, "Processing failed: corrupt file", st.Error)
	assert.Equal(t, domain.JobStatusFailed, st.Job.Status)
}

func TestSession_BackAtUploadClearsSelection(t *testing.T) {
	proc := newGatedProcessor(resumePayload, nil)
	s := newSession(proc, new(mocks.MockDocumentStore), workflow.Machine{SoftResetOnBack: true})
	defer s.Close()

	_, err := s.SelectFile(domain.FileRef{Name: "cv.pdf"}, []byte("x"))
	require.NoError(t, err)

	// busy while processing
	_, err = s.Back()
	assert.ErrorIs(t, err, domain.ErrWorkflowBusy)

	close(proc.release)
	waitForDocument(t, s)

	_, content, err := s.File()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), content)

	st, err := s.Back()
	require.NoError(t, err)
	assert.Nil(t, st.File)
	assert.Nil(t, st.Document)
	assert.Equal(t, domain.StepUpload, st.Step)

	_, content, err = s.File()
	assert.ErrorIs(t, err, domain.ErrNoFile)
	assert.Nil(t, content)
}

func TestSession_OneResetPerSave(t *testing.T) {
	proc := newGatedProcessor(resumePayload, nil)
	close(proc.release)
	store := new(mocks.MockDocumentStore)
	store.On("Save", mock.Anything, mock.Anything).Return(&port.SaveResult{ID: "saved-1"}, nil)

	const delay = 50 * time.Millisecond
	s := newSession(proc, store, workflow.Machine{})
	defer s.Close()

	toConfirm := func(name string) {
		t.Helper()
		_, err := s.SelectFile(domain.FileRef{Name: name, ContentType: "application/pdf"}, []byte(name))
		require.NoError(t, err)
		waitForDocument(t, s)
		_, err = s.Next()
		require.NoError(t, err)
		_, err = s.Next()
		require.NoError(t, err)
	}

	toConfirm("first.pdf")
	_, err := s.Confirm()
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		st := s.State()
		return st.Step == domain.StepUpload && st.Save == domain.SaveIdle && st.File == nil
	}, time.Second, 2*time.Millisecond)

	_, _, err = s.File()
	assert.ErrorIs(t, err, domain.ErrNoFile)

	// a second document reaches confirm after the reset; nothing resets it
	toConfirm("second.pdf")
	time.Sleep(4 * delay)

	st := s.State()
	assert.Equal(t, domain.StepConfirm, st.Step)
	require.NotNil(t, st.File)
	assert.Equal(t, "second.pdf", st.File.Name)
	assert.NotNil(t, st.Document)
	store.AssertNumberOfCalls(t, "Save", 1)
}

func TestSession_CloseCancelsProcessing(t *testing.T) {
	proc := newGatedProcessor(resumePayload, nil)
	s := newSession(proc, new(mocks.MockDocumentStore), workflow.Machine{})

	_, err := s.SelectFile(domain.FileRef{Name: "cv.pdf"}, []byte("x"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		assert.NoError(t, s.Close())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	_, err = s.Next()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	assert.ErrorIs(t, s.Close(), domain.ErrSessionClosed)
}

// closeWatcher records Submit calls that begin after the session was closed.
type closeWatcher struct {
	closed atomic.Bool
	late   atomic.Int32
}

func (w *closeWatcher) Submit(ctx context.Context, _ port.FileInput, _ port.JobObserver) (domain.RawPayload, error) {
	if w.closed.Load() {
		w.late.Add(1)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSession_CloseWaitsForJobsStartedConcurrently(t *testing.T) {
	for i := 0; i < 50; i++ {
		w := &closeWatcher{}
		s := newSession(w, new(mocks.MockDocumentStore), workflow.Machine{})

		started := make(chan struct{})
		go func() {
			close(started)
			_, _ = s.SelectFile(domain.FileRef{Name: "cv.pdf"}, []byte("x"))
		}()
		<-started
		require.NoError(t, s.Close())
		w.closed.Store(true)

		// a SelectFile that lost the race must not start work
		_, err := s.SelectFile(domain.FileRef{Name: "cv.pdf"}, []byte("x"))
		assert.ErrorIs(t, err, domain.ErrSessionClosed)
		time.Sleep(time.Millisecond)
		assert.Zero(t, w.late.Load())
	}
}

func TestRegistry_GetCloseSweep(t *testing.T) {
	created := 0
	reg := workflow.NewRegistry(func(owner string) *workflow.Session {
		created++
		return newSession(newGatedProcessor(resumePayload, nil), new(mocks.MockDocumentStore), workflow.Machine{})
	}, nil)

	a := reg.Get("alice")
	assert.Same(t, a, reg.Get("alice"))
	reg.Get("bob")
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, reg.Len())

	reg.Close("alice")
	assert.Equal(t, 1, reg.Len())
	_, err := a.Next()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	reg.Close("nobody")

	assert.Equal(t, 0, reg.Sweep(time.Hour))
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, reg.Sweep(time.Millisecond))
	assert.Equal(t, 0, reg.Len())
}
