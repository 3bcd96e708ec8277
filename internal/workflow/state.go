// Package workflow implements the upload → review → confirm flow as an
// explicit state machine. State values are immutable; every change goes
// through Machine.Reduce, and Session drives the asynchronous work.
package workflow

import (
	"errors"
	"fmt"

	"docflow/internal/domain"
)

// State is one snapshot of a user's workflow. Pointer members are never
// mutated after they are placed in a State.
type State struct {
	Step       domain.ViewStep
	File       *domain.FileRef
	Job        *domain.UploadJob
	Document   *domain.ProcessedDocument
	Processing bool
	Save       domain.SaveStatus
	SavedID    string
	Error      string
	// Generation increases whenever async work is started or the flow is
	// reset; completions carrying an older generation are dropped.
	Generation uint64
}

// Initial returns the state of a fresh workflow.
func Initial() State {
	return State{Step: domain.StepUpload, Save: domain.SaveIdle}
}

// Busy reports whether a job or a save is in flight.
func (s State) Busy() bool {
	return s.Processing || s.Save == domain.SaveSaving
}

// locked reports whether user actions other than reading are blocked. A
// succeeded save is locked until its reset fires.
func (s State) locked() bool {
	return s.Busy() || s.Save == domain.SaveSucceeded
}

// CanSelectFile reports whether a new file may be submitted.
func (s State) CanSelectFile() bool {
	return s.Step == domain.StepUpload && !s.locked()
}

// CanNext reports whether the next transition is enabled.
func (s State) CanNext() bool {
	return !s.locked() && s.Document != nil
}

// CanBack reports whether the back transition is enabled.
func (m Machine) CanBack(s State) bool {
	if s.locked() {
		return false
	}
	if s.Step > domain.StepUpload {
		return true
	}
	return m.SoftResetOnBack && s.File != nil
}

// CanConfirm reports whether the confirm/save flow may start.
func (s State) CanConfirm() bool {
	return s.Step == domain.StepConfirm && s.Document != nil && !s.Processing && s.Save == domain.SaveIdle
}

// CanEdit reports whether extracted values may be edited.
func (s State) CanEdit() bool {
	return s.Step == domain.StepReview && s.Document != nil && !s.locked()
}

// Event is an input to Machine.Reduce.
type Event interface {
	eventName() string
}

// FileSelected starts processing of a newly selected file.
type FileSelected struct{ File domain.FileRef }

// JobUpdated reports progress of the job started under Generation.
type JobUpdated struct {
	Generation uint64
	Job        domain.UploadJob
}

// ProcessingSucceeded delivers the document produced by the job started under Generation.
type ProcessingSucceeded struct {
	Generation uint64
	Document   domain.ProcessedDocument
}

// ProcessingFailed reports that the job started under Generation failed.
type ProcessingFailed struct {
	Generation uint64
	Err        error
}

// Next advances one step.
type Next struct{}

// Back retreats one step, or clears the selection at the first step.
type Back struct{}

// EditField replaces one extracted value during review.
type EditField struct {
	Key   string
	Value interface{}
}

// ConfirmRequested starts the save.
type ConfirmRequested struct{}

// SaveSucceeded reports that the save started under Generation succeeded.
type SaveSucceeded struct {
	Generation uint64
	SavedID    string
}

// SaveFailed reports that the save started under Generation failed.
type SaveFailed struct {
	Generation uint64
	Err        error
}

// ResetElapsed fires once the post-save delay for Generation has passed.
type ResetElapsed struct{ Generation uint64 }

func (FileSelected) eventName() string        { return "file_selected" }
func (JobUpdated) eventName() string          { return "job_updated" }
func (ProcessingSucceeded) eventName() string { return "processing_succeeded" }
func (ProcessingFailed) eventName() string    { return "processing_failed" }
func (Next) eventName() string                { return "next" }
func (Back) eventName() string                { return "back" }
func (EditField) eventName() string           { return "edit_field" }
func (ConfirmRequested) eventName() string    { return "confirm_requested" }
func (SaveSucceeded) eventName() string       { return "save_succeeded" }
func (SaveFailed) eventName() string          { return "save_failed" }
func (ResetElapsed) eventName() string        { return "reset_elapsed" }

// EventName returns a stable name for ev, used in logs.
func EventName(ev Event) string { return ev.eventName() }

// Machine holds the flow variant options; its zero value is the plain flow.
type Machine struct {
	// SoftResetOnBack makes Back at the first step clear the selected file
	// and document instead of being a no-op.
	SoftResetOnBack bool
}

// Reduce applies ev to s. Guard violations return s unchanged with an error;
// stale async completions are dropped without error.
func (m Machine) Reduce(s State, ev Event) (State, error) {
	switch e := ev.(type) {
	case FileSelected:
		if s.locked() {
			return s, domain.ErrWorkflowBusy
		}
		if s.Step != domain.StepUpload {
			return s, fmt.Errorf("select file at step %s: %w", s.Step, domain.ErrTransitionNotAllowed)
		}
		file := e.File
		s.Generation++
		s.File = &file
		s.Job = &domain.UploadJob{File: file, Status: domain.JobStatusSubmitted}
		s.Document = nil
		s.Error = ""
		s.Processing = true
		return s, nil

	case JobUpdated:
		if e.Generation != s.Generation || !s.Processing {
			return s, nil
		}
		job := e.Job
		s.Job = &job
		return s, nil

	case ProcessingSucceeded:
		if e.Generation != s.Generation || !s.Processing {
			return s, nil
		}
		doc := e.Document
		s.Document = &doc
		s.Processing = false
		s.Error = ""
		if s.Job != nil {
			job := *s.Job
			job.Status = domain.JobStatusCompleted
			s.Job = &job
		}
		return s, nil

	case ProcessingFailed:
		if e.Generation != s.Generation || !s.Processing {
			return s, nil
		}
		s.Processing = false
		s.Document = nil
		s.Error = domain.UserMessage(e.Err)
		if s.Job != nil && !s.Job.Status.IsTerminal() {
			job := *s.Job
			job.Status = domain.JobStatusFailed
			if errors.Is(e.Err, domain.ErrProcessingTimeout) {
				job.Status = domain.JobStatusTimedOut
			}
			s.Job = &job
		}
		return s, nil

	case Next:
		if s.locked() {
			return s, domain.ErrWorkflowBusy
		}
		if s.Document == nil {
			return s, domain.ErrNoDocument
		}
		s.Step = (s.Step + 1).Clamp()
		return s, nil

	case Back:
		if s.locked() {
			return s, domain.ErrWorkflowBusy
		}
		if s.Step > domain.StepUpload {
			s.Step = (s.Step - 1).Clamp()
			return s, nil
		}
		if m.SoftResetOnBack && s.File != nil {
			s.Generation++
			s.File = nil
			s.Job = nil
			s.Document = nil
			s.Error = ""
		}
		return s, nil

	case EditField:
		if s.locked() {
			return s, domain.ErrWorkflowBusy
		}
		if s.Document == nil {
			return s, domain.ErrNoDocument
		}
		if s.Step != domain.StepReview {
			return s, fmt.Errorf("edit field at step %s: %w", s.Step, domain.ErrTransitionNotAllowed)
		}
		if _, ok := s.Document.Field(e.Key); !ok {
			if _, exists := s.Document.ExtractedData[e.Key]; !exists {
				return s, fmt.Errorf("%w: %s", domain.ErrUnknownField, e.Key)
			}
		}
		doc := s.Document.WithValue(e.Key, e.Value)
		s.Document = &doc
		return s, nil

	case ConfirmRequested:
		if s.Busy() || s.Save == domain.SaveSucceeded {
			return s, domain.ErrWorkflowBusy
		}
		if s.Document == nil {
			return s, domain.ErrNoDocument
		}
		if s.Step != domain.StepConfirm {
			return s, fmt.Errorf("confirm at step %s: %w", s.Step, domain.ErrTransitionNotAllowed)
		}
		s.Generation++
		s.Save = domain.SaveSaving
		s.Error = ""
		return s, nil

	case SaveSucceeded:
		if e.Generation != s.Generation || s.Save != domain.SaveSaving {
			return s, nil
		}
		s.Save = domain.SaveSucceeded
		s.SavedID = e.SavedID
		return s, nil

	case SaveFailed:
		if e.Generation != s.Generation || s.Save != domain.SaveSaving {
			return s, nil
		}
		s.Save = domain.SaveIdle
		s.Error = domain.UserMessage(fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, e.Err))
		return s, nil

	case ResetElapsed:
		if e.Generation != s.Generation || s.Save != domain.SaveSucceeded {
			return s, nil
		}
		next := Initial()
		next.Generation = s.Generation + 1
		return next, nil
	}

	return s, fmt.Errorf("workflow: unhandled event %T", ev)
}
