package workflow

import "docflow/internal/domain"

// View is the JSON-facing rendering of a State, including the guard flags
// clients use to enable or disable controls.
type View struct {
	Step          domain.ViewStep           `json:"step"`
	StepName      string                    `json:"step_name"`
	Processing    bool                      `json:"processing"`
	IsUpdating    bool                      `json:"is_updating"`
	UpdateSuccess bool                      `json:"update_success"`
	SaveStatus    domain.SaveStatus         `json:"save_status"`
	SavedID       string                    `json:"saved_id,omitempty"`
	Error         string                    `json:"error,omitempty"`
	File          *domain.FileRef           `json:"file,omitempty"`
	Job           *domain.UploadJob         `json:"job,omitempty"`
	Document      *domain.ProcessedDocument `json:"document,omitempty"`
	Actions       Actions                   `json:"actions"`
}

// Actions lists which transitions are currently enabled.
type Actions struct {
	SelectFile bool `json:"select_file"`
	Next       bool `json:"next"`
	Back       bool `json:"back"`
	Edit       bool `json:"edit"`
	Confirm    bool `json:"confirm"`
}

// Render builds the View of s.
func (m Machine) Render(s State) View {
	return View{
		Step:          s.Step,
		StepName:      s.Step.String(),
		Processing:    s.Processing,
		IsUpdating:    s.Save == domain.SaveSaving,
		UpdateSuccess: s.Save == domain.SaveSucceeded,
		SaveStatus:    s.Save,
		SavedID:       s.SavedID,
		Error:         s.Error,
		File:          s.File,
		Job:           s.Job,
		Document:      s.Document,
		Actions: Actions{
			SelectFile: s.CanSelectFile(),
			Next:       s.CanNext() && s.Step < domain.StepConfirm,
			Back:       m.CanBack(s),
			Edit:       s.CanEdit(),
			Confirm:    s.CanConfirm(),
		},
	}
}
