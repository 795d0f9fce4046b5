package detection

import "time"

// Report is the serializable summary of a run, printed with -json and
// stored in the run history.
type Report struct {
	RunID      string    `json:"run_id"`
	Input      string    `json:"input"`
	Status     Status    `json:"status"`
	Threshold  float64   `json:"threshold,omitempty"`
	Iterations int       `json:"iterations"`
	Attempts   []Attempt `json:"attempts,omitempty"`
	Best       *Box      `json:"best,omitempty"`
	Candidates []Box     `json:"candidates,omitempty"`
	PlateText  string    `json:"plate_text,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Report summarizes the detection for input.
func (d *Detection) Report(input string) *Report {
	r := &Report{
		RunID:     d.RunID,
		Input:     input,
		Status:    d.Status,
		CreatedAt: time.Now().UTC(),
	}
	if d.Result != nil {
		r.Threshold = d.Result.Threshold
		r.Iterations = d.Result.Iterations()
		r.Attempts = append([]Attempt(nil), d.Result.Attempts...)
	}
	if d.Artifacts != nil {
		best := d.Artifacts.Best
		r.Best = &best
		r.Candidates = append([]Box(nil), d.Boxes...)
	}
	return r
}

// FailedReport describes a run that never got past loading its input.
func FailedReport(runID, input string, err error) *Report {
	return &Report{
		RunID:     runID,
		Input:     input,
		Status:    StatusLoadFailed,
		Error:     err.Error(),
		CreatedAt: time.Now().UTC(),
	}
}
