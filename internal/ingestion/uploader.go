package ingestion

import (
	"fmt"
	"io"
	"sync"

	"npdstudio/domain/core"
	"npdstudio/domain/distribution"
	"npdstudio/internal"
)

// State is the state of an upload control
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
)

// Uploader runs one upload at a time in the background and hands the parsed
// dataset to a consumer.
type Uploader struct {
	parser        *Parser
	logger        *internal.Logger
	onStateChange func(State, Report)

	mu    sync.Mutex
	state State
	done  chan struct{} // closed when the current upload finishes; nil while idle
}

// NewUploader creates an idle uploader
func NewUploader(parser *Parser, logger *internal.Logger) *Uploader {
	if parser == nil {
		parser = NewParser(DefaultBatchSize)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Uploader{
		parser: parser,
		logger: logger,
		state:  StateIdle,
	}
}

// OnStateChange registers a hook called on every transition. The report is zero
// except on the transition back to idle after a successful parse.
func (u *Uploader) OnStateChange(fn func(State, Report)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onStateChange = fn
}

// State returns the current state
func (u *Uploader) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Upload starts reading src in the background and returns immediately. consume is
// called exactly once with the full dataset when the read succeeds and never when it
// fails. src is closed after reading if it is an io.Closer.
func (u *Uploader) Upload(src io.Reader, consume func(distribution.ClientDataset)) error {
	if src == nil || consume == nil {
		return core.NewValidationError("upload", "source and consumer are required")
	}

	u.mu.Lock()
	if u.state == StateLoading {
		u.mu.Unlock()
		return core.ErrUploadInProgress
	}
	u.state = StateLoading
	u.done = make(chan struct{})
	hook := u.onStateChange
	u.mu.Unlock()

	if hook != nil {
		hook(StateLoading, Report{})
	}

	go u.run(src, consume)
	return nil
}

// Wait blocks until the in-flight upload, if any, has finished.
func (u *Uploader) Wait() {
	u.mu.Lock()
	done := u.done
	u.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (u *Uploader) run(src io.Reader, consume func(distribution.ClientDataset)) {
	var report Report
	defer u.finish(&report)

	dataset, rep, err := u.load(src)
	if err != nil {
		u.logger.Error("[Uploader] Error reading distribution file: %v", err)
		return
	}
	report = rep

	u.logger.Info("[Uploader] Parsed %d clients from %d rows (%d skipped, %d non-numeric fields, %d batches)",
		rep.Accepted, rep.Rows, rep.Skipped, rep.NaNFields, rep.Batches)

	if err := deliver(dataset, consume); err != nil {
		u.logger.Error("[Uploader] Dataset consumer failed: %v", err)
	}
}

func (u *Uploader) load(src io.Reader) (distribution.ClientDataset, Report, error) {
	content, err := io.ReadAll(src)
	if closer, ok := src.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			u.logger.Warn("[Uploader] Failed to close distribution file: %v", cerr)
		}
	}
	if err != nil {
		return nil, Report{}, err
	}
	dataset, report := u.parser.Parse(string(content))
	return dataset, report, nil
}

func deliver(dataset distribution.ClientDataset, consume func(distribution.ClientDataset)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	consume(dataset)
	return nil
}

// finish reports the outcome, then returns the control to idle and releases waiters.
// The state stays Loading until the hook has run so a new upload cannot overtake it.
func (u *Uploader) finish(report *Report) {
	u.mu.Lock()
	hook := u.onStateChange
	u.mu.Unlock()

	if hook != nil {
		hook(StateIdle, *report)
	}

	u.mu.Lock()
	u.state = StateIdle
	done := u.done
	u.done = nil
	u.mu.Unlock()
	close(done)
}
