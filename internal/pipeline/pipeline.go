// Package pipeline drives one image from selection through analysis to a published
// result. All state changes are serialised by the pipeline's mutex; every change is
// published as a View.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/franckalain/ecoscan/internal/footprint"
	"github.com/franckalain/ecoscan/internal/ml"
	"github.com/franckalain/ecoscan/internal/models"
	"github.com/franckalain/ecoscan/internal/presenter"
	"github.com/franckalain/ecoscan/internal/upload"
	"github.com/sirupsen/logrus"
)

// Backend analyses an image. backend.Client implements it.
type Backend interface {
	Submit(ctx context.Context, image []byte, mimeType string) (*models.AnalysisResult, error)
}

type modelBackend struct {
	model ml.Model
}

func (b modelBackend) Submit(ctx context.Context, image []byte, mimeType string) (*models.AnalysisResult, error) {
	return b.model.ProcessImage(ctx, image, mimeType)
}

// ModelBackend runs an in-process model as the backend
func ModelBackend(m ml.Model) Backend {
	return modelBackend{model: m}
}

// View is the declarative description of what the UI should show. Version grows with
// every view built, so consumers can drop out-of-order deliveries.
type View struct {
	Version uint64               `json:"version"`
	State   State                `json:"state"`
	Preview string               `json:"preview,omitempty"`
	Loading bool                 `json:"loading"`
	Result  *presenter.ViewModel `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	Notice  string               `json:"notice,omitempty"`
}

// ResultHook is called after a result has been published
type ResultHook func(ctx context.Context, file upload.File, result *models.AnalysisResult)

// Pipeline is the analysis state machine for one user session
type Pipeline struct {
	backend   Backend
	presenter *presenter.Presenter
	session   *upload.Session
	log       *logrus.Entry
	strict    bool
	onChange  func(View)
	onResult  ResultHook

	mu       sync.Mutex
	state    State
	result   *models.AnalysisResult
	errMsg   string
	notice   string
	run      uint64
	inflight bool
	cancel   context.CancelFunc
	closed   bool
	version  uint64
	wg       sync.WaitGroup

	pubMu     sync.Mutex
	published uint64

	uploadOpts []upload.Option
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(log *logrus.Entry) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithPresenter sets the presenter used to build views
func WithPresenter(pr *presenter.Presenter) Option {
	return func(p *Pipeline) { p.presenter = pr }
}

// OnChange registers the view subscriber. Views are delivered in version order; a view
// superseded before delivery is skipped.
func OnChange(fn func(View)) Option {
	return func(p *Pipeline) { p.onChange = fn }
}

// OnResult registers a hook run after every published result
func OnResult(fn ResultHook) Option {
	return func(p *Pipeline) { p.onResult = fn }
}

// Strict makes internal consistency errors panic instead of failing softly
func Strict(strict bool) Option {
	return func(p *Pipeline) { p.strict = strict }
}

// WithUploadOptions passes options to the underlying upload session
func WithUploadOptions(opts ...upload.Option) Option {
	return func(p *Pipeline) { p.uploadOpts = append(p.uploadOpts, opts...) }
}

// New creates an empty pipeline analysing images with b
func New(b Backend, opts ...Option) *Pipeline {
	p := &Pipeline{
		backend: b,
		log:     logrus.WithField("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.presenter == nil {
		p.presenter = presenter.Default()
	}
	p.session = upload.NewSession(append(p.uploadOpts, upload.OnDecoded(p.handleDecoded))...)
	return p
}

// State returns the current state
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result returns the published result, if any
func (p *Pipeline) Result() *models.AnalysisResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Upload returns a snapshot of the selected image
func (p *Pipeline) Upload() upload.Snapshot {
	return p.session.Snapshot()
}

// View returns the current view
func (p *Pipeline) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// Select replaces the selected image. A rejected file changes nothing. Any published
// result or error is discarded as soon as the new file is accepted.
func (p *Pipeline) Select(f upload.File) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.state == StateSubmitting {
		p.mu.Unlock()
		return ErrBusy
	}
	if err := p.session.Validate(f); err != nil {
		p.mu.Unlock()
		return err
	}
	if _, err := p.session.Select(f); err != nil {
		p.mu.Unlock()
		return err
	}

	p.state = StateEmpty
	p.result = nil
	p.errMsg = ""
	p.notice = ""
	view := p.viewLocked()
	p.mu.Unlock()

	p.log.WithFields(logrus.Fields{"name": f.Name, "type": f.ContentType, "bytes": len(f.Data)}).Debug("image selected")
	p.publish(view)
	return nil
}

func (p *Pipeline) handleDecoded(snap upload.Snapshot) {
	p.mu.Lock()
	if p.closed || snap.Generation != p.session.Snapshot().Generation {
		p.mu.Unlock()
		return
	}
	if snap.Err != nil {
		p.log.WithError(snap.Err).Warn("preview decode failed")
		p.state = StateEmpty
		p.notice = "Could not read the selected image."
	} else if p.state == StateEmpty {
		p.state = StateReady
	}
	view := p.viewLocked()
	p.mu.Unlock()

	p.publish(view)
}

// Analyze submits the selected image. It refuses with ErrNoImage when nothing is ready
// and does nothing while a submission is already running.
func (p *Pipeline) Analyze(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	switch {
	case p.state == StateSubmitting:
		p.mu.Unlock()
		return nil
	case p.inflight:
		// a reset request has not returned yet
		p.mu.Unlock()
		return ErrBusy
	case p.state == StateEmpty:
		p.mu.Unlock()
		return ErrNoImage
	}

	snap := p.session.Snapshot()
	if !snap.Valid() {
		p.mu.Unlock()
		return ErrNoImage
	}

	p.run++
	run := p.run
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.inflight = true
	p.state = StateSubmitting
	p.result = nil
	p.errMsg = ""
	p.notice = ""
	view := p.viewLocked()
	p.wg.Add(1)
	p.mu.Unlock()

	p.publish(view)
	go p.submit(runCtx, run, *snap.File)
	return nil
}

func (p *Pipeline) submit(ctx context.Context, run uint64, file upload.File) {
	defer p.wg.Done()

	log := p.log.WithField("run", run)
	log.Info("submitting image for analysis")
	result, err := p.backend.Submit(ctx, file.Data, file.ContentType)

	var cerr *footprint.ConsistencyError
	if err != nil && errors.As(err, &cerr) {
		if p.strict {
			panic(fmt.Sprintf("pipeline: %v", err))
		}
		log.WithError(err).Error("internal consistency error")
	}

	p.mu.Lock()
	p.inflight = false
	p.cancel = nil
	if run != p.run || p.state != StateSubmitting {
		p.mu.Unlock()
		log.Debug("discarding stale analysis")
		return
	}
	switch {
	case err != nil:
		p.state = StateFailed
		p.errMsg = failureMessage(err)
		log.WithError(err).Warn("analysis failed")
	case result == nil:
		p.state = StateFailed
		p.errMsg = GenericFailure
		log.Warn("backend returned no result")
	default:
		p.state = StateSucceeded
		p.result = result
		log.WithField("object", result.ObjectName).Info("analysis succeeded")
	}
	view := p.viewLocked()
	hook := p.onResult
	p.mu.Unlock()

	p.publish(view)
	if hook != nil && err == nil && result != nil {
		hook(context.WithoutCancel(ctx), file, result)
	}
}

// Reset returns to the empty state from any state, abandoning a running submission.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.run++
	p.session.Clear()
	p.state = StateEmpty
	p.result = nil
	p.errMsg = ""
	p.notice = ""
	view := p.viewLocked()
	closed := p.closed
	p.mu.Unlock()

	if !closed {
		p.publish(view)
	}
}

// ShareText renders the published result for sharing
func (p *Pipeline) ShareText() (string, error) {
	p.mu.Lock()
	result := p.result
	p.mu.Unlock()
	if result == nil {
		return "", &upload.ValidationError{Reason: "no_result", Message: "No results to share."}
	}
	return p.presenter.ShareText(result), nil
}

// Close resets the pipeline and waits for background work to finish
func (p *Pipeline) Close() {
	p.Reset()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
	p.session.Wait()
}

func (p *Pipeline) viewLocked() View {
	p.version++
	v := View{
		Version: p.version,
		State:   p.state,
		Loading: p.state == StateSubmitting,
		Error:   p.errMsg,
		Notice:  p.notice,
	}
	if snap := p.session.Snapshot(); snap.Valid() {
		v.Preview = snap.Preview
	}
	if p.state == StateSucceeded && p.result != nil {
		vm := p.presenter.Present(p.result)
		v.Result = &vm
	}
	return v
}

func (p *Pipeline) publish(v View) {
	if p.onChange == nil {
		return
	}
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if v.Version <= p.published {
		return
	}
	p.published = v.Version
	p.onChange(v)
}
