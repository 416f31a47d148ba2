package publish

import (
	"context"
	"frameshot/internal/capture"
	"frameshot/internal/device"
	"frameshot/internal/metrics"
	"frameshot/internal/report"
	"time"
)

type State string

const (
	StateIdle      State = "Idle"
	StateRendering State = "Rendering"
	StateUploaded  State = "Uploaded"
	StateEvicting  State = "Evicting"
	StateSkipped   State = "Skipped"
	StateClosed    State = "Closed"
	StateFailed    State = "Failed"
)

type Job struct {
	Capture capture.Request
	Display DisplayOptions
	// MaxItems bounds the device gallery; values <= 0 skip eviction.
	MaxItems int
}

type Outcome struct {
	State   State
	Path    string
	ItemID  string
	Evicted []string
}

// Pipeline runs render, upload and eviction strictly one after another.
type Pipeline struct {
	Renderer Renderer
	Uploader *Uploader
	Gallery  *GalleryManager
	// NewSession is called only after rendering succeeded.
	NewSession func() *Session

	Reporter report.Reporter
	Metrics  *metrics.Recorder
	Now      func() time.Time
}

func (p *Pipeline) reporter() report.Reporter {
	if p.Reporter == nil {
		return report.Discard()
	}
	return p.Reporter
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Pipeline) observe(stage Kind, started time.Time, err error) {
	p.Metrics.ObserveStage(string(stage), p.now().Sub(started), err)
}

// Run executes one publish. The returned Outcome is never nil; its State is
// Closed on success and Failed otherwise, in which case err names the
// failing stage.
func (p *Pipeline) Run(ctx context.Context, job Job) (o *Outcome, err error) {
	o = &Outcome{State: StateIdle}

	o.State = StateRendering
	started := p.now()
	path, err := p.Renderer.Render(ctx, job.Capture)
	p.observe(KindRender, started, err)
	if err != nil {
		o.State = StateFailed
		return o, RenderError(err)
	}
	o.Path = path

	session := p.NewSession()
	defer func() {
		if session.Opened() && !session.Closed() {
			p.reporter().Info("closing connection to device", "host", session.Host)
		}
		closeErr := session.Close()
		if closeErr != nil {
			if err == nil {
				err = closeErr
			} else {
				p.reporter().Error(closeErr, "failed to close device connection")
			}
		}
		if err != nil {
			o.State = StateFailed
			return
		}
		o.State = StateClosed
		p.Metrics.MarkSuccess(p.now())
	}()

	started = p.now()
	id, err := p.Uploader.Upload(ctx, session, path, job.Display)
	p.observe(KindUpload, started, err)
	if err != nil {
		return o, UploadError(err)
	}
	o.ItemID = id
	o.State = StateUploaded
	p.reporter().Success("art published", "id", id)

	if job.MaxItems <= 0 {
		o.State = StateSkipped
		return o, nil
	}

	o.State = StateEvicting
	started = p.now()
	evicted, err := p.Gallery.Trim(ctx, session, job.MaxItems)
	p.observe(KindGallery, started, err)
	if err != nil {
		return o, GalleryError(err)
	}
	o.Evicted = ids(evicted)

	return o, nil
}

func ids(items []device.ArtItem) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}
