// Package orchestrator runs the user actions: preview, media download and image download.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"ultradl/internal/analytics"
	"ultradl/internal/consts"
	"ultradl/internal/entity"
	"ultradl/internal/errs"
	"ultradl/internal/observability"
	"ultradl/internal/progress"
	"ultradl/internal/session"
	"ultradl/internal/transfer"
	"ultradl/pkg/urls"
)

// InfoClient resolves a link into a descriptor.
type InfoClient interface {
	Info(ctx context.Context, target string) (*entity.MediaDescriptor, error)
}

// Fetcher transfers bytes with progress.
type Fetcher interface {
	FetchMedia(ctx context.Context, target string, kind entity.Kind, sink transfer.Sink) (*entity.Payload, error)
	Fetch(ctx context.Context, in transfer.Request, sink transfer.Sink) (*entity.Payload, error)
}

// Saver lands a payload as a named file.
type Saver interface {
	Save(ctx context.Context, payload *entity.Payload, filename string) (string, error)
}

// Panel is the status line, log and alerts.
type Panel interface {
	Status(text string)
	Log(msg string)
	Alert(msg string)
}

// Deps are the orchestrator collaborators.
type Deps struct {
	Info     InfoClient
	Fetcher  Fetcher
	Saver    Saver
	Panel    Panel
	Tracker  analytics.Tracker
	Progress *progress.State
	Session  *session.Session
	Metrics  *observability.Metrics
}

// Options tune filenames.
type Options struct {
	// IndexFilenames saves batch items as media_<i>.<ext> instead of media.<ext>.
	IndexFilenames bool
}

// Result lists the saved file paths in order.
type Result struct {
	Files []string
}

// Orchestrator runs one action at a time against its session.
type Orchestrator struct {
	log *slog.Logger
	d   Deps
	opt Options

	busy atomic.Bool
}

// New creates an Orchestrator. A nil Tracker, Progress or Session gets a default.
func New(log *slog.Logger, d Deps, opt Options) *Orchestrator {
	if d.Tracker == nil {
		d.Tracker = analytics.Nop{}
	}
	if d.Progress == nil {
		d.Progress = progress.New()
	}
	if d.Session == nil {
		d.Session = session.New()
	}

	o := &Orchestrator{d: d, opt: opt}
	o.log = log.With(slog.String("package", "orchestrator"), slog.String("session_id", d.Session.ID()))

	return o
}

// Session returns the state shared by the actions.
func (o *Orchestrator) Session() *session.Session {
	return o.d.Session
}

// Progress returns the shared progress state.
func (o *Orchestrator) Progress() *progress.State {
	return o.d.Progress
}

// Busy reports whether an action is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// acquire takes the single action slot. A rejected call has no side effects besides the metric.
func (o *Orchestrator) acquire() (release func(), err error) {
	if !o.busy.CompareAndSwap(false, true) {
		o.d.Metrics.RecordActionRejected()

		return nil, errs.ErrBusy
	}

	return func() { o.busy.Store(false) }, nil
}

// Preview loads the descriptor for rawURL into the session and returns its summary.
// A failure leaves the previous descriptor in place.
func (o *Orchestrator) Preview(ctx context.Context, rawURL string) (summary *Summary, err error) {
	release, err := o.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	done := o.d.Metrics.ActionTimer("preview")
	defer func() { done(outcome(err)) }()

	log := o.log.With(slog.String("func", "Preview"))

	target := urls.Normalize(rawURL)
	if target == "" {
		o.d.Panel.Alert(consts.AlertEmptyURL)

		return nil, errs.ErrEmptyURL
	}

	o.d.Tracker.Track(ctx, consts.EventPreview, nil)
	o.d.Panel.Status(consts.StatusAnalyzing)

	desc, err := o.d.Info.Info(ctx, target)
	if err != nil {
		msg := errs.Message(err)
		o.d.Panel.Alert(consts.AlertPreviewFail + msg)
		o.d.Panel.Status(consts.StatusError)
		o.d.Panel.Log(consts.LogPreviewFailed + msg)
		log.ErrorContext(ctx, "preview", slog.String("url", target), slog.Any("error", err))

		return nil, fmt.Errorf("preview: %w", err)
	}

	o.d.Session.Replace(desc, target)

	summary = Summarize(desc)

	o.d.Panel.Status(consts.StatusReady)
	o.d.Panel.Log(consts.LogPreviewLoaded)
	log.DebugContext(ctx, "preview loaded", slog.Any("descriptor", desc))

	return summary, nil
}

// Download fetches and saves every item of the previewed source as kind, one at a time.
// On failure the remaining items are skipped and Result holds what was already saved.
func (o *Orchestrator) Download(ctx context.Context, kind entity.Kind) (res *Result, err error) {
	if kind != entity.KindAudio && kind != entity.KindVideo {
		return nil, fmt.Errorf("%w: %q", errs.ErrInvalidKind, kind)
	}

	release, err := o.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	done := o.d.Metrics.ActionTimer("download_" + kind.String())
	defer func() { done(outcome(err)) }()

	log := o.log.With(slog.String("func", "Download"), slog.String("kind", kind.String()))

	snap := o.d.Session.Snapshot()
	if !snap.Loaded() {
		o.d.Panel.Alert(consts.AlertNoPreview)

		return nil, errs.ErrNoPreview
	}

	o.d.Progress.Reset()
	defer o.d.Progress.Reset()

	res = &Result{}

	entries := snap.Descriptor.Entries
	if !snap.Descriptor.HasEntries() {
		o.d.Panel.Status(consts.StatusDownload)

		path, err := o.fetchAndSave(ctx, snap.InputURL, kind, o.mediaFilename(kind, 1, 1))
		if err != nil {
			return res, o.downloadFailed(ctx, log, err)
		}

		res.Files = append(res.Files, path)
		o.d.Panel.Log(fmt.Sprintf(consts.LogSavedFmt, filepath.Base(path)))
	} else {
		for i, entry := range entries {
			n := i + 1
			o.d.Progress.Reset()
			o.d.Panel.Status(fmt.Sprintf(consts.StatusItemFmt, n, len(entries)))

			target := entry.URL
			if target == "" {
				target = snap.InputURL
			}

			path, err := o.fetchAndSave(ctx, target, kind, o.mediaFilename(kind, n, len(entries)))
			if err != nil {
				return res, o.downloadFailed(ctx, log, fmt.Errorf("item %d: %w", n, err))
			}

			res.Files = append(res.Files, path)
			o.d.Panel.Log(fmt.Sprintf(consts.LogSavedItemFmt, filepath.Base(path), n))
		}
	}

	o.d.Panel.Status(consts.StatusComplete)

	event := consts.EventDownloadAudio
	if kind == entity.KindVideo {
		event = consts.EventDownloadVideo
	}
	o.d.Tracker.Track(ctx, event, nil)

	log.InfoContext(ctx, "download complete", slog.Int("files", len(res.Files)))

	return res, nil
}

// DownloadImages saves every image candidate of the previewed source.
func (o *Orchestrator) DownloadImages(ctx context.Context) (res *Result, err error) {
	release, err := o.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	done := o.d.Metrics.ActionTimer("download_image")
	defer func() { done(outcome(err)) }()

	log := o.log.With(slog.String("func", "DownloadImages"))

	snap := o.d.Session.Snapshot()
	if !snap.Loaded() {
		o.d.Panel.Alert(consts.AlertNoPreview)

		return nil, errs.ErrNoPreview
	}

	o.d.Progress.Reset()
	defer o.d.Progress.Reset()

	candidates := CollectImages(snap.Descriptor)
	if len(candidates) == 0 {
		o.d.Panel.Alert(consts.AlertNoImage)

		return nil, errs.ErrNoImage
	}

	base := ImageBaseName(snap.Descriptor.Title)
	total := len(candidates)
	res = &Result{}

	for i, candidate := range candidates {
		n := i + 1

		path, err := o.saveImage(ctx, snap.InputURL, candidate, base, n, total)
		if err != nil {
			return res, o.imageFailed(ctx, log, fmt.Errorf("image %d: %w", n, err))
		}

		res.Files = append(res.Files, path)
		o.d.Panel.Log(fmt.Sprintf(consts.LogSavedFmt, filepath.Base(path)))
	}

	o.d.Panel.Status(consts.StatusComplete)
	o.d.Tracker.Track(ctx, consts.EventDownloadImage, nil)

	log.InfoContext(ctx, "images saved", slog.Int("files", len(res.Files)))

	return res, nil
}

func (o *Orchestrator) saveImage(ctx context.Context, inputURL, candidate, base string, n, total int) (string, error) {
	o.d.Progress.Reset()

	// relative or opaque references go through the media service as the source's thumbnail
	if !urls.IsAbsoluteRemote(candidate) {
		payload, err := o.d.Fetcher.FetchMedia(ctx, inputURL, entity.KindThumbnail, o.d.Progress)
		if err != nil {
			return "", err
		}

		return o.save(ctx, payload, entity.KindThumbnail, base+".jpg")
	}

	if total > 1 {
		o.d.Panel.Status(fmt.Sprintf(consts.StatusImageFmt, n, total))
	} else {
		o.d.Panel.Status(consts.StatusImage)
	}

	payload, err := o.d.Fetcher.Fetch(ctx, transfer.Request{
		URL:          candidate,
		ExpectedType: entity.KindImage.MIME(),
		Service:      consts.ServiceDirect,
	}, o.d.Progress)
	if err != nil {
		return "", err
	}

	filename := base + ".jpg"
	if total > 1 {
		filename = fmt.Sprintf("%s_%d.jpg", base, n)
	}

	return o.save(ctx, payload, entity.KindImage, filename)
}

func (o *Orchestrator) fetchAndSave(ctx context.Context, target string, kind entity.Kind, filename string) (string, error) {
	payload, err := o.d.Fetcher.FetchMedia(ctx, target, kind, o.d.Progress)
	if err != nil {
		return "", err
	}

	return o.save(ctx, payload, kind, filename)
}

func (o *Orchestrator) save(ctx context.Context, payload *entity.Payload, kind entity.Kind, filename string) (string, error) {
	path, err := o.d.Saver.Save(ctx, payload, filename)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}

	o.d.Metrics.RecordSaved(kind.String())

	return path, nil
}

func (o *Orchestrator) mediaFilename(kind entity.Kind, n, total int) string {
	if o.opt.IndexFilenames && total > 1 {
		return fmt.Sprintf("%s_%d.%s", consts.MediaBaseName, n, kind.Ext())
	}

	return consts.MediaBaseName + "." + kind.Ext()
}

func (o *Orchestrator) downloadFailed(ctx context.Context, log *slog.Logger, err error) error {
	msg := errs.Message(err)
	o.d.Panel.Alert(consts.AlertDownloadFail + msg)
	o.d.Panel.Log(consts.LogDownloadFailed + msg)
	o.d.Panel.Status(consts.StatusError)
	log.ErrorContext(ctx, "download", slog.Any("error", err))

	return fmt.Errorf("download: %w", err)
}

func (o *Orchestrator) imageFailed(ctx context.Context, log *slog.Logger, err error) error {
	msg := errs.Message(err)
	o.d.Panel.Alert(consts.AlertImageFail + msg)
	o.d.Panel.Log(consts.LogImageFailed + msg)
	o.d.Panel.Status(consts.StatusError)
	log.ErrorContext(ctx, "download images", slog.Any("error", err))

	return fmt.Errorf("download images: %w", err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errs.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
