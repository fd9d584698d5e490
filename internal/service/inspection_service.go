package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"sync"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/observer"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
	"github.com/anime-shed/brand-inspector-go/internal/report"
	"github.com/anime-shed/brand-inspector-go/internal/repository"
	"github.com/anime-shed/brand-inspector-go/internal/textcheck"
	"github.com/anime-shed/brand-inspector-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// kindText tags OCR events; text checks are not stored as reports
const kindText = "text"

// InspectionService defines the screenshot inspections exposed to callers
type InspectionService interface {
	Classify(ctx context.Context, req models.ClassifyRequest) (*models.ClassifyResponse, error)
	Verify(ctx context.Context, req models.VerifyRequest) (*models.VerifyResponse, error)
	VerifyBatch(ctx context.Context, req models.BatchVerifyRequest) (*models.BatchVerifyResponse, error)

	// VerifyImage verifies an already decoded frame without storing a report
	VerifyImage(ctx context.Context, source string, img image.Image, req models.VerifyRequest) (*models.VerifyResponse, error)

	Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error)
	Inspect(ctx context.Context, req models.InspectRequest) (*models.InspectResponse, error)
	CheckText(ctx context.Context, req models.TextRequest) (*models.TextResponse, error)

	// Stored reports
	GetReport(ctx context.Context, id string) (*repository.Report, error)
	ListReports(ctx context.Context, source string, limit int) (*models.ReportListResponse, error)

	Metrics() observer.Metrics
	ValidateLocation(location string) error
	Close() error
}

// Dependencies are the collaborators of the inspection service. Reports and
// OCR are optional.
type Dependencies struct {
	Images   repository.ImageRepository
	Reports  repository.ReportRepository
	Analyzer analyzer.BrandAnalyzer
	OCR      textcheck.Engine
	Renderer *report.Renderer
	Events   observer.Subject
	Metrics  *observer.MetricsObserver
}

// Defaults are used when a request leaves a setting out
type Defaults struct {
	Match        matcher.Options
	Brand        palette.Palette
	Wrong        palette.Palette
	Extract      analyzer.ExtractOptions
	BatchWorkers int
}

type inspectionService struct {
	images   repository.ImageRepository
	reports  repository.ReportRepository
	analyzer analyzer.BrandAnalyzer
	ocr      textcheck.Engine
	renderer *report.Renderer
	events   observer.Subject
	metrics  *observer.MetricsObserver
	defaults Defaults

	batchPool *analyzer.WorkerPool
	now       func() time.Time
}

// NewInspectionService creates a new inspection service
func NewInspectionService(deps Dependencies, defaults Defaults) InspectionService {
	events := deps.Events
	if events == nil {
		events = observer.NewEventPublisher()
	}

	batchPool := analyzer.NewWorkerPool(defaults.BatchWorkers)
	batchPool.Start()

	return &inspectionService{
		images:    deps.Images,
		reports:   deps.Reports,
		analyzer:  deps.Analyzer,
		ocr:       deps.OCR,
		renderer:  deps.Renderer,
		events:    events,
		metrics:   deps.Metrics,
		defaults:  defaults,
		batchPool: batchPool,
		now:       time.Now,
	}
}

// outcome is what an analysis hands back to the shared bookkeeping
type outcome struct {
	result  any
	verdict string
	render  func(io.Writer) error
}

// Classify classifies a screenshot against one palette
func (s *inspectionService) Classify(ctx context.Context, req models.ClassifyRequest) (*models.ClassifyResponse, error) {
	pal, err := s.paletteOr(req.Palette, s.defaults.Brand)
	if err != nil {
		return nil, err
	}
	opts := req.Settings.Apply(s.defaults.Match)

	var res *matcher.Result
	env, err := s.run(ctx, repository.KindClassification, req.Location, true, func(img image.Image) (*outcome, error) {
		if res, err = s.analyzer.Classify(img, pal, opts); err != nil {
			return nil, err
		}
		return &outcome{
			result: res,
			render: func(w io.Writer) error { return s.renderer.Classification(w, req.Location, res) },
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.ClassifyResponse{ReportEnvelope: *env, Result: res}, nil
}

// Verify checks a screenshot against the brand and wrong palettes
func (s *inspectionService) Verify(ctx context.Context, req models.VerifyRequest) (*models.VerifyResponse, error) {
	return s.verify(ctx, req, nil)
}

// VerifyImage verifies a frame that is already in memory
func (s *inspectionService) VerifyImage(ctx context.Context, source string, img image.Image, req models.VerifyRequest) (*models.VerifyResponse, error) {
	if img == nil {
		return nil, apperrors.NewImageDecodeError("no image to verify", nil)
	}
	req.Location = source
	return s.verify(ctx, req, img)
}

func (s *inspectionService) verify(ctx context.Context, req models.VerifyRequest, frame image.Image) (*models.VerifyResponse, error) {
	brand, err := s.paletteOr(req.Brand, s.defaults.Brand)
	if err != nil {
		return nil, err
	}
	var wrong palette.Palette
	if !req.SkipWrong {
		if wrong, err = s.paletteOr(req.Wrong, s.defaults.Wrong); err != nil {
			return nil, err
		}
	}
	opts := req.Settings.Apply(s.defaults.Match)

	var v *analyzer.Verification
	analyze := func(img image.Image) (*outcome, error) {
		if v, err = s.analyzer.Verify(img, brand, wrong, opts); err != nil {
			return nil, err
		}
		return &outcome{
			result:  v,
			verdict: string(v.Verdict),
			render:  func(w io.Writer) error { return s.renderer.Verification(w, req.Location, v) },
		}, nil
	}

	var env *models.ReportEnvelope
	if frame != nil {
		env, err = s.analyze(ctx, repository.KindVerification, req.Location, s.now(), false, frame, analyze)
	} else {
		env, err = s.run(ctx, repository.KindVerification, req.Location, true, analyze)
	}
	if err != nil {
		return nil, err
	}
	return &models.VerifyResponse{
		ReportEnvelope: *env,
		Verdict:        v.Verdict,
		VerdictLine:    report.VerdictLine(v.Verdict),
		Verification:   v,
	}, nil
}

// VerifyBatch verifies every location on the batch pool. Per-location
// failures are reported in the item rather than failing the batch.
func (s *inspectionService) VerifyBatch(ctx context.Context, req models.BatchVerifyRequest) (*models.BatchVerifyResponse, error) {
	if len(req.Locations) == 0 {
		return nil, apperrors.NewValidationError("at least one location is required", nil)
	}
	if len(req.Locations) > models.MaxBatchLocations {
		return nil, apperrors.NewValidationError("too many locations in one batch", nil).
			WithDetails("the limit is 50")
	}
	// Reject bad palettes once instead of once per location
	if _, err := s.paletteOr(req.Brand, s.defaults.Brand); err != nil {
		return nil, err
	}
	if !req.SkipWrong {
		if _, err := s.paletteOr(req.Wrong, s.defaults.Wrong); err != nil {
			return nil, err
		}
	}

	start := s.now()
	resp := &models.BatchVerifyResponse{Items: make([]models.BatchItem, len(req.Locations))}

	var wg sync.WaitGroup
	for i, location := range req.Locations {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			item := models.BatchItem{Location: location}
			v, err := s.Verify(ctx, req.Item(location))
			if err != nil {
				item.Error = err.Error()
			} else {
				item.ReportID = v.ID
				item.Verdict = v.Verdict
			}
			resp.Items[i] = item
		}
		if !s.batchPool.Submit(job) {
			job()
		}
	}
	wg.Wait()

	resp.Summarize()
	resp.ProcessingTimeSec = time.Since(start).Seconds()

	logger.WithFields(logrus.Fields{
		"locations": resp.Summary.Total,
		"failed":    resp.Summary.Failed,
		"duration":  time.Since(start).String(),
	}).Info("Batch verification completed")
	return resp, nil
}

// Extract lists the dominant colors of a screenshot
func (s *inspectionService) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResponse, error) {
	opts := req.Settings.Apply(s.defaults.Extract)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var ex *analyzer.Extraction
	env, err := s.run(ctx, repository.KindExtraction, req.Location, true, func(img image.Image) (*outcome, error) {
		var err error
		if ex, err = s.analyzer.Extract(img, opts); err != nil {
			return nil, err
		}
		return &outcome{
			result: ex,
			render: func(w io.Writer) error { return s.renderer.Extraction(w, req.Location, ex) },
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.ExtractResponse{
		ReportEnvelope: *env,
		Extraction:     ex,
		Flutter:        ex.FlutterConstants(),
	}, nil
}

// Inspect checks that a screenshot is not a blank page
func (s *inspectionService) Inspect(ctx context.Context, req models.InspectRequest) (*models.InspectResponse, error) {
	var content *analyzer.ContentReport
	env, err := s.run(ctx, repository.KindContent, req.Location, true, func(img image.Image) (*outcome, error) {
		var err error
		if content, err = s.analyzer.InspectContent(img); err != nil {
			return nil, err
		}
		verdict := "blank"
		if content.HasContent {
			verdict = "content"
		}
		return &outcome{
			result:  content,
			verdict: verdict,
			render:  func(w io.Writer) error { return s.renderer.Content(w, req.Location, content) },
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &models.InspectResponse{ReportEnvelope: *env, Content: content}, nil
}

// CheckText runs OCR on a screenshot and compares it with the expected copy
func (s *inspectionService) CheckText(ctx context.Context, req models.TextRequest) (*models.TextResponse, error) {
	if s.ocr == nil {
		return nil, apperrors.NewProcessingError("text recognition is not available", nil)
	}
	if req.ExpectedText == "" && len(req.Labels) == 0 {
		return nil, apperrors.NewValidationError("expected_text or labels is required", nil)
	}

	start := s.now()
	img, err := s.fetch(ctx, kindText, req.Location)
	if err != nil {
		return nil, err
	}

	cmp, err := textcheck.Check(ctx, s.ocr, img, req.ExpectedText, req.Labels, req.MinSimilarity)
	if err != nil {
		s.fail(ctx, kindText, req.Location, start, err)
		return nil, err
	}

	verdict := "labels_found"
	if !cmp.AllLabelsFound() {
		verdict = "labels_missing"
	}
	s.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType:      observer.InspectionCompleted,
		Source:         req.Location,
		Kind:           kindText,
		Verdict:        verdict,
		ProcessingTime: time.Since(start),
		Success:        true,
	})

	return &models.TextResponse{
		Source:            req.Location,
		Timestamp:         start.UTC().Format(time.RFC3339),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Comparison:        cmp,
	}, nil
}

// GetReport returns a stored report
func (s *inspectionService) GetReport(ctx context.Context, id string) (*repository.Report, error) {
	if s.reports == nil {
		return nil, apperrors.NewNotFoundError("report storage is disabled", repository.ErrRepositoryUnavailable)
	}
	r, err := s.reports.Get(ctx, id)
	if errors.Is(err, repository.ErrReportNotFound) {
		return nil, apperrors.NewNotFoundError("report "+id+" not found", err)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load report", err)
	}
	return r, nil
}

// ListReports returns the newest stored reports, optionally for one source
func (s *inspectionService) ListReports(ctx context.Context, source string, limit int) (*models.ReportListResponse, error) {
	if s.reports == nil {
		return nil, apperrors.NewNotFoundError("report storage is disabled", repository.ErrRepositoryUnavailable)
	}
	reports, err := s.reports.ListBySource(ctx, source, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reports", err)
	}
	if reports == nil {
		reports = []*repository.Report{}
	}
	return &models.ReportListResponse{Source: source, Reports: reports}, nil
}

// Metrics returns the inspection counters
func (s *inspectionService) Metrics() observer.Metrics {
	s.events.Wait()
	if s.metrics == nil {
		return observer.Metrics{}
	}
	return s.metrics.GetMetrics()
}

// ValidateLocation checks a location without fetching it
func (s *inspectionService) ValidateLocation(location string) error {
	return s.images.ValidateLocation(location)
}

// Close stops the batch pool and waits for pending events
func (s *inspectionService) Close() error {
	s.batchPool.Close()
	s.events.Wait()
	return nil
}

// run fetches the image at location and analyzes it
func (s *inspectionService) run(ctx context.Context, kind repository.ReportKind, location string, persist bool, fn func(image.Image) (*outcome, error)) (*models.ReportEnvelope, error) {
	start := s.now()
	img, err := s.fetch(ctx, string(kind), location)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, kind, location, start, persist, img, fn)
}

// fetch loads the image and publishes the start and fetch events
func (s *inspectionService) fetch(ctx context.Context, kind, location string) (image.Image, error) {
	start := s.now()
	s.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType: observer.InspectionStarted,
		Source:    location,
		Kind:      kind,
	})

	img, err := s.images.FetchImage(ctx, location)
	if err != nil {
		err = wrapFetchError(err)
		s.events.NotifyObservers(ctx, observer.InspectionEvent{
			EventType:    observer.ImageFetchFailed,
			Source:       location,
			Kind:         kind,
			ErrorMessage: err.Error(),
		})
		s.fail(ctx, kind, location, start, err)
		return nil, err
	}

	bounds := img.Bounds()
	s.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType:      observer.ImageFetched,
		Source:         location,
		Kind:           kind,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"width":  bounds.Dx(),
			"height": bounds.Dy(),
		},
	})
	return img, nil
}

// analyze runs fn, renders the markdown report and stores it when persist is set
func (s *inspectionService) analyze(ctx context.Context, kind repository.ReportKind, location string, start time.Time, persist bool, img image.Image, fn func(image.Image) (*outcome, error)) (*models.ReportEnvelope, error) {
	if !persist {
		s.events.NotifyObservers(ctx, observer.InspectionEvent{
			EventType: observer.InspectionStarted,
			Source:    location,
			Kind:      string(kind),
		})
	}

	out, err := fn(img)
	if err != nil {
		s.fail(ctx, string(kind), location, start, err)
		return nil, err
	}

	var md bytes.Buffer
	if err := out.render(&md); err != nil {
		err = apperrors.NewInternalError("failed to render report", err)
		s.fail(ctx, string(kind), location, start, err)
		return nil, err
	}

	duration := time.Since(start)
	env := &models.ReportEnvelope{
		ID:                uuid.NewString(),
		Source:            location,
		Kind:              kind,
		Timestamp:         start.UTC().Format(time.RFC3339),
		ProcessingTimeSec: duration.Seconds(),
		Markdown:          md.String(),
	}

	if persist && s.reports != nil {
		if err := s.save(ctx, env, start, duration, out); err != nil {
			s.fail(ctx, string(kind), location, start, err)
			return nil, err
		}
	}

	s.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType:      observer.InspectionCompleted,
		Source:         location,
		Kind:           string(kind),
		Verdict:        out.verdict,
		ProcessingTime: duration,
		Success:        true,
	})
	return env, nil
}

func (s *inspectionService) save(ctx context.Context, env *models.ReportEnvelope, start time.Time, duration time.Duration, out *outcome) error {
	result, err := json.Marshal(out.result)
	if err != nil {
		return apperrors.NewInternalError("failed to encode report", err)
	}

	err = s.reports.Save(ctx, &repository.Report{
		ID:        env.ID,
		Kind:      env.Kind,
		Source:    env.Source,
		Verdict:   out.verdict,
		CreatedAt: start,
		Duration:  duration,
		Result:    result,
		Markdown:  env.Markdown,
	})
	if err != nil {
		return apperrors.NewInternalError("failed to store report", err)
	}

	s.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType: observer.ReportSaved,
		Source:    env.Source,
		Kind:      string(env.Kind),
		Metadata:  map[string]interface{}{"report_id": env.ID},
	})
	return nil
}

func (s *inspectionService) fail(ctx context.Context, kind, location string, start time.Time, err error) {
	s.events.NotifyObservers(ctx, observer.InspectionEvent{
		EventType:      observer.InspectionFailed,
		Source:         location,
		Kind:           kind,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
}

// paletteOr converts request entries, falling back to def when none are given
func (s *inspectionService) paletteOr(entries []palette.Entry, def palette.Palette) (palette.Palette, error) {
	if len(entries) == 0 {
		return def, nil
	}
	return palette.FromEntries(entries)
}

// wrapFetchError keeps typed errors and classifies the rest
func wrapFetchError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("image fetch timeout", err)
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}
