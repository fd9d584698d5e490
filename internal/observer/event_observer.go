package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// InspectionEvent describes one step of an inspection
type InspectionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	Source         string                 `json:"source"`
	Kind           string                 `json:"kind,omitempty"`
	Verdict        string                 `json:"verdict,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of inspection event
type EventType string

const (
	// InspectionStarted when an inspection begins
	InspectionStarted EventType = "inspection_started"
	// InspectionCompleted when an inspection finishes successfully
	InspectionCompleted EventType = "inspection_completed"
	// InspectionFailed when an inspection fails
	InspectionFailed EventType = "inspection_failed"
	// ImageFetched when the screenshot was loaded
	ImageFetched EventType = "image_fetched"
	// ImageFetchFailed when the screenshot could not be loaded
	ImageFetchFailed EventType = "image_fetch_failed"
	// ReportSaved when a report was persisted
	ReportSaved EventType = "report_saved"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event InspectionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event InspectionEvent)
	// Wait blocks until every notification sent so far was handled
	Wait()
}

// LoggingObserver logs inspection events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent logs the event at a level matching its type
func (o *LoggingObserver) OnEvent(ctx context.Context, event InspectionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"source":     event.Source,
	}
	if event.Kind != "" {
		fields["kind"] = event.Kind
	}
	if event.Verdict != "" {
		fields["verdict"] = event.Verdict
	}
	if event.ProcessingTime > 0 {
		fields["processing_time"] = event.ProcessingTime
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case InspectionStarted:
		entry.Info("Inspection started")
	case InspectionCompleted:
		entry.Info("Inspection completed")
	case InspectionFailed:
		entry.Error("Inspection failed")
	case ImageFetched:
		entry.Debug("Image fetched")
	case ImageFetchFailed:
		entry.Error("Image fetch failed")
	case ReportSaved:
		entry.Debug("Report saved")
	default:
		entry.Info("Inspection event")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a snapshot of the counters kept by MetricsObserver
type Metrics struct {
	TotalInspections      int64            `json:"total_inspections"`
	SuccessfulInspections int64            `json:"successful_inspections"`
	FailedInspections     int64            `json:"failed_inspections"`
	FetchFailures         int64            `json:"fetch_failures"`
	ReportsSaved          int64            `json:"reports_saved"`
	TotalProcessingTime   time.Duration    `json:"total_processing_time"`
	AvgProcessingTime     time.Duration    `json:"avg_processing_time"`
	ByKind                map[string]int64 `json:"by_kind"`
	ByVerdict             map[string]int64 `json:"by_verdict"`
}

// MetricsObserver collects counters from inspection events
type MetricsObserver struct {
	mu                    sync.RWMutex
	totalInspections      int64
	successfulInspections int64
	failedInspections     int64
	fetchFailures         int64
	reportsSaved          int64
	totalProcessingTime   time.Duration
	byKind                map[string]int64
	byVerdict             map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		byKind:    make(map[string]int64),
		byVerdict: make(map[string]int64),
	}
}

// OnEvent updates the counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event InspectionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case InspectionStarted:
		o.totalInspections++
		if event.Kind != "" {
			o.byKind[event.Kind]++
		}
	case InspectionCompleted:
		o.successfulInspections++
		o.totalProcessingTime += event.ProcessingTime
		if event.Verdict != "" {
			o.byVerdict[event.Verdict]++
		}
	case InspectionFailed:
		o.failedInspections++
	case ImageFetchFailed:
		o.fetchFailures++
	case ReportSaved:
		o.reportsSaved++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns a copy of the current counters
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		TotalInspections:      o.totalInspections,
		SuccessfulInspections: o.successfulInspections,
		FailedInspections:     o.failedInspections,
		FetchFailures:         o.fetchFailures,
		ReportsSaved:          o.reportsSaved,
		TotalProcessingTime:   o.totalProcessingTime,
		ByKind:                make(map[string]int64, len(o.byKind)),
		ByVerdict:             make(map[string]int64, len(o.byVerdict)),
	}
	if o.successfulInspections > 0 {
		m.AvgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulInspections)
	}
	for k, v := range o.byKind {
		m.ByKind[k] = v
	}
	for k, v := range o.byVerdict {
		m.ByVerdict[k] = v
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers hands the event to every observer on its own goroutine
func (p *EventPublisher) NotifyObservers(ctx context.Context, event InspectionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		p.pending.Add(1)
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until all in-flight notifications are handled
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
