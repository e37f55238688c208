// Package agent coordinates planning, execution and memory for one user
// request at a time.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryplay/pantryplay/pkg/extract"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/memory"
	"github.com/pantryplay/pantryplay/pkg/planner"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// DefaultRecentRecipes is how many past recipes are fed into planning.
const DefaultRecentRecipes = 5

const (
	recentMetricDays = 30
	metricHistoryCap = 50
)

// Executor runs one task.
type Executor interface {
	Execute(ctx context.Context, t *task.Task) (task.Result, error)
}

// Memory is the agent's view of the memory store.
type Memory interface {
	Store(ctx context.Context, kind memory.Kind, content any) (*memory.Entry, error)
	Retrieve(ctx context.Context, kind memory.Kind, limit int) ([]memory.Entry, error)
	AnalyzePatterns(ctx context.Context) (*memory.Patterns, error)
	Preferences() map[string]any
	Stats() memory.Stats
	Achievements() []memory.Achievement
	MetricHistory(ctx context.Context, days int) ([]memory.Reading, error)
	LatestMetrics(ctx context.Context, days int) ([]memory.Reading, error)
	MetricTrends(ctx context.Context) (map[string]string, error)
	Ping(ctx context.Context) error
}

// Agent turns free-text requests into planned, executed and remembered
// tasks.
type Agent struct {
	executor      Executor
	memory        Memory
	deployment    task.Deployment
	rules         []planner.Rule
	extractor     extract.Extractor
	recentRecipes int
	log           logger.Logger
	metrics       MetricsRecorder
	events        EventSink
	tracer        trace.Tracer
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Agent) { a.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithEvents sets the event sink.
func WithEvents(s EventSink) Option {
	return func(a *Agent) { a.events = s }
}

// WithDeployment selects the deployment whose rules plan requests and whose
// memory enriches them. WithRules still overrides the rule table.
func WithDeployment(d task.Deployment) Option {
	return func(a *Agent) {
		if d != "" {
			a.deployment = d
		}
	}
}

// WithRules replaces the planner rule table.
func WithRules(rules []planner.Rule) Option {
	return func(a *Agent) { a.rules = rules }
}

// WithExtractor sets the document extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(a *Agent) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithRecentRecipes sets how many past recipes are fed into planning.
func WithRecentRecipes(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.recentRecipes = n
		}
	}
}

// New creates an Agent.
func New(exec Executor, mem Memory, opts ...Option) (*Agent, error) {
	if exec == nil {
		return nil, errors.New("agent: executor is required")
	}
	if mem == nil {
		return nil, errors.New("agent: memory is required")
	}
	a := &Agent{
		executor:      exec,
		memory:        mem,
		deployment:    task.DeploymentPantryPlay,
		extractor:     extract.NewRegistry(),
		recentRecipes: DefaultRecentRecipes,
		log:           logger.Global(),
		tracer:        agentTracer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rules == nil {
		a.rules = planner.RulesFor(a.deployment)
	}
	a.log = a.log.With("component", "agent", "deployment", a.deployment)
	return a, nil
}

// Deployment returns the deployment the agent serves.
func (a *Agent) Deployment() task.Deployment { return a.deployment }

// ProcessInput plans the request, runs every task in order and returns the
// combined response. Task failures are reported in the response, never as
// an error.
func (a *Agent) ProcessInput(ctx context.Context, input string, tctx task.Context) *Response {
	start := time.Now()
	batchID := uuid.NewString()

	ctx, span := a.tracer.Start(ctx, spanProcess,
		trace.WithAttributes(
			attribute.String("batch.id", batchID),
			attribute.Int("input.length", len(input)),
		),
	)
	defer span.End()

	log := a.log.With("batch_id", batchID)

	planCtx := a.enrichContext(ctx, tctx)
	p := planner.New(planner.WithRules(a.rules), planner.WithLogger(log))
	tasks := p.Plan(input, planCtx)
	span.SetAttributes(attribute.Int("tasks.total", len(tasks)))

	a.emitBatch(BatchEvent{BatchID: batchID, EventType: BatchEventStarted, Input: input, TotalTasks: len(tasks)})
	log.InfoContext(ctx, "processing request", "tasks", len(tasks))

	results := make(map[task.Kind]task.Result, len(tasks))
	completed := 0
	for _, t := range tasks {
		t.SetPreviousResults(results)
		result, err := a.runTask(ctx, batchID, t)
		if err != nil {
			log.WarnContext(ctx, "task failed", "task_id", t.ID, "kind", t.Kind, "error", err)
			result = task.NewFailure(err)
		} else {
			completed++
		}
		p.MarkTaskComplete(t.ID, result)
		results[t.Kind] = result
		a.persist(ctx, t.Kind, result)
	}

	resp := &Response{
		BatchID:        batchID,
		Success:        completed == len(tasks),
		TasksCompleted: completed,
		TotalTasks:     len(tasks),
		Results:        results,
		Summary:        summarize(results),
		NextSteps:      nextSteps(results),
	}
	a.logInteraction(ctx, input, resp)

	outcome := batchOutcome(completed, len(tasks))
	if a.metrics != nil {
		a.metrics.RecordBatch(outcome, len(tasks), time.Since(start))
	}
	if !resp.Success {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d tasks failed", len(tasks)-completed, len(tasks)))
	}
	span.SetAttributes(attribute.String("batch.outcome", outcome))

	a.emitBatch(BatchEvent{
		BatchID:        batchID,
		EventType:      BatchEventCompleted,
		Input:          input,
		TotalTasks:     len(tasks),
		TasksCompleted: completed,
		Summary:        resp.Summary,
	})
	log.InfoContext(ctx, "request processed",
		"completed", completed,
		"total", len(tasks),
		"duration", time.Since(start),
	)
	return resp
}

func (a *Agent) runTask(ctx context.Context, batchID string, t *task.Task) (task.Result, error) {
	ctx, span := a.tracer.Start(ctx, spanTask,
		trace.WithAttributes(
			attribute.String("task.id", t.ID),
			attribute.String("task.kind", string(t.Kind)),
		),
	)
	defer span.End()

	a.emitTask(TaskEvent{BatchID: batchID, TaskID: t.ID, Kind: t.Kind, EventType: TaskEventStarted})
	start := time.Now()

	result, err := a.executor.Execute(ctx, t)
	if err == nil && result == nil {
		err = fmt.Errorf("task %s produced no result", t.Kind)
	}

	status := task.StatusFailed
	if err == nil {
		status = result.Status()
	}
	if a.metrics != nil {
		a.metrics.RecordTaskExecution(string(t.Kind), string(status), time.Since(start))
	}
	span.SetAttributes(attribute.String("task.status", string(status)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.emitTask(TaskEvent{
			BatchID:   batchID,
			TaskID:    t.ID,
			Kind:      t.Kind,
			EventType: TaskEventFailed,
			Status:    status,
			Error:     err.Error(),
		})
		return nil, err
	}

	a.emitTask(TaskEvent{BatchID: batchID, TaskID: t.ID, Kind: t.Kind, EventType: TaskEventCompleted, Status: status})
	return result, nil
}

// ProcessDocument extracts the document and processes input with its text,
// metadata and listed items added to the context.
func (a *Agent) ProcessDocument(ctx context.Context, input, name string, r io.Reader, tctx task.Context) (*Response, error) {
	ctx, span := a.tracer.Start(ctx, spanDocument, trace.WithAttributes(attribute.String("document.name", name)))
	defer span.End()

	doc, err := a.extractor.Extract(ctx, name, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	withDoc := tctx.Clone()
	withDoc[task.CtxDocumentText] = doc.Text
	withDoc[task.CtxDocumentMetadata] = doc.Metadata
	if len(doc.Metadata.Items) > 0 {
		withDoc[task.CtxItems] = append(withDoc.Strings(task.CtxItems), doc.Metadata.Items...)
	}

	a.log.InfoContext(ctx, "document extracted",
		"name", name,
		"content_type", doc.Metadata.ContentType,
		"items", len(doc.Metadata.Items),
	)
	return a.ProcessInput(ctx, input, withDoc), nil
}

// enrichContext copies the caller context and adds what memory knows.
// Caller preferences override stored ones key by key; recent recipes and
// patterns are only added when the caller did not supply them.
func (a *Agent) enrichContext(ctx context.Context, tctx task.Context) task.Context {
	out := tctx.Clone()

	prefs := a.memory.Preferences()
	if prefs == nil {
		prefs = map[string]any{}
	}
	for k, v := range out.Map(task.CtxUserPreferences) {
		prefs[k] = v
	}
	out[task.CtxUserPreferences] = prefs

	if a.deployment == task.DeploymentHealthInsights {
		a.enrichHealth(ctx, out)
		return out
	}

	if _, ok := out[task.CtxRecentRecipes]; !ok && a.recentRecipes > 0 {
		if names, err := a.recentRecipeNames(ctx); err != nil {
			a.log.WarnContext(ctx, "failed to load recent recipes", "error", err)
		} else if len(names) > 0 {
			out[task.CtxRecentRecipes] = names
		}
	}

	if _, ok := out[task.CtxPatterns]; !ok {
		if patterns, err := a.memory.AnalyzePatterns(ctx); err != nil {
			a.log.WarnContext(ctx, "failed to analyze patterns", "error", err)
		} else {
			out[task.CtxPatterns] = patterns
		}
	}
	return out
}

// enrichHealth adds the latest readings, the recent history and the metric
// trends, each only when the caller did not supply it.
func (a *Agent) enrichHealth(ctx context.Context, out task.Context) {
	if _, ok := out[task.CtxRecentMetrics]; !ok {
		if latest, err := a.memory.LatestMetrics(ctx, recentMetricDays); err != nil {
			a.log.WarnContext(ctx, "failed to load recent metrics", "error", err)
		} else if len(latest) > 0 {
			out[task.CtxRecentMetrics] = toMetrics(latest)
		}
	}

	if _, ok := out[task.CtxMetricHistory]; !ok {
		if history, err := a.memory.MetricHistory(ctx, 0); err != nil {
			a.log.WarnContext(ctx, "failed to load metric history", "error", err)
		} else if len(history) > 0 {
			if len(history) > metricHistoryCap {
				history = history[len(history)-metricHistoryCap:]
			}
			out[task.CtxMetricHistory] = toMetrics(history)
		}
	}

	if _, ok := out[task.CtxMetricTrends]; !ok {
		if trends, err := a.memory.MetricTrends(ctx); err != nil {
			a.log.WarnContext(ctx, "failed to analyze metric trends", "error", err)
		} else if len(trends) > 0 {
			out[task.CtxMetricTrends] = trends
		}
	}
}

func toMetrics(readings []memory.Reading) []task.Metric {
	out := make([]task.Metric, len(readings))
	for i, r := range readings {
		out[i] = task.Metric{Name: r.Name, Value: r.Value, Unit: r.Unit, Flag: r.Flag, RecordedAt: r.RecordedAt}
	}
	return out
}

func (a *Agent) recentRecipeNames(ctx context.Context) ([]string, error) {
	entries, err := a.memory.Retrieve(ctx, memory.KindRecipeHistory, a.recentRecipes)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		var r struct {
			Name string `json:"name"`
		}
		if err := e.Decode(&r); err == nil && r.Name != "" {
			names = append(names, r.Name)
		}
	}
	return names, nil
}

func (a *Agent) emitBatch(event BatchEvent) {
	if a.events == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	a.events.OnBatchEvent(event)
}

func (a *Agent) emitTask(event TaskEvent) {
	if a.events == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	a.events.OnTaskEvent(event)
}
