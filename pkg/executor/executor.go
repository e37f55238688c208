// Package executor runs a single task: it renders the kind's prompt, calls
// the completion provider and decodes the answer into a typed record.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryplay/pantryplay/pkg/llm"
	"github.com/pantryplay/pantryplay/pkg/logger"
	"github.com/pantryplay/pantryplay/pkg/task"
)

// handler renders and decodes one task kind. A non-nil result from local
// answers the task without calling the provider.
type handler struct {
	prompt *template.Template
	data   func(t *task.Task) any
	decode decodeFunc
	local  func(t *task.Task) task.Result
}

// Executor dispatches tasks by kind. It is safe for concurrent use.
type Executor struct {
	provider llm.Provider
	handlers map[task.Kind]handler
	validate *validator.Validate
	log      logger.Logger
	tracer   trace.Tracer
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// New creates an Executor that sends prompts to provider.
func New(provider llm.Provider, opts ...Option) *Executor {
	e := &Executor{
		provider: provider,
		validate: validator.New(),
		log:      logger.Global(),
		tracer:   otel.Tracer("pantryplay/executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "executor")

	e.handlers = map[task.Kind]handler{
		task.KindAnalyzePantry: {
			prompt: analyzePantryPrompt,
			data:   analyzePantryData,
			decode: analysisDecoder[PantryAnalysis](),
		},
		task.KindGenerateRecipe: {
			prompt: generateRecipePrompt,
			data:   generateRecipeData,
			decode: generationDecoder[Recipe](),
		},
		task.KindCheckNutrition: {
			prompt: checkNutritionPrompt,
			data:   checkNutritionData,
			decode: analysisDecoder[NutritionReport](),
		},
		task.KindSuggestSubstitutions: {
			prompt: suggestSubstitutionsPrompt,
			data:   suggestSubstitutionsData,
			decode: analysisDecoder[Substitutions](),
		},
		task.KindCreateShoppingList: {
			prompt: createShoppingListPrompt,
			data:   createShoppingListData,
			decode: generationDecoder[ShoppingList](),
		},
		task.KindTrackWaste: {
			prompt: trackWastePrompt,
			data:   trackWasteData,
			decode: analysisDecoder[WasteReport](),
		},
		task.KindMoodWeather: {
			prompt: moodWeatherPrompt,
			data:   moodWeatherData,
			decode: generationDecoder[MoodMeals](),
		},

		task.KindAnalyzeDocument: {
			prompt: analyzeDocumentPrompt,
			data:   analyzeDocumentData,
			decode: generationDecoder[DocumentAnalysis](),
		},
		task.KindHealthQuery: {
			prompt: healthQueryPrompt,
			data:   healthQueryData,
			decode: generationDecoder[HealthAnswer](),
		},
		task.KindAnalyzeTrends: {
			prompt: analyzeTrendsPrompt,
			data:   analyzeTrendsData,
			decode: analysisDecoder[TrendReport](),
			local:  noHistory,
		},
		task.KindCheckMedications: {
			prompt: checkMedicationsPrompt,
			data:   checkMedicationsData,
			decode: analysisDecoder[MedicationReview](),
		},
		task.KindGenerateReport: {
			prompt: generateReportPrompt,
			data:   generateReportData,
			decode: generationDecoder[HealthReport](),
		},
	}
	return e
}

// Supports reports whether kind has a handler.
func (e *Executor) Supports(kind task.Kind) bool {
	_, ok := e.handlers[kind]
	return ok
}

// Execute runs t and returns its result. Malformed provider output is not an
// error; it yields a degraded result. Errors are returned for unsupported
// kinds, invalid tasks and provider failures.
func (e *Executor) Execute(ctx context.Context, t *task.Task) (task.Result, error) {
	h, ok := e.handlers[t.Kind]
	if !ok {
		return nil, &UnsupportedKindError{Kind: t.Kind}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "executor.execute", trace.WithAttributes(
		attribute.String("task.id", t.ID),
		attribute.String("task.kind", string(t.Kind)),
	))
	defer span.End()

	if h.local != nil {
		if result := h.local(t); result != nil {
			span.SetAttributes(attribute.Bool("task.local", true))
			e.log.DebugContext(ctx, "task answered locally", "task_id", t.ID, "kind", t.Kind)
			return result, nil
		}
	}

	prompt, err := render(h, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	raw, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &ProviderError{Kind: t.Kind, Cause: err}
	}

	result := h.decode(e, raw)
	span.SetAttributes(attribute.String("task.result_status", string(result.Status())))
	e.log.DebugContext(ctx, "task executed", "task_id", t.ID, "kind", t.Kind, "status", result.Status())
	return result, nil
}

// Prompt renders the prompt Execute would send for t.
func (e *Executor) Prompt(t *task.Task) (string, error) {
	h, ok := e.handlers[t.Kind]
	if !ok {
		return "", &UnsupportedKindError{Kind: t.Kind}
	}
	return render(h, t)
}

func render(h handler, t *task.Task) (string, error) {
	var buf bytes.Buffer
	if err := h.prompt.Execute(&buf, h.data(t)); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Kind, err)
	}
	return buf.String(), nil
}
