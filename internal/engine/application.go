package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	ferrors "git.home.luguber.info/inful/pagepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/pagepipe/internal/item"
	"git.home.luguber.info/inful/pagepipe/internal/jsonref"
	"git.home.luguber.info/inful/pagepipe/internal/logfields"
	"git.home.luguber.info/inful/pagepipe/internal/metadata"
	"git.home.luguber.info/inful/pagepipe/internal/metrics"
	"git.home.luguber.info/inful/pagepipe/internal/util/sets"
)

// MetadataSource is the reference source name that resolves against the
// application metadata.
const MetadataSource = "metadata:"

// Processor transforms a stream of items. The returned error reports
// problems detected when the step begins; failures while items flow are
// yielded in the returned stream.
type Processor func(app *Application, items item.Stream, args []any, kwargs map[string]any) (item.Stream, error)

// Application holds the registries and the metadata shared by one run.
type Application struct {
	metadata   *metadata.Store
	processors map[string]Processor
	wrappers   sets.Set[string]
	pipes      map[string]Pipe
	logger     *slog.Logger
	recorder   metrics.Recorder
}

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the logger used for registry warnings and step tracing.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(a *Application) {
		if r != nil {
			a.recorder = r
		}
	}
}

// New creates an application over meta. meta becomes the immutable base
// layer of the metadata store.
func New(meta map[string]any, opts ...Option) *Application {
	a := &Application{
		metadata:   metadata.New(meta),
		processors: map[string]Processor{},
		wrappers:   sets.New[string](),
		pipes:      map[string]Pipe{},
		logger:     slog.Default(),
		recorder:   metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Metadata returns the application metadata store.
func (a *Application) Metadata() *metadata.Store { return a.metadata }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// AddProcessor registers fn under name, replacing any previous processor.
func (a *Application) AddProcessor(name string, fn Processor) {
	if _, exists := a.processors[name]; exists {
		a.logger.Warn("Processor already registered; overriding", logfields.Processor(name))
	}
	a.processors[name] = fn
	a.wrappers.Delete(name)
}

// AddProcessorWrapper registers fn under name and marks it as a wrapper
// that may be used as an extra key of a processor spec.
func (a *Application) AddProcessorWrapper(name string, fn Processor) error {
	if name == KeyName || name == KeyArgs {
		return ferrors.ConfigError(fmt.Sprintf("processor wrapper name %q is reserved", name)).
			WithContext("wrapper", name).Build()
	}
	a.AddProcessor(name, fn)
	a.wrappers.Add(name)
	return nil
}

// AddPipe registers pipe under name, replacing any previous pipe.
func (a *Application) AddPipe(name string, pipe Pipe) {
	if _, exists := a.pipes[name]; exists {
		a.logger.Warn("Pipe already registered; overriding", logfields.Pipe(name))
	}
	a.pipes[name] = pipe
}

// IsWrapper reports whether name is a registered wrapper.
func (a *Application) IsWrapper(name string) bool { return a.wrappers.Has(name) }

// Processors returns the registered processor names, sorted.
func (a *Application) Processors() []string {
	return slices.Sorted(maps.Keys(a.processors))
}

// Pipes returns the registered pipe names, sorted.
func (a *Application) Pipes() []string {
	return slices.Sorted(maps.Keys(a.pipes))
}

// Pipe returns the registered pipe called name.
func (a *Application) Pipe(name string) (Pipe, bool) {
	p, ok := a.pipes[name]
	return p, ok
}

// Resolve resolves references in value against the application's sources.
func (a *Application) Resolve(value any, keepUnknown bool) (any, error) {
	return jsonref.Resolve(value, map[string]any{MetadataSource: a.metadata}, keepUnknown)
}

// Invoke runs the pipe registered as name over items.
func (a *Application) Invoke(name string, items item.Stream) item.Stream {
	return func(yield func(*item.Item, error) bool) {
		pipe, ok := a.pipes[name]
		if !ok {
			yield(nil, ferrors.ConfigError("no such pipe: "+name).WithContext("pipe", name).Build())
			return
		}

		start := time.Now()
		result := metrics.ResultSuccess
		count := 0
		defer func() {
			a.recorder.ObservePipeDuration(name, time.Since(start), result)
			a.logger.Debug("Pipe finished", logfields.Pipe(name), logfields.Count(count),
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000),
				logfields.Changes(a.metadata.Changes()))
		}()

		for it, err := range a.InvokePipe(pipe, items) {
			if err != nil {
				result = metrics.ResultFailed
				yield(nil, err)
				return
			}
			count++
			if !yield(it, nil) {
				return
			}
		}
	}
}

// InvokePipe runs an inline pipe over items. A nil items stream is empty.
func (a *Application) InvokePipe(pipe Pipe, items item.Stream) item.Stream {
	return func(yield func(*item.Item, error) bool) {
		stream := item.OrEmpty(items)
		for i, spec := range pipe {
			next, err := a.prepare(i, spec, stream)
			if err != nil {
				yield(nil, err)
				return
			}
			stream = next
		}
		for it, err := range stream {
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

// prepare resolves, unpacks and calls the processor of one step.
func (a *Application) prepare(i int, raw map[string]any, upstream item.Stream) (item.Stream, error) {
	resolved, err := a.Resolve(jsonref.Clone(raw), true)
	if err != nil {
		return nil, ferrors.ReferenceError("resolve processor spec").WithCause(err).
			WithContext("step", i).Build()
	}
	spec, ok := resolved.(map[string]any)
	if !ok {
		return nil, ferrors.ConfigError(fmt.Sprintf("processor spec must be a mapping, got %T", resolved)).
			WithContext("step", i).Build()
	}

	name, args, kwargs, err := Unpack(spec, a.IsWrapper)
	if err != nil {
		return nil, err
	}
	fn, ok := a.processors[name]
	if !ok {
		return nil, ferrors.ConfigError("no such processor: "+name).WithContext("processor", name).Build()
	}

	a.logger.Debug("Preparing step", logfields.Step(i), logfields.Processor(name))
	a.recorder.IncStepInvocation(name)
	out, err := fn(a, upstream, args, kwargs)
	if err != nil {
		a.recorder.IncStepFailure(name)
		return nil, wrapStep(name, err)
	}
	return a.observe(name, item.OrEmpty(out)), nil
}

// observe counts the items of a step and attributes errors that originate
// in it. Errors already attributed to an upstream step pass unchanged.
func (a *Application) observe(name string, s item.Stream) item.Stream {
	return func(yield func(*item.Item, error) bool) {
		for it, err := range s {
			if err != nil {
				var se *StepError
				if !errors.As(err, &se) {
					a.recorder.IncStepFailure(name)
					err = wrapStep(name, err)
				}
				yield(nil, err)
				return
			}
			a.recorder.IncItemEmitted(name)
			if !yield(it, nil) {
				return
			}
		}
	}
}

// StepError attributes an error to the processor it came from.
type StepError struct {
	Processor string
	Err       error
}

func (e *StepError) Error() string { return e.Processor + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

func wrapStep(name string, err error) error {
	if !ferrors.IsClassified(err) {
		err = ferrors.ProcessorError("processor failed").WithCause(err).
			WithContext("processor", name).Build()
	}
	return &StepError{Processor: name, Err: err}
}
