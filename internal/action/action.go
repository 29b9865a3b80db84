// internal/action/action.go
//
// Validated action wrapper.
//
// Context
// -------
// Wrap turns a schema and a processing function into an Action: a callable
// that validates raw input, runs the processor on the typed value, and
// always returns a Result.  Nothing the processor does (error, panic, or a
// blown deadline) escapes the boundary, and neither does a panicking custom
// validation rule.  Failures are logged once, with full
// detail, and converted to an opaque InternalFailure.
//
// Workflow
// --------
//  1. Read the clock; the reading becomes the envelope timestamp.
//  2. schema.Validate(raw).  Failure → ValidationFailure, processor skipped.
//  3. Run the processor, bounded by WithTimeout when set.
//  4. Success → Result carrying the value verbatim.
//  5. Anything else → log once, InternalFailure.
//
// Example
// -------
//
//	create := action.Wrap(user.CreateSchema, svc.Create,
//	    action.WithName("users.create"),
//	    action.WithTimeout(10*time.Second))
//	res := create(ctx, map[string]any{"name": "Ann"})
//
// Notes
// -----
//   - Invocations share no mutable state.  An Action is safe for
//     concurrent use as long as the processor is.
//   - With a timeout, the processor runs on its own goroutine so a processor
//     that ignores ctx cannot hold the caller past the deadline.
//   - Oxford commas, two spaces after periods.
package action

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/schema"
)

// ProcessFunc handles validated input.
type ProcessFunc[T, O any] func(ctx context.Context, in T) (O, error)

// Action is the callable produced by Wrap.
type Action[T, O any] func(ctx context.Context, raw map[string]any) Result[O]

// Call is the raising variant: validation failures come back as
// *ValidationError and processing failures as ErrInternal.
func (a Action[T, O]) Call(ctx context.Context, raw map[string]any) (O, error) {
	return a(ctx, raw).Unwrap()
}

// Observer receives one notification per invocation.
type Observer interface {
	Observe(action string, kind Kind, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) Observe(string, Kind, time.Duration) {}

type config struct {
	name     string
	log      *zap.Logger
	clock    func() time.Time
	timeout  time.Duration
	observer Observer
}

// Option configures Wrap.
type Option func(*config)

// WithName labels logs and metrics.  Defaults to "action".
func WithName(name string) Option { return func(c *config) { c.name = name } }

// WithLogger sets the diagnostic logger.  Defaults to zap.L() at call time.
func WithLogger(l *zap.Logger) Option { return func(c *config) { c.log = l } }

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(c *config) { c.clock = now } }

// WithTimeout bounds the processor.  Zero leaves it unbounded.
func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithObserver attaches a metrics hook.
func WithObserver(o Observer) Option { return func(c *config) { c.observer = o } }

// Wrap builds an Action around s and fn.
func Wrap[T, O any](s *schema.Schema[T], fn ProcessFunc[T, O], opts ...Option) Action[T, O] {
	if s == nil || fn == nil {
		panic("action.Wrap: schema and process function are required")
	}
	cfg := config{
		name:     "action",
		clock:    time.Now,
		observer: nopObserver{},
	}
	for _, o := range opts {
		o(&cfg)
	}

	return func(ctx context.Context, raw map[string]any) Result[O] {
		at := cfg.clock()
		start := time.Now()

		v, err := validate(s, raw)
		if err != nil {
			logger(ctx, cfg).Error("action failed", failureFields(cfg.name, err)...)
			cfg.observer.Observe(cfg.name, KindInternalFailure, time.Since(start))
			return internalFailure[O](at)
		}
		if !v.OK() {
			cfg.observer.Observe(cfg.name, KindValidationFailure, time.Since(start))
			return validationFailure[O](at, v.Errors())
		}

		out, err := run(ctx, cfg.timeout, fn, v.Value())
		if err != nil {
			logger(ctx, cfg).Error("action failed", failureFields(cfg.name, err)...)
			cfg.observer.Observe(cfg.name, KindInternalFailure, time.Since(start))
			return internalFailure[O](at)
		}

		cfg.observer.Observe(cfg.name, KindSuccess, time.Since(start))
		return success(at, out)
	}
}

// -----------------------------------------------------------------------------
// processor execution
// -----------------------------------------------------------------------------

// panicError carries a recovered panic and its stack to the logger.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

type outcome[O any] struct {
	val O
	err error
}

func run[T, O any](ctx context.Context, timeout time.Duration, fn ProcessFunc[T, O], in T) (O, error) {
	if timeout <= 0 {
		return invoke(ctx, fn, in)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[O], 1) // buffered: late finishers never block
	go func() {
		v, err := invoke(ctx, fn, in)
		done <- outcome[O]{v, err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero O
		return zero, fmt.Errorf("processor did not finish: %w", ctx.Err())
	}
}

// validate runs s.Validate, converting a panic from a custom rule or
// validator func into an error.
func validate[T any](s *schema.Schema[T], raw map[string]any) (res schema.Result[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return s.Validate(raw), nil
}

func invoke[T, O any](ctx context.Context, fn ProcessFunc[T, O], in T) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: debug.Stack()}
		}
	}()
	return fn(ctx, in)
}

// -----------------------------------------------------------------------------
// logging helpers
// -----------------------------------------------------------------------------

type loggerKey struct{}

// ContextWithLogger attaches a request-scoped logger that Wrap prefers over
// its configured one.
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func logger(ctx context.Context, cfg config) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if cfg.log != nil {
		return cfg.log
	}
	return zap.L()
}

func failureFields(name string, err error) []zap.Field {
	fields := []zap.Field{zap.String("action", name), zap.Error(err)}
	if p, ok := err.(*panicError); ok {
		fields = append(fields, zap.ByteString("stack", p.stack))
	}
	return fields
}
