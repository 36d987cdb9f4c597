package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/chazu/libload/pkg/catalogue"
	"github.com/chazu/libload/pkg/metrics"
)

// Observer receives every outcome as soon as it is recorded.
// Observers passed to a loader used from several goroutines must be safe for
// concurrent use.
type Observer func(Outcome)

// Option configures a Loader
type Option func(*Loader)

// WithStatusTable makes the loader record state in t instead of
// DefaultStatusTable
func WithStatusTable(t *StatusTable) Option {
	return func(l *Loader) {
		l.status = t
	}
}

// WithObserver registers an observer for load outcomes
func WithObserver(o Observer) Option {
	return func(l *Loader) {
		l.observer = o
	}
}

// WithMaxConcurrency bounds the number of requests LoadAll runs at once.
// Default: 4
func WithMaxConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.maxConcurrency = n
		}
	}
}

// Loader resolves libraries against a catalogue and loads them, dependencies
// first, through a NativeLoader
type Loader struct {
	catalogue      *catalogue.Catalogue
	native         NativeLoader
	status         *StatusTable
	observer       Observer
	maxConcurrency int

	// plans memoises plans per target; the catalogue never changes
	mu    sync.Mutex
	plans map[catalogue.ID]*Plan
}

// New creates a loader over cat that loads libraries through native
func New(cat *catalogue.Catalogue, native NativeLoader, opts ...Option) *Loader {
	l := &Loader{
		catalogue:      cat,
		native:         native,
		status:         DefaultStatusTable,
		maxConcurrency: 4,
		plans:          make(map[catalogue.ID]*Plan),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Catalogue returns the catalogue the loader resolves against
func (l *Loader) Catalogue() *catalogue.Catalogue {
	return l.catalogue
}

// Status returns the status table the loader records into
func (l *Loader) Status() *StatusTable {
	return l.status
}

// RequestOption configures a single load request
type RequestOption func(*request)

type request struct {
	mandatoryTarget bool
	mandatoryNames  []string
}

// Mandatory marks the requested library itself as mandatory
func Mandatory() RequestOption {
	return func(r *request) {
		r.mandatoryTarget = true
	}
}

// MandatoryLibraries marks the named libraries as mandatory when they are
// part of the plan. Names must be registered in the catalogue.
func MandatoryLibraries(names ...string) RequestOption {
	return func(r *request) {
		r.mandatoryNames = append(r.mandatoryNames, names...)
	}
}

// mandatorySet resolves the request's mandatory names to IDs
func (r *request) mandatorySet(cat *catalogue.Catalogue, target catalogue.ID) (map[catalogue.ID]bool, error) {
	set := make(map[catalogue.ID]bool, len(r.mandatoryNames)+1)
	if r.mandatoryTarget {
		set[target] = true
	}
	for _, name := range r.mandatoryNames {
		id, err := cat.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("mandatory library: %w", err)
		}
		set[id] = true
	}
	return set, nil
}

// Plan resolves name and returns its load plan without loading anything.
// The returned plan is a copy and may be modified by the caller.
func (l *Loader) Plan(name string) (*Plan, error) {
	id, err := l.catalogue.Resolve(name)
	if err != nil {
		return nil, err
	}
	plan, err := l.planFor(id)
	if err != nil {
		return nil, err
	}
	return &Plan{Target: plan.Target, Entries: slices.Clone(plan.Entries)}, nil
}

func (l *Loader) planFor(id catalogue.ID) (*Plan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if plan, found := l.plans[id]; found {
		return plan, nil
	}

	plan, err := BuildPlan(l.catalogue, id)
	if err != nil {
		var cycle *CycleDetectedError
		if errors.As(err, &cycle) {
			metrics.RecordCycle()
		}
		return nil, err
	}

	metrics.RecordPlan(plan.Len())
	l.plans[id] = plan
	return plan, nil
}

// LoadWithDependencies loads name and everything it depends on, dependencies
// first, and returns one outcome per plan entry in plan order.
//
// Lookup and cycle errors are returned before any library is loaded. A
// failure of a non-mandatory library is recorded and the remaining entries
// are still attempted; a failure of a mandatory library aborts the plan with
// a *MandatoryLoadFailedError. Outcomes recorded so far are returned
// alongside any error.
func (l *Loader) LoadWithDependencies(ctx context.Context, name string, opts ...RequestOption) ([]Outcome, error) {
	id, err := l.catalogue.Resolve(name)
	if err != nil {
		return nil, err
	}

	var req request
	for _, opt := range opts {
		opt(&req)
	}
	mandatory, err := req.mandatorySet(l.catalogue, id)
	if err != nil {
		return nil, err
	}

	plan, err := l.planFor(id)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, plan.Len())
	for _, entryID := range plan.Entries {
		outcome, err := l.loadOne(ctx, entryID)
		if err != nil {
			return outcomes, err
		}
		outcome.Mandatory = mandatory[entryID]
		outcomes = append(outcomes, outcome)

		if l.observer != nil {
			l.observer(outcome)
		}

		if outcome.Kind == OutcomeFailed && outcome.Mandatory {
			return outcomes, &MandatoryLoadFailedError{
				ID:       entryID,
				Name:     outcome.Name,
				Err:      outcome.Err,
				Outcomes: outcomes,
			}
		}
	}

	return outcomes, nil
}

// loadOne brings a single library to a terminal state, loading it if no
// other request has claimed it. Only context errors are returned.
func (l *Loader) loadOne(ctx context.Context, id catalogue.ID) (Outcome, error) {
	outcome := Outcome{ID: id, Name: l.catalogue.Name(id)}

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		prev, done := l.status.Begin(id)
		switch prev {
		case LoadStateNotRequested:
			start := time.Now()
			loadErr := l.invokeNative(ctx, outcome.Name)
			if err := l.status.Finish(id, loadErr); err != nil {
				return Outcome{}, err
			}
			elapsed := time.Since(start).Seconds()

			if loadErr != nil {
				metrics.RecordLoad(metrics.ResultFailed, elapsed)
				outcome.fail(loadErr)
				return outcome, nil
			}

			metrics.RecordLoad(metrics.ResultLoaded, elapsed)
			l.status.recordLoaded()
			outcome.Kind = OutcomeLoaded
			return outcome, nil

		case LoadStatePending:
			// Another request owns the load; wait for it to settle
			select {
			case <-done:
			case <-ctx.Done():
				return Outcome{}, ctx.Err()
			}

		case LoadStateLoaded:
			metrics.RecordSkip()
			outcome.Kind = OutcomeSkipped
			outcome.Reason = ReasonAlreadyLoaded
			return outcome, nil

		case LoadStateFailed:
			outcome.Reason = ReasonPreviouslyFailed
			outcome.fail(l.status.Err(id))
			return outcome, nil

		default:
			return Outcome{}, fmt.Errorf("library %s in unknown state %s", outcome.Name, prev)
		}
	}
}

// invokeNative calls the native loader, converting a panic into an error so
// that the library never stays Pending
func (l *Loader) invokeNative(ctx context.Context, fileName string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while loading %s: %v", fileName, r)
		}
	}()
	return l.native.LoadLibrary(ctx, fileName)
}

// Result is the outcome of one request issued through LoadAll
type Result struct {
	Name     string
	Outcomes []Outcome
	Err      error
}

// LoadAll issues LoadWithDependencies for every name concurrently and
// returns the results in the order of names. The returned error joins the
// errors of all failed requests.
func (l *Loader) LoadAll(ctx context.Context, names []string, opts ...RequestOption) ([]Result, error) {
	results := make([]Result, len(names))

	p := pool.New().WithMaxGoroutines(l.maxConcurrency).WithErrors()
	for i, name := range names {
		p.Go(func() error {
			outcomes, err := l.LoadWithDependencies(ctx, name, opts...)
			results[i] = Result{Name: name, Outcomes: outcomes, Err: err}
			if err != nil {
				return fmt.Errorf("load %s: %w", name, err)
			}
			return nil
		})
	}

	// Independent requests are not cancelled when one fails
	err := p.Wait()
	return results, err
}
