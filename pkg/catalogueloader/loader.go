package catalogueloader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
	cueyaml "cuelang.org/go/encoding/yaml"
	"sigs.k8s.io/controller-runtime/pkg/log"

	cuecatalogues "github.com/chazu/libload/cue"
	"github.com/chazu/libload/pkg/catalogue"
)

// CompileError reports a catalogue definition rejected by CUE
type CompileError struct {
	Source string
	Err    error
}

func (e *CompileError) Error() string {
	var msgs []string
	for _, err := range cueerrors.Errors(e.Err) {
		msgs = append(msgs, err.Error())
	}
	if len(msgs) == 0 {
		return fmt.Sprintf("catalogue %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("catalogue %s: %s", e.Source, strings.Join(msgs, "; "))
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Loader fetches, compiles and caches catalogues
type Loader struct {
	registry *FetcherRegistry
	cache    *Cache

	// cue.Context is not safe for concurrent use
	mu     sync.Mutex
	cueCtx *cue.Context
	schema cue.Value
}

// NewLoader creates a loader that fetches through registry
func NewLoader(registry *FetcherRegistry) (*Loader, error) {
	cueCtx := cuecontext.New()

	schema := cueCtx.CompileString(cuecatalogues.Schema, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("failed to compile catalogue schema: %w", schema.Err())
	}
	root := schema.LookupPath(cue.ParsePath(cuecatalogues.SchemaDefinition))
	if root.Err() != nil {
		return nil, fmt.Errorf("schema definition %s not found: %w", cuecatalogues.SchemaDefinition, root.Err())
	}

	return &Loader{
		registry: registry,
		cache:    NewCache(),
		cueCtx:   cueCtx,
		schema:   root,
	}, nil
}

// Cache returns the loader's catalogue cache
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Load fetches the catalogue definition ref using the fetcher registered for
// fetcherType and builds a catalogue from it. Definitions with a digest seen
// before are served from the cache.
func (l *Loader) Load(ctx context.Context, fetcherType, ref string) (*catalogue.Catalogue, *FetchResult, error) {
	logger := log.FromContext(ctx).WithValues("type", fetcherType)

	start := time.Now()
	result, err := l.registry.Fetch(ctx, fetcherType, ref)
	if err != nil {
		RecordFetch(fetcherType, "error", time.Since(start).Seconds())
		return nil, nil, fmt.Errorf("failed to fetch catalogue: %w", err)
	}
	RecordFetch(fetcherType, "success", time.Since(start).Seconds())

	if cached, found := l.cache.Get(result.Digest); found {
		RecordCacheHit()
		logger.V(1).Info("Catalogue served from cache", "source", result.Source, "digest", result.Digest)
		return cached, result, nil
	}
	RecordCacheMiss()

	cat, err := l.Build(result)
	if err != nil {
		return nil, result, err
	}

	l.cache.Set(result.Digest, cat)
	logger.Info("Loaded catalogue",
		"source", result.Source,
		"name", cat.Metadata().Name,
		"version", cat.Metadata().Version,
		"libraries", cat.Len(),
		"digest", cat.Digest())

	return cat, result, nil
}

// Build compiles the files of result and constructs a catalogue from them
func (l *Loader) Build(result *FetchResult) (*catalogue.Catalogue, error) {
	spec, err := l.Compile(result)
	if err != nil {
		RecordCompileError()
		return nil, err
	}

	cat, err := catalogue.New(spec)
	if err != nil {
		return nil, fmt.Errorf("catalogue %s: %w", result.Source, err)
	}
	return cat, nil
}

// Compile unifies all files of result with the catalogue schema and decodes
// the outcome into a catalogue.Spec
func (l *Loader) Compile(result *FetchResult) (*catalogue.Spec, error) {
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("catalogue %s has no content", result.Source)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	value := l.schema
	for _, file := range result.Files {
		fileValue, err := l.compileFile(file)
		if err != nil {
			return nil, &CompileError{Source: file.Name, Err: err}
		}
		value = value.Unify(fileValue)
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &CompileError{Source: result.Source, Err: err}
	}

	var spec catalogue.Spec
	if err := value.Decode(&spec); err != nil {
		return nil, &CompileError{Source: result.Source, Err: err}
	}
	return &spec, nil
}

// compileFile builds the CUE value of a single file in its own format
func (l *Loader) compileFile(file SourceFile) (cue.Value, error) {
	var value cue.Value

	switch file.Format() {
	case FormatJSON:
		expr, err := cuejson.Extract(file.Name, file.Content)
		if err != nil {
			return cue.Value{}, err
		}
		value = l.cueCtx.BuildExpr(expr)
	case FormatYAML:
		f, err := cueyaml.Extract(file.Name, file.Content)
		if err != nil {
			return cue.Value{}, err
		}
		value = l.cueCtx.BuildFile(f)
	default:
		value = l.cueCtx.CompileBytes(file.Content, cue.Filename(file.Name))
	}

	return value, value.Err()
}

// LoadDefault loads the default embedded catalogue
func (l *Loader) LoadDefault(ctx context.Context) (*catalogue.Catalogue, error) {
	cat, _, err := l.Load(ctx, EmbeddedType, cuecatalogues.DefaultCatalogue)
	return cat, err
}
