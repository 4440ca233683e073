// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/panbanda/mondrian/pkg/parser"
	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
	order  []int
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.add(-1, path, err)
}

func (e *ProcessingErrors) add(index int, path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.order = append(e.order, index)
	e.mu.Unlock()
}

// sortByInput orders the errors like the files that caused them.
func (e *ProcessingErrors) sortByInput() {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := make([]int, len(e.Errors))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return e.order[idx[a]] < e.order[idx[b]] })
	sorted := make([]ProcessingError, len(e.Errors))
	order := make([]int, len(e.order))
	for i, j := range idx {
		sorted[i] = e.Errors[j]
		order[i] = e.order[j]
	}
	e.Errors, e.order = sorted, order
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		out[i] = pe
	}
	return out
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

type options struct {
	workers    int
	onProgress ProgressFunc
}

// Option configures a parallel run.
type Option func(*options)

// WithWorkers caps the number of concurrent workers. Values <= 0 select
// 2x NumCPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithProgress registers a callback invoked once per processed file.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.onProgress = fn
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers <= 0 {
		o.workers = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return o
}

// MapFilesIndexed processes files in parallel, calling fn for each file with
// a parser owned by the calling worker. Results keep the order of files;
// failed files are left out of the results and reported in the returned
// errors, also in input order. The errors are nil when every file succeeded.
func MapFilesIndexed[T any](ctx context.Context, files []string, fn func(*parser.Parser, string) (T, error), opts ...Option) ([]T, *ProcessingErrors) {
	return MapFilesWithResource(ctx, files, parser.New, (*parser.Parser).Close, fn, opts...)
}

// MapFilesWithResource is MapFilesIndexed with a caller supplied per-worker
// resource. newResource is called at most once per worker and closeResource
// once per created resource after all files are processed.
func MapFilesWithResource[T any, R any](
	ctx context.Context,
	files []string,
	newResource func() R,
	closeResource func(R),
	fn func(R, string) (T, error),
	opts ...Option,
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}
	o := newOptions(opts)

	results := make([]T, len(files))
	done := make([]bool, len(files))
	errs := &ProcessingErrors{}

	var (
		mu      sync.Mutex
		idle    []R
		created []R
	)
	acquire := func() R {
		mu.Lock()
		defer mu.Unlock()
		if n := len(idle); n > 0 {
			r := idle[n-1]
			idle = idle[:n-1]
			return r
		}
		r := newResource()
		created = append(created, r)
		return r
	}
	release := func(r R) {
		mu.Lock()
		idle = append(idle, r)
		mu.Unlock()
	}

	p := pool.New().WithMaxGoroutines(o.workers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if o.onProgress != nil {
				defer o.onProgress()
			}
			if err := ctx.Err(); err != nil {
				errs.add(i, path, err)
				return nil
			}

			r := acquire()
			defer release(r)

			result, err := fn(r, path)
			if err != nil {
				errs.add(i, path, err)
				return nil // Don't stop pool on individual file errors
			}
			results[i] = result
			done[i] = true
			return nil
		})
	}
	_ = p.Wait() // Per-file and context errors are already captured in errs

	if closeResource != nil {
		for _, r := range created {
			closeResource(r)
		}
	}

	out := results[:0]
	for i := range results {
		if done[i] {
			out = append(out, results[i])
		}
	}
	// zero the tail so dropped values can be collected
	var zero T
	for i := len(out); i < len(results); i++ {
		results[i] = zero
	}

	if !errs.HasErrors() {
		return out, nil
	}
	errs.sortByInput()
	return out, errs
}
