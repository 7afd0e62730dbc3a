package compiler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/mattpair/conder-sub001/internal/ast"
	"github.com/mattpair/conder-sub001/internal/bytecode"
	"github.com/mattpair/conder-sub001/internal/manifest"
	"github.com/mattpair/conder-sub001/internal/schema"
	"github.com/mattpair/conder-sub001/internal/slog"
)

const LOG_SRC = "compiler"

// CompileManifest builds the schema registry of m and compiles all its functions. Functions are compiled
// in parallel since they only share the manifest and the registry.
//
// If some functions fail to compile the returned program contains the other procedures and
// the error is a *BatchError.
func CompileManifest(ctx context.Context, m *manifest.Manifest, opts Options) (*bytecode.Program, error) {
	logger := slog.ChildLoggerForSource(opts.Logger, LOG_SRC)
	sessionId := ulid.Make()
	start := time.Now()

	registry, err := schema.Build(m)
	if err != nil {
		return nil, err
	}

	functions := m.Functions()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.Trace != nil {
		workers = 1
	}
	workers = min(workers, max(1, len(functions)))

	var (
		procedures = cmap.New[*Procedure]()
		failures   = cmap.New[*FunctionError]()
		jobs       = make(chan *manifest.Function)
		wg         sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fn := range jobs {
				fnStart := time.Now()

				proc, err := CompileFunction(fn.Decl, m, registry, opts)
				if err != nil {
					failures.Set(fn.Decl.Name, err.(*FunctionError))
					logger.Debug().Str("function", fn.Decl.Name).Err(err).Msg("function failed to compile")
					continue
				}

				procedures.Set(fn.Decl.Name, proc)
				logger.Debug().
					Str("function", fn.Decl.Name).
					Int("nodes", ast.CountNodes(fn.Decl)).
					Int("ops", len(proc.Ops)).
					Int("frame", proc.FrameSize).
					Dur("duration", time.Since(fnStart)).
					Msg("function compiled")
			}
		}()
	}

	var ctxErr error
loop:
	for _, fn := range functions {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break loop
		case jobs <- fn:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}

	program := bytecode.NewProgram()
	program.Schemas = registry.Schemas()
	program.Stores = registry.Stores()

	for name, proc := range procedures.Items() {
		program.Procedures[name] = proc.Ops
		program.FrameSizes[name] = proc.FrameSize
	}

	logger.Info().
		Str("session", sessionId.String()).
		Int("functions", len(functions)).
		Int("failures", failures.Count()).
		Int("schemas", len(program.Schemas)).
		Int("stores", len(program.Stores)).
		Dur("duration", time.Since(start)).
		Msg("manifest compiled")

	if failures.Count() > 0 {
		errs := make([]*FunctionError, 0, failures.Count())
		for _, err := range failures.Items() {
			errs = append(errs, err)
		}
		return program, newBatchError(errs)
	}
	return program, nil
}
