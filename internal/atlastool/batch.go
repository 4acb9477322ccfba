package atlastool

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/atlastool/internal/logger"
)

// BatchResult reports how many units of a batch run succeeded.
type BatchResult struct {
	Units     int
	Succeeded int
}

// CollapseAll collapses every immediate subdirectory of inDir into
// <outDir>/<dir>.png and its index. A failing directory does not stop the
// others; all failures are returned together.
func CollapseAll(inDir, outDir string, opts Options) (BatchResult, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		if notFound(err) {
			return BatchResult{}, fmt.Errorf("%w: %s", ErrInputNotFound, inDir)
		}
		return BatchResult{}, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}

	return runBatch(dirs, opts.Workers, func(log *zap.Logger, name string) error {
		_, err := collapse(log, filepath.Join(inDir, name), filepath.Join(outDir, name+".png"), opts)
		return err
	})
}

// ExpandAll expands every index file directly inside inDir into
// <outDir>/<stem>/.
func ExpandAll(inDir, outDir string, workers int) (BatchResult, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		if notFound(err) {
			return BatchResult{}, fmt.Errorf("%w: %s", ErrInputNotFound, inDir)
		}
		return BatchResult{}, err
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), IndexExt) {
			files = append(files, e.Name())
		}
	}

	return runBatch(files, workers, func(log *zap.Logger, name string) error {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		_, err := expand(log, filepath.Join(inDir, name), filepath.Join(outDir, stem))
		return err
	})
}

// runBatch runs fn for every unit on at most workers goroutines. Units
// share nothing but the read-only arguments captured by fn.
func runBatch(units []string, workers int, fn func(log *zap.Logger, unit string) error) (BatchResult, error) {
	sort.Strings(units)
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, len(units))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, unit := range units {
		i, unit := i, unit
		g.Go(func() error {
			log := logger.Named(unit)
			if err := fn(log, unit); err != nil {
				log.Error("unit failed", zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", unit, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := BatchResult{Units: len(units)}
	for _, err := range errs {
		if err == nil {
			res.Succeeded++
		}
	}
	return res, multierr.Combine(errs...)
}
