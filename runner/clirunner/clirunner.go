package clirunner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gosom/virk-cvr/runner"
	"github.com/gosom/virk-cvr/virk"
)

type cliRunner struct {
	cfg *runner.Config
	svc *virk.Service
	out io.Writer
}

// New returns a runner that performs the lookup selected by cfg.RunMode
// once and writes the records to out, or to stdout when out is nil.
func New(cfg *runner.Config, out io.Writer) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeSearch, runner.RunModeCVR, runner.RunModePNumber:
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	svc, err := runner.NewService(cfg, slog.Default())
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = os.Stdout
	}

	ans := cliRunner{
		cfg: cfg,
		svc: svc,
		out: out,
	}

	return &ans, nil
}

func (r *cliRunner) Run(ctx context.Context) error {
	records, err := r.lookup(ctx)
	if err != nil {
		return err
	}

	return runner.WriteRecords(r.out, r.cfg.Output, records, r.cfg.SearchValues())
}

func (r *cliRunner) Close(context.Context) error {
	return nil
}

func (r *cliRunner) lookup(ctx context.Context) ([]virk.Record, error) {
	params := r.cfg.Params()

	switch r.cfg.RunMode {
	case runner.RunModeSearch:
		rec, err := r.svc.SearchByNameAndAddress(ctx, params)
		if err != nil {
			return nil, err
		}

		return []virk.Record{*rec}, nil
	case runner.RunModeCVR:
		return r.svc.LookupCVR(ctx, params)
	case runner.RunModePNumber:
		return r.svc.LookupPNumber(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, r.cfg.RunMode)
	}
}
