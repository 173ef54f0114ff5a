package lambdarunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/gosom/virk-cvr/runner"
	"github.com/gosom/virk-cvr/virk"
)

var ErrNotInLambda = errors.New("AWS_LAMBDA_RUNTIME_API is not set, not running inside AWS Lambda")

// Event is the invocation payload. Mode is one of name_address, cvr_number
// or p_number. Params uses the same keys as virk.ParamsFromMap; missing
// credentials are taken from the runner configuration.
type Event struct {
	Mode   string            `json:"mode"`
	Params map[string]string `json:"params"`
}

// Response always carries Records as a list, empty when nothing matched or
// the lookup failed. name_address also sets Record to its single match.
// Lookup failures are reported in Error and ErrorKind, not as invocation
// errors.
type Response struct {
	Mode      string        `json:"mode"`
	Record    *virk.Record  `json:"record,omitempty"`
	Records   []virk.Record `json:"records"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
}

type lambdaRunner struct {
	cfg    *runner.Config
	svc    *virk.Service
	logger *slog.Logger
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeLambda {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	logger := slog.Default().With("runner", "lambda")

	svc, err := runner.NewService(cfg, logger)
	if err != nil {
		return nil, err
	}

	ans := lambdaRunner{
		cfg:    cfg,
		svc:    svc,
		logger: logger,
	}

	return &ans, nil
}

func (r *lambdaRunner) Run(ctx context.Context) error {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		return ErrNotInLambda
	}

	lambda.StartWithOptions(r.handler, lambda.WithContext(ctx))

	return nil
}

func (r *lambdaRunner) Close(context.Context) error {
	return nil
}

func (r *lambdaRunner) handler(ctx context.Context, ev Event) (Response, error) {
	ans := Response{Mode: ev.Mode}

	kind, err := virk.ParseQueryKind(ev.Mode)
	if err != nil {
		return r.failed(ans, err), nil
	}

	params := r.params(ev)

	switch kind {
	case virk.QueryNameAddress:
		ans.Record, err = r.svc.SearchByNameAndAddress(ctx, params)
		if err == nil {
			ans.Records = []virk.Record{*ans.Record}
		}
	case virk.QueryCVRNumber:
		ans.Records, err = r.svc.LookupCVR(ctx, params)
	case virk.QueryPNumber:
		ans.Records, err = r.svc.LookupPNumber(ctx, params)
	}

	if err != nil {
		return r.failed(ans, err), nil
	}

	if ans.Records == nil {
		ans.Records = []virk.Record{}
	}

	return ans, nil
}

func (r *lambdaRunner) params(ev Event) virk.Params {
	params := virk.ParamsFromMap(ev.Params)
	defaults := r.cfg.Params()

	if params.Username == "" {
		params.Username = defaults.Username
	}

	if params.Password == "" {
		params.Password = defaults.Password
	}

	if params.EndpointURL == "" {
		params.EndpointURL = defaults.EndpointURL
	}

	return params
}

func (r *lambdaRunner) failed(ans Response, err error) Response {
	ans.Error = err.Error()
	ans.ErrorKind = virk.KindOf(err)
	ans.Record = nil
	ans.Records = []virk.Record{}

	r.logger.Warn("lookup failed", "mode", ans.Mode, "error_kind", ans.ErrorKind, "error", err)

	return ans
}
