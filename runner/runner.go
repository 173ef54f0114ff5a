package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gosom/virk-cvr/virk"
)

const (
	RunModeSearch = iota + 1
	RunModeCVR
	RunModePNumber
	RunModeLambda
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputCSV   = "csv"
)

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var (
	ErrInvalidRunMode = errors.New("invalid run mode")
)

type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

type Config struct {
	RunMode     int `validate:"min=1,max=4"`
	Username    string
	Password    string
	EndpointURL string
	Timeout     time.Duration `validate:"gte=0"`
	TemplateDir string        `validate:"omitempty,dir"`
	Output      string        `validate:"oneof=table json csv"`
	LogFormat   string        `validate:"oneof=text json"`
	Verbose     bool

	// OrgName, StreetName, HouseNoFrom and Zipcode are used by RunModeSearch.
	OrgName     string
	StreetName  string
	HouseNoFrom string
	Zipcode     string
	CVRNumber   string
	PNumber     string
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// ParamMap returns the configuration as a lookup parameter mapping.
func (c *Config) ParamMap() map[string]string {
	return map[string]string{
		"username":      c.Username,
		"password":      c.Password,
		"endpoint_url":  c.EndpointURL,
		"org_name":      c.OrgName,
		"street_name":   c.StreetName,
		"house_no_from": c.HouseNoFrom,
		"zipcode":       c.Zipcode,
		"cvr_number":    c.CVRNumber,
		"p_number":      c.PNumber,
	}
}

func (c *Config) Params() virk.Params {
	return virk.ParamsFromMap(c.ParamMap())
}

// SearchValues are the search inputs of the current run mode, in the order
// they are echoed after each record in csv output.
func (c *Config) SearchValues() []string {
	switch c.RunMode {
	case RunModeSearch:
		return []string{c.OrgName, c.StreetName, c.HouseNoFrom, c.Zipcode}
	case RunModeCVR:
		return []string{c.CVRNumber}
	case RunModePNumber:
		return []string{c.PNumber}
	default:
		return nil
	}
}

// NewService wires a virk.Service from the configuration. Templates come
// from TemplateDir when set, otherwise the built-in ones are used.
func NewService(cfg *Config, logger *slog.Logger) (*virk.Service, error) {
	templates := virk.DefaultTemplates()
	if cfg.TemplateDir != "" {
		templates = os.DirFS(cfg.TemplateDir)
	}

	builder, err := virk.NewQueryBuilder(templates)
	if err != nil {
		return nil, err
	}

	client := virk.NewClient(
		virk.WithTimeout(cfg.Timeout),
		virk.WithLogger(logger),
	)

	return virk.NewService(builder, client, logger), nil
}
