package runner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gosom/virk-cvr/virk"
)

// RunFunc executes a validated configuration.
type RunFunc func(ctx context.Context, cfg *Config) error

// NewRootCommand builds the virk-cvr command tree. Connection settings are
// read from flags first and from VIRK_* environment variables otherwise.
func NewRootCommand(run RunFunc) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("VIRK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "virk-cvr",
		Short:         "Lookups against the Danish Central Business Register",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("username", "", "register username (VIRK_USR)")
	pf.String("password", "", "register password (VIRK_PWD)")
	pf.String("url", "", "register search endpoint (VIRK_URL)")
	pf.Duration("timeout", virk.DefaultTimeout, "request timeout, 0 disables it")
	pf.String("template-dir", "", "directory with custom query templates")
	pf.StringP("output", "o", OutputTable, "output format: table, json or csv")
	pf.String("log-format", LogFormatText, "log format: text or json")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	for key, flag := range map[string]string{
		"usr":          "username",
		"pwd":          "password",
		"url":          "url",
		"timeout":      "timeout",
		"template_dir": "template-dir",
		"output":       "output",
		"log_format":   "log-format",
		"verbose":      "verbose",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	execute := func(cmd *cobra.Command, cfg *Config) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		slog.SetDefault(NewLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel()))

		return run(cmd.Context(), cfg)
	}

	var search Config

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Find the single legal entity matching a name and an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(v, RunModeSearch)
			cfg.OrgName = search.OrgName
			cfg.StreetName = search.StreetName
			cfg.HouseNoFrom = search.HouseNoFrom
			cfg.Zipcode = search.Zipcode

			return execute(cmd, cfg)
		},
	}

	sf := searchCmd.Flags()
	sf.StringVar(&search.OrgName, "org-name", "", "organisation name")
	sf.StringVar(&search.StreetName, "street-name", "", "street name")
	sf.StringVar(&search.HouseNoFrom, "house-no-from", "", "house number")
	sf.StringVar(&search.Zipcode, "zipcode", "", "postal code")

	for _, name := range []string{"org-name", "street-name", "house-no-from", "zipcode"} {
		_ = searchCmd.MarkFlagRequired(name)
	}

	cvrCmd := &cobra.Command{
		Use:   "cvr <cvr-number>",
		Short: "List the legal entities registered under a CVR number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(v, RunModeCVR)
			cfg.CVRNumber = args[0]

			return execute(cmd, cfg)
		},
	}

	pnumberCmd := &cobra.Command{
		Use:   "pnumber <p-number>",
		Short: "List the production units registered under a P-number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(v, RunModePNumber)
			cfg.PNumber = args[0]

			return execute(cmd, cfg)
		},
	}

	lambdaCmd := &cobra.Command{
		Use:   "lambda",
		Short: "Serve the lookups as an AWS Lambda function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(v, RunModeLambda)
			cfg.LogFormat = LogFormatJSON

			return execute(cmd, cfg)
		},
	}

	root.AddCommand(searchCmd, cvrCmd, pnumberCmd, lambdaCmd)

	return root
}

func configFrom(v *viper.Viper, mode int) *Config {
	return &Config{
		RunMode:     mode,
		Username:    v.GetString("usr"),
		Password:    v.GetString("pwd"),
		EndpointURL: v.GetString("url"),
		Timeout:     v.GetDuration("timeout"),
		TemplateDir: v.GetString("template_dir"),
		Output:      v.GetString("output"),
		LogFormat:   v.GetString("log_format"),
		Verbose:     v.GetBool("verbose"),
	}
}
