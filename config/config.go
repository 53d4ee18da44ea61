package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
)

// Commands understood by the CLI
const (
	CommandMerge  = "merge"
	CommandReport = "report"
)

// Config holds the run settings parsed from flags and environment variables
type Config struct {
	LogLevel   string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"Log level (debug, info, warn, error)"`
	PrettyLogs bool   `long:"pretty-logs" env:"PRETTY_LOGS" description:"Human readable console logs"`

	ResultsDir    string `long:"results-dir" env:"RESULTS_DIR" default:"results" description:"Directory holding supplier results and merged catalogs"`
	ReportsDir    string `long:"reports-dir" env:"REPORTS_DIR" default:"reports" description:"Directory reports are written to"`
	SuppliersFile string `long:"suppliers" env:"SUPPLIERS_FILE" default:"suppliers.yaml" description:"Supplier configuration file; built-in suppliers are used when it does not exist"`

	Priority     []string `long:"priority" env:"SUPPLIER_PRIORITY" env-delim:"," description:"Supplier keys in processing order, overrides the suppliers file"`
	MatchMode    string   `long:"match-mode" env:"MATCH_MODE" choice:"fuzzy" choice:"exact" description:"Same-supplier duplicate rule, overrides the suppliers file"`
	InferOrigin  bool     `long:"infer-origin" env:"INFER_ORIGIN" description:"Fill missing origins from product names"`
	HTMLFallback bool     `long:"html-fallback" env:"HTML_FALLBACK" description:"Use a supplier's saved debug page when it has no JSON results"`

	Rate           float64       `long:"rate" env:"EXCHANGE_RATE" description:"Fixed USD exchange rate; skips the online lookup"`
	TargetCurrency string        `long:"currency" env:"TARGET_CURRENCY" default:"CNY" description:"Currency prices are converted to"`
	RateURL        string        `long:"rate-url" env:"EXCHANGE_RATE_URL" default:"https://open.er-api.com/v6/latest" description:"Exchange rate API base URL"`
	FallbackRate   float64       `long:"fallback-rate" env:"FALLBACK_RATE" default:"7.1" description:"Rate used when the lookup fails"`
	RateTimeout    time.Duration `long:"rate-timeout" env:"EXCHANGE_RATE_TIMEOUT" default:"10s" description:"Exchange rate request timeout"`

	PushgatewayURL string `long:"pushgateway-url" env:"PUSHGATEWAY_URL" description:"Prometheus Pushgateway to push run metrics to"`

	// Command is the selected subcommand
	Command string `no-flag:"true"`
}

type commands struct {
	Config

	Merge  struct{} `command:"merge" description:"Merge the latest supplier results into a deduplicated catalog"`
	Report struct{} `command:"report" description:"Render reports from the latest merged catalog"`
}

// Load reads .env files (".env" when none are given; missing files are ignored), then
// parses args and the environment. It returns nil and no error when help was requested.
func Load(args []string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to load %s", file)
		}
	}
	return Parse(args)
}

// Parse parses command-line arguments and environment variables
func Parse(args []string) (*Config, error) {
	var raw commands

	parser := flags.NewParser(&raw, flags.Default)
	parser.Name = "rawbeans"

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, pkgerrors.Wrap(err, "failed to parse configuration")
	}

	cfg := raw.Config
	if parser.Active != nil {
		cfg.Command = parser.Active.Name
	}
	return &cfg, nil
}
