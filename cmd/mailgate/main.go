package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/dgellow/mailgate/internal"
	"github.com/dgellow/mailgate/internal/config"
	"github.com/dgellow/mailgate/internal/log"
	"github.com/dgellow/mailgate/internal/validation"
)

var BuildVersion = "dev"

// errInvalidAddress makes --check exit non-zero without printing anything more
var errInvalidAddress = errors.New("one or more addresses are invalid")

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": config.SupportedVersion,
		"server": map[string]any{
			"addr":            ":8080",
			"baseURL":         "https://mailgate.yourcompany.com",
			"allowedOrigins":  []string{"https://app.yourcompany.com"},
			"maxBodyBytes":    config.DefaultMaxBodyBytes,
			"shutdownTimeout": "30s",
		},
		"validation": map[string]any{
			"checkDisposable":        true,
			"extraDisposableDomains": []string{},
			"maxBatchSize":           config.DefaultMaxBatchSize,
		},
		"mcp": map[string]any{
			"enabled":       true,
			"name":          config.DefaultMCPName,
			"transportType": string(config.MCPTransportStreamable),
		},
		"serviceAuths": []any{
			map[string]any{
				"type":   "bearer",
				"tokens": []any{map[string]string{"$env": "MAILGATE_SERVICE_TOKEN"}},
			},
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(out io.Writer, path string) error {
	result, err := config.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("error during validation: %w", err)
	}

	fmt.Fprintf(out, "Validating: %s\n", path)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for _, err := range result.Errors {
			if err.Path != "" {
				fmt.Fprintf(out, "  - %s: %s\n", err.Path, err.Message)
			} else {
				fmt.Fprintf(out, "  - %s\n", err.Message)
			}
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings (%d):\n", len(result.Warnings))
		for _, warn := range result.Warnings {
			if warn.Path != "" {
				fmt.Fprintf(out, "  - %s: %s\n", warn.Path, warn.Message)
			} else {
				fmt.Fprintf(out, "  - %s\n", warn.Message)
			}
		}
	}

	fmt.Fprintln(out)
	if len(result.Errors) == 0 && len(result.Warnings) == 0 {
		fmt.Fprintln(out, "Result: PASS")
	} else if len(result.Errors) == 0 {
		fmt.Fprintln(out, "Result: FAIL (warnings present)")
	} else {
		fmt.Fprintln(out, "Result: FAIL")
	}

	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", len(result.Errors), len(result.Warnings))
	}
	return nil
}

type checkOutput struct {
	Input  string            `json:"input"`
	Result validation.Result `json:"result"`
}

// checkAddresses validates each address offline and prints one JSON result
// per line
func checkAddresses(out io.Writer, addresses []string, checkDisposable bool) error {
	enc := json.NewEncoder(out)
	anyInvalid := false
	for _, address := range addresses {
		result := validation.Validate(address, validation.WithDisposableCheck(checkDisposable))
		if !result.Valid {
			anyInvalid = true
		}
		if err := enc.Encode(checkOutput{Input: address, Result: result}); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	if anyInvalid {
		return errInvalidAddress
	}
	return nil
}

func printHelp(out io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(out, `mailgate validates email addresses for account registration.

Usage:
  mailgate --config config.json          run the HTTP and MCP service
  mailgate --config config.json --validate
  mailgate --config-init config.json     write a starter config
  mailgate --check a@example.com [--check ...] [--no-disposable-check]

Flags:
%s`, flagSet.FlagUsages())
}

func run(args []string, stdout, stderr io.Writer) error {
	flagSet := pflag.NewFlagSet("mailgate", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)

	conf := flagSet.StringP("config", "c", "", "path to config file")
	version := flagSet.Bool("version", false, "print version and exit")
	help := flagSet.BoolP("help", "h", false, "print help and exit")
	configInit := flagSet.String("config-init", "", "generate default config file at specified path")
	validate := flagSet.Bool("validate", false, "validate config file and exit")
	check := flagSet.StringArray("check", nil, "validate an address offline and print the result as JSON (repeatable)")
	noDisposable := flagSet.Bool("no-disposable-check", false, "accept disposable providers with --check")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return nil
		}
		return err
	}

	if *help {
		printHelp(stdout, flagSet)
		return nil
	}
	if *version {
		fmt.Fprintln(stdout, BuildVersion)
		return nil
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			return fmt.Errorf("failed to generate config: %w", err)
		}
		fmt.Fprintf(stdout, "Generated default config at: %s\n", *configInit)
		return nil
	}
	if len(*check) > 0 {
		return checkAddresses(stdout, *check, !*noDisposable)
	}

	if *conf == "" {
		return fmt.Errorf("--config flag is required, run with --help for usage information")
	}

	if *validate {
		return validateConfig(stdout, *conf)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.LogInfoWithFields("main", "Starting mailgate", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	mailgate, err := internal.NewMailgate(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create mailgate: %w", err)
	}

	if err := mailgate.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errInvalidAddress) {
			log.LogError("%v", err)
		}
		os.Exit(1)
	}
}
