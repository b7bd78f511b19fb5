// Package main is the inkwell CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/inkwell/internal/config"
	flag "github.com/spf13/pflag"
)

var version = "dev"

// defaultConfigPath is a var so tests can point it at a scratch directory.
var defaultConfigPath = "/usr/local/etc/inkwell/config.yaml"

// errUsage marks errors that should be followed by the command usage.
var errUsage = errors.New("usage")

// errFailed reports a non-zero exit whose cause was already printed.
var errFailed = errors.New("failed")

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development), and a missing
// default file yields the defaults. An explicitly named file must exist.
// .env files next to the config and the environment are overlaid, then the
// result is validated. Returns the config and the path that was actually
// loaded ("" when none was found).
func loadConfig(path string) (*config.Config, string, error) {
	var (
		cfg   *config.Config
		found = true
		err   error
	)
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
		cfg, found, err = config.LoadOrDefault(path)
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, "", err
	}
	envDir := "."
	if found {
		envDir = filepath.Dir(path)
	} else {
		path = ""
	}
	config.LoadDotEnv(envDir)
	config.ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}
	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "server":
		err = runServer(rest, stderr)
	case "search":
		err = runSearch(rest, stdout, stderr)
	case "show":
		err = runShow(rest, stdout, stderr)
	case "check":
		err = runCheck(rest, stdout, stderr)
	case "reload":
		err = runReload(rest, stdout, stderr)
	case "init":
		err = runInit(rest, stdout, stderr)
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "inkwell version %s\n", version)
	case "help", "--help", "-h":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errFailed):
		return 1
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "Usage: inkwell %s\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		return 1
	default:
		fmt.Fprintf(stderr, "%s: %v\n", command, err)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `inkwell - a small blog server

Usage:
  inkwell <command> [flags]

Commands:
  server    Run the HTTP server
  search    Search posts by title, tags and description
  show      Show one post and its related posts
  check     Lint the content index
  reload    Ask the hosting API to reload the web app
  init      Write a starter config.yaml and content/index.json
  version   Print the version
  help      Show this help

Common flags:
  --config  config file path (default `+defaultConfigPath+`, or ./config.yaml when present)

Environment:
  GITHUB_WEBHOOK_SECRET      webhook signing secret (unset: signatures are not checked)
  PYTHONANYWHERE_USERNAME    reload API user
  PYTHONANYWHERE_API_TOKEN   reload API token
  PYTHONANYWHERE_HOST        reload API host
  PYTHONANYWHERE_DOMAIN      web app domain
  INKWELL_CONTENT_PATH       content index path
  INKWELL_PORT               listen port

Examples:
  inkwell server --debug
  inkwell search deploying with go
  inkwell show /posts/hello-world
  inkwell check
`)
}
