package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/inkwell/internal/cli"
	"github.com/hyperjump/inkwell/internal/search"
	"github.com/hyperjump/inkwell/internal/storage"
)

func runSearch(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("search", stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := buildQuery(fs.Args())
	if query == "" {
		return fmt.Errorf("%w: search [--config path] [--output text|json] <query...>", errUsage)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	engine := search.NewEngine(storage.NewJSONStorage(cfg.Content.IndexPath))
	posts, err := engine.Find(context.Background(), query)
	if err != nil {
		return err
	}
	return cli.WriteSearchResults(stdout, query, posts, format)
}

func runShow(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("show", stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: show [--config path] [--output text|json] <path>", errUsage)
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	engine := search.NewEngine(storage.NewJSONStorage(cfg.Content.IndexPath))
	post, err := engine.PostByPath(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if post == nil {
		fmt.Fprintf(stderr, "No post at %s\n", fs.Arg(0))
		return errFailed
	}
	related, err := engine.Related(ctx, post.Related)
	if err != nil {
		return err
	}
	return cli.WritePost(stdout, post, related, format)
}

// checkReport is the JSON shape of the check command.
type checkReport struct {
	Index    storage.IndexInfo `json:"index"`
	Posts    int               `json:"posts"`
	Problems []storage.Problem `json:"problems"`
}

func runCheck(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("check", stderr)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	store := storage.NewJSONStorage(cfg.Content.IndexPath)
	idx, err := store.Load(context.Background())
	if err != nil {
		return err
	}
	info, err := store.Stat()
	if err != nil {
		return err
	}
	report := checkReport{
		Index:    info,
		Posts:    len(idx.Posts),
		Problems: storage.Check(idx),
	}
	if report.Problems == nil {
		report.Problems = []storage.Problem{}
	}

	switch format {
	case cli.OutputJSON:
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	default:
		fmt.Fprintf(stdout, "index_path:  %s\n", report.Index.Path)
		fmt.Fprintf(stdout, "modified:    %s\n", report.Index.ModTime.Format(time.RFC3339))
		fmt.Fprintf(stdout, "posts:       %d\n", report.Posts)
		fmt.Fprintf(stdout, "size_bytes:  %d\n", report.Index.SizeBytes)
		fmt.Fprintf(stdout, "problems:    %d\n", len(report.Problems))
		for _, p := range report.Problems {
			fmt.Fprintf(stdout, "  - %s\n", p)
		}
	}
	if len(report.Problems) > 0 {
		return errFailed
	}
	return nil
}
