package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/mdforge"
)

func main() {
	var (
		configPath = flag.String("config", env("MDFORGE_CONFIG", ""), "path to YAML configuration")
		outputDir  = flag.String("out", "", "output directory (overrides config)")
		mdxMode    = flag.Bool("mdx", false, "emit .mdx with component rewriting")
		preserve   = flag.Bool("preserve", false, "mirror input layout under the output directory")
		dryRun     = flag.Bool("dry-run", false, "run the pipeline without writing")
		verbose    = flag.Bool("verbose", false, "log skipped files")
		repair     = flag.Bool("repair", false, "repair frontmatter in place instead of converting")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mdforge [flags] <file-or-directory>...\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logLevel := env("LOG_LEVEL", "info")
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg := mdforge.DefaultConfig()
	if *configPath != "" {
		loaded, err := mdforge.LoadConfig(*configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *mdxMode {
		cfg.MDX = true
	}
	if *preserve {
		cfg.PreserveStructure = true
	}
	if *dryRun {
		cfg.DryRun = true
	}
	if *verbose {
		cfg.Verbose = true
	}

	svc, err := mdforge.New(cfg, mdforge.WithLogger(logger))
	if err != nil {
		slog.Error("service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exitCode := 0
	for _, target := range flag.Args() {
		info, err := os.Stat(target)
		if err != nil {
			slog.Error("stat", "target", target, "error", err)
			exitCode = 1
			continue
		}

		if info.IsDir() {
			var results []*mdforge.ConversionResult
			if *repair {
				results, err = svc.RepairDirectory(ctx, target)
			} else {
				results, err = svc.ConvertDirectory(ctx, target)
			}
			if err != nil {
				slog.Error("directory run", "target", target, "error", err)
				exitCode = 1
				continue
			}
			for _, res := range results {
				if res.Error != "" {
					exitCode = 1
					break
				}
			}
			continue
		}

		var res *mdforge.ConversionResult
		if *repair {
			res, err = svc.RepairFile(ctx, target)
		} else {
			res, err = svc.ConvertFile(ctx, target)
		}
		if err != nil {
			slog.Error("run", "target", target, "error", err)
			exitCode = 1
			continue
		}
		switch {
		case res.Success:
			slog.Info("done", "input", res.InputPath, "output", res.OutputPath)
		case res.Skipped:
			slog.Info("skipped", "input", res.InputPath, "reason", res.SkipReason)
		default:
			slog.Error("failed", "input", res.InputPath, "error", res.Error)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
