package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/chazu/ansigraph/pkg/artifact"
	"github.com/chazu/ansigraph/pkg/render"
	"github.com/chazu/ansigraph/pkg/scan"
)

// CLI holds the command-line configuration
type CLI struct {
	Root    string   `arg:"" help:"Root directory of the Ansible repository." type:"existingdir"`
	Output  string   `help:"Write DOT output to FILE instead of stdout." short:"o" placeholder:"FILE"`
	Kinds   []string `help:"Only include these artifact kinds (playbook, role, taskfile, handlerfile, varsfile)." short:"k"`
	RankDir string   `help:"Graphviz layout direction." name:"rankdir" default:"TB" enum:"TB,LR,BT,RL"`
	Tree    bool     `help:"Print the artifact inventory as a tree instead of DOT output."`
	Plain   bool     `help:"Do not highlight cycle members in the output."`
	Verbose bool     `help:"Enable debug logging." short:"v"`
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("ansigraph"),
		kong.Description("Graph the dependencies of an Ansible repository."))
	ctx.FatalIfErrorf(run(cli))
}

// run executes a single scan-and-render pass. Warnings and dangling
// references go to stderr; only an unusable root directory is fatal.
func run(cli *CLI) error {
	logger := newLogger(cli.Verbose)
	defer func() { _ = logger.Sync() }()

	opts := scan.DefaultOptions()
	for _, k := range cli.Kinds {
		kind, err := artifact.ParseKind(k)
		if err != nil {
			return err
		}
		opts.Kinds = append(opts.Kinds, kind)
	}

	scanner, err := scan.NewFromDir(cli.Root, logger, opts)
	if err != nil {
		return err
	}

	g, report, err := scanner.Scan(context.Background())
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cli.Output)
	if err != nil {
		return err
	}
	defer closeOut()

	if cli.Tree {
		if err := render.Tree(g.Metadata.Name, report.Inventory, out); err != nil {
			return fmt.Errorf("failed to render tree: %w", err)
		}
	} else {
		renderOpts := render.DefaultOptions()
		renderOpts.RankDir = cli.RankDir
		renderOpts.HighlightCycles = !cli.Plain
		if err := render.DOT(g, out, renderOpts); err != nil {
			return fmt.Errorf("failed to render DOT: %w", err)
		}
	}

	report.Summary(os.Stderr)
	return nil
}

// openOutput returns the destination writer and its cleanup
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newLogger builds a console logger on stderr so graph output on
// stdout stays clean
func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
