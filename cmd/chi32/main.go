package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/standardbeagle/chi32/internal/config"
	"github.com/standardbeagle/chi32/internal/debug"
	"github.com/standardbeagle/chi32/internal/version"

	"github.com/urfave/cli/v2"
)

// loadConfig loads the KDL config named by the global --config flag
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	return cfg, nil
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "chi32",
		Usage:                  "Stateless CHI32 generator: derive values, verify vectors, feed test suites",
		Version:                version.Info(),
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultConfigFile,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Write debug output to stderr",
			},
			&cli.BoolFlag{
				Name:   "debug-log",
				Usage:  "Write debug output to a file in the temp directory",
				Hidden: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "derive",
				Aliases:   []string{"d"},
				Usage:     "Print the value at (selector, index)",
				ArgsUsage: "<selector> <index>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Print this many values at consecutive indices",
						Value:   1,
					},
				},
				Action: deriveCommand,
			},
			{
				Name:    "generate",
				Aliases: []string{"gen"},
				Usage:   "Write canonical reference vectors and their metadata table",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: canonical.out_dir from config)",
					},
					&cli.StringFlag{
						Name:  "definitions",
						Usage: "TOML manifest of [[definition]] entries (default: built-in set)",
					},
				},
				Action: generateCommand,
			},
			{
				Name:  "verify",
				Usage: "Compare the generator against canonical reference vectors",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Metadata table, directory or glob (e.g. 'validation/**/chi32_canonical_meta.csv')",
					},
					&cli.IntFlag{
						Name:  "max-mismatches",
						Usage: "Mismatches printed in full per case",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: verifyCommand,
			},
			{
				Name:  "stream",
				Usage: "Write little-endian uint32 values to stdout (e.g. | RNG_test stdin32)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "seed",
						Usage:    "Seed, decimal or 0x-prefixed hex",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "phase",
						Usage: "Initial phase, decimal or 0x-prefixed hex",
						Value: "0",
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Iteration strategy: sequential, swapped or feedback",
						Value: "sequential",
					},
					&cli.Uint64Flag{
						Name:  "count",
						Usage: "Number of values to write (0 = until interrupted)",
					},
					&cli.IntFlag{
						Name:  "buffer-size",
						Usage: "Bytes buffered per write (default: stream.buffer_size from config)",
					},
				},
				Action: streamCommand,
			},
			{
				Name:      "battery",
				Usage:     "Run a statistical test battery",
				ArgsUsage: "<Battery> <seed> <phase> [strategy]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Tests run concurrently (default: battery.workers from config)",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: batteryCommand,
			},
			{
				Name:  "walk",
				Usage: "Render random-walk heatmaps for CHI32 and reference generators",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "steps",
						Usage: "Steps per walk (default: walker.steps from config)",
					},
					&cli.IntFlag{
						Name:  "scale-shift",
						Usage: "Positions are divided by 2^K before binning (default: walker.scale_shift from config)",
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output directory for PNG images (default: walker.out_dir from config)",
					},
					&cli.StringSliceFlag{
						Name:  "generators",
						Usage: "Generators to walk (default: all)",
					},
					&cli.StringFlag{
						Name:  "seed",
						Usage: "Seed shared by every generator",
					},
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output summaries as JSON",
					},
				},
				Action: walkCommand,
			},
			{
				Name:  "version",
				Usage: "Show version and build information",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, version.FullInfo())
					fmt.Fprintf(c.App.Writer, "Build ID: %s\n", version.BuildID())
					return nil
				},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				debug.SetDebugOutput(c.App.ErrWriter)
				debug.SetVerbose(true)
			}
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return fmt.Errorf("failed to open debug log: %w", err)
				}
				debug.SetVerbose(true)
				fmt.Fprintf(c.App.ErrWriter, "Debug log: %s\n", path)
			}
			debug.Printf("%s\n", version.FullInfo())
			return nil
		},
	}
}

// run executes the app and returns the process exit code. Failures are
// recorded in the debug log before the log is closed.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	defer debug.CloseDebugLog()

	if err := newApp(stdout, stderr).RunContext(ctx, args); err != nil {
		_ = debug.Fatal("%s: %v", strings.Join(args[1:], " "), err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
