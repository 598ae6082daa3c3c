package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/twinfer/plistreader/internal/config"
	"github.com/twinfer/plistreader/pkg/manifest"
)

type rootFlags struct {
	config      string
	format      string
	concurrency int
	chunkSize   int
	suffix      string
	filter      string
	query       string
	verbose     bool
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:   "plistreader <file>...",
		Short: "Decode binary property lists, standalone or inside .zip/.ipa archives",
		Long: `Decode binary property lists.

Each argument is either a single binary plist or a .zip/.ipa archive, in which
case every *.plist entry is decoded. Use "-" to read from standard input.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			opts, err := cfg.Options(logger)
			if err != nil {
				return err
			}
			p, err := manifest.New(opts...)
			if err != nil {
				return err
			}

			var failed int
			for _, arg := range args {
				in, err := inputFor(arg, cmd.InOrStdin())
				if err != nil {
					return err
				}
				out := newPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), arg, len(args) > 1)
				if err := p.Run(cmd.Context(), in, out); err != nil {
					return fmt.Errorf("%s: %w", arg, err)
				}
				failed += out.failed
			}
			if failed > 0 {
				return fmt.Errorf("%d document(s) failed to decode", failed)
			}
			return nil
		},
	}

	fs := rootCmd.Flags()
	fs.StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	fs.StringVarP(&flags.format, "format", "f", "", "Output format: raw, json, yaml, xml or cbor")
	fs.IntVarP(&flags.concurrency, "concurrency", "j", 0, "Maximum documents decoded at once (0 = unbounded)")
	fs.IntVar(&flags.chunkSize, "chunk-size", 0, "Read size for archive entries in bytes")
	fs.StringVar(&flags.suffix, "suffix", "", "Entry name suffix that marks documents")
	fs.StringVar(&flags.filter, "filter", "", "CEL expression over entry.path, entry.name, entry.dir and entry.size")
	fs.StringVarP(&flags.query, "query", "q", "", "CEL expression over doc and filename applied to every document")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return rootCmd
}

// resolveConfig loads the config file, if any, and applies explicitly set flags on top
func resolveConfig(cmd *cobra.Command, flags rootFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.config != "" {
		loaded, err := config.Load(flags.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("format") {
		cfg.Format = flags.format
	}
	if changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if changed("chunk-size") {
		cfg.ChunkSize = flags.chunkSize
	}
	if changed("suffix") {
		cfg.Suffix = flags.suffix
	}
	if changed("filter") {
		cfg.Filter = flags.filter
	}
	if changed("query") {
		cfg.Query = flags.query
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func newLogger(w io.Writer, cfg config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func inputFor(arg string, stdin io.Reader) (manifest.Input, error) {
	if arg != "-" {
		return manifest.Input{Path: arg}, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return manifest.Input{}, fmt.Errorf("read stdin: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return manifest.Input{Data: data}, nil
}
