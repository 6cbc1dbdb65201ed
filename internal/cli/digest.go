package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/crate-digest/internal/clipboard"
	"github.com/mvp-joe/crate-digest/internal/config"
	"github.com/mvp-joe/crate-digest/internal/digest"
	"github.com/mvp-joe/crate-digest/internal/discovery"
	"github.com/mvp-joe/crate-digest/internal/parsers"
	"github.com/mvp-joe/crate-digest/internal/picker"
	"github.com/mvp-joe/crate-digest/internal/rewrite"
	"github.com/mvp-joe/crate-digest/internal/selection"
)

const copiedMessage = "Content copied to clipboard! You can now paste it into your favorite AI assistant."

// digestOptions holds the root command's flags.
type digestOptions struct {
	functions      bool
	generateConfig bool
	readme         bool
	toml           bool
	all            bool
	only           bool
	print          bool
}

var digestFlags digestOptions

// digestEnv is everything a digest run needs besides its options.
type digestEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	sink   clipboard.Sink // nil means the system clipboard
	picker selection.Picker
	quiet  bool
}

func runDigest(cmd *cobra.Command, args []string) error {
	if digestFlags.generateConfig {
		path, err := config.GenerateDefault(cfgFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated config file at: %s\n", path)
		return nil
	}

	cfg, err := setup()
	if err != nil {
		return err
	}

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	env := digestEnv{
		stdin:  cmd.InOrStdin(),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		quiet:  quiet,
	}
	return executeDigest(cmd.Context(), cfg, root, digestFlags, env)
}

// executeDigest performs one digest of root and reports the outcome.
func executeDigest(ctx context.Context, cfg *config.Config, root string, flags digestOptions, env digestEnv) error {
	match, err := rewrite.ParseMatchMode(cfg.Selection.Match)
	if err != nil {
		return err
	}

	sink := env.sink
	if flags.print {
		sink = clipboard.NewWriter(env.stdout)
	} else if sink == nil {
		sink = clipboard.NewSystem()
	}

	historyPath, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	pick := env.picker
	if pick == nil {
		pick = picker.NewChecklist(env.stdin, env.stderr)
	}

	runner, closeRunner, err := newRunner(cfg, root, allowList(cfg, flags),
		digest.WithSelector(selection.NewSelector(selection.NewFileStore(historyPath), pick)),
		digest.WithSink(sink),
		digest.WithProgress(newProgressReporter(env.stderr, env.quiet)),
		digest.WithWarningHandler(func(msg string) { fmt.Fprintln(env.stderr, msg) }),
	)
	if err != nil {
		return err
	}
	defer closeRunner()

	result, err := runner.Run(ctx, digest.Options{
		Root:      root,
		Functions: flags.functions,
		Only:      flags.only,
		All:       flags.all,
		Match:     match,
	})
	if err != nil {
		return err
	}

	if result.Notice != "" {
		fmt.Fprintln(env.stderr, result.Notice)
		return nil
	}
	if !flags.print {
		fmt.Fprintln(env.stderr, copiedMessage)
	}
	return nil
}

// allowList returns the files a digest considers: Rust sources plus the
// README and manifest when requested by flag or config.
func allowList(cfg *config.Config, flags digestOptions) discovery.AllowList {
	allow := discovery.AllowList{Extensions: []string{"rs"}}
	if flags.all || flags.readme || cfg.IncludeReadme() {
		allow.Names = append(allow.Names, "README.md")
	}
	if flags.all || flags.toml || cfg.IncludeManifest() {
		allow.Names = append(allow.Names, "Cargo.toml")
	}
	return allow
}

// newRunner wires discovery and a cached Rust parser into a digest.Runner.
// The returned func releases the parse cache.
func newRunner(cfg *config.Config, root string, allow discovery.AllowList, opts ...digest.RunnerOption) (*digest.Runner, func(), error) {
	fd, err := discovery.NewFileDiscovery(root, allow, cfg.Paths.Ignore)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file discovery: %w", err)
	}

	extractor, err := parsers.NewCachedExtractor(parsers.NewRustParser(), parsers.DefaultCacheCapacity)
	if err != nil {
		return nil, nil, err
	}

	return digest.NewRunner(fd, extractor, opts...), extractor.Close, nil
}
