package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/neurodesk/pagetmpl/pkg/config"
	"github.com/neurodesk/pagetmpl/pkg/tmpl"
	"github.com/spf13/cobra"
)

var (
	configPath string
	roots      []string
	verbose    bool
)

var rootCmd = cobra.Command{
	Use:           "pagetmpl",
	Short:         "Compile and render page templates",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
	},
}

// newEngine builds the engine from --config and --root. Roots given on the
// command line are searched after the configured ones.
func newEngine(opts ...tmpl.Option) (*tmpl.Engine, error) {
	if len(roots) > 0 {
		opts = append(opts, tmpl.WithDirs(roots...))
	}
	if configPath == "" {
		if len(roots) == 0 {
			return nil, errors.New("no template roots: pass --root or --config")
		}
		return tmpl.New(opts...), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg.Engine(opts...)
}

var renderCmd = cobra.Command{
	Use:   "render [template]",
	Short: "Render a template by name, or inline source, to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []tmpl.Option
		if strict, _ := cmd.Flags().GetBool("strict"); strict {
			opts = append(opts, tmpl.WithStrict(true))
		}
		e, err := newEngine(opts...)
		if err != nil {
			return err
		}

		dataPath, _ := cmd.Flags().GetString("data")
		data, err := loadData(dataPath)
		if err != nil {
			return err
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		overrides, err := parseSets(sets)
		if err != nil {
			return err
		}

		out, err := e.Render(args[0], data, overrides)
		if err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("output"); path != "" {
			if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var checkCmd = cobra.Command{
	Use:   "check [template ...]",
	Short: "Compile templates and report syntax errors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		failed := 0
		for _, name := range args {
			if _, err := e.Load(name); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n", err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates failed", failed, len(args))
		}
		return nil
	},
}

var treeCmd = cobra.Command{
	Use:   "tree [template]",
	Short: "Print the compiled node tree of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		t, err := e.Load(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), tmpl.Pretty(t.Root()))
		return err
	},
}

var blocksCmd = cobra.Command{
	Use:   "blocks [template]",
	Short: "List the blocks of a template and the templates defining them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		t, err := e.Load(args[0])
		if err != nil {
			return err
		}
		for _, title := range t.Blocks() {
			var ids []string
			for _, b := range t.BlockChain(title) {
				ids = append(ids, b.Token().TemplateID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", title, strings.Join(ids, " > "))
		}
		return nil
	},
}

var syntaxCmd = cobra.Command{
	Use:   "syntax",
	Short: "List the tags and filters templates may use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tags:    %s\n", strings.Join(e.Tags().Keywords(), " "))
		fmt.Fprintf(out, "filters: %s\n", strings.Join(e.Filters().Names(), " "))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a pagetmpl configuration file")
	rootCmd.PersistentFlags().StringArrayVar(&roots, "root", nil, "Template directory to search; may be repeated")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	renderCmd.Flags().String("data", "", "JSON or YAML file holding the render data")
	renderCmd.Flags().StringArray("set", nil, "Set a variable as KEY=VALUE; may be repeated")
	renderCmd.Flags().Bool("strict", false, "Fail on undefined variables")
	renderCmd.Flags().StringP("output", "o", "", "Write the result to a file instead of stdout")
	rootCmd.AddCommand(&renderCmd)

	rootCmd.AddCommand(&checkCmd)
	rootCmd.AddCommand(&treeCmd)
	rootCmd.AddCommand(&blocksCmd)
	rootCmd.AddCommand(&syntaxCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
