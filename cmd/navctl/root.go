package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/comalice/navigatorx"
	"github.com/comalice/navigatorx/internal/config"
	"github.com/comalice/navigatorx/internal/extensibility"
	"github.com/comalice/navigatorx/internal/inspect"
	"github.com/comalice/navigatorx/internal/logging"
	"github.com/comalice/navigatorx/internal/primitives"
	"github.com/comalice/navigatorx/internal/production"
)

func newRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "navctl",
		Short: "Inspect and drive navigation declaration trees",
		Long: `navctl loads a navigation declaration tree (YAML or TOML), validates it,
resolves paths against it and replays navigation scripts, printing the
back stack after every step. serve exposes a live navigator over HTTP.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().String("config", "", "Engine config file (TOML)")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")

	validateCmd := &cobra.Command{
		Use:   "validate <tree>",
		Short: "Validate a declaration tree and print its graphs",
		Args:  cobra.ExactArgs(1),
		RunE:  runValidate,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <tree> <path>",
		Short: "Resolve a path to its destination and owning graph",
		Args:  cobra.ExactArgs(2),
		RunE:  runResolve,
	}

	runCmd := &cobra.Command{
		Use:   "run <tree> <script>",
		Short: "Replay a navigation script, printing the stack after each line",
		Args:  cobra.ExactArgs(2),
		RunE:  runScript,
	}
	runCmd.Flags().Bool("json", false, "Print the final state as JSON")
	runCmd.Flags().String("lang", "", "Localise breadcrumbs using the configured message files")

	dotCmd := &cobra.Command{
		Use:   "dot <tree> [script]",
		Short: "Print the tree as Graphviz DOT, optionally after replaying a script",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runDot,
	}

	serveCmd := &cobra.Command{
		Use:   "serve <tree>",
		Short: "Serve the HTTP inspector for a live navigator",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")

	rootCmd.AddCommand(validateCmd, resolveCmd, runCmd, dotCmd, serveCmd)
	return rootCmd
}

// env is what every command needs: settings, the loaded tree and a logger.
type env struct {
	cfg  config.Config
	tree *primitives.TreeFile
	log  zerolog.Logger
}

func loadEnv(cmd *cobra.Command, treePath string) (*env, error) {
	cfg := config.Default()
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read --config flag: %w", err)
	}
	if path = strings.TrimSpace(path); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, fmt.Errorf("failed to read --log-level flag: %w", err)
	}
	if level = strings.TrimSpace(level); level != "" {
		if _, ok := logging.ParseLevel(level); !ok {
			return nil, fmt.Errorf("unknown log level %q", level)
		}
		cfg.Log.Level = level
	}

	logCfg := cfg.Logging(logging.ProfileRuntime)
	logCfg.Out = cmd.ErrOrStderr()
	logging.ConfigureWith(logCfg)

	tree, err := config.LoadTree(treePath)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, tree: tree, log: logging.For("navctl")}, nil
}

// navigator builds a navigator wired from the config. timers controls the
// transition reset timers, which only make sense for long-running commands.
func (e *env) navigator(out func(string), timers bool, extra ...navigatorx.Option) (*navigatorx.Navigator, *production.PrometheusRecorder, error) {
	runner := extensibility.NewCompletionRunner()
	runner.Register("print", func(_ context.Context, r navigatorx.FlowResult) error {
		out(fmt.Sprintf("flow %s completed after %s", r.Route, r.Duration))
		return nil
	})
	recorder := production.NewPrometheusRecorder()

	opts := []navigatorx.Option{
		navigatorx.WithLogger(e.log),
		navigatorx.WithTransitionTimers(timers && e.cfg.Transitions.Timers),
		navigatorx.WithDimAlpha(e.cfg.Transitions.DimAlpha),
		navigatorx.WithVisualizer(&production.DefaultVisualizer{}),
		navigatorx.WithMetrics(recorder),
		navigatorx.WithCompletionRunner(extensibility.NewLoggingCompletionRunner(runner, e.log)),
	}
	if dir := e.cfg.Persist.Dir; dir != "" {
		p, err := production.NewPersister(e.cfg.Persist.Format, dir)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, navigatorx.WithPersister(p))
	}
	nav, err := navigatorx.NewFromTree(e.tree, append(opts, extra...)...)
	if err != nil {
		return nil, nil, err
	}
	return nav, recorder, nil
}

func (e *env) labeler() (*production.Labeler, error) {
	l, err := production.NewLabeler(e.cfg.I18n.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	for _, f := range e.cfg.I18n.Files {
		if err := l.LoadFile(f); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd, args[0])
	if err != nil {
		return err
	}
	nav, _, err := e.navigator(func(string) {}, false)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, okStyle.Render("valid")+" "+args[0]+" "+dimStyle.Render("version "+nav.Snapshot().TreeVersion))
	_ = e.tree.Root.Walk(func(g *primitives.Graph, parents []*primitives.Graph) error {
		indent := strings.Repeat("  ", len(parents))
		fmt.Fprintf(w, "%s%s %s\n", indent, graphStyle.Render(g.ID), dimStyle.Render(startLabel(g.Start)))
		for _, d := range g.Destinations {
			fmt.Fprintf(w, "%s  %s\n", indent, destinationLabel(d))
		}
		return nil
	})
	for _, name := range nav.Flows() {
		def, _ := nav.EffectiveFlow(name)
		fmt.Fprintf(w, "flow %s: %d steps\n", flowStyle.Render(name), len(def.Steps))
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd, args[0])
	if err != nil {
		return err
	}
	nav, _, err := e.navigator(func(string) {}, false)
	if err != nil {
		return err
	}
	res, err := nav.Resolve(navigatorx.Path(args[1]))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s -> %s in graph %s\n", args[1], destinationLabel(res.Destination), graphStyle.Render(res.GraphID))
	if res.NavigatedGraphID != "" {
		fmt.Fprintf(w, "  via graph %s\n", graphStyle.Render(res.NavigatedGraphID))
	}
	for _, k := range res.Params.Keys() {
		fmt.Fprintf(w, "  %s = %v\n", k, res.Params[k])
	}
	return nil
}

func runScript(cmd *cobra.Command, args []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to read --json flag: %w", err)
	}
	lang, err := cmd.Flags().GetString("lang")
	if err != nil {
		return fmt.Errorf("failed to read --lang flag: %w", err)
	}
	e, err := loadEnv(cmd, args[0])
	if err != nil {
		return err
	}
	lines, err := readScript(args[1])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	nav, _, err := e.navigator(func(s string) { fmt.Fprintln(w, flowStyle.Render(s)) }, false)
	if err != nil {
		return err
	}
	var label func([]navigatorx.Breadcrumb) []navigatorx.Breadcrumb
	if lang != "" {
		l, err := e.labeler()
		if err != nil {
			return err
		}
		label = func(c []navigatorx.Breadcrumb) []navigatorx.Breadcrumb { return l.Label(c, lang) }
	}

	failed := 0
	for _, line := range lines {
		state, err := line.run(nav)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%s %s\n", errStyle.Render(fmt.Sprintf("line %d:", line.num)), err)
			continue
		}
		fmt.Fprintln(w, renderState(state, label))
	}
	if asJSON {
		if err := writeJSON(w, nav.State()); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d script lines failed", failed, len(lines))
	}
	return nil
}

func runDot(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd, args[0])
	if err != nil {
		return err
	}
	nav, _, err := e.navigator(func(string) {}, false)
	if err != nil {
		return err
	}
	if len(args) == 2 {
		lines, err := readScript(args[1])
		if err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := line.run(nav); err != nil {
				return fmt.Errorf("line %d: %w", line.num, err)
			}
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), nav.Visualize())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to read --addr flag: %w", err)
	}
	e, err := loadEnv(cmd, args[0])
	if err != nil {
		return err
	}
	if addr = strings.TrimSpace(addr); addr == "" {
		addr = e.cfg.Inspect.Addr
	}

	store := production.NewMemoryStore()
	defer store.Close()
	nav, recorder, err := e.navigator(func(s string) { e.log.Info().Msg(s) }, true, navigatorx.WithStore(store))
	if err != nil {
		return err
	}
	opts := []inspect.Option{
		inspect.WithLogger(logging.For("inspect")),
		inspect.WithMetricsHandler(recorder.Handler()),
	}
	if l, err := e.labeler(); err == nil {
		opts = append(opts, inspect.WithLabeler(l))
	} else {
		e.log.Warn().Err(err).Msg("breadcrumb labels disabled")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return inspect.New(nav, opts...).ListenAndServe(ctx, addr)
}
