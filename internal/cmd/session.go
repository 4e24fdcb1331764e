package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/faize-ai/dplaunch/internal/address"
	"github.com/faize-ai/dplaunch/internal/callback"
	"github.com/faize-ai/dplaunch/internal/config"
	"github.com/faize-ai/dplaunch/internal/guid"
	"github.com/faize-ai/dplaunch/internal/launch"
	"github.com/faize-ai/dplaunch/internal/runner"
	"github.com/faize-ai/dplaunch/internal/session"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sessionOptions holds the flags shared by host and join.
type sessionOptions struct {
	player      string
	provider    string
	application string
	addresses   []string
	sessionName string
	password    string
	dir         string
	relay       bool
	dryRun      bool
}

func addSessionFlags(cmd *cobra.Command, o *sessionOptions) {
	cmd.Flags().StringVar(&o.player, "player", "", "in-game player name (default from config)")
	cmd.Flags().StringVar(&o.provider, "provider", "", "service provider GUID or alias, e.g. TCPIP (default from config)")
	cmd.Flags().StringVarP(&o.application, "application", "a", "", "GUID of the game to start")
	cmd.Flags().StringArrayVar(&o.addresses, "address", []string{}, "address part KEY=VALUE, VALUE may be i:<int> or b:<hex> (repeatable)")
	cmd.Flags().StringVar(&o.sessionName, "session-name", "", "name of the session")
	cmd.Flags().StringVar(&o.password, "session-password", "", "password protect the session")
	cmd.Flags().StringVarP(&o.dir, "dir", "C", "", "directory containing dprun.exe (default from config, then current directory)")
	cmd.Flags().BoolVar(&o.relay, "relay", false, "relay DirectPlay messages through the local callback server (DPRUN provider)")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the dprun command without running it")
	_ = cmd.MarkFlagRequired("application")
}

// buildSpec turns flags and config into a session spec. mode has already been
// applied to b.
func buildSpec(cmd *cobra.Command, b *session.Builder, o *sessionOptions, cfg *config.Config, logger *zap.SugaredLogger) (*session.Spec, error) {
	player := o.player
	if player == "" {
		player = cfg.Defaults.PlayerName
	}
	if player != "" {
		b.PlayerName(player)
	}

	app, err := guid.Parse(o.application)
	if err != nil {
		return nil, fmt.Errorf("invalid --application: %w", err)
	}
	if app.IsZero() {
		return nil, errors.New("invalid --application: the nil GUID does not identify a game")
	}
	b.Application(app)

	switch {
	case o.provider != "":
		setProvider(b, guid.ParseRef(o.provider))
	case !o.relay && cfg.Defaults.Provider != "":
		setProvider(b, guid.ParseRef(cfg.Defaults.Provider))
	}
	if o.relay {
		b.Handler(callback.NewLogHandler(logger.Named("relay")))
	}

	for _, token := range o.addresses {
		part, err := address.Parse(token)
		if err != nil {
			return nil, fmt.Errorf("invalid --address: %w", err)
		}
		b.Part(part)
	}

	if cmd.Flags().Changed("session-name") {
		b.SessionName(o.sessionName)
	}
	if cmd.Flags().Changed("session-password") {
		b.SessionPassword(o.password)
	}

	dir := o.dir
	if dir == "" {
		dir = cfg.DPRun.Dir
	}
	if dir != "" {
		resolved, err := launch.ResolveDir(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid --dir: %w", err)
		}
		b.Dir(resolved)
	}

	return b.Finish()
}

func setProvider(b *session.Builder, ref guid.Ref) {
	if g, ok := ref.GUID(); ok {
		b.ServiceProvider(g)
		return
	}
	name, _ := ref.Alias()
	b.NamedServiceProvider(name)
}

func newAssembler(cfg *config.Config) *launch.Assembler {
	return &launch.Assembler{
		Executable:   cfg.DPRun.Executable,
		Shim:         cfg.DPRun.Shim,
		UseShim:      cfg.DPRun.ShouldUseShim(),
		CallbackPort: cfg.Callback.Port,
	}
}

// runSession builds the spec, runs dprun and records the outcome.
func runSession(cmd *cobra.Command, b *session.Builder, o *sessionOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	Debug("Config loaded successfully")

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	spec, err := buildSpec(cmd, b, o, cfg, logger)
	if err != nil {
		return err
	}

	plan := newAssembler(cfg).Assemble(spec)
	Debug("Session configuration:")
	Debug("  Mode: %s", spec.Mode())
	Debug("  Player: %s", spec.PlayerName())
	Debug("  Provider: %s", spec.Provider())
	Debug("  Application: %s", spec.Application())
	Debug("  Address parts: %d", len(spec.Address()))
	if spec.HasHandler() {
		Debug("  Callback server: %s:%d", cfg.Callback.Host, plan.CallbackPort)
	}

	if spec.Dir() != "" && !launch.HasExecutable(spec.Dir(), cfg.DPRun.Executable) {
		logger.Warnw("dprun executable not found in working directory",
			"dir", spec.Dir(),
			"executable", cfg.DPRun.Executable,
		)
	}

	if o.dryRun {
		tokens := plan.Redacted()
		shown := launch.Plan{Program: tokens[0], Args: tokens[1:]}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), shown.String())
		return nil
	}

	record := session.NewRecord(uuid.New().String()[:8], spec)
	record.Program = plan.Program
	record.Args = plan.Redacted()[1:]
	record.CallbackPort = plan.CallbackPort

	store, storeErr := session.NewStore()
	if storeErr != nil {
		Debug("Session history disabled: %v", storeErr)
	} else if saveErr := store.Save(record); saveErr != nil {
		Debug("Failed to save session: %v", saveErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithCallbackHost(cfg.Callback.Host),
		runner.WithStdio(os.Stdin, os.Stdout, os.Stderr),
	}
	if spec.HasHandler() {
		opts = append(opts, runner.WithHandler(spec.Handler()))
	}

	fmt.Printf("Session %s | %s | %s as %s\n", record.ID, spec.Mode(), spec.Application(), spec.PlayerName())
	runErr := runner.New(plan, opts...).Run(ctx)

	reason, code := outcome(runErr, ctx.Err() != nil)
	record.Stop(reason, code)
	if store != nil {
		if saveErr := store.Save(record); saveErr != nil {
			Debug("Failed to save session: %v", saveErr)
		}
	}

	return runErr
}

// outcome maps a run result to the exit reason and code stored in the record.
func outcome(err error, interrupted bool) (string, *int) {
	if err == nil {
		code := 0
		return session.ExitNormal, &code
	}

	var startErr *runner.StartError
	if errors.As(err, &startErr) {
		return session.ExitStartFailed, nil
	}

	var exitErr *runner.ExitError
	var code *int
	if errors.As(err, &exitErr) && exitErr.HasCode {
		c := exitErr.Code
		code = &c
	}
	if interrupted {
		return session.ExitInterrupted, code
	}
	return session.ExitFailed, code
}
