package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagekit/internal/browser/driver"
	"github.com/xkilldash9x/pagekit/internal/browser/provision"
	"github.com/xkilldash9x/pagekit/internal/browser/registry"
	"github.com/xkilldash9x/pagekit/internal/config"
	"github.com/xkilldash9x/pagekit/internal/interaction"
	"github.com/xkilldash9x/pagekit/internal/observability"
)

// newProvisioner is replaced in tests to avoid starting a real browser.
var newProvisioner = func(logger *zap.Logger) (registry.Provisioner, error) {
	return provision.New(logger)
}

type checkOptions struct {
	selector string
	text     string
	timeout  time.Duration
}

func newCheckCmd() *cobra.Command {
	opts := checkOptions{}
	cmd := &cobra.Command{
		Use:   "check [url]",
		Short: "Provision a browser session and verify it can drive a page",
		Long: `check provisions one session with the resolved configuration, the same
way a test run does. With a URL it navigates there, and with --selector it
waits for that element, additionally comparing its text when --text is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			var url string
			if len(args) == 1 {
				url = args[0]
			}
			return runCheck(cmd, cfg, url, opts)
		},
	}
	cmd.Flags().StringVar(&opts.selector, "selector", "", "CSS selector that must become ready")
	cmd.Flags().StringVar(&opts.text, "text", "", "text the selected element must contain")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "wait timeout (default wait.timeout)")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg config.Config, url string, opts checkOptions) error {
	if opts.text != "" && opts.selector == "" {
		return fmt.Errorf("--text requires --selector")
	}
	ctx := cmd.Context()
	logger := observability.GetLogger().Named("check")

	prov, err := newProvisioner(logger)
	if err != nil {
		return err
	}
	reg := registry.New(logger, cfg, prov)
	defer func() {
		if err := reg.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Could not release session", zap.Error(err))
		}
	}()

	worker := registry.NewWorkerID()
	session, err := reg.Acquire(ctx, worker)
	if err != nil {
		return fmt.Errorf("provisioning %s: %w", cfg.Browser, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s ready (%s, %s)\n", session.ID, session.Browser, session.Mode)

	sink := observability.NewDiagnosticSink(logger)
	sink.Banner = true
	ops := interaction.New(reg, worker,
		interaction.WithLogger(logger),
		interaction.WithSink(sink),
		interaction.WithTiming(cfg.Wait),
	)

	if url != "" {
		if err := ops.URL(ctx, url); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %s\n", url)
	}
	if opts.selector == "" {
		return nil
	}

	loc := driver.CSS(opts.selector)
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = cfg.Wait.Timeout
	}
	if err := ops.AwaitElementFor(ctx, loc, timeout, opts.selector); err != nil {
		return err
	}
	if opts.text != "" {
		if err := ops.PageValidation(ctx, loc, opts.text, opts.selector); err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is ready\n", opts.selector)
	return nil
}
