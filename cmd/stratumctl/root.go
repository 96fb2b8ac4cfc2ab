package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/danmuck/stratum/internal/config"
	"github.com/danmuck/stratum/internal/logging"
	"github.com/danmuck/stratum/internal/strategies"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stratumctl",
		Short:         "Compose priority-ordered strategies and run them tick by tick",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.ConfigureRuntime()
		},
	}
	root.AddCommand(newRunCmd(), newCheckCmd(), newKindsCmd(), newInitCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		path  string
		ticks uint64
		runID string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipelines declared in a config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ticks") {
				cfg.Ticks = ticks
			}
			if runID != "" {
				cfg.RunID = runID
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sum, err := runConfig(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d ticks, %d failures\n", sum.RunID, sum.Ticks, sum.Failures)
			for _, name := range sortedKeys(sum.Last) {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s = %g\n", name, sum.Last[name])
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "stratum.toml", "config file (.toml or .yaml)")
	cmd.Flags().Uint64Var(&ticks, "ticks", 0, "override the configured tick count")
	cmd.Flags().StringVar(&runID, "run-id", "", "override the generated run id")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a config file and print each pipeline in execution order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			reg, err := newRegistry()
			if err != nil {
				return err
			}
			lines, err := describePipelines(cfg, reg)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "config", "c", "stratum.toml", "config file (.toml or .yaml)")
	return cmd
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List builtin strategy kinds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, kind := range strategies.Builtins() {
				fmt.Fprintf(w, "%s\t%s\n", kind.Name, kind.Description)
			}
			return w.Flush()
		},
	}
}

func newInitCmd() *cobra.Command {
	var (
		format    string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "stratum." + format
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteTemplate(path, format, overwrite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", "template format (toml or yaml)")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	return cmd
}
