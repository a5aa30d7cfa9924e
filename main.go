package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// Entry point for the glue controller host.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gluectl",
		Short:         "Runs a glue controller under the setup/loop lifecycle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "path to the TOML configuration file")
	root.AddCommand(newRunCmd(), newHashTokenCmd(), newProfileCmd())
	return root
}

// loadConfig reads the file named by the --config flag.
func loadConfig(cmd *cobra.Command) (*ConfigManager, error) {
	path, _ := cmd.Flags().GetString("config")
	cfgMgr := NewConfigManager(path)
	if err := cfgMgr.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfgMgr, nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Boot the configured controller and poll it until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfgMgr)
		},
	}
}

func newHashTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-token <token>",
		Short: "Print a bcrypt hash for status.token_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := hashToken(args[0])
			if err != nil {
				return fmt.Errorf("hash token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newProfileCmd() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage named run profiles stored in the configuration file",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored profiles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			active := cfgMgr.Get().ActiveProfile
			out := cmd.OutOrStdout()
			for _, p := range cfgMgr.Profiles() {
				marker := " "
				if p.Name == active {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-20s %-10s %s\n", marker, p.Name, p.Controller, p.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Store the current run settings under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return cfgMgr.SaveProfile(args[0], time.Now())
		},
	}

	use := &cobra.Command{
		Use:   "use <name>",
		Short: "Apply a stored profile for the next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return cfgMgr.UseProfile(args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return cfgMgr.DeleteProfile(args[0])
		},
	}

	export := &cobra.Command{
		Use:   "export <name> [file]",
		Short: "Write a profile to a file, or to stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return cfgMgr.ExportProfile(args[0], cmd.OutOrStdout())
			}
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("export profile: %w", err)
			}
			if err := cfgMgr.ExportProfile(args[0], f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a profile written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgMgr, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("import profile: %w", err)
			}
			defer f.Close()
			name, err := cfgMgr.ImportProfile(f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", name)
			return nil
		},
	}

	profile.AddCommand(list, save, use, del, export, imp)
	return profile
}
