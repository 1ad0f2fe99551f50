package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prophyle/prophex-match/configs"
	"github.com/prophyle/prophex-match/internal/config"
	"github.com/prophyle/prophex-match/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage the user and project configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/prophex-match/config.yaml)
  3. Project config (.prophex-match.yaml in the working directory)
  4. Environment variables (PROPHEX_MATCH_*)
  5. Command-line flags`,
		Example: `  # Create user config from template
  prophex-match config init

  # Create a project config in the working directory
  prophex-match config init --project

  # Show effective configuration
  prophex-match config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user or project configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force, project)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration (a backup is kept)")
	cmd.Flags().BoolVar(&project, "project", false, "Act on "+config.ProjectConfigName+" in the working directory")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := resolveConfigTarget(project)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), t.path)
			return err
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Print the project config path")

	return cmd
}

func newConfigRestoreCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "restore [BACKUP]",
		Short: "Restore a config file from a backup",
		Long: `Restore the user (or, with --project, the project) configuration from a
backup made by 'config init --force' or an earlier restore. Without an
argument the newest backup is used. The file being replaced is backed up.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigRestore(cmd, args, project)
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Act on "+config.ProjectConfigName+" in the working directory")

	return cmd
}

// configTarget is the file 'config init' and 'config restore' act on.
type configTarget struct {
	path     string
	template string
	// keep is backup.keep from the merged config, or the default when the
	// config cannot be loaded (restore must work on a broken file).
	keep int
}

func resolveConfigTarget(project bool) (configTarget, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return configTarget{}, fmt.Errorf("failed to get current directory: %w", err)
	}

	t := configTarget{
		path:     config.GetUserConfigPath(),
		template: configs.UserConfigTemplate,
		keep:     config.DefaultBackupKeep,
	}
	if project {
		t.path = config.ProjectConfigPath(cwd)
		t.template = configs.ProjectConfigTemplate
	}
	if cfg, err := config.Load(cwd); err == nil {
		t.keep = cfg.Backup.Keep
	}
	return t, nil
}

func runConfigInit(cmd *cobra.Command, force, project bool) error {
	out := output.New(cmd.ErrOrStderr())
	t, err := resolveConfigTarget(project)
	if err != nil {
		return err
	}

	if _, err := os.Stat(t.path); err == nil {
		if !force {
			out.Warningf("configuration already exists at %s (use --force to replace it)", t.path)
			return nil
		}
		backupPath, err := config.Backup(t.path, t.keep)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Backup: %s\n", backupPath)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(t.path, []byte(t.template), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", t.path)
	return err
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	var cfg *config.Config

	switch source {
	case "merged":
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get current directory: %w", err)
		}
		cfg, err = config.Load(cwd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	case "defaults":
		cfg = config.NewConfig()
	default:
		return fmt.Errorf("invalid source: %s (use: merged, defaults)", source)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runConfigRestore(cmd *cobra.Command, args []string, project bool) error {
	t, err := resolveConfigTarget(project)
	if err != nil {
		return err
	}

	var backupPath string
	if len(args) == 1 {
		backupPath = args[0]
	} else {
		backups, err := config.ListBackups(t.path)
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(backups) == 0 {
			return fmt.Errorf("no backups found next to %s", t.path)
		}
		backupPath = backups[0]
	}

	if err := config.Restore(t.path, backupPath, t.keep); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", t.path, backupPath)
	return err
}
