package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oklog/run"
	"github.com/spf13/cobra"

	"exthub/internal/bootstrap"
	registrydto "exthub/internal/modules/registry/dto"
	supervisordto "exthub/internal/modules/supervisor/dto"
	"exthub/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var hubPath string

	root := &cobra.Command{
		Use:           "exthub",
		Short:         "Extension runtime hub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&hubPath, "hub", ".", "hub directory path")

	root.AddCommand(newPluginCmd(&hubPath))
	root.AddCommand(newServerCmd(&hubPath))
	root.AddCommand(newSessionCmd(&hubPath))
	root.AddCommand(newServeCmd(&hubPath))
	return root
}

func loadApp(hubPath string) (*bootstrap.App, error) {
	cfg, err := config.New(hubPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func newPluginCmd(hubPath *string) *cobra.Command {
	plugin := &cobra.Command{Use: "plugin", Short: "Plugin registry operations"}

	plugin.AddCommand(&cobra.Command{
		Use:   "register <package-path>",
		Short: "Register a plugin from a package directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			info, err := app.RegistryCLI.RegisterFromPath(context.Background(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "registered %s@%s (%s)\n", info.Name, info.Version, info.ID)
			return nil
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered plugins",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			plugins, err := app.RegistryCLI.List(context.Background())
			if err != nil {
				return err
			}
			if len(plugins) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no plugins registered")
				return nil
			}
			for _, p := range plugins {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s@%s\tenabled=%t\tstatus=%s\ttransport=%s\n", p.ID, p.Name, p.Version, p.Enabled, p.Status, p.Transport)
			}
			return nil
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "enable <id>",
		Short: "Enable a registered plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			if err := app.RegistryCLI.Enable(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "enabled %s\n", args[0])
			return nil
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "disable <id>",
		Short: "Disable a plugin without removing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			if err := app.RegistryCLI.Disable(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "disabled %s\n", args[0])
			return nil
		},
	})

	plugin.AddCommand(&cobra.Command{
		Use:   "uninstall <id>",
		Short: "Remove a plugin from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			if err := app.RegistryCLI.Uninstall(context.Background(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uninstalled %s\n", args[0])
			return nil
		},
	})

	configCmd := &cobra.Command{Use: "config", Short: "Plugin configuration"}
	configCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a plugin's stored configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			cfg, err := app.RegistryCLI.GetConfig(context.Background(), args[0])
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		},
	})
	var configJSON string
	setCmd := &cobra.Command{
		Use:   "set <id> --json <config>",
		Short: "Replace a plugin's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseConfigJSON(configJSON)
			if err != nil {
				return err
			}
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			if err := app.RegistryCLI.UpdateConfig(context.Background(), args[0], cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "config updated for %s\n", args[0])
			return nil
		},
	}
	setCmd.Flags().StringVar(&configJSON, "json", "", "configuration as a JSON object")
	configCmd.AddCommand(setCmd)
	plugin.AddCommand(configCmd)

	var updatePackage, updateConfigJSON string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a plugin from a package or apply a partial change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := registrydto.UpdateInput{ID: args[0], PackagePath: updatePackage}
			if updateConfigJSON != "" {
				cfg, err := parseConfigJSON(updateConfigJSON)
				if err != nil {
					return err
				}
				input.Config = cfg
			}
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			info, err := app.RegistryCLI.Update(context.Background(), input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "updated %s@%s (%s)\n", info.Name, info.Version, info.ID)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&updatePackage, "package", "", "package directory with a new manifest")
	updateCmd.Flags().StringVar(&updateConfigJSON, "json", "", "configuration as a JSON object")
	plugin.AddCommand(updateCmd)

	plugin.AddCommand(&cobra.Command{
		Use:   "probe <id>",
		Short: "Briefly host a plugin to verify its lifecycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			result, err := app.RegistryCLI.Probe(context.Background(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s healthy=%t", result.ID, result.Healthy)
			if result.Detail != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " detail=%q", result.Detail)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			for _, command := range result.Commands {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", command)
			}
			return nil
		},
	})

	return plugin
}

func newServerCmd(hubPath *string) *cobra.Command {
	server := &cobra.Command{Use: "server", Short: "Stdio server supervision"}

	var startCommand, startDir string
	var startArgs []string
	var startEnv map[string]string
	startCmd := &cobra.Command{
		Use:   "start <server-id>",
		Short: "Start a supervised stdio server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(startCommand) == "" {
				return fmt.Errorf("--cmd is required")
			}
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			info, err := app.SupervisorCLI.Start(context.Background(), supervisordto.StartInput{
				ServerID: args[0],
				Command:  startCommand,
				Args:     startArgs,
				Env:      startEnv,
				Dir:      startDir,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started %s pid=%d\n", info.ServerID, info.PID)
			return nil
		},
	}
	startCmd.Flags().StringVar(&startCommand, "cmd", "", "executable to run")
	startCmd.Flags().StringSliceVar(&startArgs, "args", nil, "arguments for the executable")
	startCmd.Flags().StringToStringVar(&startEnv, "env", nil, "extra environment variables")
	startCmd.Flags().StringVar(&startDir, "dir", "", "working directory")
	server.AddCommand(startCmd)

	server.AddCommand(&cobra.Command{
		Use:   "stop <server-id>",
		Short: "Stop a supervised server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			stopped, err := app.SupervisorCLI.Stop(context.Background(), args[0])
			if err != nil {
				return err
			}
			if !stopped {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s was not running\n", args[0])
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "stopped %s\n", args[0])
			return nil
		},
	})

	server.AddCommand(&cobra.Command{
		Use:   "stop-all",
		Short: "Stop every supervised server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			app.SupervisorCLI.StopAll(context.Background())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "all servers stopped")
			return nil
		},
	})

	server.AddCommand(&cobra.Command{
		Use:   "status <server-id>",
		Short: "Show the state of a supervised server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			info := app.SupervisorCLI.Status(context.Background(), args[0])
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s state=%s", args[0], info.State)
			if info.PID > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " pid=%d", info.PID)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	})

	server.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List supervised servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			servers := app.SupervisorCLI.List(context.Background())
			if len(servers) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no servers running")
				return nil
			}
			for _, s := range servers {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tstate=%s\tpid=%d\n", s.ServerID, s.State, s.PID)
			}
			return nil
		},
	})

	return server
}

func newSessionCmd(hubPath *string) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Client session handles"}

	session.AddCommand(&cobra.Command{
		Use:   "new",
		Short: "Create a session under a fresh id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			info, err := app.SessionCLI.Create(context.Background())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), info.ID)
			return nil
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "ensure <id>",
		Short: "Return the session for id, creating it when absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			out, err := app.SessionCLI.GetOrCreate(context.Background(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s created=%t\n", out.ID, out.Created)
			return nil
		},
	})

	session.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}
			info, err := app.SessionCLI.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s created_at=%s\n", info.ID, info.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
			return nil
		},
	})

	return session
}

func newServeCmd(hubPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the hub until interrupted, then stop all servers",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*hubPath)
			if err != nil {
				return err
			}

			done := make(chan struct{})
			var group run.Group
			group.Add(run.SignalHandler(context.Background(), os.Interrupt))
			group.Add(func() error {
				<-done
				return nil
			}, func(error) {
				app.SupervisorCLI.StopAll(context.Background())
				close(done)
			})

			err = group.Run()
			var sig run.SignalError
			if errors.As(err, &sig) {
				app.Logger.Info("shutting down", "signal", sig.Signal)
				return nil
			}
			return err
		},
	}
}

func parseConfigJSON(payload string) (map[string]any, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, fmt.Errorf("--json is required")
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
		return nil, fmt.Errorf("--json must be a JSON object: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("--json must be a JSON object, not null")
	}
	return cfg, nil
}
