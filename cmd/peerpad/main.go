package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"peerpad/internal/bootstrap"
	"peerpad/internal/platform/config"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	username   string
	dataDir    string
	iface      string
	port       int
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "peerpad",
		Short:         "Peer-to-peer collaborative editing node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&flags.username, "username", "", "username shown to peers")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "state directory")
	root.PersistentFlags().StringVar(&flags.iface, "interface", "", "listen interface")
	root.PersistentFlags().IntVar(&flags.port, "port", 0, "listen port")

	root.AddCommand(newChatCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newActivityCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	var cfg config.Config
	var err error
	if flags.configPath != "" {
		cfg, err = config.Load(flags.configPath)
	} else {
		cfg, err = config.New(flags.username, flags.dataDir)
	}
	if err != nil {
		return config.Config{}, err
	}
	if flags.username != "" {
		cfg.Username = flags.username
	}
	if flags.iface != "" {
		cfg.Interface = flags.iface
	}
	if flags.port != 0 {
		cfg.Port = flags.port
	}
	return cfg, nil
}

// shareAndConnect applies the startup flags shared by chat and serve: share
// a project, or join one on a remote host. The commands queue before the
// loop starts and execute on its first iteration.
func shareAndConnect(app *bootstrap.App, share, connect, project, password string) error {
	hasPassword := password != ""
	if share != "" {
		if err := app.CollabCLI.ShareProject(share, password, hasPassword); err != nil {
			return err
		}
	}
	if connect != "" {
		if project == "" {
			return fmt.Errorf("--project is required with --connect")
		}
		host, portRaw, err := net.SplitHostPort(connect)
		if err != nil {
			return fmt.Errorf("parse --connect %q: %w", connect, err)
		}
		port, err := strconv.Atoi(portRaw)
		if err != nil {
			return fmt.Errorf("parse --connect port %q: %w", portRaw, err)
		}
		if err := app.CollabCLI.Connect(host, port, project, password, hasPassword); err != nil {
			return err
		}
	}
	return nil
}

func newChatCmd(flags *rootFlags) *cobra.Command {
	var share, connect, project, password string

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Run a node with the chat terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := shareAndConnect(app, share, connect, project, password); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunChat(ctx, app)
		},
	}
	chat.Flags().StringVar(&share, "share", "", "share a project under this name")
	chat.Flags().StringVar(&connect, "connect", "", "host:port of a member to join through")
	chat.Flags().StringVar(&project, "project", "", "project to join with --connect")
	chat.Flags().StringVar(&password, "password", "", "project password")
	return chat
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var share, connect, project, password string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run a headless node that relays and journals",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := shareAndConnect(app, share, connect, project, password); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunHeadless(ctx, app)
		},
	}
	serve.Flags().StringVar(&share, "share", "", "share a project under this name")
	serve.Flags().StringVar(&connect, "connect", "", "host:port of a member to join through")
	serve.Flags().StringVar(&project, "project", "", "project to join with --connect")
	serve.Flags().StringVar(&password, "password", "", "project password")
	return serve
}

func newActivityCmd(flags *rootFlags) *cobra.Command {
	var project string
	var limit int

	activity := &cobra.Command{
		Use:   "activity",
		Short: "Print the tail of the local activity journal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			events, err := app.CollabCLI.ActivityTail(context.Background(), project, limit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no activity")
				return nil
			}
			for _, e := range events {
				line := fmt.Sprintf("%s\t%s\t%s\t%s",
					e.OccurredAt.Format("2006-01-02 15:04:05"), e.Project, e.Kind, e.Actor)
				if e.Text != "" {
					line += "\t" + strings.ReplaceAll(e.Text, "\n", " ")
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	activity.Flags().StringVar(&project, "project", "", "filter by project")
	activity.Flags().IntVar(&limit, "limit", 50, "maximum events to print")
	return activity
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "peerpad "+version)
		},
	}
}
