// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wingedpig/ideaforge/internal/app"
	"github.com/wingedpig/ideaforge/internal/config"
	"github.com/wingedpig/ideaforge/internal/gateway"
)

const configFile = "ideaforge.hjson"

type serveFlags struct {
	configPath string
	host       string
	port       int
	debug      bool
}

func newRootCmd() *cobra.Command {
	var flags serveFlags

	serve := func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, flags)
	}

	root := &cobra.Command{
		Use:   "ideaforge",
		Short: "ideaforge - AI-assisted brainstorming server",
		Long: `ideaforge runs the brainstorming workflow service: context input, schema
editing, idea generation, ranking and schema refinement on a shared canvas,
backed by a chat-completion model and a SQL database.

Run without a subcommand to start the server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file (default: auto-detect)")
	root.PersistentFlags().StringVar(&flags.host, "host", "", "HTTP server host (overrides config)")
	root.PersistentFlags().IntVar(&flags.port, "port", 0, "HTTP server port (overrides config)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the server (default)",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newInitCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "ideaforge %s\n", version)
			},
		},
	)

	return root
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	opts := app.Options{
		ConfigPath: flags.configPath,
		Host:       flags.host,
		Port:       flags.port,
		Debug:      flags.debug,
		Version:    version,
	}

	if opts.ConfigPath == "" {
		found, err := config.NewLoader().FindConfig()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "No %s found, using defaults (run \"ideaforge init\" to create one)\n", configFile)
			opts.Config = &config.Config{}
		} else {
			opts.ConfigPath = found
		}
	}

	application, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	return application.Run(cmd.Context())
}

func newInitCmd() *cobra.Command {
	var (
		force    bool
		defaults bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an " + configFile + " in the current directory",
		Long: `Create a new ` + configFile + ` configuration file in the current directory.

The command asks for the server port, the completion provider and model, and
the database. The generated file is commented to help you customize it.

After running init:
  1. Set your API key (OPENAI_API_KEY or GEMINI_API_KEY) or edit the file
  2. Run: ideaforge
  3. Open: http://localhost:<port>/api/v1/health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(configFile); err == nil {
					return fmt.Errorf("%s already exists; remove it first or pass --force", configFile)
				}
			}

			opts := config.StarterOptions{}
			if !defaults {
				opts = askStarter(bufio.NewReader(cmd.InOrStdin()), cmd.OutOrStdout())
			}

			if err := os.WriteFile(configFile, []byte(config.Starter(opts)), 0644); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Created %s\n", configFile)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")
	cmd.Flags().BoolVarP(&defaults, "yes", "y", false, "Accept all defaults without prompting")
	return cmd
}

func askStarter(reader *bufio.Reader, out io.Writer) config.StarterOptions {
	fmt.Fprintln(out, "ideaforge Configuration Setup")
	fmt.Fprintln(out, "=============================")
	fmt.Fprintln(out, "Press Enter to accept defaults shown in [brackets].")
	fmt.Fprintln(out)

	var opts config.StarterOptions

	portStr := prompt(reader, out, "Server port", strconv.Itoa(config.DefaultPort))
	if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port < 65536 {
		opts.Port = port
	}

	for {
		opts.Provider = strings.ToLower(prompt(reader, out, "Completion provider (openai, gemini, function)", "openai"))
		switch opts.Provider {
		case "openai", "gemini", "function":
		default:
			fmt.Fprintf(out, "  unknown provider %q\n", opts.Provider)
			continue
		}
		break
	}

	switch opts.Provider {
	case "openai":
		opts.Model = prompt(reader, out, "Model", config.DefaultModel)
	case "gemini":
		opts.Model = prompt(reader, out, "Model", gateway.DefaultGeminiModel)
	}

	db := prompt(reader, out, "Database (sqlite, or a postgres:// DSN)", "sqlite")
	if db != "sqlite" {
		opts.Database = db
	}
	return opts
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}
