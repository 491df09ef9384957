package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	code, err := execute(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcserve terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// execute runs the command line and maps its outcome to an exit code.
func execute(args []string) (int, error) {
	code := exitOK
	root := newRootCmd(&code)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if code == exitOK {
			// Cobra refused the flags or arguments before any RunE
			code = exitConfig
		}
		return code, err
	}
	return code, nil
}

func newRootCmd(code *int) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "mcserve",
		Short: "Supervise a Minecraft server and publish its status on the web",
		Long: `mcserve spawns the Minecraft server, follows its log to know who is online,
restarts it when an operator asks for it and everyone logged off, and serves a
small status page with the latest chat.

Configuration is read from the environment (see .env.example).

Examples:
  mcserve                                  # Supervise with the environment configuration
  mcserve --env-file prod.env              # Load variables from a file first
  mcserve classify server.log              # Show how each log line is understood
  mcserve journal --limit 20               # Print the latest journaled events`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig(envFile)
			if err != nil {
				*code = exitConfig
				return err
			}
			*code, err = serve(cmd.Context(), config)
			return err
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "",
		"Load environment variables from this file (default: .env when present)")

	root.AddCommand(newClassifyCmd(code))
	root.AddCommand(newJournalCmd(code, &envFile))
	return root
}
