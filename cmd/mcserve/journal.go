package main

import (
	"fmt"
	"io"
	"mcserve/domain/event"
	"mcserve/repositories"

	"github.com/bytedance/sonic"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/renameio/v2"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

func newJournalCmd(code *int, envFile *string) *cobra.Command {
	var limit int
	var export string
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the journaled events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig(*envFile)
			if err != nil {
				*code = exitConfig
				return err
			}
			if config.BadgerFilepath == "" {
				*code = exitConfig
				return fmt.Errorf("BADGER_FILEPATH is not set, nothing is journaled")
			}

			// BypassLockGuard allows reading while the supervisor holds the lock
			db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
				WithReadOnly(true).
				WithBypassLockGuard(true).
				WithLoggingLevel(badger.WARNING))
			if err != nil {
				*code = exitRuntime
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			log := logs.GetLoggerFromString(config.LogLevel)
			events, err := readJournal(repositories.NewEventRepository(db, log, config.JournalPageSize), limit)
			if err != nil {
				*code = exitRuntime
				return err
			}

			if export != "" {
				if err := exportJournal(export, events); err != nil {
					*code = exitRuntime
					return err
				}
				log.Info("Journal exported", "path", export, "events", len(events))
				return nil
			}
			printJournal(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of events to read (0 = all)")
	cmd.Flags().StringVar(&export, "export", "", "Write the events as JSON to this file instead of printing them")
	return cmd
}

// readJournal follows the cursor until limit events are read or the journal is exhausted.
func readJournal(repository repositories.IEventRepository, limit int) ([]repositories.DiskEvent, error) {
	var events []repositories.DiskEvent
	var cursor *string
	for {
		page, next, err := repository.GetEvents(cursor)
		if err != nil {
			return nil, err
		}
		events = append(events, page...)
		if limit > 0 && len(events) >= limit {
			return events[:limit], nil
		}
		if next == nil {
			return events, nil
		}
		cursor = next
	}
}

func exportJournal(path string, events []repositories.DiskEvent) error {
	data, err := sonic.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, data, 0o644)
}

func printJournal(out io.Writer, events []repositories.DiskEvent) {
	table := newTable(out, []string{"At", "Kind", "Who", "Detail"})
	for _, e := range events {
		table.Append([]string{e.At.Local().Format("2006-01-02 15:04:05"), string(e.Kind), e.Who, describe(e)})
	}
	table.Render()
}

func describe(e repositories.DiskEvent) string {
	switch e.Kind {
	case event.ChatPostedKind:
		return e.Text
	case event.PresenceChangedKind:
		if e.Joined {
			return "joined"
		}
		return "left: " + e.Cause
	case event.RestartRequestedKind:
		return "requested restart"
	case event.RestartExecutedKind:
		return "server restart"
	default:
		return ""
	}
}
