package main

import (
	"bufio"
	"fmt"
	"io"
	"mcserve/classifier"
	"mcserve/domain/event"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newClassifyCmd(code *int) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "classify [log file]",
		Short: "Show how each server log line is classified (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := io.Reader(os.Stdin)
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					*code = exitConfig
					return err
				}
				defer f.Close()
				in = f
			}
			if err := classifyLines(in, cmd.OutOrStdout(), all); err != nil {
				*code = exitRuntime
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Also list the lines no rule matched")
	return cmd
}

type classifiedLine struct {
	number int
	result classifier.Result
	line   string
}

func classifyLines(in io.Reader, out io.Writer, all bool) error {
	c := classifier.Default()
	var lines []classifiedLine

	scanner := bufio.NewScanner(in)
	for n := 1; scanner.Scan(); n++ {
		lines = append(lines, classifiedLine{
			number: n,
			result: c.Classify(scanner.Text(), time.Now()),
			line:   scanner.Text(),
		})
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	table := newTable(out, []string{"Line", "Rule", "Who", "Detail"})
	for _, l := range lines {
		if !l.result.Matched() && !all {
			continue
		}
		table.Append([]string{strconv.Itoa(l.number), ruleLabel(l.result), who(l.result), detail(l)})
	}
	table.Render()

	matched := lo.CountBy(lines, func(l classifiedLine) bool { return l.result.Matched() })
	_, err := fmt.Fprintf(out, "\n%d lines, %d matched, %d unmatched\n", len(lines), matched, len(lines)-matched)
	return err
}

func ruleLabel(res classifier.Result) string {
	switch {
	case !res.Matched():
		return color.New(color.FgGray).Render("-")
	case res.Command != nil:
		return color.New(color.BgBlack, color.FgYellow).Render(res.Rule)
	default:
		return color.New(color.BgBlack, color.FgGreen).Render(res.Rule)
	}
}

func who(res classifier.Result) string {
	if res.Command != nil {
		return res.Command.Issuer
	}
	if res.Event != nil {
		return event.Identity(res.Event)
	}
	return ""
}

func detail(l classifiedLine) string {
	res := l.result
	if res.Command != nil {
		return res.Command.Raw
	}
	switch evt := res.Event.(type) {
	case event.ChatPosted:
		return evt.Text
	case event.PresenceChanged:
		if evt.Joined {
			return "joined"
		}
		return "left: " + evt.Cause
	}
	return l.line
}

// newTable returns a borderless left aligned table, the way the inspector prints rows.
func newTable(out io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
