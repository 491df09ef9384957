package projection

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// Each "%d" range starts at two units so truncation never prints "1 minutes".
var coarseMagnitudes = []humanize.RelTimeMagnitude{
	{D: 45 * time.Second, Format: "a few seconds", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "a minute", DivBy: time.Minute},
	{D: 45 * time.Minute, Format: "%d minutes", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "an hour", DivBy: time.Hour},
	{D: 22 * time.Hour, Format: "%d hours", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "a day", DivBy: humanize.Day},
	{D: 26 * humanize.Day, Format: "%d days", DivBy: humanize.Day},
	{D: 2 * humanize.Month, Format: "a month", DivBy: humanize.Month},
	{D: 11 * humanize.Month, Format: "%d months", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "a year", DivBy: humanize.Year},
	{D: math.MaxInt64, Format: "%d years", DivBy: humanize.Year},
}

// HumanizeDuration renders d coarsely, e.g. "a few seconds", "5 minutes", "2 hours".
func HumanizeDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	origin := time.Unix(0, 0)
	return humanize.CustomRelTime(origin, origin.Add(d), "", "", coarseMagnitudes)
}
