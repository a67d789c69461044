package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/kairosync/internal/domain/timemodel"
	"github.com/okian/kairosync/internal/domain/types"
)

var (
	goldenAt    string
	nextFrom    string
	clocksAt    string
	convertRole string
)

var goldenCmd = &cobra.Command{
	Use:   "golden",
	Short: "Check whether a UTC minute is free for both users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadOffline(cmd)
		if err != nil {
			return err
		}
		at, err := minuteFlag(goldenAt)
		if err != nil {
			return err
		}
		printGolden(cmd.OutOrStdout(), svc.GoldenWindow(cmd.Context(), at))
		return nil
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Find the next golden window within a day",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadOffline(cmd)
		if err != nil {
			return err
		}
		from, err := minuteFlag(nextFrom)
		if err != nil {
			return err
		}
		res := svc.NextGoldenWindow(cmd.Context(), from)
		w := cmd.OutOrStdout()
		if !res.Found {
			printError(w, "no golden window in the next 24 hours")
			return nil
		}
		printGolden(w, res)
		return nil
	},
}

var citiesCmd = &cobra.Command{
	Use:   "cities [QUERY]",
	Short: "Search the city table, or list it all without a query",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadOffline(cmd)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		query := strings.Join(args, " ")
		matches := svc.Cities()
		if query != "" {
			matches = svc.SearchCities(query)
		}
		if len(matches) == 0 {
			printError(w, "no cities match %q", query)
			return nil
		}
		for _, c := range matches {
			printStatus(w, c.Name, "UTC%s", formatOffset(c.Offset))
		}
		if query == "" {
			printStatus(w, "total", "%d cities", svc.Stats(cmd.Context()).Cities)
		}
		return nil
	},
}

var sleepSlotsCmd = &cobra.Command{
	Use:   "sleep-slots START END",
	Short: "List the sleep hours from START up to END",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("start hour: %w", err)
		}
		end, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("end hour: %w", err)
		}
		slots := timemodel.GenerateSleepSlots(start, end)
		hours := make([]string, len(slots))
		for i, h := range slots {
			hours[i] = strconv.Itoa(h)
		}
		printStatus(cmd.OutOrStdout(), "sleep", "[%s] (%d hours)", strings.Join(hours, ", "), len(slots))
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert HH:MM",
	Short: "Convert a user's local time to UTC and to the other user's time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := loadOffline(cmd)
		if err != nil {
			return err
		}
		utc, err := svc.EnterTime(cmd.Context(), args[0], types.Role(convertRole))
		if err != nil {
			return err
		}
		printGolden(cmd.OutOrStdout(), svc.GoldenWindow(cmd.Context(), utc))
		return nil
	},
}

var clocksCmd = &cobra.Command{
	Use:   "clocks",
	Short: "Show both users' clocks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, err := loadOffline(cmd)
		if err != nil {
			return err
		}
		if clocksAt != "" {
			at, err := minuteFlag(clocksAt)
			if err != nil {
				return err
			}
			svc.SetTime(cmd.Context(), float64(at))
		}
		snap := svc.Snapshot(cmd.Context())
		w := cmd.OutOrStdout()
		printTitle(w, "UTC "+timemodel.FormatTime(snap.SelectedUTC))
		printClock(w, snap.Local)
		printClock(w, snap.Remote)
		printStatus(w, "difference", "%s", snap.DiffLabel)
		if snap.Golden {
			fmt.Fprintln(w, render(goldenStyle, "★ golden window"))
		}
		return nil
	},
}

func init() {
	goldenCmd.Flags().StringVar(&goldenAt, "at", "", "UTC time as HH:MM (default now)")
	nextCmd.Flags().StringVar(&nextFrom, "from", "", "UTC time as HH:MM (default now)")
	clocksCmd.Flags().StringVar(&clocksAt, "at", "", "UTC time as HH:MM (default now)")
	convertCmd.Flags().StringVar(&convertRole, "role", string(types.RoleLocal), "whose local time: local or remote")

	rootCmd.AddCommand(goldenCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(citiesCmd)
	rootCmd.AddCommand(sleepSlotsCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(clocksCmd)
}

// minuteFlag parses an HH:MM flag value; empty means the current UTC minute.
func minuteFlag(v string) (int, error) {
	if v == "" {
		now := time.Now().UTC()
		return now.Hour()*timemodel.MinutesInHour + now.Minute(), nil
	}
	m, ok := timemodel.ParseTime(v)
	if !ok {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", v)
	}
	return m, nil
}

func printGolden(w io.Writer, res types.GoldenResult) {
	printStatus(w, "utc", "%s", timemodel.FormatTime(float64(res.UTCMinutes)))
	printStatus(w, "local", "%s", res.LocalTime)
	printStatus(w, "remote", "%s", res.RemoteTime)
	if res.Golden {
		fmt.Fprintln(w, render(goldenStyle, "★ golden window"))
		return
	}
	fmt.Fprintln(w, render(busyStyle, "✗ not golden"))
}

func printClock(w io.Writer, c types.UserClock) {
	body := fmt.Sprintf("%s (%s)\n%s  %s  %s",
		c.Profile.Name, c.Profile.City(), c.LocalTime, c.TimeOfDay, c.Status)
	if c.DayShift != 0 {
		body += fmt.Sprintf("  day %+d", c.DayShift)
	}
	printBox(w, body)
}

func formatOffset(h float64) string {
	if h == float64(int(h)) {
		return fmt.Sprintf("%+d", int(h))
	}
	return fmt.Sprintf("%+.1f", h)
}
