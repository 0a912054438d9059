package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-timetable-sync/internal/app"
	"github.com/noah-isme/sma-timetable-sync/internal/models"
)

var confirmClear bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every stored class and personnel schedule",
	Long: `Remove every key holding a class or personnel schedule.
Personnel directory records and unrelated keys are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmClear {
			return errors.New("refusing to clear schedules without --yes")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			removed, err := a.Sync.ClearAll(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]int{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d schedules\n", removed)
			return nil
		})
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List slots claimed by more than one entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			report, err := a.Schedules.ConflictReport(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}
			out := cmd.OutOrStdout()
			if len(report.Personnel)+len(report.Classes) == 0 {
				fmt.Fprintln(out, "no conflicts")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCHEDULE\tDAY\tSTART\tENTRIES")
			for _, c := range report.Personnel {
				fmt.Fprintf(tw, "personnel %s\t%s\t%s\t%v\n", c.PersonnelCode, c.Day, c.TimeStart, c.EntryIDs)
			}
			for _, c := range report.Classes {
				fmt.Fprintf(tw, "class %s\t%s\t%s\t%v\n", c.Class.Key(), c.Day, c.TimeStart, c.EntryIDs)
			}
			return tw.Flush()
		})
	},
}

var personnelCmd = &cobra.Command{
	Use:   "personnel",
	Short: "Query the personnel directory",
}

var personnelSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find personnel by name or code fragment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			items, err := a.Personnel.SearchByNameOrCode(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), items)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tPOSITION")
			for _, item := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", item.PersonnelCode, item.FullName, item.MainPosition)
			}
			return tw.Flush()
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print one stored schedule",
}

var schedulePersonnelCmd = &cobra.Command{
	Use:   "personnel <code>",
	Short: "Print the schedule of one personnel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			schedule, err := a.Schedules.GetPersonnelSchedule(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), schedule)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", schedule.Identity.PersonnelCode, schedule.Identity.FullName)
			return printEntries(cmd.OutOrStdout(), schedule.Entries)
		})
	},
}

var scheduleClassCmd = &cobra.Command{
	Use:   "class <grade> <classNumber> [field]",
	Short: "Print the schedule of one class",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		class := models.ClassIdentity{Grade: args[0], ClassNumber: args[1]}
		if len(args) == 3 {
			class.Field = args[2]
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			schedule, err := a.Schedules.GetClassSchedule(ctx, class)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), schedule)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "class %s\n", schedule.Identity.Key())
			return printEntries(cmd.OutOrStdout(), schedule.Entries)
		})
	},
}

func init() {
	clearCmd.Flags().BoolVar(&confirmClear, "yes", false, "confirm removal of every schedule")
	personnelCmd.AddCommand(personnelSearchCmd)
	scheduleCmd.AddCommand(schedulePersonnelCmd, scheduleClassCmd)
}

func printEntries(w io.Writer, entries models.EntryList) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAY\tSLOT\tPERSONNEL\tCLASS\tHOURS\tGROUP")
	for _, e := range entries {
		class := ""
		if e.Class != nil {
			class = e.Class.Key()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%s\n", e.ID, e.Day, e.TimeStart, e.TimeEnd, e.PersonnelCode, class, e.HourType, e.TeachingGroup)
	}
	return tw.Flush()
}
