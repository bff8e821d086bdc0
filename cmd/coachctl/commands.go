package main

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aryan0dhankhar/coachsync/internal/domain"
	"github.com/aryan0dhankhar/coachsync/internal/security/auth"
	"github.com/aryan0dhankhar/coachsync/internal/service"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

func bootstrapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create every relation and seed plans, the global theme and the demo organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := e.provisioner.EnsureAll(cmd.Context()); err != nil {
				return fmt.Errorf("bootstrap failed: %w", err)
			}
			fmt.Println("Schema ready.")
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate every tenant table (organizations and plans are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if err := service.NewAdminService(e.repos, e.provisioner, nil, e.log).Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All tenant data removed.")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm the complete reset")
	return cmd
}

func orgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orgs",
		Short: "List organizations with their user counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			orgs := service.NewAdminService(e.repos, nil, nil, e.log).ListOrganizations(cmd.Context())
			if len(orgs) == 0 {
				fmt.Println("No organizations.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPLAN\tSTATUS\tCOACHES\tPARTICIPANTS\tMANAGER")
			for _, o := range orgs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					o.ID, o.Name, o.Plan, o.Status, o.Coaches, o.Participants, o.ManagerEmail)
			}
			return w.Flush()
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [plain]",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the monthly total and average of a recurring agreement",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("recurring")
			month, _ := cmd.Flags().GetString("month")
			if id == "" {
				return errors.New("--recurring is required")
			}
			if !monthPattern.MatchString(month) {
				return fmt.Errorf("--month must look like YYYY-MM, got %q", month)
			}

			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			agreement, err := e.repos.Recurring.FindByID(cmd.Context(), "", id)
			if err != nil {
				return err
			}
			if agreement == nil {
				return fmt.Errorf("recurring agreement %s not found", id)
			}
			sum := domain.Summary{RecurringID: id, Month: month}
			if report := e.repos.RecurringReports.ForMonth(cmd.Context(), agreement.OrganizationID, id, month); report != nil {
				sum = report.Summarize()
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Agreement:\t%s\n", agreement.Afspraakdoel)
			fmt.Fprintf(w, "Method:\t%s\n", agreement.Afspraakmethode)
			fmt.Fprintf(w, "Month:\t%s\n", month)
			fmt.Fprintf(w, "Days completed:\t%d\n", sum.CompletedCount)
			if agreement.UsesResults() {
				fmt.Fprintf(w, "Total:\t%.2f\n", sum.Total)
				fmt.Fprintf(w, "Average:\t%.2f\n", sum.Average)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("recurring", "", "Recurring agreement id")
	cmd.Flags().String("month", "", "Month as YYYY-MM")
	return cmd
}
