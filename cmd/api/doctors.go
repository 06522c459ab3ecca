package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/booking-api/internal/repository/postgres"
	"github.com/jwalitptl/booking-api/internal/repository/seed"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func newDoctorsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Manage the doctor directory",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the directory tables in postgres",
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDB(opts.cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.Migrate(cmd.Context(), db); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Load the bundled doctors into postgres",
			RunE: func(cmd *cobra.Command, args []string) error {
				doctors, err := seed.Doctors()
				if err != nil {
					return err
				}
				db, err := openDB(opts.cfg.Database)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := postgres.NewDoctorRepository(db, metrics.NewNop()).Seed(cmd.Context(), doctors); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d doctors\n", len(doctors))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "Print the doctors of the configured directory",
			RunE: func(cmd *cobra.Command, args []string) error {
				repo, db, err := doctorSource(opts.cfg, metrics.NewNop())
				if err != nil {
					return err
				}
				if db != nil {
					defer db.Close()
				}

				doctors, err := repo.List(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tSPECIALTY\tRATING\tFEE\tDAYS")
				for _, d := range doctors {
					days := make([]string, 0, len(d.Availability))
					for _, slots := range d.Availability {
						if len(slots.Times) > 0 {
							days = append(days, slots.Day)
						}
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.2f\t%s\n",
						d.ID, d.Name, d.Specialty, d.Rating, d.ConsultationFee, strings.Join(days, ","))
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}
