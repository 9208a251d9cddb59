// Command campusctl is the CampusHub operations CLI.
//
// Usage:
//
//	campusctl bookings check --resource room-101 --date 2026-03-02 --start 09:00 --end 10:00
//	campusctl bookings create --resource room-101 --date 2026-03-02 --start 09:00 --end 10:00 --owner stu-1
//	campusctl bookings list --resource room-101 --date 2026-03-02
//	campusctl bookings delete --id 6f1c...
//	campusctl alerts tail --user stu-1 --role learner
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/campushub/campushub-core/internal/alerts"
	"github.com/campushub/campushub-core/internal/booking"
	"github.com/campushub/campushub-core/internal/config"
	"github.com/campushub/campushub-core/internal/db"
	"github.com/campushub/campushub-core/internal/store"
	"github.com/campushub/campushub-core/internal/timeslot"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "campusctl",
		Short: "CampusHub operations CLI",
	}

	root.AddCommand(bookingsCmd())
	root.AddCommand(alertsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runWithPool loads config, opens the pool and runs fn with a
// signal-cancelled context.
func runWithPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

// --------------------------------------------------------------------------
// bookings command
// --------------------------------------------------------------------------

type slotFlags struct {
	resource string
	date     string
	start    string
	end      string
}

func (f *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.resource, "resource", "", "Resource (classroom) id")
	cmd.Flags().StringVar(&f.date, "date", "", "Day as YYYY-MM-DD")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time as HH:MM")
	cmd.Flags().StringVar(&f.end, "end", "", "End time as HH:MM")
}

func (f *slotFlags) candidate(owner string) (booking.Reservation, error) {
	start, err := timeslot.ToMinutes(f.start)
	if err != nil {
		return booking.Reservation{}, err
	}
	end, err := timeslot.ToMinutes(f.end)
	if err != nil {
		return booking.Reservation{}, err
	}
	return booking.Reservation{
		ResourceID:  f.resource,
		OwnerID:     owner,
		Date:        f.date,
		StartMinute: start,
		EndMinute:   end,
	}, nil
}

func bookingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "Inspect and manage classroom reservations",
	}
	cmd.AddCommand(bookingsCheckCmd())
	cmd.AddCommand(bookingsCreateCmd())
	cmd.AddCommand(bookingsListCmd())
	cmd.AddCommand(bookingsDeleteCmd())
	return cmd
}

func bookingsCheckCmd() *cobra.Command {
	var flags slotFlags
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a slot is free",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				candidate, err := flags.candidate("")
				if err != nil {
					return err
				}
				svc := booking.NewService(booking.NewPostgresRepository(pool.Pool), logger)
				free, err := svc.CheckAvailability(ctx, candidate)
				if err != nil {
					return err
				}
				if free {
					fmt.Printf("available: %s %s %s-%s\n", flags.resource, flags.date, flags.start, flags.end)
				} else {
					fmt.Printf("unavailable: %s %s %s-%s\n", flags.resource, flags.date, flags.start, flags.end)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func bookingsCreateCmd() *cobra.Command {
	var flags slotFlags
	var owner string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Reserve a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				candidate, err := flags.candidate(owner)
				if err != nil {
					return err
				}
				svc := booking.NewService(booking.NewPostgresRepository(pool.Pool), logger)
				id, err := svc.Create(ctx, candidate)
				if err != nil {
					return err
				}
				fmt.Printf("created: %s\n", id)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&owner, "owner", "", "Owner user id")
	return cmd
}

func bookingsListCmd() *cobra.Command {
	var flags slotFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations for a resource and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				svc := booking.NewService(booking.NewPostgresRepository(pool.Pool), logger)
				reservations, err := svc.ListDay(ctx, flags.resource, flags.date)
				if err != nil {
					return err
				}
				for _, r := range reservations {
					fmt.Printf("%s  %s-%s  owner=%s\n", r.ID,
						timeslot.FormatMinutes(r.StartMinute),
						timeslot.FormatMinutes(r.EndMinute), r.OwnerID)
				}
				fmt.Printf("%d reservation(s)\n", len(reservations))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func bookingsDeleteCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Cancel a reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				svc := booking.NewService(booking.NewPostgresRepository(pool.Pool), logger)
				if err := svc.Cancel(ctx, id); err != nil {
					return err
				}
				fmt.Printf("deleted: %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Reservation id")
	return cmd
}

// --------------------------------------------------------------------------
// alerts command
// --------------------------------------------------------------------------

// stdoutSink prints delivered alerts, one per line.
type stdoutSink struct{}

func (stdoutSink) Display(message string) {
	fmt.Println(message)
}

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Work with the live alert pipeline",
	}
	cmd.AddCommand(alertsTailCmd())
	return cmd
}

func alertsTailCmd() *cobra.Command {
	var user, role string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream alerts for an identity to stdout until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool) error {
				campusStore := store.NewPostgres(pool.Pool, cfg.DatabaseURL, logger)
				go campusStore.Run(ctx)

				identity := alerts.Identity{UserID: user, Role: alerts.ParseRole(role)}
				pipeline := alerts.StartPipeline(ctx, campusStore, campusStore, identity, stdoutSink{}, alerts.PipelineConfig{
					DeliverySpacing: cfg.AlertDeliverySpacing,
					DedupTTL:        cfg.AlertDedupTTL,
					SweepInterval:   cfg.AlertSweepInterval,
				}, logger)
				defer pipeline.Stop()

				<-ctx.Done()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id the pipeline runs for")
	cmd.Flags().StringVar(&role, "role", "observer", "Role: learner, staff or observer")
	return cmd
}
