package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"db-migrate/internal/dialect"
	"db-migrate/internal/engine"
	"db-migrate/internal/migration"

	"github.com/fatih/color"
	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var jsonOutput bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy schema, constraints and rows of the active source into PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger, err := newLogger(os.Stderr)
		if err != nil {
			return err
		}

		reg, src, err := openSource(ctx, logger)
		if err != nil {
			return err
		}
		defer reg.Close()

		d := dialect.GetDialect(src.Config.Driver)
		databaseName, err := sourceDatabaseName(ctx, src.DB, d)
		if err != nil {
			return err
		}
		target := targetConfig()

		fmt.Fprintf(os.Stderr, "Migrating %s (%s) into %s:%d/%s\n",
			databaseName, d.Name(), target.Host, target.Port, databaseName)
		start := time.Now()

		var bar *uiprogress.Bar
		if !jsonOutput {
			uiprogress.Start()
			bar = uiprogress.AddBar(100).AppendCompleted().PrependElapsed()
			bar.PrependFunc(func(b *uiprogress.Bar) string {
				return "Transferring: "
			})
		}

		m := migration.New(d,
			migration.WithLogger(logger),
			migration.WithBatchSize(viper.GetInt("migration.batch_size")),
			migration.WithVerify(viper.GetBool("migration.verify")),
			migration.WithProgress(func(done, total int, _ engine.TableTransferResult) {
				if bar != nil && total > 0 {
					bar.Set(done * 100 / total)
				}
			}),
		)
		out := m.PerformMigration(ctx, src.DB, databaseName, target)

		if bar != nil {
			uiprogress.Stop()
		}

		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
				return err
			}
		} else {
			printSummary(os.Stdout, out, time.Since(start))
		}

		if !out.Success {
			return fmt.Errorf("%s", out.Message)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)

	flags := migrateCmd.Flags()
	flags.String("target-host", "", "target PostgreSQL host")
	flags.Int("target-port", 0, "target PostgreSQL port")
	flags.String("target-user", "", "target PostgreSQL user")
	flags.String("target-password", "", "target PostgreSQL password")
	flags.String("target-database", "", "administrative database used for the first connection")
	flags.String("target-sslmode", "", "target sslmode")
	flags.String("target-driver", "", "target driver: postgres or pgx")
	flags.Int("batch-size", 0, "rows per INSERT statement (0 = whole table)")
	flags.Bool("verify", false, "recount every copied table on the target afterwards")
	flags.BoolVar(&jsonOutput, "json", false, "print the outcome as JSON instead of a report")

	for key, flag := range map[string]string{
		"target.host":          "target-host",
		"target.port":          "target-port",
		"target.user":          "target-user",
		"target.password":      "target-password",
		"target.database":      "target-database",
		"target.sslmode":       "target-sslmode",
		"target.driver":        "target-driver",
		"migration.batch_size": "batch-size",
		"migration.verify":     "verify",
	} {
		viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func printSummary(w io.Writer, out migration.Outcome, elapsed time.Duration) {
	ok := color.New(color.FgGreen, color.Bold)
	bad := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)

	fmt.Fprintln(w, "\nSummary Report:")
	total := 0
	for i, r := range out.Tables {
		icon := ok.Sprint("✓")
		if !r.Success {
			icon = bad.Sprint("!")
		}
		fmt.Fprintf(w, "[%s] [%02d/%02d] %-30s : %d rows - %s\n",
			icon, i+1, len(out.Tables), r.Table, r.RowsInserted, r.Message)
		total += r.RowsInserted
	}
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Total Rows: %d\n", total)
	dim.Fprintf(w, "Time Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if len(out.Verification) > 0 {
		fmt.Fprintln(w, "\nVerification:")
		for _, c := range out.Verification {
			status := ok.Sprint(c.Status)
			if !c.OK() {
				status = bad.Sprint(c.Status)
			}
			fmt.Fprintf(w, "  %-30s : %s\n", c.Table, status)
		}
	}

	if out.Success {
		ok.Fprintln(w, out.Message)
		return
	}
	bad.Fprintln(w, out.Message)
}
