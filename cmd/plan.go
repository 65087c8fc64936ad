package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"db-migrate/internal/ddl"
	"db-migrate/internal/dialect"
	"db-migrate/internal/schema"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var planOut string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the DDL a migration would run, without touching the target",
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

		introspector := schema.NewIntrospector(src.DB, d, logger)
		columns, err := introspector.ExtractColumns(ctx, databaseName)
		if err != nil {
			return err
		}
		plan := renderPlan(databaseName, columns, introspector.ExtractForeignKeys(ctx, databaseName))

		if planOut == "" {
			fmt.Print(plan)
			return nil
		}
		if err := writePlan(AppFs, planOut, plan); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Plan written to %s\n", planOut)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planOut, "out", "o", "", "write the plan to a file instead of stdout")
}

// renderPlan lists the statements in the order a migration runs them.
func renderPlan(databaseName string, columns []schema.ColumnDescriptor, foreignKeys []schema.ForeignKeyDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- target database: %s\n", databaseName)

	section := func(title string, stmts []string) {
		fmt.Fprintf(&b, "\n-- %s (%d)\n", title, len(stmts))
		for _, s := range stmts {
			b.WriteString(s)
			b.WriteString(";\n")
		}
	}
	section("schemas", ddl.BuildCreateSchemaStatements(columns))
	section("tables", ddl.BuildCreateTableStatements(columns))
	section("foreign keys", ddl.BuildForeignKeyStatements(foreignKeys))
	return b.String()
}

func writePlan(fs afero.Fs, path, plan string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fs, path, []byte(plan), 0o644); err != nil {
		return fmt.Errorf("failed to write plan: %w", err)
	}
	return nil
}
