package migration

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/migration/migrations"
	"git.inkwell.blog/inkwell/inkwell/src/migration/types"
	"git.inkwell.blog/inkwell/inkwell/src/oops"
	"git.inkwell.blog/inkwell/inkwell/src/website"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"
)

var listMigrations bool

func init() {
	migrateCommand := &cobra.Command{
		Use:   "migrate [target migration id]",
		Short: "Run database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			if listMigrations {
				ListMigrations()
				return
			}

			targetVersion := time.Time{}
			if len(args) > 0 {
				var err error
				targetVersion, err = time.Parse(time.RFC3339, args[0])
				if err != nil {
					fmt.Printf("ERROR: bad version string: %v", err)
					os.Exit(1)
				}
			}
			Migrate(types.MigrationVersion(targetVersion))
		},
	}
	migrateCommand.Flags().BoolVar(&listMigrations, "list", false, "List available migrations")

	makeMigrationCommand := &cobra.Command{
		Use:   "makemigration <name> <description>...",
		Short: "Create a new database migration file",
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 2 {
				fmt.Printf("You must provide a name and a description.\n\n")
				cmd.Usage()
				os.Exit(1)
			}

			name := args[0]
			description := strings.Join(args[1:], " ")

			MakeMigration(name, description)
		},
	}

	seedCommand := &cobra.Command{
		Use:   "seed",
		Short: "Migrate to the latest version and fill the database with sample users and articles",
		Run: func(cmd *cobra.Command, args []string) {
			Migrate(migrations.LatestVersion())
			SampleSeed()
		},
	}

	website.WebsiteCommand.AddCommand(migrateCommand)
	website.WebsiteCommand.AddCommand(makeMigrationCommand)
	website.WebsiteCommand.AddCommand(seedCommand)
}

func getCurrentVersion(ctx context.Context, conn *pgx.Conn) (types.MigrationVersion, error) {
	var currentVersion time.Time
	row := conn.QueryRow(ctx, "SELECT version FROM inkwell_migration")
	err := row.Scan(&currentVersion)
	if err != nil {
		return types.MigrationVersion{}, err
	}
	currentVersion = currentVersion.UTC()

	return types.MigrationVersion(currentVersion), nil
}

func tryGetCurrentVersion(ctx context.Context) types.MigrationVersion {
	defer func() {
		recover()
	}()

	conn := db.NewConn()
	defer conn.Close(ctx)

	currentVersion, _ := getCurrentVersion(ctx, conn)

	return currentVersion
}

func ListMigrations() {
	ctx := context.Background()

	currentVersion := tryGetCurrentVersion(ctx)
	for _, version := range migrations.SortedVersions() {
		migration := migrations.All[version]
		indicator := "  "
		if version.Equal(currentVersion) {
			indicator = "✔ "
		}
		fmt.Printf("%s%v (%s: %s)\n", indicator, version, migration.Name(), migration.Description())
	}
}

func Migrate(targetVersion types.MigrationVersion) {
	ctx := context.Background()

	conn := db.NewConn()
	defer conn.Close(ctx)

	if err := MigrateConn(ctx, conn, targetVersion); err != nil {
		fmt.Printf("MIGRATION FAILED: %v\n", err)
		os.Exit(1)
	}
}

/*
Moves the database behind conn forwards or backwards to targetVersion, one
migration per transaction. A zero targetVersion means the latest migration.
*/
func MigrateConn(ctx context.Context, conn *pgx.Conn, targetVersion types.MigrationVersion) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS inkwell_migration (
			version TIMESTAMP WITH TIME ZONE
		)
	`)
	if err != nil {
		return oops.New(err, "failed to create migration table")
	}

	numRows, err := db.QueryOneScalar[int](ctx, conn, "SELECT COUNT(*) FROM inkwell_migration")
	if err != nil {
		return oops.New(err, "failed to count migration rows")
	}
	if numRows < 1 {
		_, err := conn.Exec(ctx, "INSERT INTO inkwell_migration (version) VALUES ($1)", time.Time{})
		if err != nil {
			return oops.New(err, "failed to insert initial migration row")
		}
	}

	currentVersion, err := getCurrentVersion(ctx, conn)
	if err != nil {
		return oops.New(err, "failed to get current version")
	}
	if currentVersion.IsZero() {
		fmt.Println("This is the first time you have run database migrations.")
	} else {
		fmt.Printf("Current version: %s\n", currentVersion.String())
	}

	steps, err := planMigration(migrations.SortedVersions(), currentVersion, targetVersion)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Println("Already migrated; nothing to do.")
		return nil
	}

	for _, step := range steps {
		migration := migrations.All[step.Migration]
		if step.Up {
			fmt.Printf("Applying migration %v (%v)\n", step.Migration, migration.Name())
			err = applyStep(ctx, conn, step.Result, migration.Up)
		} else {
			fmt.Printf("Rolling back migration %v (%v)\n", step.Migration, migration.Name())
			err = applyStep(ctx, conn, step.Result, migration.Down)
		}
		if err != nil {
			return oops.New(err, "migration %v failed", step.Migration)
		}
	}

	return nil
}

type migrationStep struct {
	Migration types.MigrationVersion // whose Up or Down runs
	Up        bool
	Result    types.MigrationVersion // recorded once the step commits
}

/*
Works out which migrations to run, in order, to get from current to target.
Rolling back a migration leaves the database at the version before it, or at
the zero version when it was the first. A zero target means the latest
migration; a current version we have never heard of is an error.
*/
func planMigration(all []types.MigrationVersion, current, target types.MigrationVersion) ([]migrationStep, error) {
	if len(all) == 0 {
		return nil, nil
	}
	if target.IsZero() {
		target = all[len(all)-1]
	}

	indexOf := func(v types.MigrationVersion) int {
		for i, version := range all {
			if version.Equal(v) {
				return i
			}
		}
		return -1
	}

	targetIndex := indexOf(target)
	if targetIndex < 0 {
		return nil, oops.New(nil, "could not find migration with version %v", target)
	}
	currentIndex := -1
	if !current.IsZero() {
		currentIndex = indexOf(current)
		if currentIndex < 0 {
			return nil, oops.New(nil, "the database is at unknown version %v", current)
		}
	}

	var steps []migrationStep
	for i := currentIndex + 1; i <= targetIndex; i++ {
		steps = append(steps, migrationStep{Migration: all[i], Up: true, Result: all[i]})
	}
	for i := currentIndex; i > targetIndex; i-- {
		var previous types.MigrationVersion
		if i > 0 {
			previous = all[i-1]
		}
		steps = append(steps, migrationStep{Migration: all[i], Up: false, Result: previous})
	}
	return steps, nil
}

// Runs one migration direction and records newVersion, all in one transaction.
func applyStep(ctx context.Context, conn *pgx.Conn, newVersion types.MigrationVersion, step func(context.Context, pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	err = step(ctx, tx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, "UPDATE inkwell_migration SET version = $1", time.Time(newVersion))
	if err != nil {
		return oops.New(err, "failed to update version in migrations table")
	}

	err = tx.Commit(ctx)
	if err != nil {
		return oops.New(err, "failed to commit transaction")
	}
	return nil
}

//go:embed migrationTemplate.txt
var migrationTemplate string

var reMigrationName = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

// Fills in the migration template. The name becomes a Go type, so it must be
// an exported identifier.
func renderMigration(name, description string, now time.Time) (filename string, source string, err error) {
	if !reMigrationName.MatchString(name) {
		return "", "", oops.New(nil, "migration name %q must be CamelCase, like AddArticleTags", name)
	}

	now = now.UTC().Truncate(time.Second)
	date := fmt.Sprintf("time.Date(%d, %d, %d, %d, %d, %d, 0, time.UTC)", now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second())
	source = strings.NewReplacer(
		"%NAME%", name,
		"%DESCRIPTION%", strconv.Quote(description),
		"%DATE%", date,
	).Replace(migrationTemplate)

	safeVersion := strings.ReplaceAll(types.MigrationVersion(now).String(), ":", "")
	return fmt.Sprintf("%s_%s.go", safeVersion, name), source, nil
}

func MakeMigration(name, description string) {
	filename, source, err := renderMigration(name, description, time.Now())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	path := filepath.Join("src", "migration", "migrations", filename)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		panic(oops.New(err, "failed to write migration file"))
	}

	fmt.Println("Successfully created migration file:")
	fmt.Println(path)
}
