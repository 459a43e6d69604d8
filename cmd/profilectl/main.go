// Command profilectl manages LinkHub profiles and their gateway API keys
// directly against the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"linkhub-gateway/internal/application/usecases"
	"linkhub-gateway/internal/database"
	"linkhub-gateway/internal/infrastructure/config"
	repo "linkhub-gateway/internal/infrastructure/repository/sqlite"
	"linkhub-gateway/internal/migration"
)

const usage = `usage: profilectl <command> [flags]

commands:
  import        import a profile from a YAML manifest
  set-password  set the owner password of a profile
  create-key    create a gateway API key and print it once
  list-keys     list a profile's API keys
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "import":
		err = runImport(args)
	case "set-password":
		err = runSetPassword(args)
	case "create-key":
		err = runCreateKey(args)
	case "list-keys":
		err = runListKeys(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "profilectl: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet adds the shared --config/--db flags.
func newFlagSet(name string) (*pflag.FlagSet, *string, *string) {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	cfgPath := fs.StringP("config", "c", config.DefaultPath, "path to the YAML config file")
	dbPath := fs.String("db", "", "database path (overrides the config)")
	return fs, cfgPath, dbPath
}

func openDB(cfgPath, dbPath string) (*database.Database, error) {
	if dbPath == "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		dbPath = cfg.Database.Database
	}
	return database.Open(dbPath)
}

func runImport(args []string) error {
	fs, cfgPath, dbPath := newFlagSet("import")
	file := fs.StringP("file", "f", "", "profile manifest (YAML)")
	fs.Parse(args)
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := migration.ImportFile(context.Background(), db, *file)
	if err != nil {
		return err
	}
	fmt.Printf("imported %s (%s)\n", p.Username, p.ID)
	return nil
}

func runSetPassword(args []string) error {
	fs, cfgPath, dbPath := newFlagSet("set-password")
	username := fs.StringP("username", "u", "", "profile username")
	fs.Parse(args)

	password := os.Getenv("PROFILECTL_PASSWORD")
	if *username == "" || password == "" {
		return fmt.Errorf("--username and the PROFILECTL_PASSWORD environment variable are required")
	}

	db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.SetPassword(context.Background(), db, *username, password); err != nil {
		return err
	}
	fmt.Printf("password updated for %s\n", *username)
	return nil
}

func runCreateKey(args []string) error {
	fs, cfgPath, dbPath := newFlagSet("create-key")
	username := fs.StringP("username", "u", "", "profile username")
	name := fs.StringP("name", "n", "", "key name")
	perms := fs.StringSlice("permissions", []string{"read"}, "comma-separated permissions (read, write, inquire)")
	rateLimit := fs.Int("rate-limit", 100, "requests per window (50, 100, 500, 1000)")
	fs.Parse(args)
	if *username == "" || *name == "" {
		return fmt.Errorf("--username and --name are required")
	}

	db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	profile, err := repo.NewProfileRepo(db).GetByUsername(ctx, strings.ToLower(*username))
	if err != nil {
		return err
	}
	key, err := usecases.NewAPIKeyUseCase(repo.NewAPIKeyRepo(db)).Create(ctx, profile.ID, usecases.CreateAPIKeyInput{
		Name:        *name,
		Permissions: *perms,
		RateLimit:   *rateLimit,
	})
	if err != nil {
		return err
	}

	fmt.Printf("id:          %s\n", key.ID)
	fmt.Printf("permissions: %s\n", strings.Join(key.Permissions, ","))
	fmt.Printf("rate limit:  %d\n", key.RateLimit)
	fmt.Printf("key:         %s\n", key.Secret)
	fmt.Println("Store this key now; it cannot be shown again.")
	return nil
}

func runListKeys(args []string) error {
	fs, cfgPath, dbPath := newFlagSet("list-keys")
	username := fs.StringP("username", "u", "", "profile username")
	fs.Parse(args)
	if *username == "" {
		return fmt.Errorf("--username is required")
	}

	db, err := openDB(*cfgPath, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	profile, err := repo.NewProfileRepo(db).GetByUsername(ctx, strings.ToLower(*username))
	if err != nil {
		return err
	}
	keys, err := usecases.NewAPIKeyUseCase(repo.NewAPIKeyRepo(db)).List(ctx, profile.ID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(keys)
}
