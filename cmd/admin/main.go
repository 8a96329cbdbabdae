// Command tasktracker-admin runs operator tasks against the task tracker
// stores: schema migration, administrator management and token cleanup.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/app"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/auth"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/database"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tasktracker-admin [-config path] <command> [flags]

commands:
  migrate                                   apply pending database migrations
  createadmin -username u -password p -first-name f [-last-name l] [-email e]
  promote -username u                       grant administrator rights
  demote -username u                        revoke administrator rights
  flushtokens                               delete blacklist entries of expired tokens
`)
	os.Exit(2)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "config file (yaml)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	if err := config.LoadDotEnv(".env"); err != nil {
		fail(err)
	}
	path := *configPath
	if path == "" {
		if _, err := os.Stat("config.yaml"); !errors.Is(err, fs.ErrNotExist) {
			path = "config.yaml"
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fail(err)
	}

	logger, err := logging.NewLogger(logging.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cmd == "migrate" {
		start := time.Now()
		err := database.Migrate(ctx, cfg.Database.ConnString())
		logger.LogDatabaseOperation("migrate", time.Since(start), err)
		if err != nil {
			fail(err)
		}
		fmt.Println("migrations applied")
		return
	}

	// Admin commands only touch identities and tokens
	cfg.Quota.Backend = "memory"
	cfg.Queue.Enabled = false

	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}
	defer backends.Close()

	services, err := app.NewServices(cfg, backends, logger)
	if err != nil {
		fail(err)
	}

	if err := dispatch(ctx, services.Auth, cmd, args, os.Stdout); err != nil {
		if errors.Is(err, errUnknownCommand) {
			usage()
		}
		fail(err)
	}
}

var errUnknownCommand = errors.New("unknown command")

// dispatch runs one identity or token command
func dispatch(ctx context.Context, svc *auth.Service, cmd string, args []string, out io.Writer) error {
	switch cmd {

	case "createadmin":
		fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		firstName := fs.String("first-name", "", "first name")
		lastName := fs.String("last-name", "", "last name")
		email := fs.String("email", "", "email address")
		if err := fs.Parse(args); err != nil {
			return err
		}

		reg := auth.Registration{Username: username, Password: password, FirstName: firstName, LastName: lastName}
		if *email != "" {
			reg.Email = email
		}
		u, err := svc.CreateAdmin(ctx, reg)
		if err != nil {
			var verr *errs.ValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("invalid input: %s", verr.Error())
			}
			return err
		}
		fmt.Fprintf(out, "created administrator %s (id %d)\n", u.Username, u.ID)

	case "promote", "demote":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		username := fs.String("username", "", "username")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *username == "" {
			return errors.New("need -username")
		}

		admin := cmd == "promote"
		if err := svc.SetAdmin(ctx, *username, admin); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return fmt.Errorf("no user named %q", *username)
			}
			return err
		}
		fmt.Fprintf(out, "%s: is_admin=%t\n", *username, admin)

	case "flushtokens":
		n, err := svc.Tokens().PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "removed %d expired blacklist entries\n", n)

	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
	return nil
}
