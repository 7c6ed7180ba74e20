package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"

	inmemstore "github.com/csamedu/portal/storage/session/inmem"
	pgstore "github.com/csamedu/portal/storage/session/postgres"
	redisstore "github.com/csamedu/portal/storage/session/redis"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	api  *schoolapi.Client
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  initdb                                  - bootstrap the postgres session schema")
	fmt.Println("  clear -scope ID -role ROLE              - drop one role session")
	fmt.Println("  purge -older-than DURATION              - drop sessions older than e.g. 168h")
	fmt.Println("  watch -role ROLE -token TOKEN           - live unread-notification counts")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)
	clearScope := clearCmd.String("scope", "", "The scope (browser) id.")
	clearRole := clearCmd.String("role", "", "One of admin, teacher, student.")

	purgeCmd := flag.NewFlagSet("purge", flag.ExitOnError)
	purgeOlderThan := purgeCmd.Duration("older-than", 7*24*time.Hour, "Session age cutoff.")

	watchCmd := flag.NewFlagSet("watch", flag.ExitOnError)
	watchRole := watchCmd.String("role", "", "One of admin, teacher, student.")
	watchToken := watchCmd.String("token", "", "A bearer token for the role.")
	watchInterval := watchCmd.Duration("interval", 10*time.Second, "Poll interval.")

	switch args[1] {
	case "initdb":
		return cli.initDB()
	case "clear":
		if err := clearCmd.Parse(args[2:]); err != nil {
			return err
		}
		role, ok := session.ParseRole(*clearRole)
		if *clearScope == "" || !ok {
			clearCmd.Usage()
			return errHelp
		}
		return cli.clearSession(*clearScope, role)
	case "purge":
		if err := purgeCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.purgeSessions(*purgeOlderThan)
	case "watch":
		if err := watchCmd.Parse(args[2:]); err != nil {
			return err
		}
		role, ok := session.ParseRole(*watchRole)
		if *watchToken == "" || !ok {
			watchCmd.Usage()
			return errHelp
		}
		return cli.watchNotifications(role, *watchToken, *watchInterval)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) openStore() (session.Store, func(), error) {
	switch cli.conf.Sessions.Store {
	case "redis":
		return redisstore.New(cli.conf), func() {}, nil
	case "postgres":
		store, err := pgstore.Open(cli.conf.Sessions.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		// an inmem store in a one-shot CLI is only useful for dry runs
		return inmemstore.New(), func() {}, nil
	}
}

func (cli *commandLine) initDB() error {
	store, err := pgstore.Open(cli.conf.Sessions.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		return err
	}
	fmt.Println("portal_sessions ready")
	return nil
}

func (cli *commandLine) clearSession(scopeID string, role session.Role) error {
	store, cleanup, err := cli.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.Clear(context.Background(), scopeID, role); err != nil {
		return err
	}
	fmt.Printf("session cleared: %s/%s\n", role, scopeID)
	return nil
}

func (cli *commandLine) purgeSessions(olderThan time.Duration) error {
	store, cleanup, err := cli.openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	purger, ok := store.(session.Purger)
	if !ok {
		return fmt.Errorf("the %q session store purges on its own", cli.conf.Sessions.Store)
	}
	n, err := purger.PurgeOlderThan(context.Background(), time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Printf("purged %d session(s)\n", n)
	return nil
}
