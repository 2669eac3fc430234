// Command designctl drives the DesignMate API from a terminal: accounts,
// galleries, creating and editing designs, visibility, deletion and PDF
// export of saved designs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"designmate/internal/client"
	"designmate/internal/common/logging"
)

const usage = `usage: designctl [-api URL] [-session FILE] <command> [args]

commands:
  register <email> <password>
  login <email> <password>
  logout
  me
  list [-public]
  show <id>
  save [-name N] [-public] [-from FILE] [-bg IMAGE] [edits] <2D|3D>
  edit [-name N] [edits] <id>        saves the edited copy as a new design
  toggle <id>
  delete <id>
  catalog
  export [-assets DIR] [-out DIR] <id>

edits:
  -add KEY          catalog type (2D) or model name (3D), repeatable
  -delete ID        repeatable
  -set ID.FIELD=V   2D width, height, rotateX, rotateY
  -move ID=X,Y      2D, snapped to the grid; ID=X,Y,Z in 3D
  -scale ID=F       3D
  -rotate ID=N      3D, N steps of 22.5 degrees
  -room W,H | W,L,H
`

type app struct {
	api         *client.Client
	sessionPath string
	out         io.Writer
}

func main() {
	fs := flag.NewFlagSet("designctl", flag.ExitOnError)
	apiURL := fs.String("api", envOr("DESIGNMATE_API", "http://localhost:3000"), "gateway base URL")
	sessionPath := fs.String("session", envOr("DESIGNMATE_SESSION", ".designmate-session.json"), "file holding the login session")
	level := fs.String("log-level", "WARN", "log level")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])

	logging.Setup("designctl", *level, "")

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		api:         client.New(*apiURL, nil),
		sessionPath: *sessionPath,
		out:         os.Stdout,
	}
	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		slog.Debug("command failed", "command", fs.Arg(0), "error", err)
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "me":
		return a.me(ctx)
	case "list":
		return a.list(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "save":
		return a.save(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "toggle":
		return a.toggle(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "catalog":
		return a.catalog(ctx)
	case "export":
		return a.export(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func describe(err error) string {
	switch {
	case errors.Is(err, client.ErrAuthRequired):
		return "not logged in, run: designctl login <email> <password>"
	case errors.Is(err, client.ErrNotFound):
		return "not found"
	}
	return err.Error()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05.000000Z", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
