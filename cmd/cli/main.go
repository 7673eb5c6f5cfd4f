// Command cs is a CLI client for the CitaSmart API with offline support.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/citasmart/citasmart-go/internal/cache"
	"github.com/citasmart/citasmart-go/internal/client"
	"github.com/citasmart/citasmart-go/internal/config"
	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/netmon"
	"github.com/citasmart/citasmart-go/internal/notify"
	"github.com/citasmart/citasmart-go/internal/service"
	"github.com/citasmart/citasmart-go/internal/session"
	"github.com/citasmart/citasmart-go/internal/storage"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the wired client subsystem for one CLI invocation.
type app struct {
	store   storage.Store
	cache   *cache.Cache
	monitor *netmon.Monitor
	client  *client.Client
	session *session.Manager
	events  <-chan notify.Event
}

func newApp(ctx context.Context, verbose bool) (*app, func(), error) {
	cfg := config.Load()

	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StateDBPath), 0o700); err != nil {
		return nil, nil, err
	}
	store, err := storage.OpenBolt(cfg.StateDBPath)
	if err != nil {
		return nil, nil, err
	}

	notifier := notify.New(logger)
	events := notifier.Subscribe()

	monitor := netmon.New(false, notifier, logger)
	prober := netmon.NewProber(monitor, cfg.HealthURL, cfg.ProbeInterval, nil, logger)
	prober.ProbeOnce(ctx)

	respCache := cache.New(store, logger)
	cl := client.New(cfg.APIBaseURL, store, respCache, monitor, notifier, logger,
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithCacheMaxAge(cfg.CacheMaxAge))
	mgr := session.New(store, cl, logger)

	a := &app{store: store, cache: respCache, monitor: monitor, client: cl, session: mgr, events: events}
	cleanup := func() {
		a.printToasts()
		_ = store.Close()
	}
	return a, cleanup, nil
}

// printToasts renders notifications collected during the command.
func (a *app) printToasts() {
	for {
		select {
		case ev := <-a.events:
			fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Severity, ev.Message)
			continue
		default:
		}
		return
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printRaw(raw []byte) {
	var v any
	if json.Unmarshal(raw, &v) == nil {
		printJSON(v)
		return
	}
	fmt.Println(string(raw))
}

func usage() {
	fmt.Fprintf(os.Stderr, `cs CLI
Usage:
  cs [-v] <cmd> [args]

Commands:
  version
  register      -email E -password P -first F -last L [-phone N]
  login         -email E -password P                  (saves session)
  logout
  whoami
  refresh
  appointments
  services
  professionals
  profile
  book          -service UUID -professional UUID -start RFC3339 [-notes S]
  cancel        -id UUID
  get           -path /some/endpoint
  cache-info
  cache-clear
`)
	os.Exit(2)
}

func main() {
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	if cmd == "version" {
		fmt.Printf("cs %s (%s)\n", version, buildDate)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, cleanup, err := newApp(ctx, *verbose)
	if err != nil {
		fail(err)
	}
	exitCleanup = cleanup
	defer cleanup()

	switch cmd {

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		phone := fs.String("phone", "", "phone (optional)")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *password == "" {
			fail(errors.New("need -email and -password"))
		}
		u, err := a.session.Register(ctx, model.Registration{
			Email: *email, Password: *password,
			FirstName: *first, LastName: *last, Phone: *phone,
		})
		if err != nil {
			fail(err)
		}
		printJSON(u)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *password == "" {
			fail(errors.New("need -email and -password"))
		}
		sess, err := a.session.Login(ctx, model.Credentials{Email: *email, Password: *password})
		if err != nil {
			fail(err)
		}
		fmt.Printf("ok, signed in as %s\n", sess.User.Email)

	case "logout":
		a.session.Logout()
		fmt.Println("ok")

	case "whoami":
		u := a.session.CurrentUser()
		if u == nil {
			fmt.Println("not signed in")
			return
		}
		printJSON(struct {
			*model.User
			Authenticated bool `json:"authenticated"`
		}{u, a.session.IsAuthenticated()})

	case "refresh":
		sess, err := a.session.Refresh(ctx)
		if err != nil {
			if errors.Is(err, errs.ErrNoSession) {
				fail(errors.New("no session to refresh; login first"))
			}
			fail(err)
		}
		fmt.Printf("ok, token valid for %ds\n", sess.ExpiresIn)

	case "appointments", "services", "professionals", "profile":
		raw, err := a.client.Execute(ctx, "GET", "/"+cmd, nil)
		if err != nil {
			fail(err)
		}
		printRaw(raw)

	case "book":
		fs := flag.NewFlagSet("book", flag.ExitOnError)
		svcID := fs.String("service", "", "service uuid")
		proID := fs.String("professional", "", "professional uuid")
		start := fs.String("start", "", "start time (RFC3339)")
		notes := fs.String("notes", "", "notes")
		_ = fs.Parse(flag.Args()[1:])
		if *svcID == "" || *proID == "" || *start == "" {
			fail(errors.New("need -service -professional -start"))
		}
		startAt, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			fail(fmt.Errorf("bad -start: %w", err))
		}
		svcUUID, err := uuid.FromString(*svcID)
		if err != nil {
			fail(fmt.Errorf("bad -service: %w", err))
		}
		proUUID, err := uuid.FromString(*proID)
		if err != nil {
			fail(fmt.Errorf("bad -professional: %w", err))
		}
		req := service.BookingRequest{
			ServiceID:      svcUUID,
			ProfessionalID: proUUID,
			StartTime:      startAt,
			Notes:          *notes,
		}
		raw, err := a.client.Execute(ctx, "POST", "/appointments", req)
		if err != nil {
			fail(err)
		}
		printRaw(raw)

	case "cancel":
		fs := flag.NewFlagSet("cancel", flag.ExitOnError)
		id := fs.String("id", "", "appointment uuid")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fail(errors.New("need -id"))
		}
		raw, err := a.client.Execute(ctx, "DELETE", "/appointments/"+*id, nil)
		if err != nil {
			fail(err)
		}
		printRaw(raw)

	case "get":
		fs := flag.NewFlagSet("get", flag.ExitOnError)
		path := fs.String("path", "", "endpoint path")
		_ = fs.Parse(flag.Args()[1:])
		if *path == "" {
			fail(errors.New("need -path"))
		}
		raw, err := a.client.Execute(ctx, "GET", *path, nil)
		if err != nil {
			fail(err)
		}
		printRaw(raw)

	case "cache-info":
		info, err := a.cache.Size()
		if err != nil {
			fail(err)
		}
		printJSON(info)

	case "cache-clear":
		if err := a.cache.Clear(); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// osExit and exitCleanup are indirections so fail can flush pending toasts and
// close the store before terminating.
var (
	osExit      = os.Exit
	exitCleanup func()
)

func fail(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(apiErr.Body, &body) == nil && body.Error != "" {
			err = fmt.Errorf("api error: status=%d msg=%s", apiErr.Status, body.Error)
		}
	}
	fmt.Fprintln(os.Stderr, err)
	if exitCleanup != nil {
		exitCleanup()
	}
	osExit(1)
}
