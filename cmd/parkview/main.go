// Command parkview drives a parking map session from the terminal against a
// running parkingd.
//
//	parkview -server http://localhost:8080 -position 25.033,121.543
//
// Commands are read one per line from stdin:
//
//	search <query>   recenter        poi <id>     confirm   dismiss
//	ack              vehicle <class> select <id>  clear     markers
//	state            quit
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/couchcryptid/parking-finder/internal/adapter/parkingclient"
	"github.com/couchcryptid/parking-finder/internal/adapter/terminal"
	"github.com/couchcryptid/parking-finder/internal/config"
	"github.com/couchcryptid/parking-finder/internal/coordinator"
	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "parkview:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("parkview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", "http://localhost:8080", "parkingd base URL")
	position := fs.String("position", "", "device position as lat,lng (empty: permission denied)")
	vehicle := fs.String("vehicle", "car", "vehicle class: car or motorcycle")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	events := fs.Bool("events", false, "print session events as JSON lines to stderr")
	logLevel := fs.String("log-level", "warn", "log level")
	logFormat := fs.String("log-format", "text", "log format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	area, err := config.LoadArea()
	if err != nil {
		return err
	}

	var pos *domain.Coordinate
	if *position != "" {
		c, err := terminal.ParseCoordinate(*position)
		if err != nil {
			return err
		}
		pos = &c
	}
	class, err := domain.ParseVehicleClass(*vehicle)
	if err != nil {
		return fmt.Errorf("-vehicle %q: %w", *vehicle, err)
	}

	logger := observability.NewLogger(stderr, *logLevel, *logFormat)
	client := parkingclient.NewClient(*server, *timeout, logger)

	deps := coordinator.Dependencies{
		Geolocator: terminal.NewFixedGeolocator(pos),
		Places:     client,
		Source:     client,
		Notifier:   terminal.NewNotifier(stdout),
		Logger:     logger,
	}
	if *events {
		deps.Events = terminal.NewEventLog(stderr)
	}

	cfg := coordinator.Config{
		Region:        area.Region,
		DefaultCenter: area.DefaultCenter,
		InitialZoom:   area.InitialZoom,
		AdoptedZoom:   area.AdoptedZoom,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	session := coordinator.NewSession(cfg, deps)
	if err := session.SetVehicleClass(class); err != nil {
		return err
	}

	// Failures surface as notices; the session stays usable.
	_ = session.Start(ctx)
	if err := printMarkers(stdout, session); err != nil {
		return err
	}

	return repl(ctx, session, stdin, stdout)
}

func repl(ctx context.Context, s *coordinator.Session, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "search":
			if err = s.Search(ctx, arg); err == nil {
				err = printMarkers(stdout, s)
			}
		case "recenter":
			if err = s.Recenter(ctx); err == nil {
				err = printMarkers(stdout, s)
			}
		case "poi":
			var p domain.Place
			if p, err = s.InspectPlace(ctx, arg); err == nil {
				err = terminal.RenderPlace(stdout, p)
			}
		case "confirm":
			if err = s.ConfirmPendingPlace(ctx); err == nil {
				err = printMarkers(stdout, s)
			}
		case "dismiss":
			s.DismissPendingPlace()
		case "ack":
			if err = s.AcknowledgeNotice(ctx); err == nil {
				err = printMarkers(stdout, s)
			}
		case "vehicle":
			var v domain.VehicleClass
			if v, err = domain.ParseVehicleClass(arg); err == nil {
				if err = s.SetVehicleClass(v); err == nil {
					err = printMarkers(stdout, s)
				}
			}
		case "select":
			var spot domain.ParkingSpot
			if spot, err = s.SelectSpot(arg); err == nil {
				err = terminal.RenderSpot(stdout, spot)
			}
		case "clear":
			s.ClearSelection()
		case "markers":
			err = printMarkers(stdout, s)
		case "state":
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			err = enc.Encode(s.Snapshot())
		default:
			err = fmt.Errorf("unknown command %q", cmd)
		}

		if err != nil && !silent(err) {
			fmt.Fprintln(stdout, "error:", err)
		}
	}
	return scanner.Err()
}

// silent reports errors the notifier has already shown, or that need no output.
func silent(err error) bool {
	if _, ok := domain.NoticeFor(err); ok {
		return true
	}
	return errors.Is(err, domain.ErrStaleResponse)
}

func printMarkers(w io.Writer, s *coordinator.Session) error {
	st := s.Snapshot()
	origin := st.Viewport.Center
	if st.Current != nil {
		origin = *st.Current
	}
	fmt.Fprintf(w, "@ %s zoom %d\n", origin, st.Viewport.Zoom)
	return terminal.RenderMarkers(w, s.Markers(), st.VehicleClass, origin)
}
