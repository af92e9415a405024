// Command mocap-plot renders recorded subject tracks as PNG plots, reading
// either a recorder database (-db) or a running daemon's API (-url).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/mocap.stream/internal/db"
	"github.com/banshee-data/mocap.stream/internal/security"
	"github.com/banshee-data/mocap.stream/internal/units"
	"github.com/banshee-data/mocap.stream/internal/version"
)

type options struct {
	DBPath      string
	URL         string
	Session     string
	Subjects    []string
	Out         string
	Units       string
	ShowVersion bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var (
		o        options
		subjects string
	)
	fs := flag.NewFlagSet("mocap-plot", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.DBPath, "db", "", "Recorder database to read")
	fs.StringVar(&o.URL, "url", "", "Base URL of a running mocap daemon (e.g. http://localhost:8090)")
	fs.StringVar(&o.Session, "session", "", "Session id (default: newest)")
	fs.StringVar(&subjects, "subjects", "", "Comma-separated subjects to plot (default: all)")
	fs.StringVar(&o.Out, "out", "trajectory.png", "Output PNG path; the height plot is written alongside")
	fs.StringVar(&o.Units, "units", units.Meters, "Plot units: "+units.GetValidUnitsString())
	fs.BoolVar(&o.ShowVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.ShowVersion {
		return o, nil
	}
	if (o.DBPath == "") == (o.URL == "") {
		return options{}, errors.New("exactly one of -db or -url is required")
	}
	if !units.IsValid(o.Units) {
		return options{}, fmt.Errorf("invalid -units %q: must be one of %s", o.Units, units.GetValidUnitsString())
	}
	if err := security.ValidateOutputPath(o.Out); err != nil {
		return options{}, fmt.Errorf("invalid -out: %w", err)
	}
	for _, s := range strings.Split(subjects, ",") {
		if s = strings.TrimSpace(s); s != "" {
			o.Subjects = append(o.Subjects, s)
		}
	}
	return o, nil
}

// run resolves the session and subjects, then renders and saves the plots.
func run(ctx context.Context, src trackSource, o options) error {
	session := o.Session
	if session == "" {
		var err error
		if session, err = src.LatestSession(ctx); err != nil {
			return err
		}
	}

	subjects := o.Subjects
	if len(subjects) == 0 {
		var err error
		if subjects, err = src.SubjectNames(ctx, session); err != nil {
			return err
		}
	}
	if len(subjects) == 0 {
		return fmt.Errorf("session %s has no recorded subjects", session)
	}

	plots, err := buildPlots(ctx, src, session, subjects, o.Units)
	if err != nil {
		return err
	}
	if plots.points == 0 {
		return fmt.Errorf("no poses for %s in session %s", strings.Join(subjects, ", "), session)
	}
	heightPath, err := plots.save(o.Out)
	if err != nil {
		return err
	}
	log.Printf("plotted %d poses of %d subjects from session %s to %s and %s",
		plots.points, len(subjects), session, o.Out, heightPath)
	return nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}
	if o.ShowVersion {
		fmt.Println(version.String("mocap-plot"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var src trackSource
	if o.DBPath != "" {
		store, err := db.NewDB(o.DBPath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer store.Close()
		src = dbSource{db: store}
	} else {
		src = newAPISource(http.DefaultClient, o.URL)
	}

	if err := run(ctx, src, o); err != nil {
		log.Fatalf("plot failed: %v", err)
	}
}
