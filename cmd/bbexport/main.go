// Command bbexport renders the timeline exports for a scan log without
// starting the server.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/beaconbay/backend/internal/analysis"
	"github.com/beaconbay/backend/internal/chart"
	"github.com/beaconbay/backend/internal/chart/svg"
	"github.com/beaconbay/backend/internal/export"
	"github.com/beaconbay/backend/internal/logging"
	"github.com/beaconbay/backend/internal/mapping"
	"github.com/beaconbay/backend/internal/models"
	"github.com/beaconbay/backend/internal/parser"
	"github.com/beaconbay/backend/internal/report"
	"github.com/beaconbay/backend/internal/session"
)

type options struct {
	in          string
	outDir      string
	mappingFile string
	topN        int
	adverts     bool
	pdf         bool
	timeZone    string
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "Scan log JSON file (required)")
	flag.StringVar(&opts.outDir, "out", ".", "Directory for the export files")
	flag.StringVar(&opts.mappingFile, "mapping", "", "Optional JSON or YAML device-to-location mapping")
	flag.IntVar(&opts.topN, "top", session.DefaultTopN, "Number of devices to plot")
	flag.BoolVar(&opts.adverts, "adverts", false, "Include advertisements in the data export")
	flag.BoolVar(&opts.pdf, "pdf", false, "Also write "+export.PDFFileName)
	flag.StringVar(&opts.timeZone, "tz", "", "IANA time zone for axis labels (default UTC)")
	level := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log := logging.New(*level, os.Stderr)
	if opts.in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(opts, os.Stdout, log); err != nil {
		log.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, stdout io.Writer, log *slog.Logger) error {
	if opts.topN < session.MinTopN {
		return session.ErrTopNTooSmall
	}
	topN := min(opts.topN, session.MaxTopN)

	loc := time.UTC
	if opts.timeZone != "" {
		l, err := time.LoadLocation(opts.timeZone)
		if err != nil {
			return fmt.Errorf("time zone: %w", err)
		}
		loc = l
	}

	raw, err := os.ReadFile(opts.in)
	if err != nil {
		return err
	}
	scanLog, err := parser.ParseScanLog(raw)
	if err != nil {
		return err
	}

	labels := models.Mapping{}
	if opts.mappingFile != "" {
		data, err := os.ReadFile(opts.mappingFile)
		if err != nil {
			return err
		}
		if labels, err = mapping.Decode(data, ""); err != nil {
			return err
		}
	}

	ranked := analysis.Rank(analysis.Compute(scanLog.Devices))
	log.Info("scan log parsed",
		"devices", len(scanLog.Devices),
		"retained", len(ranked),
		"events", analysis.TotalEvents(scanLog.Devices))

	window, err := scanLog.ScanInfo.Window()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrInvalidWindow, err)
	}

	top := analysis.Top(ranked, topN)
	series := export.Series(top, scanLog, labels, opts.adverts)
	c, outcome := chart.NewRenderer(loc).Timeline(series, window)
	if outcome != chart.OutcomeRendered {
		return fmt.Errorf("nothing to export: %s", outcome.Notice())
	}

	bundle, err := export.Package(c, series, scanLog.ScanInfo, svg.DefaultTheme())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return err
	}
	files := map[string][]byte{
		export.DataFileName:  bundle.Data,
		export.ImageFileName: bundle.Image,
	}
	if opts.pdf {
		data, err := report.TimelinePDF(c)
		if err != nil {
			return err
		}
		files[export.PDFFileName] = data
	}
	for name, data := range files {
		path := filepath.Join(opts.outDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		log.Info("wrote export", "file", path, "bytes", len(data))
	}

	for i, s := range top {
		avg := "n/a"
		if s.AvgRSSI != nil {
			avg = *s.AvgRSSI
		}
		fmt.Fprintf(stdout, "%2d. %-24s %-20s events=%-5d avg=%s\n", i+1, s.ID, series[i].Name, s.Count, avg)
	}
	return nil
}
