package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/payroll-csv/internal/config"
	"github.com/dvloznov/payroll-csv/internal/extract"
	"github.com/dvloznov/payroll-csv/internal/logger"
	"github.com/dvloznov/payroll-csv/internal/payroll"
	"github.com/dvloznov/payroll-csv/internal/pipeline"
	"github.com/dvloznov/payroll-csv/internal/render"
	"github.com/dvloznov/payroll-csv/internal/source"
)

// errUsage means the flags were wrong and usage has already been printed.
var errUsage = errors.New("usage")

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Out: os.Stderr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	err = run(ctx, os.Args[1:], cfg, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		os.Exit(2)
	case errors.Is(err, payroll.ErrNoRecords):
		fmt.Fprintln(os.Stderr, payroll.NoDataMessage)
		os.Exit(1)
	default:
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func run(ctx context.Context, args []string, cfg *config.Config, out io.Writer) error {
	if len(args) < 1 {
		printUsage(out)
		return errUsage
	}

	loader := source.NewLoader(source.GCSOptions{
		CredentialsFile: cfg.Storage.CredentialsFile,
		Endpoint:        cfg.Storage.Endpoint,
		Anonymous:       cfg.Storage.Anonymous,
	}, cfg.Server.MaxUploadBytes())

	switch args[0] {
	case "extract":
		return runExtract(ctx, args[1:], cfg, loader, out)
	case "inspect":
		return runInspect(ctx, args[1:], cfg, loader, out)
	case "upload":
		return runUpload(ctx, args[1:], loader, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(out, "Unknown command: %s\n\n", args[0])
		printUsage(out)
		return errUsage
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Armour Me payroll to CSV")
	fmt.Fprintln(out, "\nUsage:")
	fmt.Fprintln(out, "  cli <command> [options]")
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintln(out, "  extract   Extract gross remuneration from a payroll PDF into CSV")
	fmt.Fprintln(out, "  inspect   Show how each line of a payroll PDF is classified")
	fmt.Fprintln(out, "  upload    Copy a local PDF to a gs:// URI")
	fmt.Fprintln(out, "  help      Show this help message")
	fmt.Fprintln(out, "\nPaths may be local files or gs://bucket/object URIs.")
	fmt.Fprintln(out, "Run 'cli <command> -h' for more information on a command.")
}

func extractOptions(modeFlag string, band float64) (extract.Options, error) {
	mode, err := extract.ParseMode(modeFlag)
	if err != nil {
		return extract.Options{}, err
	}
	opts := extract.DefaultOptions()
	opts.Mode = mode
	opts.NameBand = band
	return opts, nil
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

func runExtract(ctx context.Context, args []string, cfg *config.Config, loader *source.Loader, out io.Writer) error {
	fs := newFlagSet("extract", out)
	in := fs.String("in", "", "Payroll PDF path or gs:// URI")
	detail := fs.String("out", render.DetailFilename, "Detail CSV destination, '-' for stdout")
	summary := fs.String("summary", "", "Optional totals CSV destination")
	mode := fs.String("mode", cfg.Extract.Mode, "Extraction mode: auto, table or lines")
	band := fs.Float64("band", cfg.Extract.NameBandPoints, "Height in points searched above a table for the employee name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *in == "" {
		fmt.Fprintln(out, "Error: -in is required")
		fs.Usage()
		return errUsage
	}

	opts, err := extractOptions(*mode, *band)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().Str("source", *in).Str("mode", string(opts.Mode)).Msg("Starting extraction")

	state := &pipeline.PipelineState{Source: *in}
	if err := pipeline.Run(ctx, state, loader, opts); err != nil {
		return err
	}

	if err := writeOutput(ctx, loader, *detail, state.DetailCSV, out); err != nil {
		return err
	}
	if *summary != "" {
		if err := writeOutput(ctx, loader, *summary, state.SummaryCSV, out); err != nil {
			return err
		}
	}

	if *detail != "-" {
		fmt.Fprintln(out, state.Report.Summary())
		fmt.Fprintf(out, "Wrote %s\n", *detail)
		if *summary != "" {
			fmt.Fprintf(out, "Wrote %s\n", *summary)
		}
	}
	return nil
}

// writeOutput sends data to out for "-", otherwise to the store.
func writeOutput(ctx context.Context, store source.Storer, dest string, data []byte, out io.Writer) error {
	if dest == "-" {
		_, err := out.Write(data)
		return err
	}
	return store.Store(ctx, dest, data, "text/csv; charset=utf-8")
}

func runInspect(ctx context.Context, args []string, cfg *config.Config, loader *source.Loader, out io.Writer) error {
	fs := newFlagSet("inspect", out)
	in := fs.String("in", "", "Payroll PDF path or gs:// URI")
	page := fs.Int("page", 0, "Only show this page (1-based, 0 for all)")
	band := fs.Float64("band", cfg.Extract.NameBandPoints, "Height in points searched above a table for the employee name")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *in == "" {
		fmt.Fprintln(out, "Error: -in is required")
		fs.Usage()
		return errUsage
	}

	// Only the first two steps; inspecting must work when extraction finds nothing.
	state := &pipeline.PipelineState{Source: *in}
	p := pipeline.NewPipeline(
		&pipeline.FetchPDFStep{Fetcher: loader},
		&pipeline.ExtractPagesStep{Reader: pipeline.PDFReader{}},
	)
	if err := p.Execute(ctx, state); err != nil {
		return err
	}

	opts, err := extractOptions(cfg.Extract.Mode, *band)
	if err != nil {
		return err
	}
	return printInspection(out, extract.Inspect(state.Pages, opts), *page)
}

func printInspection(out io.Writer, lines []extract.InspectedLine, page int) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tY\tCLASS\tTEXT\tDETAIL")
	for _, l := range lines {
		if page > 0 && l.Page != page {
			continue
		}
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%s\t%s\n", l.Page, l.Y, l.Class, l.Text, l.Detail)
	}
	return tw.Flush()
}

func runUpload(ctx context.Context, args []string, loader *source.Loader, out io.Writer) error {
	fs := newFlagSet("upload", out)
	filePath := fs.String("file", "", "Path to local PDF file")
	dest := fs.String("to", "", "Destination gs://bucket/object (object defaults to the file name)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *filePath == "" || *dest == "" {
		fmt.Fprintln(out, "Usage: cli upload -file PATH -to gs://BUCKET[/OBJECT]")
		return errUsage
	}

	uri := *dest
	if _, _, err := source.ParseGCSURI(uri); err != nil {
		// A bare bucket gets the local file name.
		uri = fmt.Sprintf("%s/%s", strings.TrimRight(uri, "/"), source.ExtractFilename(*filePath))
		if _, _, err := source.ParseGCSURI(uri); err != nil {
			return err
		}
	}

	data, err := loader.Fetch(ctx, *filePath)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Info().Str("file", *filePath).Str("gcs_uri", uri).Int("bytes", len(data)).Msg("Uploading file to GCS")

	if err := loader.Store(ctx, uri, data, "application/pdf"); err != nil {
		return err
	}

	fmt.Fprintf(out, "Uploaded %s to %s\n", *filePath, uri)
	return nil
}
