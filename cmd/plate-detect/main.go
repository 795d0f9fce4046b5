package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
	"github.com/ironsheep/plate-detect/internal/ocr"
	"github.com/ironsheep/plate-detect/internal/server"
	"github.com/ironsheep/plate-detect/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Process exit codes.
const (
	exitFound    = 0
	exitError    = 1
	exitNotFound = 2
)

const (
	defaultInput  = "./plate.jpg"
	defaultOutput = "./out_plate.png"
)

func main() {
	// Configure logging to stderr (stdout carries results and MCP traffic)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func debugEnabled() bool {
	return os.Getenv("PLATE_DETECT_LOG_LEVEL") == "debug"
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "plate-detect %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "mcp":
			return runServer(stderr)
		case "history":
			return runHistory(args[1:], stdout, stderr)
		case "version", "--version":
			printVersion(stdout)
			return exitFound
		}
	}
	return runDetect(args, stdout, stderr)
}

func runServer(stderr io.Writer) int {
	logger := log.New(stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
	opts := []server.Option{server.WithVersion(Version)}
	if debugEnabled() {
		logger.Printf("Plate Detect MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
		opts = append(opts, server.WithLogger(logger))
	}

	srv := server.New(opts...)
	if err := srv.Run(); err != nil {
		logger.Printf("Server error: %v", err)
		return exitError
	}
	return exitFound
}

type detectOptions struct {
	input      string
	output     string
	diagDir    string
	noDiag     bool
	ocr        bool
	lang       string
	dbPath     string
	jsonOutput bool
	version    bool
}

func runDetect(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
	cfg := detection.DefaultConfig()
	style := detection.DefaultStyle()
	var opts detectOptions

	fs := flag.NewFlagSet("plate-detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.diagDir, "diag-dir", ".", "directory for diagnostic images")
	fs.BoolVar(&opts.noDiag, "no-diag", false, "do not write diagnostic images")
	fs.Float64Var(&cfg.InitialThreshold, "threshold", cfg.InitialThreshold, "first binarization threshold in (0,1]")
	fs.Float64Var(&cfg.ThresholdStep, "step", cfg.ThresholdStep, "threshold increment per iteration")
	fs.IntVar(&cfg.DilateIterations, "dilate", cfg.DilateIterations, "dilation passes applied to the edge map")
	fs.BoolVar(&opts.ocr, "ocr", false, "read the plate text with Tesseract")
	fs.StringVar(&opts.lang, "lang", ocr.DefaultLanguage, "Tesseract language for -ocr")
	fs.StringVar(&opts.dbPath, "db", "", "SQLite file to record the run in")
	fs.BoolVar(&opts.jsonOutput, "json", false, "print the full run report as JSON")
	fs.BoolVar(&style.Labels, "labels", false, "label each outline with its index and score")
	fs.BoolVar(&opts.version, "version", false, "print version information")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "plate-detect - licence plate detector")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Usage:")
		fmt.Fprintf(stderr, "  plate-detect [options] [input (default %s)] [output (default %s)]\n", defaultInput, defaultOutput)
		fmt.Fprintln(stderr, "  plate-detect history -db runs.db [-n 20]")
		fmt.Fprintln(stderr, "  plate-detect mcp")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Environment variables:")
		fmt.Fprintln(stderr, "  PLATE_DETECT_LOG_LEVEL=debug    Trace every threshold iteration")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Exit status: 0 plate found, 2 no plate found, 1 error.")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitFound
		}
		return exitError
	}
	if opts.version {
		printVersion(stdout)
		return exitFound
	}

	opts.input, opts.output = defaultInput, defaultOutput
	if fs.NArg() > 0 {
		opts.input = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		opts.output = fs.Arg(1)
	}

	if err := cfg.Validate(); err != nil {
		logger.Printf("%v", err)
		return exitError
	}
	if _, err := imaging.ParseColor(style.Color); err != nil {
		logger.Printf("%v", err)
		return exitError
	}

	detector := detection.New(cfg)
	detector.Style = style
	if debugEnabled() {
		detector.Logger = logger
		detector.Ledger = imaging.NewLedger()
	}

	det, err := detector.DetectFile(opts.input)
	if err != nil {
		if errors.Is(err, imaging.ErrLoad) {
			fmt.Fprintln(stderr, "Cannot load input image...exiting")
		}
		logger.Printf("%v", err)
		// An unreadable input leaves no trace on disk, the history included.
		if !errors.Is(err, imaging.ErrLoad) {
			recordFailure(opts, err, logger)
		}
		return exitError
	}
	defer func() {
		if err := det.Release(); err != nil {
			logger.Printf("release: %v", err)
		}
		if detector.Ledger != nil {
			logger.Printf("frames produced: %d, still live: %d", detector.Ledger.Produced(), detector.Ledger.Live())
		}
	}()

	code, err := finish(det, opts, logger)
	if err != nil {
		logger.Printf("%v", err)
		return exitError
	}

	report := det.Report(opts.input)
	if det.Status == detection.StatusFound && opts.ocr {
		text, err := ocr.ReadPlate(det.Artifacts.Cropped, opts.lang)
		if err != nil {
			logger.Printf("plate OCR failed: %v", err)
		} else {
			report.PlateText = text.Text
		}
	}

	if opts.dbPath != "" {
		if err := recordRun(opts.dbPath, report); err != nil {
			logger.Printf("failed to record run: %v", err)
			return exitError
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Printf("%v", err)
			return exitError
		}
		return code
	}
	printSummary(stdout, report)
	return code
}

// finish writes the diagnostic images and, when a plate was found, the
// annotated output. It returns the exit code for the outcome.
func finish(det *detection.Detection, opts detectOptions, logger *log.Logger) (int, error) {
	if !opts.noDiag {
		if err := det.SaveDiagnostics(detection.DiagnosticsIn(opts.diagDir)); err != nil {
			return exitError, fmt.Errorf("failed to save diagnostics: %w", err)
		}
	}
	if det.Status != detection.StatusFound {
		return exitNotFound, nil
	}
	if err := det.SaveAnnotated(opts.output); err != nil {
		return exitError, fmt.Errorf("failed to save output image: %w", err)
	}
	logger.Printf("wrote %s", opts.output)
	return exitFound, nil
}

// recordRun stores one report in the history database at path.
func recordRun(path string, report *detection.Report) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveRun(report)
}

func recordFailure(opts detectOptions, cause error, logger *log.Logger) {
	if opts.dbPath == "" {
		return
	}
	if err := recordRun(opts.dbPath, detection.FailedReport(uuid.NewString(), opts.input, cause)); err != nil {
		logger.Printf("failed to record run: %v", err)
	}
}

func printSummary(w io.Writer, r *detection.Report) {
	if r.Best == nil {
		fmt.Fprintln(w, "Can not find license plate.")
		return
	}
	fmt.Fprintf(w, "confidence threshold: %f\n", r.Best.Score)
	fmt.Fprintf(w, "x: %d\n", r.Best.X)
	fmt.Fprintf(w, "y: %d\n", r.Best.Y)
	fmt.Fprintf(w, "width: %d\n", r.Best.W)
	fmt.Fprintf(w, "height: %d\n", r.Best.H)
	if r.PlateText != "" {
		fmt.Fprintf(w, "plate: %s\n", r.PlateText)
	}
}

func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "", "SQLite file holding the run history")
	limit := fs.Int("n", 20, "number of runs to list")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitFound
		}
		return exitError
	}
	if *dbPath == "" {
		fmt.Fprintln(stderr, "history requires -db")
		return exitError
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	defer s.Close()

	runs, err := s.RecentRuns(*limit)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	for _, r := range runs {
		fmt.Fprintf(stdout, "%s  %s  %-11s  threshold=%.2f  iterations=%d  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.RunID, r.Status, r.Threshold, r.Iterations, r.Input)
	}
	return exitFound
}
