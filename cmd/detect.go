package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cwbudde/ransacfit/internal/config"
	"github.com/cwbudde/ransacfit/internal/detect"
	"github.com/cwbudde/ransacfit/internal/geom"
	"github.com/cwbudde/ransacfit/internal/pointio"
	"github.com/cwbudde/ransacfit/internal/render"
	"github.com/cwbudde/ransacfit/internal/store"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect primitives in a point set",
	Long: `Loads points from a text, JSON or image file, extracts primitives of one
kind and prints them. Settings come from the defaults, then --config, then
the flags given on the command line.`,
	Example: `  ransacfit detect --input points.csv --primitive circle --count 2
  ransacfit detect --input drawing.png --primitive ellipse --foreground edges --overlay out.png`,
	RunE: runDetect,
}

func init() {
	addDetectFlags(detectCmd.Flags())
	detectCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(detectCmd)
}

// addDetectFlags defines the detect flags. Defaults shown in the help come
// from the built-in configuration; only flags set explicitly override a
// config file.
func addDetectFlags(fs *pflag.FlagSet) {
	def := config.Default()

	fs.String("input", "", "Point file (.csv, .txt, .json, .png, .jpg, .gif)")
	fs.String("config", "", "YAML config file")
	fs.String("primitive", string(def.Kind), "Primitive to detect: line, circle, ellipse")

	fs.Int("max-iter", def.Circle.MaxIterations, "Draws per detection")
	fs.Float64("threshold", def.Circle.DistanceThreshold, "Inlier distance threshold")
	fs.Int("min-support", 0, "Minimum inlier count (default depends on the primitive)")
	fs.Float64("min-pair-dist", 0, "Minimum distance between drawn points (lines and circles)")
	fs.String("final-fit", def.Circle.Method, "Circle final fit: kasa, pratt, hyper, geometric")
	fs.Bool("adaptive", false, "Stop early once enough draws were made for --confidence")
	fs.Float64("confidence", def.Circle.Confidence, "Success probability for adaptive stopping")

	fs.Int("count", def.Count, "Maximum number of primitives (0 = until none is found)")
	fs.Int64("seed", def.Seed, "Random seed")
	fs.Bool("keep-inliers", false, "Do not remove inliers; stops after one primitive")

	fs.Int("level", int(def.Image.Level), "Image threshold level (0-255)")
	fs.String("foreground", string(def.Image.Foreground), "Image foreground: dark, bright, edges")
	fs.Int("max-points", def.Image.MaxPoints, "Subsample image points to at most N (0 = all)")

	fs.String("out", "", "Write the report as JSON to this file (- for stdout)")
	fs.String("overlay", "", "Write a PNG overlay of points and primitives")
	fs.String("data-dir", "./data", "Base directory for --save")
	fs.Bool("save", false, "Store result, overlay and trace under --data-dir")
}

// loadDetectConfig builds the configuration from the defaults, the config
// file and the flags that were set.
func loadDetectConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if path, _ := fs.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if fs.Changed("primitive") {
		s, _ := fs.GetString("primitive")
		kind, err := detect.ParseKind(s)
		if err != nil {
			return config.Config{}, err
		}
		cfg.Kind = kind
	}

	engine := cfg.Engine()
	if fs.Changed("max-iter") {
		engine.MaxIterations, _ = fs.GetInt("max-iter")
	}
	if fs.Changed("threshold") {
		engine.DistanceThreshold, _ = fs.GetFloat64("threshold")
	}
	if fs.Changed("min-support") {
		engine.MinSupport, _ = fs.GetInt("min-support")
	}
	if fs.Changed("adaptive") {
		engine.Adaptive, _ = fs.GetBool("adaptive")
	}
	if fs.Changed("confidence") {
		engine.Confidence, _ = fs.GetFloat64("confidence")
	}

	if fs.Changed("min-pair-dist") {
		d, _ := fs.GetFloat64("min-pair-dist")
		switch cfg.Kind {
		case detect.KindLine:
			cfg.Line.MinPairDistance = d
		case detect.KindCircle:
			cfg.Circle.MinPairDistance = d
		default:
			return config.Config{}, fmt.Errorf("--min-pair-dist does not apply to %s", cfg.Kind)
		}
	}
	if fs.Changed("final-fit") {
		if cfg.Kind != detect.KindCircle {
			return config.Config{}, fmt.Errorf("--final-fit only applies to circles")
		}
		cfg.Circle.Method, _ = fs.GetString("final-fit")
	}

	if fs.Changed("count") {
		cfg.Count, _ = fs.GetInt("count")
	}
	if fs.Changed("seed") {
		cfg.Seed, _ = fs.GetInt64("seed")
	}
	if fs.Changed("keep-inliers") {
		cfg.KeepInliers, _ = fs.GetBool("keep-inliers")
	}

	if fs.Changed("level") {
		level, _ := fs.GetInt("level")
		if level < 0 || level > 255 {
			return config.Config{}, fmt.Errorf("--level must be in [0, 255], got %d", level)
		}
		cfg.Image.Level = uint8(level)
	}
	if fs.Changed("foreground") {
		s, _ := fs.GetString("foreground")
		cfg.Image.Foreground = pointio.Foreground(s)
	}
	if fs.Changed("max-points") {
		cfg.Image.MaxPoints, _ = fs.GetInt("max-points")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()
	cfg, err := loadDetectConfig(fs)
	if err != nil {
		return err
	}

	input, _ := fs.GetString("input")
	pts, err := pointio.Load(input, cfg.Image)
	if err != nil {
		return fmt.Errorf("failed to load points: %w", err)
	}
	slog.Info("Loaded points", "input", input, "points", len(pts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		resultStore *store.FSStore
		trace       *store.TraceWriter
		jobID       string
	)
	if save, _ := fs.GetBool("save"); save {
		dataDir, _ := fs.GetString("data-dir")
		resultStore, err = store.NewFSStore(dataDir)
		if err != nil {
			return fmt.Errorf("failed to create result store: %w", err)
		}
		jobID = uuid.New().String()
		trace, err = store.NewTraceWriter(resultStore.BaseDir(), jobID, false)
		if err != nil {
			return err
		}
		defer trace.Close()
		if err := trace.Write(store.TraceEntry{Event: store.EventStart, Timestamp: time.Now(), Points: len(pts)}); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}
	}

	ps := geom.NewPointSet(pts)
	report, runErr := detect.Run(ctx, ps, cfg.Params, func(d detect.Detection) error {
		slog.Debug("Detected primitive", "index", d.Index, "shape", d.Final.String(), "score", d.Score)
		if trace != nil {
			return trace.Write(store.DetectionEntry(d, ps.Count()))
		}
		return nil
	})

	printReport(cmd.OutOrStdout(), report)

	if out, _ := fs.GetString("out"); out != "" {
		if err := writeReport(cmd.OutOrStdout(), out, report); err != nil {
			return err
		}
	}
	if path, _ := fs.GetString("overlay"); path != "" {
		img := render.Overlay(pts, report.Detections, render.DefaultOptions())
		if err := render.Save(path, img); err != nil {
			return err
		}
		slog.Info("Wrote overlay", "path", path)
	}

	if resultStore != nil {
		entry := store.TraceEntry{Event: store.EventDone, Timestamp: time.Now(), Points: report.Remaining}
		if runErr != nil {
			entry.Event = store.EventFailed
			entry.Error = runErr.Error()
		}
		if err := trace.Write(entry); err != nil {
			slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
		}

		jobConfig := store.JobConfig{Input: input, Params: cfg.Params, Image: cfg.Image}
		if err := resultStore.SaveResult(jobID, store.NewRecord(jobID, jobConfig, report, runErr)); err != nil {
			return err
		}
		img := render.Overlay(pts, report.Detections, render.DefaultOptions())
		if err := render.Save(resultStore.OverlayPath(jobID), img); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved result %s\n", jobID)
	}

	return runErr
}

// printReport writes one row per detection followed by a summary line.
func printReport(w io.Writer, report *detect.Report) {
	if len(report.Detections) == 0 {
		fmt.Fprintf(w, "No %s found in %d points.\n", report.Kind, report.Points)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPRIMITIVE\tINLIERS\tRMS\tITERATIONS")
	fmt.Fprintln(tw, "-\t---------\t-------\t---\t----------")
	for _, d := range report.Detections {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.4f\t%d\n", d.Index, d.Final, d.Score, d.RMS, d.Stats.Iterations)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d %s(s), %d of %d points remaining", len(report.Detections), report.Kind, report.Remaining, report.Points)
	if report.FailedFits > 0 {
		fmt.Fprintf(w, ", %d failed fit(s)", report.FailedFits)
	}
	fmt.Fprintf(w, " (%s)\n", report.Duration.Round(time.Millisecond))
}

// writeReport writes the report as indented JSON to path, or to stdout
// if path is "-".
func writeReport(stdout io.Writer, path string, report *detect.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	slog.Info("Wrote report", "path", path)
	return nil
}
