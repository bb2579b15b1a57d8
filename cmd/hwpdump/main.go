// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novatechflow/hwpscale/internal/config"
	"github.com/novatechflow/hwpscale/pkg/cache"
	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/hwp"
	"github.com/novatechflow/hwpscale/pkg/storage"
	"github.com/novatechflow/hwpscale/pkg/tree"
	"github.com/novatechflow/hwpscale/pkg/value"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "hwpdump: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hwpdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to YAML config")
	textOnly := fs.Bool("text", false, "Print paragraph text instead of the record tree")
	dumpTree := fs.Bool("dump", false, "Print each stream's record tree with decoded field values")
	stageDir := fs.String("stage", "", "Upload the streams of this directory to the configured S3 prefix and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var overrides []func(*config.Config)
	if fs.NArg() > 0 {
		path := fs.Arg(0)
		overrides = append(overrides, func(c *config.Config) {
			c.Source.Kind = config.SourceDir
			c.Source.Path = path
		})
	}

	cfg, err := config.Load(*configPath, overrides...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(stderr, cfg.Log.Level)

	if *stageDir != "" {
		return stage(ctx, cfg, *stageDir, logger)
	}

	src, err := openContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr != "" {
		var health *storage.Health
		if s3c, ok := src.(*storage.S3Container); ok {
			health = s3c.Health()
		}
		startMetricsServer(ctx, cfg.Metrics.Addr, health, logger)
	}
	dec := hwp.NewDecoder(
		hwp.WithLogger(logger),
		hwp.WithWorkers(cfg.Decoder.Workers),
		hwp.WithStrict(cfg.Decoder.Strict),
	)
	doc, decodeErr := dec.Decode(ctx, src)
	if doc != nil {
		writeDiagnostics(stderr, doc.Diagnostics, useColor(stderr))
		var err error
		if *dumpTree {
			err = writeTree(stdout, doc, dec.Registry())
		} else {
			err = writeDocument(stdout, doc, *textOnly)
		}
		if err != nil {
			return err
		}
	}
	return decodeErr
}

func openContainer(ctx context.Context, cfg config.Config, logger *slog.Logger) (storage.Container, error) {
	switch cfg.Source.Kind {
	case config.SourceS3:
		streams := cache.NewStreamCache(cfg.Cache.Bytes)
		c, err := storage.NewS3Container(ctx, s3Config(cfg), streams)
		if err != nil {
			return nil, fmt.Errorf("open s3 container: %w", err)
		}
		logger.Info("reading document from s3", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix)
		return c, nil
	default:
		c, err := storage.NewDirContainer(cfg.Source.Path)
		if err != nil {
			return nil, fmt.Errorf("open directory container: %w", err)
		}
		return c, nil
	}
}

func s3Config(cfg config.Config) storage.S3Config {
	return storage.S3Config{
		Bucket:          cfg.S3.Bucket,
		Prefix:          cfg.S3.Prefix,
		Region:          cfg.S3.Region,
		Endpoint:        cfg.S3.Endpoint,
		ForcePathStyle:  cfg.S3.PathStyle,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		SessionToken:    cfg.S3.SessionToken,
		KMSKeyARN:       cfg.S3.KMSKeyARN,
	}
}

// stage copies every stream of a local unpacked document to S3.
func stage(ctx context.Context, cfg config.Config, dir string, logger *slog.Logger) error {
	if cfg.S3.Bucket == "" {
		return errors.New("stage requires s3.bucket")
	}
	src, err := storage.NewDirContainer(dir)
	if err != nil {
		return err
	}
	dst, err := storage.NewS3Container(ctx, s3Config(cfg), nil)
	if err != nil {
		return fmt.Errorf("open s3 container: %w", err)
	}
	if err := dst.EnsureBucket(ctx); err != nil {
		return err
	}
	return copyStreams(ctx, src, dst, logger)
}

type putter interface {
	Put(ctx context.Context, name string, body []byte) error
}

func copyStreams(ctx context.Context, src storage.Container, dst putter, logger *slog.Logger) error {
	names, err := src.List(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := storage.ReadStream(ctx, src, name)
		if err != nil {
			return err
		}
		if err := dst.Put(ctx, name, data); err != nil {
			return err
		}
		logger.Info("staged stream", "name", name, "bytes", len(data))
	}
	return nil
}

type documentJSON struct {
	Version     string           `json:"version"`
	Compressed  bool             `json:"compressed"`
	PreviewText string           `json:"preview_text,omitempty"`
	DocInfo     map[string]any   `json:"docinfo,omitempty"`
	Sections    []map[string]any `json:"sections"`
	Diagnostics int              `json:"diagnostics"`
}

func writeDocument(w io.Writer, doc *hwp.Document, textOnly bool) error {
	if textOnly {
		_, err := io.WriteString(w, doc.Text())
		return err
	}
	out := documentJSON{
		Version:     doc.Header.Version.String(),
		Compressed:  doc.Header.Compressed(),
		PreviewText: doc.PreviewText,
		Sections:    make([]map[string]any, 0, len(doc.Sections)),
		Diagnostics: len(doc.Diagnostics),
	}
	if doc.DocInfo != nil {
		out.DocInfo = doc.DocInfo.Plain()
	}
	for _, s := range doc.Sections {
		m := s.Root.Plain()
		m["name"] = s.Name
		out.Sections = append(out.Sections, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeTree prints the record tree of every decoded stream. Typed nodes show
// their resolved values; opaque nodes are labelled by whether their tag is
// registered at all.
func writeTree(w io.Writer, doc *hwp.Document, reg *tree.Registry) error {
	var b strings.Builder
	dumpStream := func(name string, root *tree.Node) {
		if root == nil {
			return
		}
		fmt.Fprintf(&b, "%s\n", name)
		root.Walk(func(n *tree.Node, depth int) bool {
			if n.IsRoot() {
				return true
			}
			pad := strings.Repeat("  ", depth)
			switch {
			case n.Value != nil:
				body := strings.TrimSuffix(value.Dump(n.Value), "\n")
				fmt.Fprintf(&b, "%s%s #%d %s\n", pad, n.Name(), n.Seq, strings.ReplaceAll(body, "\n", "\n"+pad))
			case reg.Known(n.Tag):
				fmt.Fprintf(&b, "%s%s #%d undecoded (%d bytes)\n", pad, reg.TagName(n.Tag), n.Seq, len(n.Raw))
			default:
				fmt.Fprintf(&b, "%s%s #%d opaque (%d bytes)\n", pad, reg.TagName(n.Tag), n.Seq, len(n.Raw))
			}
			return true
		})
	}
	dumpStream(hwp.StreamDocInfo, doc.DocInfo)
	for _, s := range doc.Sections {
		dumpStream(s.Name, s.Root)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDiagnostics(w io.Writer, diags []*diag.Error, colored bool) {
	warn := color.New(color.FgYellow).SprintFunc()
	fatal := color.New(color.FgRed, color.Bold).SprintFunc()
	if !colored {
		warn = fmt.Sprint
		fatal = fmt.Sprint
	}
	for _, d := range diags {
		paint := warn
		if d.Kind.Fatal() {
			paint = fatal
		}
		fmt.Fprintln(w, paint(d.Trace()))
	}
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func startMetricsServer(ctx context.Context, addr string, health *storage.Health, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthHandler(health))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", "error", err)
		}
	}()
}

// healthHandler reports the container health; a nil health is always ok.
func healthHandler(health *storage.Health) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if health == nil {
			fmt.Fprintln(w, "ok")
			return
		}
		snap := health.Snapshot()
		if snap.State == storage.HealthUnavailable {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintf(w, "%s since=%s error_rate=%.2f\n", snap.State, snap.Since.Format(time.RFC3339), snap.ErrorRate)
	}
}

func newLogger(w io.Writer, levelName string) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	return slog.New(handler).With("component", "hwpdump")
}
