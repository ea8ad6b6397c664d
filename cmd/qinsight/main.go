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
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/jtsunne/qinsight/internal/api"
	"github.com/jtsunne/qinsight/internal/client"
	"github.com/jtsunne/qinsight/internal/config"
	"github.com/jtsunne/qinsight/internal/engine"
	"github.com/jtsunne/qinsight/internal/format"
	"github.com/jtsunne/qinsight/internal/mockdata"
	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/telemetry"
	"github.com/jtsunne/qinsight/internal/tui"
)

const (
	envUser     = "QINSIGHT_USER"
	envPassword = "QINSIGHT_PASSWORD"
)

// options holds the parsed command line.
type options struct {
	source     string
	seed       int64
	interval   time.Duration
	configPath string
	insecure   bool
	user       string
	password   string
	addr       string
	agentURL   string
	assistant  string
	logLevel   string
	logFormat  string
	logFile    string
	metrics    string
	otlpAddr   string
	otlpPlain  bool
	jsonOut    bool

	command string
	args    []string
}

// parseSourceURI parses a sample source URI and returns the base URL (without
// credentials, query or fragment), username, and password. Returns an error if
// the URI is invalid, has an unsupported scheme, or an out of range port.
func parseSourceURI(raw string) (baseURL, username, password string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid URI %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", "", fmt.Errorf("unsupported scheme %q (must be http or https)", u.Scheme)
	}

	if u.Hostname() == "" {
		return "", "", "", fmt.Errorf("invalid URI %q: host is required", raw)
	}

	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", "", "", fmt.Errorf("invalid URI %q: port %q out of range", raw, p)
		}
	}

	if u.User != nil {
		username = u.User.Username()
		password, _ = u.User.Password()
		u.User = nil
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""

	return u.String(), username, password, nil
}

// resolveCredentials picks credentials with priority flag > env > URI. Each
// field is resolved independently.
func resolveCredentials(uriUser, uriPass, envUser, envPass, flagUser, flagPass string) (string, string) {
	user, pass := uriUser, uriPass
	if envUser != "" {
		user = envUser
	}
	if envPass != "" {
		pass = envPass
	}
	if flagUser != "" {
		user = flagUser
	}
	if flagPass != "" {
		pass = flagPass
	}
	return user, pass
}

func usage(fs *flag.FlagSet, w io.Writer) func() {
	return func() {
		fmt.Fprintf(w, "usage: qinsight [flags] [tui|serve|report|ask \"<question>\"]\n\n")
		fmt.Fprintf(w, "examples:\n")
		fmt.Fprintf(w, "  qinsight\n")
		fmt.Fprintf(w, "  qinsight --source https://user:pw@samples.example.com:8443 --interval 30s\n")
		fmt.Fprintf(w, "  qinsight --addr :8080 serve\n")
		fmt.Fprintf(w, "  qinsight --json report\n")
		fmt.Fprintf(w, "  qinsight --agent-url http://localhost:2024 ask \"why is es-node-3 slow?\"\n\n")
		fs.PrintDefaults()
	}
}

// parseFlags parses args (without the program name). The first positional
// argument selects the command; tui is the default.
func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("qinsight", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.source, "source", "mock", `sample source: "mock" or an http(s) base URL`)
	fs.Int64Var(&o.seed, "seed", 1, "random seed for the mock source")
	fs.DurationVar(&o.interval, "interval", 10*time.Second, "polling interval (e.g. 10s, 30s)")
	fs.StringVar(&o.configPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&o.insecure, "insecure", false, "skip TLS certificate verification")
	fs.StringVar(&o.user, "user", "", "username for the source and agent (overrides "+envUser+")")
	fs.StringVar(&o.password, "password", "", "password for the source and agent (overrides "+envPassword+")")
	fs.StringVar(&o.addr, "addr", ":8080", "listen address for serve")
	fs.StringVar(&o.agentURL, "agent-url", "", "base URL of the agent service for ask")
	fs.StringVar(&o.assistant, "assistant", "agent", "assistant id used by ask")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&o.logFile, "log-file", "", "append logs to this file (the tui logs nowhere otherwise)")
	fs.StringVar(&o.metrics, "metrics", "none", "metrics exporter: none, stdout, otlp-http or otlp-grpc")
	fs.StringVar(&o.otlpAddr, "otlp-endpoint", "", "OTLP collector host:port (exporter default when empty)")
	fs.BoolVar(&o.otlpPlain, "otlp-insecure", false, "disable TLS for the OTLP exporter")
	fs.BoolVar(&o.jsonOut, "json", false, "print report as JSON")
	fs.Usage = usage(fs, stderr)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if o.interval <= 0 {
		return nil, errors.New("--interval must be positive")
	}
	switch telemetry.ExporterType(o.metrics) {
	case telemetry.ExporterNone, telemetry.ExporterStdout, telemetry.ExporterOTLPHTTP, telemetry.ExporterOTLPGRPC:
	default:
		return nil, fmt.Errorf("unknown --metrics %q (must be none, stdout, otlp-http or otlp-grpc)", o.metrics)
	}

	rest := fs.Args()
	o.command = "tui"
	if len(rest) > 0 {
		o.command, rest = rest[0], rest[1:]
	}
	// flag.Parse stops at the first non-flag argument, so trailing --flags
	// would also be silently ignored.
	for _, a := range rest {
		if len(a) > 1 && a[0] == '-' {
			return nil, fmt.Errorf("flag %q must be placed before the command", a)
		}
	}

	switch o.command {
	case "tui", "serve", "report":
		if len(rest) > 0 {
			return nil, fmt.Errorf("unexpected argument %q", rest[0])
		}
	case "ask":
		if len(rest) == 0 {
			return nil, errors.New("ask requires a question")
		}
		if o.agentURL == "" {
			return nil, errors.New("ask requires --agent-url")
		}
		o.args = []string{strings.Join(rest, " ")}
	default:
		return nil, fmt.Errorf("unknown command %q", o.command)
	}
	return o, nil
}

// newLogger builds the process logger. Level and format come from flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	hopts := &slog.HandlerOptions{Level: lvl}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, hopts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, hopts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (must be text or json)", format)
	}
}

// clientConfig resolves the base URL and credentials for an HTTP endpoint.
func clientConfig(o *options, raw string) (client.Config, error) {
	baseURL, uriUser, uriPass, err := parseSourceURI(raw)
	if err != nil {
		return client.Config{}, err
	}
	user, pass := resolveCredentials(uriUser, uriPass, os.Getenv(envUser), os.Getenv(envPassword), o.user, o.password)
	return client.Config{
		BaseURL:            baseURL,
		Username:           user,
		Password:           pass,
		InsecureSkipVerify: o.insecure,
		RequestTimeout:     10 * time.Second,
	}, nil
}

func buildSource(o *options) (client.Source, error) {
	if o.source == "mock" {
		return mockdata.NewSource(o.seed), nil
	}
	cfg, err := clientConfig(o, o.source)
	if err != nil {
		return nil, err
	}
	return client.NewHTTPSource(cfg)
}

func buildAnalyzer(path string) (*engine.Analyzer, error) {
	if path == "" {
		return engine.DefaultAnalyzer(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return engine.NewAnalyzer(cfg), nil
}

func buildMetrics(ctx context.Context, o *options, w io.Writer) (*telemetry.Metrics, error) {
	kind := telemetry.ExporterType(o.metrics)
	if kind == "" || kind == telemetry.ExporterNone {
		return telemetry.Noop(), nil
	}
	cfg := telemetry.DefaultConfig()
	cfg.Enabled = true
	cfg.ExporterType = kind
	cfg.Writer = w
	cfg.OTLPEndpoint = o.otlpAddr
	cfg.OTLPInsecure = o.otlpPlain
	return telemetry.New(ctx, cfg)
}

// analyze fetches one snapshot and derives its insights.
func analyze(ctx context.Context, src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics) (model.Insights, error) {
	snap, err := engine.FetchAll(ctx, src)
	if err != nil {
		return model.Insights{}, err
	}
	ins := analyzer.Analyze(snap)
	metrics.RecordInsights(ctx, ins)
	return ins, nil
}

// writeSummary prints a plain-text digest of ins.
func writeSummary(w io.Writer, name string, ins model.Insights) {
	o := ins.Overview
	fmt.Fprintf(w, "source: %s  generated: %s\n", name, ins.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "nodes: %d (healthy %d, degraded %d, failed %d)  indices: %d  shards: %d\n",
		o.NodeCount, o.HealthyNodes, o.DegradedNodes, o.FailedNodes, o.IndexCount, o.ShardCount)
	succ := "---"
	if o.SampleCount > 0 {
		succ = format.FormatPercent(o.SuccessRate)
	}
	fmt.Fprintf(w, "latency: p50 %s  p95 %s  p99 %s  success %s  samples %s\n",
		format.FormatLatency(o.Latency.P50), format.FormatLatency(o.Latency.P95),
		format.FormatLatency(o.Latency.P99), succ, format.FormatCount(int64(o.SampleCount)))
	fmt.Fprintf(w, "anomalies: %d  running queries: %d\n", o.AnomalyCount, o.RunningQueries)

	for _, n := range ins.Record.Nodes {
		fmt.Fprintf(w, "  %-16s %-9s avg %-9s p99 %-9s shards %d\n",
			n.NodeID, n.Health, format.FormatLatency(n.AvgLatency),
			format.FormatLatency(n.Percentiles.P99), len(n.ShardIDs))
	}

	if len(ins.Recommendations) == 0 {
		fmt.Fprintln(w, "recommendations: none")
		return
	}
	fmt.Fprintln(w, "recommendations:")
	for _, r := range ins.Recommendations {
		fmt.Fprintf(w, "  [%s] %s: %s\n", r.Severity, r.Category, r.Title)
		if r.Detail != "" {
			fmt.Fprintf(w, "      %s\n", r.Detail)
		}
	}
}

func runReport(ctx context.Context, w io.Writer, o *options, src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics) error {
	ins, err := analyze(ctx, src, analyzer, metrics)
	if err != nil {
		return err
	}
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ins)
	}
	writeSummary(w, src.Name(), ins)
	return nil
}

// runAsk sends the question plus the current summary to the agent service and
// streams the reply to w.
func runAsk(ctx context.Context, w io.Writer, o *options, src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics, logger *slog.Logger) error {
	ins, err := analyze(ctx, src, analyzer, metrics)
	if err != nil {
		return err
	}
	var summary strings.Builder
	writeSummary(&summary, src.Name(), ins)

	cfg, err := clientConfig(o, o.agentURL)
	if err != nil {
		return fmt.Errorf("--agent-url: %w", err)
	}
	tc, err := client.NewThreadClient(cfg)
	if err != nil {
		return err
	}
	th, err := tc.CreateThread(ctx, map[string]any{"client": "qinsight", "source": src.Name()})
	if err != nil {
		return err
	}
	logger.Debug("thread created", "thread_id", th.ThreadID)

	in := client.RunInput{
		AssistantID: o.assistant,
		Input: map[string]any{
			"messages": []map[string]any{{
				"role":    "user",
				"content": o.args[0] + "\n\nCurrent query insights:\n" + summary.String(),
			}},
		},
	}
	wrote := false
	err = tc.Run(ctx, th.ThreadID, in, func(ev client.ThreadEvent) error {
		switch {
		case ev.Type == "messages" || strings.HasPrefix(ev.Type, "messages/"):
			for _, m := range ev.Messages() {
				if m.Type == "human" || m.Content == "" {
					continue
				}
				fmt.Fprint(w, m.Content)
				wrote = true
			}
		case ev.Type == "error":
			logger.Warn("agent reported error", "thread_id", th.ThreadID, "data", string(ev.Data))
		}
		return nil
	})
	if wrote {
		fmt.Fprintln(w)
	}
	return err
}

func runServe(ctx context.Context, o *options, src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              o.addr,
		Handler:           api.NewServer(src, analyzer, metrics, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", o.addr, "source", src.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runTUI(o *options, src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics, logger *slog.Logger) error {
	app := tui.NewApp(src, analyzer, o.interval, tui.WithMetrics(metrics), tui.WithLogger(logger))
	_, err := tea.NewProgram(app, tea.WithAltScreen()).Run()
	return err
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	logOut := stderr
	if o.command == "tui" {
		logOut = io.Discard
	}
	if o.logFile != "" {
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "error: open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut, o.logLevel, o.logFormat)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	src, err := buildSource(o)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	analyzer, err := buildAnalyzer(o.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	metrics, err := buildMetrics(ctx, o, logOut)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		if err := metrics.Shutdown(context.Background()); err != nil {
			logger.Warn("metrics shutdown", "error", err)
		}
	}()

	switch o.command {
	case "serve":
		err = runServe(ctx, o, src, analyzer, metrics, logger)
	case "report":
		err = runReport(ctx, stdout, o, src, analyzer, metrics)
	case "ask":
		err = runAsk(ctx, stdout, o, src, analyzer, metrics, logger)
	default:
		err = runTUI(o, src, analyzer, metrics, logger)
	}
	if err != nil {
		logger.Error("command failed", "command", o.command, "error", err)
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
