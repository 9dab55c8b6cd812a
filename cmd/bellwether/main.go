// Command bellwether audits a JSON-RPC tool server's behavioral surface
// and detects drift between two captured baselines. Grounded on falcon's
// cmd/falcon/main.go cobra root-command structure (persistent config
// flag, cobra.OnInitialize(initConfig), godotenv load-if-exists), pared
// down to bellwether's two operations: "interview" (capture a baseline)
// and "compare" (diff two baselines). All textual formatting beyond
// indented JSON is left to the caller, per spec.md §6.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arcflow-dev/bellwether/pkg/baseline"
	"github.com/arcflow-dev/bellwether/pkg/comparator"
	"github.com/arcflow-dev/bellwether/pkg/config"
	"github.com/arcflow-dev/bellwether/pkg/discovery"
	"github.com/arcflow-dev/bellwether/pkg/interview"
	"github.com/arcflow-dev/bellwether/pkg/transport"
	"github.com/itchyny/gojq"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "bellwether",
	Short: "Audit a JSON-RPC tool server's behavior and detect drift between baselines",
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./bellwether.yaml)")

	rootCmd.AddCommand(interviewCmd, compareCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bellwether %s\n  commit: %s\n", version, commit)
	},
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("bellwether")
	}
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

var (
	serverCmd    string
	serverArgs   []string
	remoteURL    string
	outputPath   string
	personaFlags []string
	modelFlag    string
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "connect to a tool server, probe its tools, and write a baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}
		return runInterview(cmd.Context())
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <before.json> <after.json>",
	Short: "diff two baseline files and print the structured result",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare(args[0], args[1])
	},
}

func init() {
	interviewCmd.Flags().StringVar(&serverCmd, "server", "", "subprocess command to launch (stdio transport)")
	interviewCmd.Flags().StringSliceVar(&serverArgs, "server-args", nil, "arguments for --server")
	interviewCmd.Flags().StringVar(&remoteURL, "url", "", "streaming-HTTP server URL (alternative to --server)")
	interviewCmd.Flags().StringVar(&outputPath, "out", "", "baseline output path (default bellwether-baseline.json)")
	interviewCmd.Flags().StringSliceVar(&personaFlags, "personas", nil, "override configured persona list")
	interviewCmd.Flags().StringVar(&modelFlag, "model", "", "optional model identifier recorded in baseline metadata")

	compareCmd.Flags().StringSlice("ignore-aspects", nil, "aspects to exclude from the diff")
	compareCmd.Flags().Int("confidence-min", 0, "hide changes below this confidence score")
	compareCmd.Flags().String("fail-on", "", "exit non-zero if overall severity reaches this level (warning|breaking)")

	interviewCmd.Flags().StringVar(&jqQuery, "query", "", "jq-style filter applied to the baseline before printing")
	compareCmd.Flags().StringVar(&jqQuery, "query", "", "jq-style filter applied to the diff before printing")
}

var jqQuery string

// loadConfig resolves the config file viper's initConfig already located
// (if any) and decodes it directly by its yaml tags via pkg/config.Load,
// since those tags don't match mapstructure's default tag name that a bare
// viper.Unmarshal would look for.
func loadConfig() config.Options {
	path := viper.ConfigFileUsed()
	if path == "" {
		return config.DefaultOptions()
	}
	opts, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: config load failed, using defaults: %v\n", err)
		return config.DefaultOptions()
	}
	return opts
}

func runInterview(ctx context.Context) error {
	if serverCmd == "" && remoteURL == "" {
		return fmt.Errorf("one of --server or --url is required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	opts := loadConfig()
	if len(personaFlags) > 0 {
		opts.Personas = personaFlags
	}

	session, err := connect(ctx, logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Disconnect()

	perCallTimeout := time.Duration(opts.PerCallTimeoutMs) * time.Millisecond
	disc, err := discovery.Discover(ctx, session, perCallTimeout, logger)
	if err != nil {
		return fmt.Errorf("discovery: %w", err)
	}

	progress := make(chan interview.Progress, 16)
	go func() {
		for p := range progress {
			fmt.Fprintf(os.Stderr, "[%s] %s %s\n", p.Phase, p.Tool, p.Message)
		}
	}()

	interviewOpts := config.ToInterviewOptions(opts)
	engine := interview.New(interviewOpts, logger, progress)

	start := time.Now()
	result, err := engine.Interview(ctx, session, disc)
	close(progress)
	if err != nil {
		return fmt.Errorf("interview: %w", err)
	}

	b := baseline.CreateBaseline(result, baseline.CreateOptions{
		Mode:          modeFor(serverCmd, remoteURL),
		CLIVersion:    version,
		ServerCommand: commandLine(),
		DurationMs:    float64(time.Since(start).Milliseconds()),
		Personas:      opts.Personas,
		Model:         modelFlag,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	})

	path := outputPath
	if path == "" {
		path = baseline.DefaultPath(".")
	}
	if err := baseline.Save(b, path); err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}

	return printJSON(b)
}

func connect(ctx context.Context, logger *zap.Logger) (transport.Session, error) {
	if remoteURL != "" {
		return transport.ConnectRemote(remoteURL, transport.RemoteOptions{
			DefaultTimeout: 30 * time.Second,
			SessionHeader:  "Mcp-Session-Id",
			Logger:         logger,
		})
	}
	return transport.ConnectStdio(ctx, serverCmd, serverArgs, os.Environ(), transport.StdioOptions{
		StartupGrace:   500 * time.Millisecond,
		DefaultTimeout: 30 * time.Second,
		Logger:         logger,
	})
}

func modeFor(serverCmd, remoteURL string) string {
	if remoteURL != "" {
		return "remote"
	}
	if serverCmd != "" {
		return "stdio"
	}
	return "unknown"
}

func commandLine() string {
	if remoteURL != "" {
		return remoteURL
	}
	return strings.TrimSpace(serverCmd + " " + strings.Join(serverArgs, " "))
}

func runCompare(beforePath, afterPath string) error {
	before, err := baseline.Load(beforePath, false)
	if err != nil {
		return fmt.Errorf("load %s: %w", beforePath, err)
	}
	after, err := baseline.Load(afterPath, false)
	if err != nil {
		return fmt.Errorf("load %s: %w", afterPath, err)
	}

	ignoreAspects, _ := compareCmd.Flags().GetStringSlice("ignore-aspects")
	confidenceMin, _ := compareCmd.Flags().GetInt("confidence-min")
	failOn, _ := compareCmd.Flags().GetString("fail-on")

	opts := config.DefaultComparatorOptions()
	opts.IgnoreAspects = ignoreAspects
	opts.ConfidenceMin = confidenceMin
	opts.FailOnSeverity = failOn

	interviewOpts := loadConfig()
	comparatorOpts := config.ToComparatorOptions(opts, interviewOpts.RegressionThresholdPct)

	diff, err := comparator.Compare(before, after, comparatorOpts)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	if err := printJSON(diff); err != nil {
		return err
	}
	if comparator.ShouldFail(diff, comparatorOpts.FailOnSeverity) {
		os.Exit(1)
	}
	return nil
}

// printJSON prints v as indented JSON, or, if --query was set, runs v
// through a jq-style filter first. Query support reuses itchyny/gojq so
// callers can slice a baseline or diff down to the fields they care about
// without bellwether growing its own output-shaping flags.
func printJSON(v interface{}) error {
	if jqQuery == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}

	query, err := gojq.Parse(jqQuery)
	if err != nil {
		return fmt.Errorf("parse --query: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	iter := query.Run(generic)
	for {
		result, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := result.(error); ok {
			return fmt.Errorf("--query: %w", err)
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
