package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/safari-cb-converter/internal/allowlist"
	"github.com/bnema/safari-cb-converter/internal/converter"
	"github.com/bnema/safari-cb-converter/internal/fetcher"
	"github.com/bnema/safari-cb-converter/internal/logging"
	"github.com/bnema/safari-cb-converter/internal/models"
	"github.com/bnema/safari-cb-converter/internal/parser"
)

var (
	cfgFile string
	cfg     models.Config
	logger  zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "safari-cb-converter",
	Short: "Convert AdGuard filter lists to Safari content blocker format",
	Long: `A tool that converts AdGuard filter lists to Safari content blocker
JSON. Rules Safari cannot express are reported and skipped.`,
	SilenceUsage: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert filter lists to Safari JSON format",
	RunE:  runConvert,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured filter lists",
	RunE:  runList,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE:  runInit,
}

var checkCmd = &cobra.Command{
	Use:   "check <rule>",
	Short: "Show how a single rule converts",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/filter_lists.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	convertCmd.Flags().StringP("output", "o", "./output", "output directory")
	convertCmd.Flags().Bool("dry-run", false, "parse and convert without writing files")
	convertCmd.Flags().Bool("combined", true, "generate combined output file")
	convertCmd.Flags().Bool("verbose", false, "verbose output")
	convertCmd.Flags().Int("limit", 0, "maximum rules per list, 0 for no limit")
	convertCmd.Flags().Bool("optimize", false, "drop generic element hiding rules")
	_ = viper.BindPFlag("output.limit", convertCmd.Flags().Lookup("limit"))
	_ = viper.BindPFlag("output.optimize", convertCmd.Flags().Lookup("optimize"))

	checkCmd.Flags().Bool("regex", false, "check a url-filter regular expression instead of a rule")

	rootCmd.AddCommand(convertCmd, listCmd, initCmd, checkCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("filter_lists")
		viper.SetConfigType("toml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	// Set defaults
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("output.max_rules_per_file", converter.MaxRulesPerFile)
	viper.SetDefault("output.limit", 0)
	viper.SetDefault("output.optimize", false)
	viper.SetDefault("output.generate_combined", true)
	viper.SetDefault("output.generate_manifest", true)
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing config: %v\n", err)
	}

	// Environment wins over the config file
	logCfg := logging.DefaultConfig().
		Apply(cfg.Log.Level, cfg.Log.Format).
		Apply(os.Getenv(logging.EnvLevel), os.Getenv(logging.EnvFormat))
	logger = logging.New(logCfg)
}

func runConvert(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	generateCombined, _ := cmd.Flags().GetBool("combined")
	verbose, _ := cmd.Flags().GetBool("verbose")

	enabledLists := cfg.EnabledLists()
	if len(enabledLists) == 0 {
		return fmt.Errorf("no enabled filter lists found in config")
	}

	allowRules, err := loadAllowlist(cfg.Allowlist)
	if err != nil {
		return err
	}

	fmt.Printf("Converting %d filter lists...\n", len(enabledLists))
	if dryRun {
		fmt.Println("[DRY RUN] No files will be written")
	}

	ctx := context.Background()
	f := fetcher.New(cfg.HTTP, logger)
	splitter := converter.NewSplitter(cfg.Output.MaxRulesPerFile)

	var allRules []models.WebKitRule
	results := make(map[string]ListResult)

	// Aggregate skip reasons across all lists
	totalSkips := make(map[string]int)

	for _, loaded := range f.LoadAll(ctx, enabledLists) {
		list := loaded.List
		fmt.Printf("\n  Processing %s...\n", list.Name)

		if loaded.Err != nil {
			fmt.Printf("    ERROR: %v\n", loaded.Err)
			continue
		}
		fmt.Printf("    Loaded: %d bytes\n", len(loaded.Data))

		lines, err := parser.ReadLines(bytes.NewReader(loaded.Data))
		if err != nil {
			fmt.Printf("    ERROR reading: %v\n", err)
			continue
		}

		// Fresh converter per list for accurate stats
		c := converter.New(converter.WithLogger(logger.With().Str("list", list.Name).Logger()))
		result := c.Convert(converter.Request{
			Lines:    lines,
			Rules:    allowRules,
			Limit:    cfg.Output.Limit,
			Optimize: cfg.Output.Optimize,
		})
		if result == nil {
			fmt.Println("    Nothing to convert")
			continue
		}
		cStats := c.Stats()

		fmt.Printf("    Converted: %d rules (skipped: %d)\n", result.ConvertedCount, cStats.Skipped)
		if result.OverLimit {
			fmt.Printf("    Limit of %d rules reached, %d rules dropped\n",
				cfg.Output.Limit, result.TotalConvertedCount-result.ConvertedCount)
		}

		if verbose && len(cStats.SkipReasons) > 0 {
			fmt.Printf("    Skips:\n")
			for reason, count := range cStats.SkipReasons {
				fmt.Printf("      - %s: %d\n", reason, count)
			}
		}
		for reason, count := range cStats.SkipReasons {
			totalSkips[reason] += count
		}

		results[list.Name] = ListResult{
			Name:         list.Name,
			Source:       list.Source(),
			RulesCount:   result.ConvertedCount,
			SkippedCount: cStats.Skipped,
			ErrorsCount:  result.ErrorsCount,
			OverLimit:    result.OverLimit,
		}

		if !dryRun {
			// Split and write
			for _, part := range splitter.Split(result.Rules, list.Name) {
				if err := writeJSON(outputDir, part.Name+".json", part.Rules); err != nil {
					fmt.Printf("    ERROR writing %s: %v\n", part.Name, err)
				}
			}
		}

		allRules = append(allRules, result.Rules...)
	}

	// Show skip summary
	if len(totalSkips) > 0 {
		fmt.Printf("\nSkipped rules summary:\n")
		for reason, count := range totalSkips {
			fmt.Printf("  %s: %d\n", reason, count)
		}
	}

	// Deduplicate combined rules
	if generateCombined && cfg.Output.GenerateCombined && len(allRules) > 0 {
		fmt.Printf("\nGenerating combined output...\n")
		allRules = converter.Deduplicate(allRules)
		fmt.Printf("  Total rules: %d (after deduplication)\n", len(allRules))

		if !dryRun {
			var partNames []string
			for _, part := range splitter.Split(allRules, "combined") {
				if err := writeJSON(outputDir, part.Name+".json", part.Rules); err != nil {
					fmt.Printf("  ERROR writing %s: %v\n", part.Name, err)
				}
				partNames = append(partNames, part.Name+".json")
			}

			// Write manifest
			if cfg.Output.GenerateManifest {
				manifest := Manifest{
					Version:     time.Now().Format("2006.01.02"),
					GeneratedAt: time.Now().UTC().Format(time.RFC3339),
					Lists:       results,
					Combined: CombinedInfo{
						TotalRules: len(allRules),
						Files:      partNames,
					},
				}
				if err := writeJSON(outputDir, "manifest.json", manifest); err != nil {
					fmt.Printf("  ERROR writing manifest: %v\n", err)
				}
			}
		}
	}

	fmt.Println("\nDone!")
	return nil
}

// loadAllowlist returns the exception rules of the configured allowlist file
func loadAllowlist(ac models.AllowlistConfig) ([]models.Rule, error) {
	if ac.File == "" {
		return nil, nil
	}

	al := allowlist.New()
	if err := al.LoadFile(ac.File); err != nil {
		return nil, err
	}

	logger.Info().Str("file", ac.File).Int("domains", len(al.Domains())).Msg("allowlist loaded")
	return al.Rules(), nil
}

func runList(cmd *cobra.Command, args []string) error {
	fmt.Print("Configured filter lists:\n\n")
	for _, list := range cfg.Lists {
		status := "enabled"
		if !list.Enabled {
			status = "disabled"
		}
		fmt.Printf("  [%s] %s\n", status, list.Name)
		fmt.Printf("         %s\n\n", list.Source())
	}
	if cfg.Allowlist.File != "" {
		fmt.Printf("Allowlist: %s\n", cfg.Allowlist.File)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := "./configs/filter_lists.toml"
	if cfgFile != "" {
		configPath = cfgFile
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return err
	}

	fmt.Printf("Created config file: %s\n", configPath)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	isRegex, _ := cmd.Flags().GetBool("regex")
	input := args[0]

	if isRegex {
		issues := converter.CheckWebKitCompatibility(input)
		if err := converter.ValidateURLFilter(input); err == nil && len(issues) == 0 {
			fmt.Println("OK: supported by Safari")
			return nil
		} else if err != nil {
			fmt.Printf("Rejected: %v\n", err)
		}
		if len(issues) > 0 {
			fmt.Printf("Issues: %s\n", converter.DescribeIssues(issues))
		}
		if !converter.HasUnfixableIssues(input) {
			fmt.Printf("Suggested: %s\n", converter.SuggestFix(input, issues))
		}
		return nil
	}

	rule, err := parser.Parse(input)
	if err != nil {
		return fmt.Errorf("cannot parse rule: %w", err)
	}
	if rule == nil {
		fmt.Println("Not a rule (comment or blank line)")
		return nil
	}

	result, err := converter.Translate(rule)
	if err != nil {
		return fmt.Errorf("cannot convert rule: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeJSON(dir, filename string, data any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ListResult contains conversion results for a single list
type ListResult struct {
	Name         string `json:"name"`
	Source       string `json:"source"`
	RulesCount   int    `json:"rules_count"`
	SkippedCount int    `json:"skipped_count"`
	ErrorsCount  int    `json:"errors_count"`
	OverLimit    bool   `json:"over_limit"`
}

// Manifest contains metadata about the conversion
type Manifest struct {
	Version     string                `json:"version"`
	GeneratedAt string                `json:"generated_at"`
	Lists       map[string]ListResult `json:"lists"`
	Combined    CombinedInfo          `json:"combined"`
}

// CombinedInfo contains combined file info
type CombinedInfo struct {
	TotalRules int      `json:"total_rules"`
	Files      []string `json:"files"`
}

const defaultConfig = `# AdGuard to Safari Content Blocker Converter Configuration

# HTTP client settings
[http]
timeout = "30s"
retries = 3

# Output settings
# limit caps the rules of each list, 0 for no limit
# optimize drops generic element hiding rules
[output]
max_rules_per_file = 50000
limit = 0
optimize = false
generate_combined = true
generate_manifest = true

# Domains on which filtering is disabled, one per line
[allowlist]
file = ""

# Logging: trace, debug, info, warn, error / console, json
[log]
level = "warn"
format = "console"

# Filter lists to convert
# Each list needs a url or a local path
# Set enabled = false to skip a list

[[lists]]
name = "adguard-base"
url = "https://filters.adtidy.org/extension/safari/filters/2.txt"
enabled = true

[[lists]]
name = "adguard-tracking"
url = "https://filters.adtidy.org/extension/safari/filters/3.txt"
enabled = true

[[lists]]
name = "adguard-annoyances"
url = "https://filters.adtidy.org/extension/safari/filters/14.txt"
enabled = false

[[lists]]
name = "easylist"
url = "https://easylist.to/easylist/easylist.txt"
enabled = false

[[lists]]
name = "custom"
path = "./configs/custom.txt"
enabled = false
`
