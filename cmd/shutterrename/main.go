package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/On-Jun9/ShutterRename/internal/config"
	"github.com/On-Jun9/ShutterRename/internal/pipeline"
	"github.com/On-Jun9/ShutterRename/internal/policy"
	"github.com/On-Jun9/ShutterRename/internal/preview"
	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

var (
	appVersion     = "0.1.0"
	cfgFile        string
	format         string
	keepExtension  bool
	includeExt     []string
	jobs           int
	conflictPolicy string
	language       string
	journalFile    string
	logFile        string
	logJSON        bool
	dryRun         bool
	noVerify       bool
	hashVerify     bool
	revert         bool
	presetDesc     string
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shutterrename",
	Short: "Batch rename photos from their capture metadata",
	Long: `ShutterRename reads EXIF metadata from photos (and XML sidecars of videos),
builds new filenames from a template such as {YYYY}-{MM}-{DD}_{Camera}, and renames
the whole batch safely through staging names so it can be rolled back.`,
	SilenceUsage: true,
}

var previewCmd = &cobra.Command{
	Use:   "preview <dir | files...>",
	Short: "Show the proposed names without renaming",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPreview,
}

var renameCmd = &cobra.Command{
	Use:   "rename <dir | files...>",
	Short: "Rename a folder or a set of files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRename,
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Finish or revert a rename batch that was interrupted",
	Args:  cobra.NoArgs,
	RunE:  runRecover,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List template presets",
	Args:  cobra.NoArgs,
	RunE:  runListPresets,
}

var presetsSaveCmd = &cobra.Command{
	Use:   "save <name> <template>",
	Short: "Save a user template preset",
	Args:  cobra.ExactArgs(2),
	RunE:  runSavePreset,
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a user template preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeletePreset,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the template tokens",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, tok := range template.Tokens() {
			fmt.Println(tok)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(appVersion)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(versionCmd)
	presetsCmd.AddCommand(presetsSaveCmd)
	presetsCmd.AddCommand(presetsDeleteCmd)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&journalFile, "journal-file", "", "journal file for interrupted batches")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "output JSON logs")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "message language: en, ko")

	for _, cmd := range []*cobra.Command{previewCmd, renameCmd} {
		cmd.Flags().StringVarP(&format, "template", "t", "", "filename template, or the name of a preset")
		cmd.Flags().BoolVarP(&keepExtension, "keep-ext", "k", false, "append the original extension to new names")
		cmd.Flags().StringSliceVarP(&includeExt, "include-ext", "e", nil, "file extensions to include")
		cmd.Flags().StringVar(&conflictPolicy, "conflict", "", "policy for names taken by other files: fail, skip")
	}
	renameCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of concurrent workers (0=auto)")
	renameCmd.Flags().BoolVar(&dryRun, "dry-run", false, "simulate without renaming")
	renameCmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip checking renamed files")
	renameCmd.Flags().BoolVar(&hashVerify, "hash-verify", false, "verify renamed files with hash")

	recoverCmd.Flags().BoolVar(&revert, "revert", false, "restore the original names instead of finishing the batch")
	presetsSaveCmd.Flags().StringVar(&presetDesc, "description", "", "preset description")
}

// loadConfig layers defaults, saved settings, the config file and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
		m, err := config.NewUserDataManager()
		if err != nil {
			return nil, err
		}
		settings, err := m.LoadSettings()
		if err != nil {
			return nil, err
		}
		cfg.ApplySettings(settings)
	}

	if format != "" {
		if preset, err := resolvePreset(format); err == nil {
			cfg.Template = preset.Template
		} else {
			cfg.Template = format
		}
	}
	if cmd.Flags().Changed("keep-ext") {
		cfg.KeepExtension = keepExtension
	}
	if len(includeExt) > 0 {
		cfg.IncludeExtensions = includeExt
	}
	if jobs > 0 {
		cfg.Jobs = jobs
	}
	if conflictPolicy != "" {
		cfg.ConflictPolicy = types.ConflictPolicy(conflictPolicy)
	}
	if language != "" {
		cfg.Language = language
	}
	if journalFile != "" {
		cfg.JournalFile = journalFile
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logJSON {
		cfg.LogJSON = true
	}
	if dryRun {
		cfg.DryRun = true
	}
	if noVerify {
		cfg.Verify = false
	}
	if hashVerify {
		cfg.HashVerify = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePreset looks up a template given by preset name. Anything containing
// a brace is a template, not a name.
func resolvePreset(name string) (*types.TemplatePreset, error) {
	if strings.ContainsAny(name, "{}") {
		return nil, errors.New("not a preset name")
	}
	pm, err := config.NewPresetManager()
	if err != nil {
		return nil, err
	}
	return pm.LoadPreset(name)
}

// sourceFromArgs treats a single directory argument as a folder pick and
// anything else as a list of dropped paths.
func sourceFromArgs(args []string) types.Source {
	if len(args) == 1 {
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			return types.Source{Dir: args[0]}
		}
	}
	return types.Source{Paths: args}
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()
	p.Logger().SetConsole(nil)

	entries, err := p.Load(cmd.Context(), sourceFromArgs(args))
	if err != nil {
		return err
	}

	fmt.Print(preview.Render(entries))

	plan, skipped, err := p.Plan(entries)
	var conflictErr *policy.ConflictError
	if errors.As(err, &conflictErr) {
		fmt.Println()
		fmt.Println("Names already taken by other files:")
		for _, e := range conflictErr.Entries {
			fmt.Printf("  %s -> %s\n", e.Current, e.Final)
		}
		return err
	}
	if err != nil {
		return err
	}

	for _, e := range skipped {
		fmt.Printf("skip: %s (%s exists)\n", e.Current, e.Final)
	}
	fmt.Println(preview.Footer(entries, plan))
	if p.Pending() {
		fmt.Println("An interrupted batch is pending: run 'shutterrename recover' before renaming.")
	}
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	// interrupts are only honoured before files start moving
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = p.Run(ctx, sourceFromArgs(args))
	return err
}

func runRecover(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer p.Close()

	if !p.Pending() {
		fmt.Println("No interrupted batch found.")
		return nil
	}

	summary, err := p.Recover(!revert)
	if summary != nil {
		fmt.Printf("renamed %d, restored %d, failed %d\n", summary.Renamed, summary.RolledBack, summary.Failed)
	}
	return err
}

func runListPresets(cmd *cobra.Command, args []string) error {
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}

	presets, err := pm.ListPresets()
	if err != nil {
		return err
	}

	for _, preset := range presets {
		kind := "user"
		if preset.BuiltIn {
			kind = "built-in"
		}
		fmt.Printf("%-14s %-9s %s\n", preset.Name, kind, preset.Template)
	}
	return nil
}

func runSavePreset(cmd *cobra.Command, args []string) error {
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}

	return pm.SavePreset(&types.TemplatePreset{
		Name:        args[0],
		Description: presetDesc,
		Template:    args[1],
	})
}

func runDeletePreset(cmd *cobra.Command, args []string) error {
	pm, err := config.NewPresetManager()
	if err != nil {
		return err
	}
	return pm.DeletePreset(args[0])
}
