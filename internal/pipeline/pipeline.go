package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/message"

	"github.com/On-Jun9/ShutterRename/internal/config"
	"github.com/On-Jun9/ShutterRename/internal/health"
	"github.com/On-Jun9/ShutterRename/internal/i18n"
	"github.com/On-Jun9/ShutterRename/internal/log"
	"github.com/On-Jun9/ShutterRename/internal/planner"
	"github.com/On-Jun9/ShutterRename/internal/policy"
	"github.com/On-Jun9/ShutterRename/internal/renamer"
	"github.com/On-Jun9/ShutterRename/internal/scanner"
	"github.com/On-Jun9/ShutterRename/internal/state"
	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/internal/verify"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// ErrPendingJournal means an earlier batch was interrupted and must be
// recovered before a new one can run.
var ErrPendingJournal = errors.New("an interrupted rename batch is pending, run recover first")

type Pipeline struct {
	cfg              *config.Config
	printer          *message.Printer
	scanner          *scanner.Scanner
	planner          *planner.Planner
	conflict         *policy.ConflictResolver
	renamer          *renamer.Renamer
	verifier         *verify.Verifier
	journal          *state.Journal
	logger           *log.Logger
	progressCallback ProgressCallback
	userDataManager  *config.UserDataManager
}

func New(cfg *config.Config) (*Pipeline, error) {
	logger, err := log.New(cfg.LogFile, cfg.LogJSON, true)
	if err != nil {
		return nil, err
	}

	journal, err := state.Load(cfg.JournalFile)
	if err != nil {
		logger.Close()
		return nil, err
	}

	userDataManager, err := config.NewUserDataManager()
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to create user data manager: %w", err)
	}

	return &Pipeline{
		cfg:             cfg,
		printer:         i18n.NewPrinter(cfg.Language),
		scanner:         scanner.New(cfg.IncludeExtensions, nil),
		planner:         planner.New(nil),
		conflict:        policy.NewConflictResolver(cfg.ConflictPolicy),
		renamer:         renamer.New(cfg.Jobs, cfg.DryRun, journal, logger),
		verifier:        verify.New(cfg.HashVerify),
		journal:         journal,
		logger:          logger,
		userDataManager: userDataManager,
	}, nil
}

func (p *Pipeline) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

// Logger exposes the run logger so callers can redirect console output.
func (p *Pipeline) Logger() *log.Logger {
	return p.logger
}

// Printer returns the printer for the configured language.
func (p *Pipeline) Printer() *message.Printer {
	return p.printer
}

// Pending reports whether the journal holds an interrupted batch.
func (p *Pipeline) Pending() bool {
	return p.journal.InFlight()
}

func (p *Pipeline) notify(update ProgressUpdate) {
	if p.progressCallback != nil {
		p.progressCallback(update)
	}
}

// Load discovers the source files and turns them into display entries with
// proposed names.
func (p *Pipeline) Load(ctx context.Context, source types.Source) ([]types.FileEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("Starting scan: " + describeSource(source))
	p.notify(ProgressUpdate{Type: "status", Message: "Scanning files..."})

	records, err := p.scanner.Scan(source)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Found " + strconv.Itoa(len(records)) + " files")

	if unknown := template.Unknown(p.cfg.Template); len(unknown) > 0 {
		p.logger.Warn("Unknown template tokens: " + strings.Join(unknown, ", "))
	}

	entries := Transform(records, p.cfg.Template, Options{
		KeepExtension: p.cfg.KeepExtension,
		Printer:       p.printer,
	})

	p.notify(ProgressUpdate{
		Type:    "analysis_progress",
		Message: "Metadata analysis complete",
		Current: len(entries),
		Total:   len(entries),
	})
	return entries, nil
}

// Plan builds the rename plan for entries and applies the conflict policy.
// The second return value lists entries dropped by the skip policy.
func (p *Pipeline) Plan(entries []types.FileEntry) (*types.RenamePlan, []types.RenamePlanEntry, error) {
	plan, err := p.planner.Build(entries)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build rename plan: %w", err)
	}

	plan, skipped, err := p.conflict.Resolve(plan)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range skipped {
		p.logger.Warn("Skipped " + e.Current + ": " + e.Final + " already exists")
	}
	return plan, skipped, nil
}

// Run loads, plans and executes one batch and records it in the history.
func (p *Pipeline) Run(ctx context.Context, source types.Source) (*types.RenameSummary, error) {
	startTime := time.Now()
	summary := &types.RenameSummary{DryRun: p.cfg.DryRun, StartTime: startTime}

	if !p.cfg.DryRun && p.journal.InFlight() {
		p.notify(ProgressUpdate{Type: "error", Error: ErrPendingJournal.Error()})
		return nil, ErrPendingJournal
	}

	entries, err := p.Load(ctx, source)
	if err != nil {
		p.finish(summary, source, types.RenameStatusFailed, err)
		return nil, err
	}
	if source.Dir != "" {
		if err := p.userDataManager.AddRecentDir(source.Dir); err != nil {
			p.logger.Error("Failed to save recent folder", err)
		}
	}

	summary.TotalFiles = len(entries)
	_, summary.Warnings, summary.Errors = health.Count(entries)

	plan, skipped, err := p.Plan(entries)
	if err != nil {
		p.finish(summary, source, types.RenameStatusFailed, err)
		return nil, err
	}
	summary.Planned = len(plan.Entries)
	summary.Skipped = len(skipped)

	if plan.Empty() {
		p.logger.Info(i18n.T(p.printer, i18n.NothingToRename))
		p.finish(summary, source, types.RenameStatusNoop, nil)
		return summary, nil
	}

	fingerprints, err := p.fingerprint(plan)
	if err != nil {
		p.finish(summary, source, types.RenameStatusFailed, err)
		return nil, err
	}

	report, err := p.renamer.Execute(ctx, plan, p.progressFunc(len(plan.Entries)))
	if report != nil {
		summary.RolledBack = report.RolledBack
	}
	if err != nil {
		summary.Failed = len(plan.Entries)
		p.logger.Error(i18n.T(p.printer, i18n.RenameFilesError), err)
		p.finish(summary, source, types.RenameStatusFailed, err)
		return summary, err
	}
	summary.Renamed = report.Renamed
	summary.Bytes = report.Bytes

	if p.cfg.Verify && !p.cfg.DryRun {
		if errs := p.verifier.VerifyPlan(plan, fingerprints); len(errs) > 0 {
			for _, verr := range errs {
				p.logger.Error("Verification failed", verr)
			}
			summary.Failed = len(errs)
			err = fmt.Errorf("verification failed for %d file(s): %w", len(errs), errors.Join(errs...))
			p.finish(summary, source, types.RenameStatusFailed, err)
			return summary, err
		}
	}

	if !p.cfg.DryRun {
		if err := p.userDataManager.SaveTemplate(p.cfg.Template); err != nil {
			p.logger.Error("Failed to save template", err)
		}
	}

	p.logger.Info(i18n.T(p.printer, i18n.RenameSuccess))
	p.finish(summary, source, types.RenameStatusSuccess, nil)
	return summary, nil
}

// Recover completes (forward) or reverts the batch left in the journal.
func (p *Pipeline) Recover(forward bool) (*types.RenameSummary, error) {
	startTime := time.Now()
	summary := &types.RenameSummary{StartTime: startTime}

	if !p.journal.InFlight() {
		summary.EndTime = time.Now()
		return summary, nil
	}

	entries := p.journal.Snapshot()
	summary.Planned = len(entries)
	p.logger.Info(fmt.Sprintf("Recovering %d file(s) from %s", len(entries), p.journal.Path()))

	report, err := p.renamer.Recover(forward, p.progressFunc(len(entries)))
	if report != nil {
		summary.Renamed = report.Renamed
		summary.RolledBack = report.RolledBack
		summary.Bytes = report.Bytes
	}

	var execErr *renamer.ExecError
	if errors.As(err, &execErr) {
		summary.Failed = len(execErr.Stranded)
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(startTime)
	p.logger.Summary(*summary)
	return summary, err
}

// fingerprint hashes every source before the move when hash verification is on.
func (p *Pipeline) fingerprint(plan *types.RenamePlan) (map[string]string, error) {
	if !p.cfg.Verify || !p.cfg.HashVerify || p.cfg.DryRun {
		return nil, nil
	}

	fingerprints := make(map[string]string, len(plan.Entries))
	for _, e := range plan.Entries {
		sum, err := p.verifier.Fingerprint(e.Current)
		if err != nil {
			return nil, err
		}
		fingerprints[e.Current] = sum
	}
	return fingerprints, nil
}

func (p *Pipeline) progressFunc(total int) renamer.ProgressFunc {
	done := make(map[string]int)
	return func(res renamer.Result) {
		done[res.Phase]++
		filename := filepath.Base(res.Entry.Final)
		p.logger.Progress(done[res.Phase], total, filename)

		update := ProgressUpdate{
			Type:     "progress",
			Current:  done[res.Phase],
			Total:    total,
			Filename: filename,
			Phase:    res.Phase,
		}
		if res.Error != nil {
			update.Error = res.Error.Error()
		}
		p.notify(update)
	}
}

// finish stamps the summary, prints it and appends the history entry.
func (p *Pipeline) finish(summary *types.RenameSummary, source types.Source, status types.RenameStatus, runErr error) {
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	p.logger.Summary(*summary)

	historyEntry := types.RenameHistoryEntry{
		ID:        strconv.FormatInt(summary.StartTime.UnixNano(), 10),
		Source:    source,
		Template:  p.cfg.Template,
		Summary:   *summary,
		Status:    status,
		CreatedAt: summary.StartTime,
	}
	if runErr != nil {
		historyEntry.Error = runErr.Error()
	}

	if err := p.userDataManager.AddHistoryEntry(historyEntry); err != nil {
		p.logger.Error("Failed to save rename history", err)
		// Don't fail the run if history save fails
	}

	if runErr != nil {
		p.notify(ProgressUpdate{Type: "error", Summary: summary, Error: runErr.Error()})
		return
	}
	p.notify(ProgressUpdate{Type: "complete", Summary: summary})
}

func (p *Pipeline) Close() error {
	return p.logger.Close()
}

func describeSource(source types.Source) string {
	if source.Dir != "" {
		return "'" + source.Dir + "'"
	}
	return strconv.Itoa(len(source.Paths)) + " path(s)"
}
