// Package renamer executes a rename plan on disk in two hops: every file is
// first moved to its staging name, then every staged file to its final name.
package renamer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/On-Jun9/ShutterRename/internal/state"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

var (
	ErrStageFailed   = errors.New("stage phase failed")
	ErrCommitFailed  = errors.New("commit phase failed")
	ErrRecoverFailed = errors.New("recovery incomplete")
)

const (
	PhaseStage    = "stage"
	PhaseCommit   = "commit"
	PhaseRollback = "rollback"
	PhaseRecover  = "recover"
)

// OpLogger receives every filesystem move and journal failures.
type OpLogger interface {
	LogOp(op types.RenamePlanEntry, phase string, err error)
	Error(msg string, err error)
}

// Result reports one move.
type Result struct {
	Index int
	Entry types.RenamePlanEntry
	Phase string
	Error error
}

type ProgressFunc func(Result)

// Report counts what happened to the batch.
type Report struct {
	Renamed    int
	RolledBack int
	Bytes      int64
}

// ExecError is returned when a phase fails. Files listed in Stranded could
// not be brought back to their original path and stay in the journal.
type ExecError struct {
	Phase    string
	Cause    error
	Stranded []types.RenamePlanEntry

	sentinel error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Phase, e.Cause)
	if len(e.Stranded) > 0 {
		msg += fmt.Sprintf(" (%d file(s) left in place, run recover)", len(e.Stranded))
	}
	return msg
}

func (e *ExecError) Unwrap() []error {
	return []error{e.sentinel, e.Cause}
}

type location int

const (
	atCurrent location = iota
	atStaging
	atFinal
)

func (l location) phase() state.Phase {
	switch l {
	case atStaging:
		return state.PhaseStaged
	case atFinal:
		return state.PhaseCommitted
	default:
		return state.PhasePending
	}
}

func pathAt(e types.RenamePlanEntry, l location) string {
	switch l {
	case atStaging:
		return e.Staging
	case atFinal:
		return e.Final
	default:
		return e.Current
	}
}

type Renamer struct {
	workers int
	dryRun  bool
	journal *state.Journal
	logger  OpLogger
}

// New returns a renamer. journal and logger may be nil.
func New(workers int, dryRun bool, journal *state.Journal, logger OpLogger) *Renamer {
	if workers < 1 {
		workers = 1
	}
	return &Renamer{
		workers: workers,
		dryRun:  dryRun,
		journal: journal,
		logger:  logger,
	}
}

// Execute runs the plan. ctx is only consulted before the stage phase: once
// files start moving the batch runs to completion or rollback.
func (r *Renamer) Execute(ctx context.Context, plan *types.RenamePlan, progress ProgressFunc) (*Report, error) {
	if plan.Empty() {
		return &Report{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.dryRun {
		report := &Report{}
		for i, e := range plan.Entries {
			report.Renamed++
			report.Bytes += e.Size
			notify(progress, Result{Index: i, Entry: e, Phase: PhaseCommit})
		}
		return report, nil
	}

	if r.journal != nil {
		r.journal.Begin(plan)
		if err := r.journal.Save(); err != nil {
			return nil, fmt.Errorf("failed to write journal: %w", err)
		}
	}

	locs := make([]location, len(plan.Entries))

	if err := r.shift(plan.Entries, locs, atCurrent, atStaging, PhaseStage, progress); err != nil {
		return r.abort(plan.Entries, locs, PhaseStage, ErrStageFailed, err)
	}
	r.saveJournal()

	if err := r.shift(plan.Entries, locs, atStaging, atFinal, PhaseCommit, progress); err != nil {
		return r.abort(plan.Entries, locs, PhaseCommit, ErrCommitFailed, err)
	}

	report := &Report{Renamed: len(plan.Entries)}
	for _, e := range plan.Entries {
		report.Bytes += e.Size
	}
	r.deleteJournal()
	return report, nil
}

// Recover finishes (forward) or reverts the batch recorded in the journal.
// Where each file actually is, is read from disk: staging names are unique
// per batch, so an existing staging file settles it.
func (r *Renamer) Recover(forward bool, progress ProgressFunc) (*Report, error) {
	if r.journal == nil || !r.journal.InFlight() {
		return &Report{}, nil
	}

	journalEntries := r.journal.Snapshot()
	entries := make([]types.RenamePlanEntry, len(journalEntries))
	locs := make([]location, len(journalEntries))
	for i, je := range journalEntries {
		entries[i] = je.RenamePlanEntry
		locs[i] = locate(je)
		r.mark(i, locs[i])
	}

	report := &Report{}
	var firstErr error
	if forward {
		firstErr = r.shift(entries, locs, atCurrent, atStaging, PhaseRecover, progress)
		if err := r.shift(entries, locs, atStaging, atFinal, PhaseRecover, progress); firstErr == nil {
			firstErr = err
		}
	} else {
		firstErr = r.revert(entries, locs, progress)
	}

	target := atCurrent
	if forward {
		target = atFinal
	}
	var stranded []types.RenamePlanEntry
	for i, l := range locs {
		if l != target {
			stranded = append(stranded, entries[i])
			continue
		}
		if forward {
			report.Renamed++
			report.Bytes += entries[i].Size
		} else {
			report.RolledBack++
		}
	}

	if len(stranded) == 0 {
		r.deleteJournal()
		return report, nil
	}
	r.saveJournal()
	if firstErr == nil {
		firstErr = fs.ErrExist
	}
	return report, &ExecError{Phase: PhaseRecover, Cause: firstErr, Stranded: stranded, sentinel: ErrRecoverFailed}
}

func locate(je state.JournalEntry) location {
	if _, err := os.Lstat(je.Staging); err == nil {
		return atStaging
	}
	switch je.Phase {
	case state.PhasePending, state.PhaseReverting:
		return atCurrent
	default:
		return atFinal
	}
}

// abort rolls the batch back to the original names.
func (r *Renamer) abort(entries []types.RenamePlanEntry, locs []location, phase string, sentinel, cause error) (*Report, error) {
	moved := make([]bool, len(locs))
	for i, l := range locs {
		moved[i] = l != atCurrent
	}

	r.revert(entries, locs, nil)

	report := &Report{}
	var stranded []types.RenamePlanEntry
	for i, l := range locs {
		if l != atCurrent {
			stranded = append(stranded, entries[i])
			continue
		}
		if moved[i] {
			report.RolledBack++
		}
	}

	if len(stranded) == 0 {
		r.deleteJournal()
	} else {
		r.saveJournal()
	}
	return report, &ExecError{Phase: phase, Cause: cause, Stranded: stranded, sentinel: sentinel}
}

// revert moves committed files back to staging first, then every staged file
// to its original name. Going through staging keeps a committed name from
// blocking another entry's original name.
func (r *Renamer) revert(entries []types.RenamePlanEntry, locs []location, progress ProgressFunc) error {
	firstErr := r.shift(entries, locs, atFinal, atStaging, PhaseRollback, progress)

	if r.journal != nil {
		for i, l := range locs {
			if l == atStaging {
				r.journal.Mark(i, state.PhaseReverting)
			}
		}
		r.saveJournal()
	}

	if err := r.shift(entries, locs, atStaging, atCurrent, PhaseRollback, progress); firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// shift moves every entry currently at from to to, using a worker pool. Moves
// inside one hop never touch each other's paths. It returns the first error
// and updates locs for the moves that succeeded.
func (r *Renamer) shift(entries []types.RenamePlanEntry, locs []location, from, to location, phase string, progress ProgressFunc) error {
	var pending []int
	for i, l := range locs {
		if l == from {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	taskChan := make(chan int, len(pending))
	resultChan := make(chan Result, len(pending))

	workers := r.workers
	if workers > len(pending) {
		workers = len(pending)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range taskChan {
				e := entries[i]
				err := move(pathAt(e, from), pathAt(e, to))
				if r.logger != nil {
					r.logger.LogOp(e, phase, err)
				}
				resultChan <- Result{Index: i, Entry: e, Phase: phase, Error: err}
			}
		}()
	}

	for _, i := range pending {
		taskChan <- i
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var firstErr error
	for res := range resultChan {
		if res.Error != nil {
			if firstErr == nil {
				firstErr = res.Error
			}
		} else {
			locs[res.Index] = to
			r.mark(res.Index, to)
		}
		notify(progress, res)
	}
	return firstErr
}

// move renames src to dst and refuses to replace an existing dst.
func move(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, fs.ErrExist)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.Rename(src, dst)
}

func notify(progress ProgressFunc, res Result) {
	if progress != nil {
		progress(res)
	}
}

func (r *Renamer) mark(i int, l location) {
	if r.journal != nil {
		r.journal.Mark(i, l.phase())
	}
}

func (r *Renamer) saveJournal() {
	if r.journal == nil {
		return
	}
	if err := r.journal.Save(); err != nil && r.logger != nil {
		r.logger.Error("Failed to save journal "+r.journal.Path(), err)
	}
}

func (r *Renamer) deleteJournal() {
	if r.journal == nil {
		return
	}
	if err := r.journal.Delete(); err != nil && r.logger != nil {
		r.logger.Error("Failed to delete journal "+r.journal.Path(), err)
	}
}
