package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// ErrStagingCollision is returned when no staging token keeps the staging paths
// clear of every current and final path in the batch.
var ErrStagingCollision = errors.New("staging path collides with a batch path")

// ErrInvalidName is returned when a new filename is empty or would leave the
// entry's directory.
var ErrInvalidName = errors.New("new filename must be a single path segment")

const maxTokenAttempts = 8

// TokenFunc returns a new batch-wide staging token.
type TokenFunc func() string

// RandomToken is the default staging token: a random UUID, so staging names
// never depend on the wall clock.
func RandomToken() string {
	return uuid.NewString()
}

type Planner struct {
	newToken TokenFunc
}

func New(newToken TokenFunc) *Planner {
	if newToken == nil {
		newToken = RandomToken
	}
	return &Planner{newToken: newToken}
}

// Build turns finalized entries into a two-hop rename plan.
//
// Only entries whose new name differs from the original are planned. Every
// staging path is Dir/<token>_<Filename> with one token for the whole batch.
// An empty plan is a normal "nothing to rename" result.
//
// Every new name must be a single path segment. An empty name, "." or ".."
// or a name with a separator fails the build with ErrInvalidName.
func (p *Planner) Build(entries []types.FileEntry) (*types.RenamePlan, error) {
	for _, e := range entries {
		if err := checkName(e.NewFilename); err != nil {
			return nil, fmt.Errorf("%s -> %q: %w", e.Filename, e.NewFilename, err)
		}
	}

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		plan := p.build(entries, p.newToken())
		if !stagingCollides(plan) {
			return plan, nil
		}
	}
	return nil, ErrStagingCollision
}

func (p *Planner) build(entries []types.FileEntry, token string) *types.RenamePlan {
	plan := &types.RenamePlan{Token: token}
	for _, e := range entries {
		if !e.NeedsRename() {
			continue
		}

		current := filepath.Join(e.Dir, e.Filename)
		final := filepath.Join(e.Dir, e.NewFilename)
		if final == current {
			continue
		}

		plan.Entries = append(plan.Entries, types.RenamePlanEntry{
			Current: current,
			Final:   final,
			Staging: filepath.Join(e.Dir, token+"_"+e.Filename),
			Size:    e.SizeBytes,
		})
	}
	return plan
}

func stagingCollides(plan *types.RenamePlan) bool {
	used := make(map[string]bool, 2*len(plan.Entries))
	for _, e := range plan.Entries {
		used[e.Current] = true
		used[e.Final] = true
	}
	staged := make(map[string]bool, len(plan.Entries))
	for _, e := range plan.Entries {
		if used[e.Staging] || staged[e.Staging] {
			return true
		}
		staged[e.Staging] = true
	}
	return false
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
