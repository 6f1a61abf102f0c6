package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// ErrExternalConflict means a target name is already used by a file that is not part of the batch.
var ErrExternalConflict = errors.New("target already exists outside the batch")

// ConflictError lists the plan entries whose target is taken.
type ConflictError struct {
	Entries []types.RenamePlanEntry
}

func (e *ConflictError) Error() string {
	finals := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		finals[i] = entry.Final
	}
	return fmt.Sprintf("%s: %s", ErrExternalConflict, strings.Join(finals, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrExternalConflict
}

type ConflictResolver struct {
	policy types.ConflictPolicy
	exists func(path string) bool
}

func NewConflictResolver(policy types.ConflictPolicy) *ConflictResolver {
	return &ConflictResolver{
		policy: policy,
		exists: fileExists,
	}
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// Resolve checks the plan against files on disk. Renames inside the batch never
// conflict with each other (staging takes care of cycles), but a target that an
// untouched file already occupies would be overwritten.
//
// With the skip policy the conflicting entries are dropped and the check is
// repeated, because a skipped file stays where it is and may now block another
// entry. Any other policy fails the whole batch.
func (c *ConflictResolver) Resolve(plan *types.RenamePlan) (*types.RenamePlan, []types.RenamePlanEntry, error) {
	if plan.Empty() {
		return plan, nil, nil
	}

	kept := append([]types.RenamePlanEntry(nil), plan.Entries...)
	var skipped []types.RenamePlanEntry

	for {
		moving := make(map[string]bool, len(kept))
		for _, e := range kept {
			moving[e.Current] = true
		}

		var ok, conflicts []types.RenamePlanEntry
		for _, e := range kept {
			if !moving[e.Final] && c.exists(e.Final) {
				conflicts = append(conflicts, e)
				continue
			}
			ok = append(ok, e)
		}

		if len(conflicts) == 0 {
			break
		}
		if c.policy != types.ConflictPolicySkip {
			return nil, nil, &ConflictError{Entries: conflicts}
		}
		skipped = append(skipped, conflicts...)
		kept = ok
	}

	return &types.RenamePlan{Token: plan.Token, Entries: kept}, skipped, nil
}
