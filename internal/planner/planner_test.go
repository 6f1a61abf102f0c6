package planner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

func fixedToken(tokens ...string) TokenFunc {
	i := 0
	return func() string {
		tok := tokens[i]
		if i < len(tokens)-1 {
			i++
		}
		return tok
	}
}

// TestPlanner_Build_OnlyChangedEntries는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPlanner_Build_OnlyChangedEntries(t *testing.T) {
	// 이름이 바뀌는 항목만 current/final/staging 세 경로로 계획되어야 한다.
	p := New(fixedToken("1700000000000"))
	entries := []types.FileEntry{
		{Dir: "/photos", Filename: "a.jpg", NewFilename: "2024-01-02_1", SizeBytes: 10},
		{Dir: "/photos", Filename: "same.jpg", NewFilename: "same.jpg"},
		{Dir: "/photos", Filename: "b.jpg", NewFilename: "2024-01-02_2", SizeBytes: 20},
	}

	plan, err := p.Build(entries)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, "1700000000000", plan.Token)

	assert.Equal(t, types.RenamePlanEntry{
		Current: filepath.Join("/photos", "a.jpg"),
		Final:   filepath.Join("/photos", "2024-01-02_1"),
		Staging: filepath.Join("/photos", "1700000000000_a.jpg"),
		Size:    10,
	}, plan.Entries[0])
	assert.Equal(t, filepath.Join("/photos", "1700000000000_b.jpg"), plan.Entries[1].Staging)

	for _, e := range plan.Entries {
		assert.NotEqual(t, e.Current, e.Final)
	}
}

// TestPlanner_Build_EmptyPlan는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPlanner_Build_EmptyPlan(t *testing.T) {
	p := New(nil)
	plan, err := p.Build([]types.FileEntry{
		{Dir: "/photos", Filename: "a.jpg", NewFilename: "a.jpg"},
		{Dir: "/photos", Filename: "b.jpg", NewFilename: "b.jpg"},
	})
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.NotEmpty(t, plan.Token)
}

// TestPlanner_Build_RejectsNamesOutsideDir는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPlanner_Build_RejectsNamesOutsideDir(t *testing.T) {
	// 새 이름이 비었거나 경로 구분자/./..를 포함하면 폴더를 벗어나므로 계획 전체가 거부되어야 한다.
	for _, name := range []string{"", ".", "..", "./a.jpg", "../2024", "sub/2024", `sub\2024`} {
		p := New(fixedToken("t"))
		plan, err := p.Build([]types.FileEntry{
			{Dir: "/photos/batch", Filename: "ok.jpg", NewFilename: "2024_1"},
			{Dir: "/photos/batch", Filename: "a.jpg", NewFilename: name},
		})
		assert.ErrorIs(t, err, ErrInvalidName, "NewFilename %q", name)
		assert.Nil(t, plan, "NewFilename %q", name)
	}
}

// TestPlanner_Build_SwapIsPlanned는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPlanner_Build_SwapIsPlanned(t *testing.T) {
	p := New(fixedToken("t"))
	plan, err := p.Build([]types.FileEntry{
		{Dir: "/d", Filename: "a", NewFilename: "b"},
		{Dir: "/d", Filename: "b", NewFilename: "a"},
	})
	require.NoError(t, err)
	require.Len(t, plan.Entries, 2)
	assert.Equal(t, filepath.Join("/d", "t_a"), plan.Entries[0].Staging)
	assert.Equal(t, filepath.Join("/d", "t_b"), plan.Entries[1].Staging)
}

// TestPlanner_Build_RedrawsTokenOnCollision는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPlanner_Build_RedrawsTokenOnCollision(t *testing.T) {
	// staging 경로가 배치의 다른 경로와 겹치면 새 토큰을 뽑아야 한다.
	p := New(fixedToken("x", "y"))
	plan, err := p.Build([]types.FileEntry{
		{Dir: "/d", Filename: "a.jpg", NewFilename: "x_b.jpg"},
		{Dir: "/d", Filename: "b.jpg", NewFilename: "c.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "y", plan.Token)
}

// TestPlanner_Build_FailsWhenTokenAlwaysCollides는 테스트 코드 동작을 검증하거나 보조합니다.
func TestPlanner_Build_FailsWhenTokenAlwaysCollides(t *testing.T) {
	p := New(fixedToken("x"))
	_, err := p.Build([]types.FileEntry{
		{Dir: "/d", Filename: "a.jpg", NewFilename: "x_b.jpg"},
		{Dir: "/d", Filename: "b.jpg", NewFilename: "c.jpg"},
	})
	assert.ErrorIs(t, err, ErrStagingCollision)
}

// TestRandomToken_IsUnique는 테스트 코드 동작을 검증하거나 보조합니다.
func TestRandomToken_IsUnique(t *testing.T) {
	assert.NotEqual(t, RandomToken(), RandomToken())
}
