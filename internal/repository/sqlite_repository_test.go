package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) ReportRepository {
	t.Helper()
	repo, err := NewSQLiteReportRepository(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteReportRepository_SaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	created := time.Date(2025, 3, 14, 9, 26, 53, 123, time.UTC)
	report := &Report{
		ID:        "r-1",
		Kind:      KindVerification,
		Source:    "shots/home.png",
		Verdict:   "success",
		CreatedAt: created,
		Duration:  1500 * time.Millisecond,
		Result:    json.RawMessage(`{"brand_share":42.5}`),
		Markdown:  "# report\n",
	}
	require.NoError(t, repo.Save(ctx, report))

	got, err := repo.Get(ctx, "r-1")
	require.NoError(t, err)
	assert.Equal(t, report.Kind, got.Kind)
	assert.Equal(t, report.Source, got.Source)
	assert.Equal(t, report.Verdict, got.Verdict)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Equal(t, report.Duration, got.Duration)
	assert.JSONEq(t, `{"brand_share":42.5}`, string(got.Result))
	assert.Equal(t, "# report\n", got.Markdown)
}

func TestSQLiteReportRepository_GetMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestSQLiteReportRepository_SaveInvalid(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Save(ctx, nil), ErrInvalidReport)
	assert.ErrorIs(t, repo.Save(ctx, &Report{CreatedAt: time.Now()}), ErrInvalidReport)
	assert.ErrorIs(t, repo.Save(ctx, &Report{ID: "x"}), ErrInvalidReport)

	// duplicate IDs are rejected by the primary key
	r := &Report{ID: "dup", Kind: KindContent, Source: "a.png", CreatedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, r))
	assert.Error(t, repo.Save(ctx, r))
}

func TestSQLiteReportRepository_ListBySource(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, src := range []string{"a.png", "b.png", "a.png", "a.png"} {
		require.NoError(t, repo.Save(ctx, &Report{
			ID:        string(rune('a' + i)),
			Kind:      KindClassification,
			Source:    src,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := repo.ListBySource(ctx, "a.png", 0)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"d", "c", "a"}, ids)
	assert.Equal(t, "null", string(got[0].Result))

	got, err = repo.ListBySource(ctx, "a.png", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListBySource(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, "d", got[0].ID)

	got, err = repo.ListBySource(ctx, "missing.png", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteReportRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	ctx := context.Background()

	repo, err := NewSQLiteReportRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, &Report{ID: "keep", Kind: KindExtraction, Source: "x.png", CreatedAt: time.Now()}))
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteReportRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err := repo.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, KindExtraction, got.Kind)
}
