package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secgate-io/secgate/pkg/shared/errors"
	"github.com/secgate-io/secgate/pkg/types"
)

func sampleReport(id string, stage types.Stage) types.Report {
	return types.Report{
		ReportID:  id,
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Stage:     stage,
		Status:    types.GateStatusPassed,
		Duration:  time.Second,
		Summary:   types.Summary{SecurityScore: 100, Compliance: true},
	}
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	folder := t.TempDir()

	repo, err := NewFileRepository(folder)
	require.NoError(t, err)

	require.NoError(t, repo.Append(sampleReport("one", types.StagePreCommit)))
	require.NoError(t, repo.Append(sampleReport("two", types.StagePreBuild)))

	reloaded, err := NewFileRepository(folder)
	require.NoError(t, err)

	history, err := reloaded.All()
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].ReportID)
	assert.Equal(t, "two", history[1].ReportID)
	assert.Equal(t, types.StagePreBuild, history[1].Stage)
}

func TestFileRepositoryMalformedHistory(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "history.json"), []byte("{broken"), 0644))

	repo, err := NewFileRepository(folder)
	require.Error(t, err)

	var loadErr *errors.HistoryLoadError
	require.ErrorAs(t, err, &loadErr)

	// The repository stays usable with an empty history.
	require.NotNil(t, repo)
	history, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, repo.Append(sampleReport("fresh", types.StagePreCommit)))
}

func TestFileRepositoryReset(t *testing.T) {
	folder := t.TempDir()

	repo, err := NewFileRepository(folder)
	require.NoError(t, err)
	require.NoError(t, repo.Append(sampleReport("one", types.StagePreCommit)))
	require.NoError(t, repo.Reset())

	reloaded, err := NewFileRepository(folder)
	require.NoError(t, err)
	history, err := reloaded.All()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryRepositoryIsolation(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.Append(sampleReport("one", types.StagePreCommit)))

	history, err := repo.All()
	require.NoError(t, err)
	history[0].ReportID = "mutated"

	fresh, err := repo.All()
	require.NoError(t, err)
	assert.Equal(t, "one", fresh[0].ReportID)
}
