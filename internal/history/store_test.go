package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

// openTestStore opens a store on a database under a fresh temp directory and
// closes it when the test ends.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), ".swiftly-release", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

var runStart = time.Date(2013, 6, 3, 10, 0, 0, 0, time.UTC)

// TestOpenCreatesDirectory verifies that Open creates the database's parent
// directory, since the default path lives under a dot-directory that does
// not exist on first use.
func TestOpenCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	store, err := Open(filepath.Join(base, "nested", "deep", "history.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	info, statErr := os.Stat(filepath.Join(base, "nested", "deep"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

// TestOpenIdempotentSchema verifies that reopening an existing database
// reapplies the schema without error or data loss.
func TestOpenIdempotentSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	require.NoError(t, err)
	id, err := store.BeginRun("release", "1.12", runStart)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec, err := store.Run(id)
	require.NoError(t, err)
	require.NotNil(t, rec, "runs must survive a close/reopen cycle")
	assert.Equal(t, "1.12", rec.Version)
}

// TestRunLifecycle verifies the begin/record/finish cycle and that Run loads
// the recorded step trail in plan order.
func TestRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	id, err := store.BeginRun("release", "1.12", runStart)
	require.NoError(t, err)

	steps := []model.StepRecord{
		{StepID: "checkout", Position: 0, Status: model.StepOK, FinishedAt: runStart.Add(time.Second)},
		{StepID: "merge", Position: 1, Status: model.StepFailed, Error: "branch 1.2 not found",
			FinishedAt: runStart.Add(2 * time.Second)},
	}
	for _, s := range steps {
		require.NoError(t, store.RecordStep(id, s))
	}

	err = store.FinishRun(id, model.RunFailed, "merge", runStart.Add(3*time.Second))
	require.NoError(t, err)

	rec, err := store.Run(id)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "release", rec.Plan)
	assert.Equal(t, "1.12", rec.Version)
	assert.Equal(t, model.RunFailed, rec.Status)
	assert.Equal(t, "merge", rec.FailedStep)
	assert.True(t, rec.StartedAt.Equal(runStart))

	require.Len(t, rec.Steps, 2)
	assert.Equal(t, "checkout", rec.Steps[0].StepID)
	assert.Equal(t, model.StepOK, rec.Steps[0].Status)
	assert.Equal(t, "merge", rec.Steps[1].StepID)
	assert.Equal(t, model.StepFailed, rec.Steps[1].Status)
	assert.Equal(t, "branch 1.2 not found", rec.Steps[1].Error)
}

// TestRecordStepUpsert verifies that re-recording a position overwrites the
// earlier outcome, which is how a resumed run replaces its failed step's row.
func TestRecordStepUpsert(t *testing.T) {
	store := openTestStore(t)

	id, err := store.BeginRun("release", "1.12", runStart)
	require.NoError(t, err)

	require.NoError(t, store.RecordStep(id, model.StepRecord{
		StepID: "merge", Position: 1, Status: model.StepFailed, Error: "boom",
		FinishedAt: runStart,
	}))
	require.NoError(t, store.RecordStep(id, model.StepRecord{
		StepID: "merge", Position: 1, Status: model.StepOK,
		FinishedAt: runStart.Add(time.Minute),
	}))

	rec, err := store.Run(id)
	require.NoError(t, err)
	require.Len(t, rec.Steps, 1, "upsert must not duplicate the position")
	assert.Equal(t, model.StepOK, rec.Steps[0].Status)
	assert.Empty(t, rec.Steps[0].Error)
}

// TestRuns verifies listing order (newest first) and the limit.
func TestRuns(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		id, err := store.BeginRun("release", "1.12", runStart.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
		require.NoError(t, store.FinishRun(id, model.RunSucceeded, "", runStart.Add(time.Duration(i)*time.Hour)))
	}

	runs, err := store.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Greater(t, runs[0].ID, runs[1].ID, "listing must be newest first")

	limited, err := store.Runs(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

// TestRunNotFound verifies the nil result for an unknown run ID.
func TestRunNotFound(t *testing.T) {
	store := openTestStore(t)

	rec, err := store.Run(12345)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

// TestLatestResumable verifies resume-candidate selection: the newest failed
// or in-progress run for the plan and version, and nothing once a run
// succeeded.
func TestLatestResumable(t *testing.T) {
	store := openTestStore(t)

	// Nothing recorded yet.
	rec, err := store.LatestResumable("release", "1.12")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// A failed run is resumable.
	failed, err := store.BeginRun("release", "1.12", runStart)
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(failed, model.RunFailed, "merge", runStart))

	rec, err = store.LatestResumable("release", "1.12")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, failed, rec.ID)
	assert.Equal(t, "merge", rec.FailedStep)

	// A different version's failure is not a candidate.
	rec, err = store.LatestResumable("release", "1.14")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// An in-progress run (killed process) is also resumable, and being
	// newer it wins over the earlier failure.
	killed, err := store.BeginRun("release", "1.12", runStart.Add(time.Hour))
	require.NoError(t, err)

	rec, err = store.LatestResumable("release", "1.12")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, killed, rec.ID)
	assert.Equal(t, model.RunInProgress, rec.Status)
}

// TestLatestResumableIgnoresSuccess verifies that a successful run is never
// offered for resume.
func TestLatestResumableIgnoresSuccess(t *testing.T) {
	store := openTestStore(t)

	ok, err := store.BeginRun("release", "1.12", runStart)
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ok, model.RunSucceeded, "", runStart))

	rec, err := store.LatestResumable("release", "1.12")
	require.NoError(t, err)
	assert.Nil(t, rec, "a succeeded run is not resumable")
}
