package journal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/moodjournal-backend/internal/analysis"
	"github.com/angelmondragon/moodjournal-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/moodjournal-backend/pkg/errors"
	"github.com/angelmondragon/moodjournal-backend/pkg/llm"
)

const stressedDeadline = "I'm stressed about the deadline tomorrow."

type scriptedCompleter struct{}

func (scriptedCompleter) CompleteJSON(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	if strings.Contains(req.Prompt, "deadline") {
		return json.RawMessage(`{"status":"ok","mood":"stressed","stress_level":7,"topic":"work","summary":"Worried about a deadline.","advice":"Break the work into small steps."}`), nil
	}
	return json.RawMessage(`{"status":"rejected","reason":"This does not look like a journal entry."}`), nil
}

type countingRepo struct {
	Repository
	creates   int
	createErr error
}

func (c *countingRepo) Create(ctx context.Context, entry *models.JournalEntry) error {
	c.creates++
	if c.createErr != nil {
		return c.createErr
	}
	return c.Repository.Create(ctx, entry)
}

func newWorkflow(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	gateway, err := analysis.NewGateway(analysis.GatewayParams{LLM: scriptedCompleter{}, MaxChars: 8000, Temperature: 0.7})
	require.NoError(t, err)
	repo := &countingRepo{Repository: NewRepository(setupJournalTestDB(t))}
	svc, err := NewService(ServiceParams{Repo: repo, Analyzer: gateway})
	require.NoError(t, err)
	return svc, repo
}

func TestSubmit_AcceptedEntryIsSavedAndListedFirst(t *testing.T) {
	svc, repo := newWorkflow(t)
	ctx := context.Background()

	out, err := svc.Submit(ctx, "u1", stressedDeadline)
	require.NoError(t, err)
	require.Equal(t, analysis.StatusOK, out.Analysis.Status)
	require.NotNil(t, out.Entry)
	assert.Equal(t, 1, repo.creates)

	entries, err := svc.List(ctx, "u1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, out.Entry.ID, entries[0].ID)
	assert.Equal(t, stressedDeadline, entries[0].EntryText)
	assert.GreaterOrEqual(t, entries[0].StressLevel, 0)
	assert.LessOrEqual(t, entries[0].StressLevel, 10)
}

func TestSubmit_RejectedTextIsNeverSaved(t *testing.T) {
	svc, repo := newWorkflow(t)

	out, err := svc.Submit(context.Background(), "u1", "asdf")
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusRejected, out.Analysis.Status)
	require.NotNil(t, out.Analysis.Rejected)
	assert.NotEmpty(t, out.Analysis.Rejected.Reason)
	assert.Nil(t, out.Entry)
	assert.Zero(t, repo.creates)
}

func TestSubmit_SaveFailureKeepsAnalysis(t *testing.T) {
	svc, repo := newWorkflow(t)
	repo.createErr = errors.New("connection refused")

	_, err := svc.Submit(context.Background(), "u1", stressedDeadline)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeEntryNotSaved, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	res, ok := details["analysis"].(analysis.Result)
	require.True(t, ok)
	assert.Equal(t, "stressed", res.Accepted.Mood)
}

func TestSubmit_ValidationStopsBeforeUpstream(t *testing.T) {
	svc, repo := newWorkflow(t)
	_, err := svc.Submit(context.Background(), "u1", "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, repo.creates)
}

func TestSave_ValidatesAnalysis(t *testing.T) {
	svc, repo := newWorkflow(t)
	_, err := svc.Save(context.Background(), "u1", "some text", analysis.Accepted{Mood: "calm", StressLevel: 12, Topic: "t", Summary: "s", Advice: "a"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Save(context.Background(), "u1", "some text", analysis.Accepted{Mood: "", StressLevel: 2, Topic: "t", Summary: "s", Advice: "a"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, repo.creates)
}

func TestSave_PersistenceError(t *testing.T) {
	svc, repo := newWorkflow(t)
	repo.createErr = errors.New("disk full")
	_, err := svc.Save(context.Background(), "u1", "text", analysis.Accepted{Mood: "calm", StressLevel: 0, Topic: "t", Summary: "s", Advice: "a"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
}

func TestList_RejectsBadLimit(t *testing.T) {
	svc, _ := newWorkflow(t)
	for _, limit := range []int{0, -1, 101} {
		_, err := svc.List(context.Background(), "u1", limit)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "limit %d", limit)
	}
}
