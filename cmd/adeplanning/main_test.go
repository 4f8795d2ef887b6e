package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-tools/adeplanning/config"
	"github.com/campus-tools/adeplanning/internal/bootstrap"
	apperrors "github.com/campus-tools/adeplanning/internal/errors"
	"github.com/campus-tools/adeplanning/internal/testutil"
)

var testNow = time.Date(2024, 3, 11, 7, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T, fake *testutil.FakeADE) (*commandContext, *bytes.Buffer) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := config.AppConfig{
		SSO: config.SSOConfig{
			EntryURL: fake.EntryURL(),
			Username: fake.Username,
			Password: fake.Password,
		},
		GWT: config.GWTConfig{
			ModuleBase:   fake.ModuleBase(),
			Permutation:  testutil.FakePermutation,
			SessionSeed:  config.DefaultSessionSeed,
			RootFolderID: config.DefaultRootFolderID,
		},
		Calendar: config.CalendarConfig{FeedURL: fake.FeedURL(), Timezone: "UTC"},
		Crawl:    config.CrawlConfig{Concurrency: 2},
		HTTP:     config.HTTPConfig{Timeout: 5 * time.Second},
	}
	cfg.Sanitize()

	var out bytes.Buffer
	return &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Stdout: &out,
		Stderr: io.Discard,
		Deps: bootstrap.ClientDeps{
			Logger: logger,
			Now:    testutil.FixedTimeFunc(testNow),
		},
	}, &out
}

func twoLevelTree(fake *testutil.FakeADE) {
	fake.Tree[config.DefaultRootFolderID] = []testutil.FakeNode{
		{ID: 30, Name: "R3"},
		{ID: 10, Name: "F1", IsFolder: true},
	}
	fake.Tree[10] = []testutil.FakeNode{
		{ID: 1, Name: "R1"},
		{ID: 2, Name: "R2"},
	}
}

func TestRunRooms(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	twoLevelTree(fake)
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runRooms(cmdCtx, nil))

	var catalog []struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		IsFolder bool   `json:"isFolder"`
		ParentID *int   `json:"parentId"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &catalog))
	require.Len(t, catalog, 4)
	assert.Equal(t, "R3", catalog[0].Name)
	assert.Nil(t, catalog[0].ParentID)
	assert.True(t, catalog[1].IsFolder)
	require.NotNil(t, catalog[2].ParentID)
	assert.Equal(t, 10, *catalog[2].ParentID)
	assert.Equal(t, context.Background(), cmdCtx.Ctx, "timeout context must be restored")
}

func TestRunRooms_Query(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	twoLevelTree(fake)
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runRooms(cmdCtx, []string{"-query", "[?parentId == `10`].name"}))

	var names []string
	require.NoError(t, json.Unmarshal(out.Bytes(), &names))
	assert.Equal(t, []string{"R1", "R2"}, names)
}

func TestRunRooms_Stats(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	twoLevelTree(fake)
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runRooms(cmdCtx, []string{"-stats"}))

	var stats map[string]int
	require.NoError(t, json.Unmarshal(out.Bytes(), &stats))
	assert.Equal(t, map[string]int{"resources": 4, "folders": 1, "rooms": 3, "maxDepth": 2}, stats)
}

func TestRunRooms_MissingCredentials(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	cmdCtx, _ := newTestContext(t, fake)
	cmdCtx.Config.SSO.Password = ""

	err := runRooms(cmdCtx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CAS_PASSWORD")
	assert.Empty(t, fake.Calls())
}

func TestRunRooms_RejectedCredentials(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	fake.RejectStatus = 401
	cmdCtx, out := newTestContext(t, fake)

	err := runRooms(cmdCtx, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Zero(t, out.Len())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		run  commandFn
		args []string
		want int
	}{
		{name: "missing resource", run: runPlanning, want: exitUsage},
		{name: "missing uid", run: runStudentPlanning, want: exitUsage},
		{name: "stats with query", run: runRooms, args: []string{"-stats", "-query", "[0]"}, want: exitUsage},
		{name: "bad timeout", run: runLookupID, args: []string{"-uid", "jdoe", "-timeout", "soon"}, want: exitUsage},
		{name: "unknown flag", run: runSessionKey, args: []string{"-bogus"}, want: exitUsage},
		{name: "bad date", run: runPlanning, args: []string{"-resource", "1", "-from", "11/03/2024"}, want: exitUsage},
		{name: "help", run: runRooms, args: []string{"-h"}, want: exitOK},
		{name: "success", run: runSessionKey, want: exitOK},
		{name: "missing credentials", run: runLookupID, args: []string{"jdoe"}, want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeADE(t)
			cmdCtx, _ := newTestContext(t, fake)
			cmdCtx.Config.SSO.Password = ""
			var stderr bytes.Buffer
			cmdCtx.Stderr = &stderr

			assert.Equal(t, tt.want, exitCode(tt.run(cmdCtx, tt.args)))
			assert.Empty(t, fake.Calls())
			if tt.want == exitUsage {
				assert.NotEmpty(t, stderr.String(), "usage errors are reported on stderr")
			}
		})
	}

	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitOK, exitCode(nil))
}

func TestRunLookupID(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	fake.UIDs["jdoe"] = 4242
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runLookupID(cmdCtx, []string{"jdoe"}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "jdoe", got["uid"])
	assert.InDelta(t, 4242, got["resourceId"], 0)
}

func TestRunPlanning(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	start := time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)
	fake.Feeds[12] = testutil.NewFeed().
		AddEvent(testutil.FeedEvent{UID: "b", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour), Summary: "Later"}).
		AddEvent(testutil.FeedEvent{UID: "a", Start: start, End: start.Add(time.Hour), Summary: "Earlier"}).
		Build()
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runPlanning(cmdCtx, []string{"-resource", "12", "-from", "2024-03-12", "-to", "2024-03-13"}))

	var events []struct {
		Start   time.Time `json:"start"`
		Summary *string   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &events))
	require.Len(t, events, 2)
	require.NotNil(t, events[0].Summary)
	assert.Equal(t, "Earlier", *events[0].Summary)

	queries := fake.FeedQueries()
	require.Len(t, queries, 1)
	assert.Equal(t, "12", queries[0].Get("resources"))
	assert.Equal(t, "2024-03-12", queries[0].Get("firstDate"))
	assert.Equal(t, "2024-03-13", queries[0].Get("lastDate"))
	assert.Empty(t, fake.Calls(), "feeds need no rpc session")
}

func TestRunPlanning_Raw(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	start := testNow.Add(2 * time.Hour)
	fake.Feeds[12] = testutil.NewFeed().
		AddEvent(testutil.FeedEvent{UID: "a", Start: start, End: start.Add(time.Hour), Summary: "Algo"}).
		Build()
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runPlanning(cmdCtx, []string{"-resource", "12", "-raw"}))

	body := out.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "PRODID:"+calendarProductID)
	assert.Contains(t, body, "UID:a")
	assert.Contains(t, body, "SUMMARY:Algo")
}

func TestRunStudentPlanning(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	fake.UIDs["jdoe"] = 77
	start := testNow.Add(time.Hour)
	fake.Feeds[77] = testutil.NewFeed().
		AddEvent(testutil.FeedEvent{
			UID:         "x",
			Start:       start,
			End:         start.Add(time.Hour),
			Summary:     "Algorithmique",
			Description: "\nAB12345\nTD\nDUPONT Jean\nE1\n(Exporté le:10/03/2024 12:00)",
		}).
		Build()
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runStudentPlanning(cmdCtx, []string{"-uid", "jdoe"}))

	var events []struct {
		Description struct {
			ID       *string  `json:"id"`
			Teachers []string `json:"teachers"`
		} `json:"description"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &events))
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Description.ID)
	assert.Equal(t, "AB12345", *events[0].Description.ID)
	assert.Equal(t, []string{"DUPONT Jean"}, events[0].Description.Teachers)
}

func TestRunSessionKey(t *testing.T) {
	fake := testutil.NewFakeADE(t)
	cmdCtx, out := newTestContext(t, fake)

	require.NoError(t, runSessionKey(cmdCtx, nil))
	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "wP_u", got["key"])

	out.Reset()
	require.NoError(t, runSessionKey(cmdCtx, []string{"-seed", "0"}))
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "AA", got["key"])
}

func TestParsePlanningFlags(t *testing.T) {
	_, err := parsePlanningFlags("planning", nil, false, io.Discard)
	require.EqualError(t, err, "--resource is required")

	_, err = parsePlanningFlags("student-planning", []string{"-uid", "  "}, true, io.Discard)
	require.EqualError(t, err, "--uid is required")

	_, err = parsePlanningFlags("planning", []string{"-resource", "1", "-timeout", "0s"}, false, io.Discard)
	require.Error(t, err)

	opts, err := parsePlanningFlags("planning", []string{"-resource", "0"}, false, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, opts.Resource)
}

func TestPlanningOptions_DateRange(t *testing.T) {
	loc := time.FixedZone("UTC+1", 3600)

	r, err := planningOptions{}.dateRange(loc)
	require.NoError(t, err)
	assert.True(t, r.IsZero())

	r, err = planningOptions{From: "2024-03-11", To: "2024-03-15"}.dateRange(loc)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", r.FirstDate())
	assert.Equal(t, "2024-03-15", r.LastDate())
	assert.Equal(t, loc, r.First.Location())

	_, err = planningOptions{To: "2024-03-15"}.dateRange(loc)
	require.EqualError(t, err, "--to requires --from")

	_, err = planningOptions{From: "11/03/2024"}.dateRange(loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--from")
}

func TestParseRoomsFlags(t *testing.T) {
	opts, err := parseRoomsFlags(nil, -3, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, -3, opts.Folder)
	assert.Equal(t, 1, opts.Depth)

	_, err = parseRoomsFlags([]string{"-stats", "-query", "[0]"}, -3, io.Discard)
	require.Error(t, err)

	_, err = parseRoomsFlags([]string{"-depth", "0"}, -3, io.Discard)
	require.Error(t, err)
}

func TestApplyQuery_Invalid(t *testing.T) {
	_, err := applyQuery("[?", []string{"a"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	out, err := applyQuery("", []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out)
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	for name := range commands() {
		assert.Contains(t, out, name)
	}
	assert.Less(t, strings.Index(out, "lookup-id"), strings.Index(out, "rooms"), "commands are listed in order")
}
