package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/geocode"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/store"
)

type stubGeocoder struct{}

func (stubGeocoder) Geocode(context.Context, geocode.Request) (geocode.Result, error) {
	lat, lng := 1.4927, 103.7414
	return geocode.Result{Latitude: &lat, Longitude: &lng}, nil
}

const csvHeader = "title,company,industry,location_city,location_state,salary_range,gender_requirement,min_age,max_age,min_experience_years,expire_by,url,external_job_id\n"

func newToolset(t *testing.T) *toolset {
	t.Helper()
	dir := t.TempDir()
	d, err := store.Open(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	require.NoError(t, store.Migrate(d.Pool))
	require.NoError(t, store.InsertLocations(context.Background(), d.Pool, []domain.MalaysiaLocation{
		{Name: "Ipoh", State: "Perak", Latitude: 4.5975, Longitude: 101.0901},
	}))
	return &toolset{
		jobs: store.Jobs{DB: d.Pool},
		cfg:  config.Default(),
		lock: store.NewImportLock(dir),
	}
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestTemplateTool(t *testing.T) {
	ts := newToolset(t)
	res, err := ts.template(context.Background(), call(nil))
	require.NoError(t, err)
	assert.Equal(t, jobimport.TemplateCSV(), resultText(t, res))
}

func TestValidateToolReportsRows(t *testing.T) {
	ts := newToolset(t)
	csv := csvHeader +
		"Cashier,,,Ipoh,,,,,,,2030-01-31,,A1\n" +
		",,,Ipoh,,,,abc,,,2030-13-01,,A2\n"

	res, err := ts.validate(context.Background(), call(map[string]interface{}{"csv": csv}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var rep validateReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rep))
	assert.Equal(t, 2, rep.Summary.Total)
	assert.Equal(t, 1, rep.Summary.ErrorCount)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "local", rep.Rows[0].Resolution)
	assert.Contains(t, rep.Rows[1].Errors, "Title is required")
	assert.Contains(t, rep.Rows[1].Errors, "Min age must be a number")
}

func TestValidateToolFromPathAndHeaderError(t *testing.T) {
	ts := newToolset(t)
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte("title\nCashier\n"), 0o644))

	res, err := ts.validate(context.Background(), call(map[string]interface{}{"path": path}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Missing required columns: ")

	res, err = ts.validate(context.Background(), call(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestImportToolDryRunThenImport(t *testing.T) {
	ts := newToolset(t)
	ts.geocoder = stubGeocoder{}
	csv := csvHeader +
		"Cashier,,,Ipoh,,,,,,,2030-01-31,,A1\n" +
		"Packer,,,Johor Bahru,Johor,,,,,,2030-01-31,,A2\n"
	ctx := context.Background()

	res, err := ts.importCSV(ctx, call(map[string]interface{}{"csv": csv, "dry_run": true}))
	require.NoError(t, err)
	var rep importReport
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rep))
	assert.True(t, rep.DryRun)
	assert.Equal(t, 2, rep.Summary.ReadyCount)
	assert.Nil(t, rep.Import)
	n, err := store.CountJobs(ctx, ts.jobs.DB)
	require.NoError(t, err)
	assert.Zero(t, n)

	res, err = ts.importCSV(ctx, call(map[string]interface{}{"csv": csv, "resolve_ai": true, "actor": "bot"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	rep = importReport{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rep))
	require.NotNil(t, rep.AI)
	assert.Equal(t, 1, rep.AI.Resolved)
	require.NotNil(t, rep.Import)
	assert.Equal(t, 2, rep.Import.Inserted)
	assert.Zero(t, rep.Import.LocationWarnings)

	// Same file again: everything is a duplicate now.
	res, err = ts.importCSV(ctx, call(map[string]interface{}{"csv": csv}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, jobimport.ErrNoValidRows.Error(), resultText(t, res))
}

func TestImportToolWithoutGeocoder(t *testing.T) {
	ts := newToolset(t)
	csv := csvHeader + "Cashier,,,Ipoh,,,,,,,2030-01-31,,A1\n"
	res, err := ts.importCSV(context.Background(), call(map[string]interface{}{"csv": csv, "resolve_ai": true}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "AI location resolution unavailable")
}
