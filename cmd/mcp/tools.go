package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"jobmatch-engine/internal/config"
	"jobmatch-engine/internal/geocode"
	"jobmatch-engine/internal/jobimport"
	"jobmatch-engine/internal/store"
)

type toolset struct {
	jobs    store.Jobs
	cfg     config.Config
	lock    *store.ImportLock
	limiter *geocode.HostLimiter

	// geocoder overrides the configured provider (tests).
	geocoder geocode.Geocoder
}

var csvSourceProps = map[string]interface{}{
	"csv":  map[string]interface{}{"type": "string", "description": "CSV text including the header row"},
	"path": map[string]interface{}{"type": "string", "description": "Path to a CSV file (used when csv is empty)"},
}

func (t *toolset) register(s *server.MCPServer) {
	tmpl := mcp.NewTool("jobs_csv_template",
		mcp.WithDescription("Return the header-only CSV template for bulk job import"),
	)
	s.AddTool(tmpl, t.template)

	validate := mcp.NewTool("validate_jobs_csv",
		mcp.WithDescription("Parse and validate a job CSV without writing anything; reports per-row errors, duplicates and location matches"),
	)
	validate.InputSchema = mcp.ToolInputSchema{
		Type:       "object",
		Properties: csvSourceProps,
	}
	s.AddTool(validate, t.validate)

	imp := mcp.NewTool("import_jobs_csv",
		mcp.WithDescription("Import every valid, new row of a job CSV into the jobs table"),
	)
	props := map[string]interface{}{
		"actor":      map[string]interface{}{"type": "string", "description": "Staff identifier recorded as last_edited_by"},
		"resolve_ai": map[string]interface{}{"type": "boolean", "description": "Ask the configured geocoder about cities missing from the gazetteer"},
		"dry_run":    map[string]interface{}{"type": "boolean", "description": "If true, report what would be imported without writing"},
	}
	for k, v := range csvSourceProps {
		props[k] = v
	}
	imp.InputSchema = mcp.ToolInputSchema{Type: "object", Properties: props}
	s.AddTool(imp, t.importCSV)
}

func (t *toolset) template(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(jobimport.TemplateCSV()), nil
}

type rowReport struct {
	Row        int      `json:"row"`
	Title      string   `json:"title"`
	Errors     []string `json:"errors,omitempty"`
	Existing   bool     `json:"existing,omitempty"`
	Resolution string   `json:"resolution"`
}

type validateReport struct {
	Summary jobimport.Summary `json:"summary"`
	Rows    []rowReport       `json:"rows"`
}

func (t *toolset) validate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	rows, errRes := t.parse(ctx, args)
	if errRes != nil {
		return errRes, nil
	}
	return jsonResult(report(rows))
}

type importReport struct {
	DryRun  bool                    `json:"dryRun"`
	Summary jobimport.Summary       `json:"summary"`
	AI      *jobimport.AIResult     `json:"ai,omitempty"`
	Import  *jobimport.ImportResult `json:"import,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func (t *toolset) importCSV(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}
	actor, _ := args["actor"].(string)
	resolveAI, _ := args["resolve_ai"].(bool)
	dryRun, _ := args["dry_run"].(bool)

	rows, errRes := t.parse(ctx, args)
	if errRes != nil {
		return errRes, nil
	}

	out := importReport{DryRun: dryRun}
	if resolveAI {
		g, host, err := geocode.FromConfig(t.cfg)
		if t.geocoder != nil {
			g, err = t.geocoder, nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("AI location resolution unavailable: %v", err)), nil
		}
		ai := &jobimport.AIResolver{Geocoder: g, Country: t.cfg.Geocode.DefaultCountry}
		if t.limiter != nil {
			ai.Throttle = t.limiter.For(host)
		}
		res := ai.Resolve(ctx, rows, nil)
		out.AI = &res
	}
	out.Summary = jobimport.Summarize(rows)

	if dryRun {
		return jsonResult(out)
	}
	if out.Summary.ReadyCount == 0 {
		return mcp.NewToolResultError(jobimport.ErrNoValidRows.Error()), nil
	}

	release, err := t.lock.TryAcquire()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defer release()

	im := &jobimport.Importer{
		Store:     t.jobs,
		ChunkSize: t.cfg.Import.ChunkSize,
		Defaults: jobimport.Defaults{
			MinAge:          t.cfg.Import.DefaultMinAge,
			MaxAge:          t.cfg.Import.DefaultMaxAge,
			ExperienceYears: t.cfg.Import.DefaultExperienceYears,
		},
		DefaultUser: t.cfg.App.DefaultActor,
	}
	res, err := im.Import(ctx, rows, actor, nil)
	out.Import = &res
	if err != nil {
		zap.L().Error("mcp import failed", zap.Int("inserted", res.Inserted), zap.Error(err))
		out.Error = err.Error()
		b, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultError(string(b)), nil
	}
	zap.L().Info("mcp import finished", zap.String("actor", actor), zap.Int("inserted", res.Inserted))
	return jsonResult(out)
}

// parse loads the CSV named by args and runs the synchronous stages over
// it against the current gazetteer and stored identifiers.
func (t *toolset) parse(ctx context.Context, args map[string]interface{}) ([]jobimport.ParsedRow, *mcp.CallToolResult) {
	text, _ := args["csv"].(string)
	if strings.TrimSpace(text) == "" {
		path, _ := args["path"].(string)
		if strings.TrimSpace(path) == "" {
			return nil, mcp.NewToolResultError("provide csv or path")
		}
		b, err := os.ReadFile(strings.TrimSpace(path))
		if err != nil {
			return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to read %s: %v", path, err))
		}
		text = string(b)
	}

	locs, err := t.jobs.ListLocations(ctx)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to load locations: %v", err))
	}
	ids, err := t.jobs.ExistingExternalIDs(ctx)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to load existing jobs: %v", err))
	}

	rows, err := jobimport.Process(text, jobimport.NewGazetteer(locs), jobimport.NewExistingIDs(ids))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return rows, nil
}

func report(rows []jobimport.ParsedRow) validateReport {
	out := validateReport{Summary: jobimport.Summarize(rows), Rows: make([]rowReport, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, rowReport{
			Row:        r.RowNumber,
			Title:      r.Raw.Value(jobimport.ColTitle),
			Errors:     r.Errors,
			Existing:   r.IsExisting,
			Resolution: string(r.ResolutionMethod),
		})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
