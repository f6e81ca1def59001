package morphogen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"morphogen/internal/artifacts"
	"morphogen/internal/decode"
	"morphogen/internal/genome"
	"morphogen/internal/model"
	"morphogen/internal/neatnet"
	"morphogen/internal/network"
	"morphogen/internal/params"
	"morphogen/internal/storage"
)

const (
	defaultArtifactsDir = "decodes"
	defaultExportsDir   = "exports"
	defaultDBPath       = "morphogen.db"
	defaultWorkers      = 4
	defaultActivation   = "sigmoid"
)

// ErrNotFound is returned when a genome or report id is unknown.
var ErrNotFound = errors.New("not found")

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store storage.Store

	initOnce sync.Once
	initErr  error

	artifactsDir string
	exportsDir   string
	now          func() time.Time
}

type GenomeRequest struct {
	Params params.Params
	Count  int
	Seed   int64
}

type GenomeItem struct {
	ID           string
	Encoding     params.Encoding
	Genes        int
	Seed         int64
	CreatedAtUTC string
}

type DecodeRequest struct {
	GenomeID string
	// NoArtifacts skips writing the artifact directory and index entry.
	NoArtifacts bool
}

type DecodeSummary struct {
	GenomeID     string
	Encoding     params.Encoding
	OK           bool
	Reason       string
	Connections  int
	Diagnostics  decode.Diagnostics
	ArtifactsDir string
}

// BatchRequest decodes either the stored genomes named by GenomeIDs, which
// must share one parameter set, or Count fresh random genomes drawn from
// Params with Seed.
type BatchRequest struct {
	GenomeIDs   []string
	Params      params.Params
	Count       int
	Seed        int64
	Workers     int
	NoArtifacts bool
}

type BatchSummary struct {
	BatchID  string
	Encoding params.Encoding
	Genomes  int
	Networks int
	Failures int
	Elapsed  time.Duration
	Results  []DecodeSummary
}

type ReportsRequest struct {
	Limit        int
	FailuresOnly bool
}

type ReportItem struct {
	GenomeID     string
	BatchID      string
	Encoding     string
	OK           bool
	Reason       string
	Connections  int
	PConn        float64
	CreatedAtUTC string
}

// ProbeRequest runs one input vector through a stored genome's network.
type ProbeRequest struct {
	GenomeID   string
	Inputs     []float64
	Activation string
}

// ProbeResult holds the outputs of the built-in evaluator (only for
// feed-forward networks) and of goNEAT.
type ProbeResult struct {
	GenomeID    string
	FeedForward bool
	Outputs     []float64
	NEATOutputs []float64
}

type ExportRequest struct {
	GenomeID string
	Latest   bool
	OutDir   string
}

type ExportSummary struct {
	GenomeID  string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
		now:          time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

// CreateGenomes draws req.Count random genomes for req.Params and stores
// them. One builder serves the whole request so innovation numbers do not
// repeat within it.
func (c *Client) CreateGenomes(ctx context.Context, req GenomeRequest) ([]GenomeItem, error) {
	if req.Count <= 0 {
		req.Count = 1
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	d, err := decode.New(req.Params)
	if err != nil {
		return nil, err
	}

	builder := genome.NewBuilder(req.Seed)
	items := make([]GenomeItem, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		g, err := builder.Random(d.Layout())
		if err != nil {
			return nil, err
		}
		record := c.genomeRecord(g, req.Params, req.Seed)
		if err := c.store.SaveGenome(ctx, record); err != nil {
			return nil, fmt.Errorf("save genome %s: %w", g.ID(), err)
		}
		items = append(items, genomeItem(record))
	}
	return items, nil
}

// ImportGenome stores a genome record after checking that its genes match
// the layout its parameters imply.
func (c *Client) ImportGenome(ctx context.Context, record model.GenomeRecord) (GenomeItem, error) {
	if err := c.Init(ctx); err != nil {
		return GenomeItem{}, err
	}
	if record.ID == "" {
		return GenomeItem{}, errors.New("genome id is required")
	}
	if _, _, err := loadGenome(record); err != nil {
		return GenomeItem{}, err
	}
	if record.SchemaVersion == 0 && record.CodecVersion == 0 {
		record.VersionedRecord = storage.CurrentVersion()
	}
	if record.CreatedAtUTC == "" {
		record.CreatedAtUTC = c.timestamp()
	}
	if err := c.store.SaveGenome(ctx, record); err != nil {
		return GenomeItem{}, err
	}
	return genomeItem(record), nil
}

func (c *Client) Genome(ctx context.Context, id string) (model.GenomeRecord, error) {
	if err := c.Init(ctx); err != nil {
		return model.GenomeRecord{}, err
	}
	record, ok, err := c.store.GetGenome(ctx, id)
	if err != nil {
		return model.GenomeRecord{}, err
	}
	if !ok {
		return model.GenomeRecord{}, fmt.Errorf("genome %s: %w", id, ErrNotFound)
	}
	return record, nil
}

func (c *Client) Genomes(ctx context.Context) ([]GenomeItem, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListGenomes(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]GenomeItem, 0, len(records))
	for _, r := range records {
		items = append(items, genomeItem(r))
	}
	return items, nil
}

// Decode decodes one stored genome, persists the report and, unless
// disabled, writes its artifacts.
func (c *Client) Decode(ctx context.Context, req DecodeRequest) (DecodeSummary, error) {
	record, err := c.Genome(ctx, req.GenomeID)
	if err != nil {
		return DecodeSummary{}, err
	}
	d, g, err := loadGenome(record)
	if err != nil {
		return DecodeSummary{}, err
	}
	res, err := d.Decode(g)
	if err != nil {
		return DecodeSummary{}, err
	}
	return c.record(ctx, record.Params, res, "", req.NoArtifacts)
}

// Batch decodes a population with a worker pool and records every result
// plus a batch summary.
func (c *Client) Batch(ctx context.Context, req BatchRequest) (BatchSummary, error) {
	if err := c.Init(ctx); err != nil {
		return BatchSummary{}, err
	}
	if req.Workers <= 0 {
		req.Workers = defaultWorkers
	}

	d, genomes, err := c.batchGenomes(ctx, req)
	if err != nil {
		return BatchSummary{}, err
	}

	batch, err := decode.Batch(ctx, d, genomes, req.Workers)
	if err != nil {
		return BatchSummary{}, err
	}

	summary := BatchSummary{
		BatchID:  batch.ID,
		Encoding: d.Encoding(),
		Genomes:  len(genomes),
		Networks: batch.Networks,
		Failures: batch.Failures,
		Elapsed:  batch.Elapsed,
		Results:  make([]DecodeSummary, 0, len(batch.Results)),
	}
	ids := make([]string, 0, len(batch.Results))
	for _, res := range batch.Results {
		item, err := c.record(ctx, d.Params(), res, batch.ID, req.NoArtifacts)
		if err != nil {
			return BatchSummary{}, err
		}
		summary.Results = append(summary.Results, item)
		ids = append(ids, res.GenomeID)
	}

	if err := c.store.SaveBatch(ctx, model.BatchSummary{
		VersionedRecord: storage.CurrentVersion(),
		ID:              batch.ID,
		Encoding:        string(d.Encoding()),
		GenomeIDs:       ids,
		Networks:        batch.Networks,
		Failures:        batch.Failures,
		Workers:         req.Workers,
		ElapsedMS:       batch.Elapsed.Milliseconds(),
		CreatedAtUTC:    c.timestamp(),
	}); err != nil {
		return BatchSummary{}, fmt.Errorf("save batch %s: %w", batch.ID, err)
	}
	return summary, nil
}

func (c *Client) batchGenomes(ctx context.Context, req BatchRequest) (decode.Decoder, []*genome.Genome, error) {
	if len(req.GenomeIDs) == 0 {
		if req.Count <= 0 {
			return nil, nil, errors.New("batch requires genome ids or a count > 0")
		}
		items, err := c.CreateGenomes(ctx, GenomeRequest{Params: req.Params, Count: req.Count, Seed: req.Seed})
		if err != nil {
			return nil, nil, err
		}
		req.GenomeIDs = make([]string, 0, len(items))
		for _, item := range items {
			req.GenomeIDs = append(req.GenomeIDs, item.ID)
		}
	}

	var (
		d       decode.Decoder
		first   params.Params
		genomes = make([]*genome.Genome, 0, len(req.GenomeIDs))
	)
	for i, id := range req.GenomeIDs {
		record, err := c.Genome(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if i == 0 {
			first = record.Params
			d, err = decode.New(first)
			if err != nil {
				return nil, nil, err
			}
		} else if record.Params != first {
			return nil, nil, fmt.Errorf("genome %s: parameters differ from genome %s", id, req.GenomeIDs[0])
		}
		g, err := genome.FromMap(record.ID, d.Layout(), record.Genes)
		if err != nil {
			return nil, nil, fmt.Errorf("load genome %s: %w", id, err)
		}
		genomes = append(genomes, g)
	}
	return d, genomes, nil
}

// Reports lists decoded genomes from the artifact index, newest first.
func (c *Client) Reports(_ context.Context, req ReportsRequest) ([]ReportItem, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	entries, err := artifacts.ListIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	items := make([]ReportItem, 0, len(entries))
	for _, e := range entries {
		if req.FailuresOnly && e.OK {
			continue
		}
		items = append(items, ReportItem{
			GenomeID:     e.GenomeID,
			BatchID:      e.BatchID,
			Encoding:     e.Encoding,
			OK:           e.OK,
			Reason:       e.Reason,
			Connections:  e.Connections,
			PConn:        e.PConn,
			CreatedAtUTC: e.CreatedAtUTC,
		})
		if req.Limit > 0 && len(items) == req.Limit {
			break
		}
	}
	return items, nil
}

// Report returns the stored decode report for genomeID, falling back to the
// artifact directory when the store does not hold it.
func (c *Client) Report(ctx context.Context, genomeID string) (model.DecodeReport, error) {
	if err := c.Init(ctx); err != nil {
		return model.DecodeReport{}, err
	}
	report, ok, err := c.store.GetReport(ctx, genomeID)
	if err != nil {
		return model.DecodeReport{}, err
	}
	if ok {
		return report, nil
	}

	res, ok, err := artifacts.ReadResult(c.artifactsDir, genomeID)
	if err != nil {
		return model.DecodeReport{}, err
	}
	if !ok {
		return model.DecodeReport{}, fmt.Errorf("report %s: %w", genomeID, ErrNotFound)
	}
	return reportFor(res, "", ""), nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.GenomeID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either genome id or latest, not both")
	}
	if req.GenomeID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires genome id or latest")
	}
	outDir := req.OutDir
	if outDir == "" {
		outDir = c.exportsDir
	}

	genomeID := req.GenomeID
	if req.Latest {
		entries, err := artifacts.ListIndex(c.artifactsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no decodes available to export")
		}
		genomeID = entries[0].GenomeID
	}

	dir, err := artifacts.ExportArtifacts(c.artifactsDir, genomeID, outDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{GenomeID: genomeID, Directory: filepath.Clean(dir)}, nil
}

// Probe decodes a stored genome without recording it and evaluates the
// network on req.Inputs. A genome without a network yields an error
// wrapping decode.ErrNoNetwork.
func (c *Client) Probe(ctx context.Context, req ProbeRequest) (ProbeResult, error) {
	if req.Activation == "" {
		req.Activation = defaultActivation
	}
	record, err := c.Genome(ctx, req.GenomeID)
	if err != nil {
		return ProbeResult{}, err
	}
	d, g, err := loadGenome(record)
	if err != nil {
		return ProbeResult{}, err
	}
	res, err := d.Decode(g)
	if err != nil {
		return ProbeResult{}, err
	}
	if res.Failure != nil {
		return ProbeResult{}, fmt.Errorf("probe %s: %w", req.GenomeID, res.Failure)
	}

	out := ProbeResult{GenomeID: req.GenomeID, FeedForward: res.Network.FeedForward()}
	if out.FeedForward {
		out.Outputs, err = network.Forward(res.Network, req.Inputs, req.Activation)
		if err != nil {
			return ProbeResult{}, err
		}
	}
	out.NEATOutputs, err = neatnet.Activate(res.Network, req.Inputs, req.Activation)
	if err != nil {
		return ProbeResult{}, err
	}
	return out, nil
}

func (c *Client) record(ctx context.Context, p params.Params, res *decode.Result, batchID string, noArtifacts bool) (DecodeSummary, error) {
	createdAt := c.timestamp()
	if err := c.store.SaveReport(ctx, reportFor(res, batchID, createdAt)); err != nil {
		return DecodeSummary{}, fmt.Errorf("save report %s: %w", res.GenomeID, err)
	}

	summary := summaryFor(res)
	if noArtifacts {
		return summary, nil
	}
	dir, err := artifacts.WriteDecodeArtifacts(c.artifactsDir, artifacts.DecodeArtifacts{Params: p, Result: res})
	if err != nil {
		return DecodeSummary{}, err
	}
	if err := artifacts.AppendIndex(c.artifactsDir, artifacts.EntryFor(res, batchID, createdAt)); err != nil {
		return DecodeSummary{}, err
	}
	summary.ArtifactsDir = dir
	return summary, nil
}

func (c *Client) genomeRecord(g *genome.Genome, p params.Params, seed int64) model.GenomeRecord {
	return model.GenomeRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              g.ID(),
		Params:          p,
		Genes:           g.Map(),
		Innovations:     g.Innovations(),
		Seed:            seed,
		CreatedAtUTC:    c.timestamp(),
	}
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(time.RFC3339Nano)
}

func loadGenome(record model.GenomeRecord) (decode.Decoder, *genome.Genome, error) {
	d, err := decode.New(record.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("genome %s: %w", record.ID, err)
	}
	g, err := genome.FromMap(record.ID, d.Layout(), record.Genes)
	if err != nil {
		return nil, nil, fmt.Errorf("load genome %s: %w", record.ID, err)
	}
	if len(record.Innovations) > 0 {
		g, err = g.WithInnovations(record.Innovations)
		if err != nil {
			return nil, nil, fmt.Errorf("load genome %s: %w", record.ID, err)
		}
	}
	return d, g, nil
}

func genomeItem(r model.GenomeRecord) GenomeItem {
	return GenomeItem{
		ID:           r.ID,
		Encoding:     r.Params.Encoding,
		Genes:        len(r.Genes),
		Seed:         r.Seed,
		CreatedAtUTC: r.CreatedAtUTC,
	}
}

func reportFor(res *decode.Result, batchID, createdAt string) model.DecodeReport {
	report := model.DecodeReport{
		VersionedRecord: storage.CurrentVersion(),
		GenomeID:        res.GenomeID,
		BatchID:         batchID,
		Encoding:        string(res.Encoding),
		Network:         res.Network,
		Failure:         res.Failure,
		Diagnostics:     map[string]float64(res.Diagnostics),
		CreatedAtUTC:    createdAt,
	}
	if res.Matrix != nil {
		report.Matrix = res.Matrix.Rows()
	}
	return report
}

func summaryFor(res *decode.Result) DecodeSummary {
	s := DecodeSummary{
		GenomeID:    res.GenomeID,
		Encoding:    res.Encoding,
		OK:          res.OK(),
		Diagnostics: res.Diagnostics,
	}
	if res.Network != nil {
		s.Connections = len(res.Network.Edges)
	}
	if res.Failure != nil {
		s.Reason = res.Failure.Reason
	}
	return s
}
