package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"morphogen/internal/artifacts"
	"morphogen/internal/model"
	"morphogen/internal/storage"
	api "morphogen/pkg/morphogen"
)

const (
	artifactsDir = "decodes"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "genome":
		return runGenome(ctx, args[1:])
	case "decode":
		return runDecode(ctx, args[1:])
	case "batch":
		return runBatch(ctx, args[1:])
	case "probe":
		return runProbe(ctx, args[1:])
	case "reports":
		return runReports(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func newClient(sf *storeFlags) (*api.Client, error) {
	return api.New(api.Options{
		StoreKind:    *sf.kind,
		DBPath:       *sf.dbPath,
		ArtifactsDir: *sf.artifactsDir,
		ExportsDir:   exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := registerStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(sf)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *sf.kind)
	return nil
}

func runGenome(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("genome", flag.ContinueOnError)
	pf := registerParamFlags(fs)
	sf := registerStoreFlags(fs)
	count := fs.Int("count", 1, "number of random genomes to create")
	seed := fs.Int64("seed", 1, "rng seed")
	outDir := fs.String("out", "", "also write each genome record as <id>.json into this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *count <= 0 {
		return errors.New("count must be > 0")
	}
	p, err := pf.resolve(fs)
	if err != nil {
		return err
	}

	client, err := newClient(sf)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.CreateGenomes(ctx, api.GenomeRequest{Params: p, Count: *count, Seed: *seed})
	if err != nil {
		return err
	}
	for _, item := range items {
		path := ""
		if *outDir != "" {
			record, err := client.Genome(ctx, item.ID)
			if err != nil {
				return err
			}
			path, err = writeGenomeFile(*outDir, record.ID, record)
			if err != nil {
				return err
			}
		}
		fmt.Printf("genome_id=%s encoding=%s genes=%d seed=%d file=%s\n", item.ID, item.Encoding, item.Genes, item.Seed, path)
	}
	return nil
}

func runDecode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	sf := registerStoreFlags(fs)
	logLevel := registerLogLevel(fs)
	genomeID := fs.String("id", "", "stored genome id")
	genomeFile := fs.String("genome-file", "", "genome record JSON to import and decode")
	noArtifacts := fs.Bool("no-artifacts", false, "skip writing the artifact directory")
	jsonOut := fs.Bool("json", false, "emit the decode summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*genomeID == "") == (*genomeFile == "") {
		return errors.New("decode requires exactly one of --id or --genome-file")
	}
	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}

	client, err := newClient(sf)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *genomeFile != "" {
		record, err := readGenomeFile(*genomeFile)
		if err != nil {
			return err
		}
		item, err := client.ImportGenome(ctx, record)
		if err != nil {
			return err
		}
		logger.Debug("imported genome", "genome_id", item.ID, "file", *genomeFile, "genes", item.Genes)
		*genomeID = item.ID
	}

	summary, err := client.Decode(ctx, api.DecodeRequest{GenomeID: *genomeID, NoArtifacts: *noArtifacts})
	if err != nil {
		return err
	}
	logger.Info("decoded genome", "genome_id", summary.GenomeID, "encoding", summary.Encoding, "ok", summary.OK)
	for key, value := range summary.Diagnostics {
		logger.Debug("diagnostic", "genome_id", summary.GenomeID, "key", key, "value", value)
	}

	if *jsonOut {
		return printJSON(summary)
	}
	printSummary(summary)
	return nil
}

func runBatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	pf := registerParamFlags(fs)
	sf := registerStoreFlags(fs)
	logLevel := registerLogLevel(fs)
	ids := fs.String("ids", "", "comma-separated stored genome ids (default: random population)")
	count := fs.Int("count", 20, "random population size when --ids is not given")
	seed := fs.Int64("seed", 1, "rng seed for the random population")
	workers := fs.Int("workers", 4, "worker count")
	noArtifacts := fs.Bool("no-artifacts", false, "skip writing artifact directories")
	quiet := fs.Bool("quiet", false, "print only the batch summary line")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *workers <= 0 {
		return errors.New("workers must be > 0")
	}
	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}

	req := api.BatchRequest{
		GenomeIDs:   splitIDs(*ids),
		Count:       *count,
		Seed:        *seed,
		Workers:     *workers,
		NoArtifacts: *noArtifacts,
	}
	if len(req.GenomeIDs) == 0 {
		if *count <= 0 {
			return errors.New("count must be > 0")
		}
		p, err := pf.resolve(fs)
		if err != nil {
			return err
		}
		req.Params = p
	}

	client, err := newClient(sf)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	size := len(req.GenomeIDs)
	if size == 0 {
		size = *count
	}
	logger.Info("batch started", "genomes", size, "workers", *workers)
	summary, err := client.Batch(ctx, req)
	if err != nil {
		return err
	}
	logger.Info("batch finished", "batch_id", summary.BatchID, "elapsed", summary.Elapsed)

	if !*quiet {
		for _, item := range summary.Results {
			printSummary(item)
		}
	}
	fmt.Printf("batch_id=%s encoding=%s genomes=%d networks=%d failures=%d elapsed_ms=%d\n",
		summary.BatchID,
		summary.Encoding,
		summary.Genomes,
		summary.Networks,
		summary.Failures,
		summary.Elapsed.Milliseconds(),
	)
	return nil
}

func runProbe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	sf := registerStoreFlags(fs)
	genomeID := fs.String("id", "", "stored genome id")
	genomeFile := fs.String("genome-file", "", "genome record JSON to import and probe")
	inputs := fs.String("inputs", "", "comma-separated input values")
	activation := fs.String("activation", "sigmoid", "activation: identity|sigmoid|tanh|step")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*genomeID == "") == (*genomeFile == "") {
		return errors.New("probe requires exactly one of --id or --genome-file")
	}
	values, err := parseFloats(*inputs)
	if err != nil {
		return err
	}

	client, err := newClient(sf)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *genomeFile != "" {
		record, err := readGenomeFile(*genomeFile)
		if err != nil {
			return err
		}
		if _, err := client.ImportGenome(ctx, record); err != nil {
			return err
		}
		*genomeID = record.ID
	}

	res, err := client.Probe(ctx, api.ProbeRequest{GenomeID: *genomeID, Inputs: values, Activation: *activation})
	if err != nil {
		return err
	}
	fmt.Printf("genome_id=%s feed_forward=%t outputs=%s neat_outputs=%s\n",
		res.GenomeID,
		res.FeedForward,
		formatFloats(res.Outputs),
		formatFloats(res.NEATOutputs),
	)
	return nil
}

func runReports(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	dir := fs.String("artifacts-dir", artifactsDir, "decode artifact directory")
	limit := fs.Int("limit", 20, "max reports to list")
	failures := fs.Bool("failures", false, "list only decodes that produced no network")
	jsonOut := fs.Bool("json", false, "emit reports list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := api.New(api.Options{StoreKind: "memory", ArtifactsDir: *dir})
	if err != nil {
		return err
	}
	items, err := client.Reports(ctx, api.ReportsRequest{Limit: *limit, FailuresOnly: *failures})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no reports found")
		return nil
	}

	if *jsonOut {
		type reportItem struct {
			GenomeID     string  `json:"genome_id"`
			BatchID      string  `json:"batch_id,omitempty"`
			Encoding     string  `json:"encoding"`
			OK           bool    `json:"ok"`
			Reason       string  `json:"reason,omitempty"`
			Connections  int     `json:"connections"`
			PConn        float64 `json:"p_conn"`
			CreatedAtUTC string  `json:"created_at_utc"`
		}
		out := make([]reportItem, 0, len(items))
		for _, item := range items {
			out = append(out, reportItem(item))
		}
		return printJSON(out)
	}

	for _, item := range items {
		reason := item.Reason
		if reason == "" {
			reason = "n/a"
		}
		batch := item.BatchID
		if batch == "" {
			batch = "n/a"
		}
		fmt.Printf("genome_id=%s created_at=%s encoding=%s batch_id=%s ok=%t connections=%d p_conn=%.6f reason=%s\n",
			item.GenomeID,
			item.CreatedAtUTC,
			item.Encoding,
			batch,
			item.OK,
			item.Connections,
			item.PConn,
			reason,
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	sf := registerStoreFlags(fs)
	genomeID := fs.String("id", "", "genome id")
	matrix := fs.Bool("matrix", false, "print the connection matrix picture instead of the report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *genomeID == "" {
		return errors.New("show requires --id")
	}

	if *matrix {
		data, err := os.ReadFile(filepath.Join(*sf.artifactsDir, *genomeID, artifacts.MatrixFile))
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("genome %s has no matrix picture", *genomeID)
			}
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	client, err := newClient(sf)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	report, err := client.Report(ctx, *genomeID)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	dir := fs.String("artifacts-dir", artifactsDir, "decode artifact directory")
	genomeID := fs.String("id", "", "genome id")
	latest := fs.Bool("latest", false, "export the most recent decode from the index")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *genomeID != "" && *latest {
		return errors.New("use either --id or --latest, not both")
	}
	if *genomeID == "" && !*latest {
		return errors.New("export requires --id or --latest")
	}

	client, err := api.New(api.Options{StoreKind: "memory", ArtifactsDir: *dir, ExportsDir: *outDir})
	if err != nil {
		return err
	}
	exported, err := client.Export(ctx, api.ExportRequest{GenomeID: *genomeID, Latest: *latest})
	if err != nil {
		return err
	}

	fmt.Printf("exported genome_id=%s to=%s\n", exported.GenomeID, exported.Directory)
	return nil
}

func printSummary(s api.DecodeSummary) {
	reason := s.Reason
	if reason == "" {
		reason = "n/a"
	}
	fmt.Printf("genome_id=%s encoding=%s ok=%t connections=%d p_conn=%.6f reason=%s\n",
		s.GenomeID,
		s.Encoding,
		s.OK,
		s.Connections,
		s.Diagnostics["pConn"],
		reason,
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readGenomeFile(path string) (model.GenomeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.GenomeRecord{}, err
	}
	record, err := storage.DecodeGenome(data)
	if err != nil {
		return model.GenomeRecord{}, fmt.Errorf("read genome %s: %w", path, err)
	}
	return record, nil
}

func writeGenomeFile(dir, id string, record model.GenomeRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	data, err := storage.EncodeGenome(record)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, id+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func parseFloats(s string) ([]float64, error) {
	parts := splitIDs(s)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input value %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func formatFloats(values []float64) string {
	if values == nil {
		return "n/a"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: morphogenctl <%s> [flags]", msg, strings.Join([]string{"init", "genome", "decode", "batch", "probe", "reports", "show", "export"}, "|"))
}
