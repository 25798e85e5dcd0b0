package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docrag/internal/contextutil"
	"docrag/internal/rag"
)

var (
	searchTopK  int
	searchAlpha float64
	searchDebug bool
)

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <file> <query>",
		Short: "Search a document with hybrid retrieval",
		Long: `Index a document and rank its chunks against a query.

Each chunk is scored as alpha * (-squared L2 distance) + (1 - alpha) * BM25,
so alpha 1 ranks by vector distance only and alpha 0 by BM25 only. Words after
the file are joined into the query.

When DB_PATH is set, chunks and embeddings are cached so an unchanged document
is not embedded again. When QDRANT_URL is set, chunk vectors are mirrored to Qdrant.

Examples:
  docrag search notes.md "how are results ranked"
  docrag search --top-k 3 --alpha 0.2 notes.md bm25 scoring
  docrag search --debug --format json notes.md "vector distance"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchTopK, "top-k", 0, "Maximum results to return (default SEARCH_TOP_K from config)")
	cmd.Flags().Float64Var(&searchAlpha, "alpha", 0, "Vector weight between 0 and 1 (default SEARCH_ALPHA from config)")
	cmd.Flags().BoolVar(&searchDebug, "debug", false, "Include per-signal scores")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("top-k") {
		if err := validatePositiveInt(searchTopK, "top-k"); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	logger := contextutil.LoggerFromContext(ctx)
	path := args[0]
	query := strings.Join(args[1:], " ")

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("Failed to close resources", "error", err)
		}
	}()

	res, err := a.pipeline.IndexFile(ctx, path)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", path, err)
	}
	logger.Info("Document indexed",
		"source", res.SourceID,
		"chunks", res.Index.Len(),
		"cache_hit", res.CacheHit,
		"published", res.Published,
	)

	engine, err := rag.NewEngine(res.Index, rag.EngineOptions{
		DefaultTopK:  cfg.Search.TopK,
		DefaultAlpha: cfg.Search.Alpha,
	})
	if err != nil {
		return fmt.Errorf("creating search engine: %w", err)
	}

	req := rag.SearchRequest{
		Query: query,
		TopK:  searchTopK,
		Debug: searchDebug,
	}
	if cmd.Flags().Changed("alpha") {
		alpha := searchAlpha
		req.Alpha = &alpha
	}

	resp, err := engine.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), resp)
	}

	out := cmd.OutOrStdout()
	if len(resp.Results) == 0 {
		fmt.Fprintf(out, "No results for query: %s\n", query)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\tSCORE\tTYPE\tHEADER PATH\tPREVIEW\n")
	fmt.Fprintf(w, "----\t-----\t----\t-----------\t-------\n")
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n",
			i+1,
			r.Score,
			r.Type,
			truncate(r.HeaderPath, 40),
			preview(r.Text, 60))
	}
	w.Flush()

	if resp.Debug != nil {
		d := resp.Debug
		fmt.Fprintf(out, "\nalpha %.2f, top_k %d, %d chunk(s) searched\n", d.Alpha, d.TopK, d.IndexSize)
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "RANK\tCHUNK\tDISTANCE\tBM25\tFINAL\n")
		for _, rc := range d.RetrievedChunks {
			fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.4f\n", rc.Rank, rc.ChunkIndex, rc.Distance, rc.ScoreLexical, rc.ScoreFinal)
		}
		w.Flush()
	}
	return nil
}
