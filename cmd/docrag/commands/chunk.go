package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docrag/internal/chunking"
	"docrag/internal/indexer"
)

var (
	chunkMinSize int
	chunkMaxSize int
	chunkOverlap int
)

// chunkOutput is the JSON shape of the chunk command.
type chunkOutput struct {
	SourceID string             `json:"source_id"`
	Params   chunking.Params    `json:"params"`
	Chunks   []chunking.Chunk   `json:"chunks"`
	Stats    indexer.ChunkStats `json:"stats"`
}

// NewChunkCmd creates the chunk command
func NewChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <file>",
		Short: "Split a document into chunks",
		Long: `Split a markdown-like document into size-bounded chunks that keep their
header path, and print the chunks with size statistics.

Size flags override the configured chunking parameters.

Examples:
  docrag chunk notes.md
  docrag chunk --max-size 800 --overlap 50 notes.md
  docrag chunk --format json notes.md`,
		Args: cobra.ExactArgs(1),
		RunE: runChunk,
	}

	cmd.Flags().IntVar(&chunkMinSize, "min-size", chunking.DefaultMinSize, "Minimum chunk size in runes")
	cmd.Flags().IntVar(&chunkMaxSize, "max-size", chunking.DefaultMaxSize, "Maximum chunk size in runes")
	cmd.Flags().IntVar(&chunkOverlap, "overlap", chunking.DefaultOverlap, "Overlap carried between chunks in runes")

	return cmd
}

func runChunk(cmd *cobra.Command, args []string) error {
	params := cfg.Chunking
	if cmd.Flags().Changed("min-size") {
		params.MinSize = chunkMinSize
	}
	if cmd.Flags().Changed("max-size") {
		params.MaxSize = chunkMaxSize
	}
	if cmd.Flags().Changed("overlap") {
		params.Overlap = chunkOverlap
	}

	chunker, err := newChunker(params, cfg.SegmentDictPath)
	if err != nil {
		return err
	}

	path := args[0]
	chunks := chunker.ChunkFile(cmd.Context(), path)
	stats := indexer.ComputeChunkStats(chunks)

	if outputFormat == "json" {
		return writeJSON(cmd.OutOrStdout(), chunkOutput{
			SourceID: path,
			Params:   params,
			Chunks:   chunks,
			Stats:    stats,
		})
	}

	out := cmd.OutOrStdout()
	if stats.Count == 0 {
		note := ""
		if len(chunks) > 0 {
			note = chunks[0].Note
		}
		fmt.Fprintf(out, "No chunks for %s: %s\n", path, note)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "#\tTYPE\tSIZE\tHEADER PATH\tPREVIEW\n")
	fmt.Fprintf(w, "-\t----\t----\t-----------\t-------\n")
	for i, c := range chunks {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n",
			i,
			c.Type,
			c.Size,
			truncate(c.HeaderPath, 40),
			preview(c.Text, 60))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d chunk(s), size min %d, mean %.2f, p95 %d, max %d",
		stats.Count, stats.Size.Min, stats.Size.Mean, stats.Size.P95, stats.Size.Max)
	if stats.ForcedSplits > 0 {
		fmt.Fprintf(out, ", %d from forced splits", stats.ForcedSplits)
	}
	fmt.Fprintln(out)
	return nil
}
