package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docrag/internal/chunking"
)

func TestNewChunkCmd(t *testing.T) {
	cmd := NewChunkCmd()

	if cmd.Use != "chunk <file>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "chunk <file>")
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	for _, name := range []string{"min-size", "max-size", "overlap"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("--%s flag not found", name)
		}
	}
}

func TestChunkCmd_JSON(t *testing.T) {
	configFile, docFile := writeTestFiles(t, baseConfig, testDoc)

	stdout, _, err := runCLI(t, "--config", configFile, "--format", "json", "chunk", docFile)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var out chunkOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if out.SourceID != docFile {
		t.Errorf("SourceID = %q, want %q", out.SourceID, docFile)
	}
	if out.Params.MaxSize != 200 {
		t.Errorf("Params.MaxSize = %d, want 200 from config", out.Params.MaxSize)
	}
	if len(out.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(out.Chunks))
	}
	wantPaths := []string{"Install", "Storage", "Ranking"}
	for i, c := range out.Chunks {
		if c.HeaderPath != wantPaths[i] {
			t.Errorf("chunk %d HeaderPath = %q, want %q", i, c.HeaderPath, wantPaths[i])
		}
		if c.Size != len([]rune(strings.TrimSpace(c.Text))) {
			t.Errorf("chunk %d Size = %d does not match its text", i, c.Size)
		}
		if c.Embedding != nil {
			t.Errorf("chunk %d should not carry an embedding", i)
		}
	}
	if out.Stats.Count != 3 || out.Stats.Sentinels != 0 {
		t.Errorf("Stats = %+v, want 3 chunks and no sentinels", out.Stats)
	}
}

func TestChunkCmd_SizeFlags(t *testing.T) {
	configFile, docFile := writeTestFiles(t, baseConfig, testDoc)

	stdout, _, err := runCLI(t, "--config", configFile, "--format", "json",
		"chunk", "--min-size", "500", "--max-size", "1000", "--overlap", "0", docFile)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var out chunkOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out.Params.MinSize != 500 || out.Params.MaxSize != 1000 {
		t.Errorf("Params = %+v, want flag values", out.Params)
	}
	// The whole document is smaller than the minimum, so it stays one chunk
	if len(out.Chunks) != 1 {
		t.Errorf("got %d chunks, want 1", len(out.Chunks))
	}
}

func TestChunkCmd_InvalidSizeFlags(t *testing.T) {
	configFile, docFile := writeTestFiles(t, baseConfig, testDoc)

	_, _, err := runCLI(t, "--config", configFile, "chunk", "--min-size", "300", "--max-size", "100", docFile)
	if err == nil {
		t.Fatal("expected error when min-size exceeds max-size")
	}
}

func TestChunkCmd_Text(t *testing.T) {
	configFile, docFile := writeTestFiles(t, baseConfig, testDoc)

	stdout, _, err := runCLI(t, "--config", configFile, "chunk", docFile)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{"HEADER PATH", "Storage", "3 chunk(s)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestChunkCmd_Sentinels(t *testing.T) {
	configFile, _ := writeTestFiles(t, baseConfig, testDoc)
	empty := filepath.Join(t.TempDir(), "empty.md")
	if err := os.WriteFile(empty, []byte("  \n\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	tests := []struct {
		name     string
		path     string
		wantNote string
	}{
		{name: "empty file", path: empty, wantNote: chunking.NoteEmptyFile},
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.md"), wantNote: "error: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, "--config", configFile, "chunk", tt.path)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !strings.Contains(stdout, "No chunks for") || !strings.Contains(stdout, tt.wantNote) {
				t.Errorf("output = %q, want sentinel note %q", stdout, tt.wantNote)
			}
		})
	}
}

func TestChunkCmd_SegmentDictionary(t *testing.T) {
	dict := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(dict, []byte("# word count\nhybrid 50\nretrieval 40\nengine 30\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	configFile, docFile := writeTestFiles(t, baseConfig+"segment_dict_path: "+dict+"\n",
		"# Notes\n\nThe hybridretrievalengine answers queries.\n")

	stdout, _, err := runCLI(t, "--config", configFile, "--format", "json", "chunk", docFile)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	var out chunkOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(out.Chunks) == 0 || !strings.Contains(out.Chunks[0].Text, "hybrid retrieval engine") {
		t.Errorf("long word not segmented: %+v", out.Chunks)
	}
}

func TestChunkCmd_MissingSegmentDictionary(t *testing.T) {
	configFile, docFile := writeTestFiles(t,
		baseConfig+"segment_dict_path: "+filepath.Join(t.TempDir(), "missing.txt")+"\n", testDoc)

	_, _, err := runCLI(t, "--config", configFile, "chunk", docFile)
	if err == nil || !strings.Contains(err.Error(), "segment dictionary") {
		t.Errorf("error = %v, want segment dictionary error", err)
	}
}
