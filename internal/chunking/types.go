package chunking

import (
	"fmt"
	"strings"
)

// BlockKind is the structural category of a block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeader
	KindCode
	KindTable
	KindList
	KindQuote
)

var kindNames = map[BlockKind]string{
	KindParagraph: "paragraph",
	KindHeader:    "header",
	KindCode:      "code",
	KindTable:     "table",
	KindList:      "list",
	KindQuote:     "quote",
}

func (k BlockKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("BlockKind(%d)", int(k))
}

// MarshalText encodes the kind by name so chunks serialize readably.
func (k BlockKind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown block kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a kind name produced by MarshalText.
func (k *BlockKind) UnmarshalText(data []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(data)))
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown block kind %q", s)
}

// Block is a contiguous, classified span of normalized lines.
type Block struct {
	Kind    BlockKind
	Content string

	// LineStart and LineEnd are 0-based; LineEnd is exclusive.
	LineStart int
	LineEnd   int

	// HeaderLevel (1-6) and Title are set for headers only.
	HeaderLevel int
	Title       string
}

const (
	// RootPath is the header path of content that precedes every heading.
	RootPath = "Root"
	// PathSeparator joins heading titles in a header path.
	PathSeparator = " > "
	// TypeMixed marks a chunk whose blocks have more than one kind.
	TypeMixed = "mixed"

	NoteEmptyFile   = "empty file"
	NoteNoContent   = "no content after normalization"
	NoteForceSplit  = "force_split_large"
	noteErrorPrefix = "error: "
)

// Chunk is a size-bounded unit of document text plus its context metadata.
type Chunk struct {
	Text       string      `json:"text"`
	HeaderPath string      `json:"header_path"`
	Kinds      []BlockKind `json:"kinds"`
	Type       string      `json:"type"`
	Size       int         `json:"size"`
	SourceID   string      `json:"source_id,omitempty"`
	Embedding  []float32   `json:"embedding,omitempty"`
	Note       string      `json:"note,omitempty"`
}

// IsSentinel reports whether the chunk stands in for a document that had no content.
func (c Chunk) IsSentinel() bool {
	return c.Text == ""
}

// chunkType returns "mixed" when more than one kind contributed, else the single kind's name.
func chunkType(kinds []BlockKind) string {
	switch len(kinds) {
	case 0:
		return ""
	case 1:
		return kinds[0].String()
	default:
		return TypeMixed
	}
}

func sentinelChunk(sourceID, note string) Chunk {
	return Chunk{
		HeaderPath: RootPath,
		Kinds:      []BlockKind{},
		SourceID:   sourceID,
		Note:       note,
	}
}
