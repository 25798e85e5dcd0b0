package chunking

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// sizeSlack lets a chunk overshoot MaxSize slightly before a block forces a split.
	sizeSlack = 50
	// forceSplitFactor is the multiple of MaxSize above which a finished chunk is re-split.
	forceSplitFactor = 1.8

	DefaultMinSize = 300
	DefaultMaxSize = 1200
	DefaultOverlap = 100
)

// Params bounds chunk sizes. All sizes are in runes.
type Params struct {
	MinSize int `yaml:"min_size" json:"min_size"`
	MaxSize int `yaml:"max_size" json:"max_size"`
	Overlap int `yaml:"overlap" json:"overlap"`
}

// DefaultParams returns the standard chunking parameters.
func DefaultParams() Params {
	return Params{
		MinSize: DefaultMinSize,
		MaxSize: DefaultMaxSize,
		Overlap: DefaultOverlap,
	}
}

// Validate checks that the parameters describe a usable chunk size window.
func (p Params) Validate() error {
	if p.MaxSize <= 0 {
		return fmt.Errorf("max size must be positive, got %d", p.MaxSize)
	}
	if p.MinSize < 0 || p.MinSize > p.MaxSize {
		return fmt.Errorf("min size must be between 0 and max size (%d), got %d", p.MaxSize, p.MinSize)
	}
	if p.Overlap < 0 || p.Overlap >= p.MaxSize {
		return fmt.Errorf("overlap must be between 0 and max size (%d), got %d", p.MaxSize, p.Overlap)
	}
	return nil
}

// String is used as part of cache keys, so its format must stay stable.
func (p Params) String() string {
	return fmt.Sprintf("min=%d,max=%d,overlap=%d", p.MinSize, p.MaxSize, p.Overlap)
}

// Assembler groups blocks into chunks.
type Assembler struct {
	params Params
}

// NewAssembler creates an assembler for the given parameters.
func NewAssembler(params Params) (*Assembler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunk params: %w", err)
	}
	return &Assembler{params: params}, nil
}

// Params returns the parameters the assembler was built with.
func (a *Assembler) Params() Params {
	return a.params
}

type heading struct {
	level int
	title string
}

// assembly is the per-call state. An Assembler holds none, so it can be shared.
type assembly struct {
	params   Params
	sourceID string

	stack []heading

	current     strings.Builder
	currentSize int
	kinds       []BlockKind
	path        string
	// seeded chunks open with the previous chunk's tail, which must survive trimming.
	seeded bool

	chunks []Chunk
}

// Assemble groups blocks into chunks and re-splits any that grew far past MaxSize.
// With no blocks it returns a single sentinel chunk.
func (a *Assembler) Assemble(blocks []Block, sourceID string) []Chunk {
	if len(blocks) == 0 {
		return []Chunk{sentinelChunk(sourceID, NoteNoContent)}
	}

	st := &assembly{params: a.params, sourceID: sourceID}
	for _, b := range blocks {
		st.add(b)
	}
	st.flush()

	if len(st.chunks) == 0 {
		return []Chunk{sentinelChunk(sourceID, NoteNoContent)}
	}
	return forceSplit(st.chunks, a.params.MaxSize)
}

func (st *assembly) add(b Block) {
	if b.Kind == KindHeader {
		st.pushHeader(b.HeaderLevel, b.Title)
	}

	size := utf8.RuneCountInString(b.Content)
	if st.shouldSplit(b, size) {
		closed := st.text()
		st.flush()
		text, seeded := st.seed(closed, b.Content)
		st.open(text, b.Kind)
		st.seeded = seeded
		return
	}

	if st.currentSize == 0 {
		st.open(b.Content, b.Kind)
		return
	}
	st.appendBlock(b.Content, b.Kind)
}

func (st *assembly) shouldSplit(b Block, size int) bool {
	if st.currentSize == 0 {
		return false
	}
	minSize := st.params.MinSize
	switch {
	case b.Kind == KindHeader && st.currentSize >= minSize:
		return true
	case (b.Kind == KindCode || b.Kind == KindTable) && size > minSize && st.currentSize >= minSize:
		return true
	case st.currentSize+size > st.params.MaxSize+sizeSlack:
		return true
	}
	return false
}

// pushHeader drops every heading at the same or a deeper level, then pushes.
func (st *assembly) pushHeader(level int, title string) {
	for len(st.stack) > 0 && st.stack[len(st.stack)-1].level >= level {
		st.stack = st.stack[:len(st.stack)-1]
	}
	st.stack = append(st.stack, heading{level: level, title: title})
}

func (st *assembly) headerPath() string {
	if len(st.stack) == 0 {
		return RootPath
	}
	titles := make([]string, len(st.stack))
	for i, h := range st.stack {
		titles[i] = h.title
	}
	return strings.Join(titles, PathSeparator)
}

// seed returns the opening text of the chunk that follows closed, and whether it
// carries an overlap prefix.
func (st *assembly) seed(closed, content string) (string, bool) {
	overlap := st.params.Overlap
	if overlap <= 0 || utf8.RuneCountInString(closed) <= overlap {
		return content, false
	}
	return lastRunes(closed, overlap) + "\n\n" + content, true
}

// open starts a new chunk. Its header path is fixed here, after any header update
// made by the opening block.
func (st *assembly) open(text string, kind BlockKind) {
	st.current.Reset()
	st.current.WriteString(text)
	st.currentSize = utf8.RuneCountInString(text)
	st.kinds = []BlockKind{kind}
	st.path = st.headerPath()
	st.seeded = false
}

func (st *assembly) appendBlock(content string, kind BlockKind) {
	st.current.WriteString("\n\n")
	st.current.WriteString(content)
	st.currentSize += 2 + utf8.RuneCountInString(content)
	for _, k := range st.kinds {
		if k == kind {
			return
		}
	}
	st.kinds = append(st.kinds, kind)
}

// text is the current chunk as it will be emitted. A seeded chunk is only trimmed
// on the right so its leading overlap matches the previous chunk's tail exactly.
func (st *assembly) text() string {
	if st.seeded {
		return strings.TrimRightFunc(st.current.String(), unicode.IsSpace)
	}
	return strings.TrimSpace(st.current.String())
}

func (st *assembly) flush() {
	text := st.text()
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		st.chunks = append(st.chunks, Chunk{
			Text:       text,
			HeaderPath: st.path,
			Kinds:      st.kinds,
			Type:       chunkType(st.kinds),
			Size:       utf8.RuneCountInString(trimmed),
			SourceID:   st.sourceID,
		})
	}
	st.current.Reset()
	st.currentSize = 0
	st.kinds = nil
	st.seeded = false
}

func lastRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
