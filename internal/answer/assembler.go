// Package answer assembles retrieved evidence into a bounded context and
// orchestrates the question-answering pipeline.
package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arogyamitra/medrag/internal/vector"
)

// DefaultCitationTemplate renders one evidence block: label, source document,
// page, then the chunk text.
const DefaultCitationTemplate = "[%d] (document %s, page %d)\n%s\n\n"

// Included is one chunk packed into the context, with its citation label.
type Included struct {
	Label int
	Hit   vector.Result
}

// AssembledContext is the evidence block passed to the language model. Size is
// the rendered length in runes and never exceeds the assembler's budget.
type AssembledContext struct {
	Entries []Included
	Text    string
	Size    int
}

// Assembler packs ranked candidates into a character budget. Chunks go in
// whole or not at all; packing stops at the first chunk that does not fit, so
// the lowest-ranked evidence is dropped first.
type Assembler struct {
	budget   int
	template string
}

// NewAssembler creates an assembler with the given rune budget.
func NewAssembler(budget int) *Assembler {
	return &Assembler{
		budget:   budget,
		template: DefaultCitationTemplate,
	}
}

// NewAssemblerTemplate is NewAssembler with a custom citation template taking
// (label, document id, page, text).
func NewAssemblerTemplate(budget int, template string) *Assembler {
	a := NewAssembler(budget)
	if template != "" {
		a.template = template
	}
	return a
}

// Assemble greedily includes candidates in rank order until the budget would
// be exceeded. Citation labels run 1..n in inclusion order.
func (a *Assembler) Assemble(candidates []vector.Result) *AssembledContext {
	actx := &AssembledContext{}
	var b strings.Builder
	for _, cand := range candidates {
		rendered := fmt.Sprintf(a.template, len(actx.Entries)+1, cand.Chunk.DocumentID, cand.Chunk.Page, cand.Chunk.Text)
		size := utf8.RuneCountInString(rendered)
		if actx.Size+size > a.budget {
			break
		}
		b.WriteString(rendered)
		actx.Size += size
		actx.Entries = append(actx.Entries, Included{
			Label: len(actx.Entries) + 1,
			Hit:   cand,
		})
	}
	actx.Text = b.String()
	return actx
}
