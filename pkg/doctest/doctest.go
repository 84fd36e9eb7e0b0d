// Package doctest extracts runnable programs from Markdown documentation.
//
// An example is a fenced "brio" code block followed by a fenced "output"
// block holding the text the program must write. The nearest heading above
// the pair names the example.
package doctest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Example is one program/output pair pulled from a document.
type Example struct {
	Name   string // nearest heading above the source fence
	Source string // brio fence content, verbatim
	Output string // expected output, trailing newlines trimmed
	Line   int    // 1-based line of the source fence
}

// Extract returns a document's examples in order. Every brio fence must
// be followed by an output fence before the next brio fence starts.
func Extract(source []byte) ([]Example, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var examples []Example
	heading := ""
	var pending *Example

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading = headingText(n, source)

		case *ast.FencedCodeBlock:
			switch string(n.Language(source)) {
			case "brio":
				if pending != nil {
					return ast.WalkStop, fmt.Errorf("example %q (line %d) has no output fence", pending.Name, pending.Line)
				}
				pending = &Example{
					Name:   heading,
					Source: fenceContent(n, source),
					Line:   fenceLine(n, source),
				}
			case "output":
				if pending == nil {
					return ast.WalkStop, fmt.Errorf("output fence on line %d has no program before it", fenceLine(n, source))
				}
				pending.Output = strings.TrimRight(fenceContent(n, source), "\n")
				examples = append(examples, *pending)
				pending = nil
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, fmt.Errorf("example %q (line %d) has no output fence", pending.Name, pending.Line)
	}
	return examples, nil
}

// headingText collects the plain text inside a heading node.
func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// fenceContent joins the lines of a fenced code block.
func fenceContent(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

// fenceLine reports the 1-based source line a fence's content starts on.
func fenceLine(block *ast.FencedCodeBlock, source []byte) int {
	if block.Lines().Len() == 0 {
		return 1
	}
	start := block.Lines().At(0).Start
	line := 1
	for i := 0; i < start && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}
