package files

import (
	"math"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const wordsPerMinute = 200

// ReadingTime estimates minutes to read a Markdown body, rounded to one
// decimal. Only rendered text counts: link targets, image URLs and HTML
// markup are ignored.
func ReadingTime(body []byte) float64 {
	words := CountWords(body)
	if words == 0 {
		return 0
	}
	return math.Round(float64(words)/wordsPerMinute*10) / 10
}

// CountWords counts whitespace separated words in the text of a Markdown body.
func CountWords(body []byte) int {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var sb strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Text:
			sb.Write(node.Segment.Value(body))
			sb.WriteByte(' ')
		case *gmast.String:
			sb.Write(node.Value)
			sb.WriteByte(' ')
		case *gmast.CodeBlock, *gmast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(body))
				sb.WriteByte(' ')
			}
		}
		return gmast.WalkContinue, nil
	})

	return len(strings.Fields(sb.String()))
}
