package table

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed data/students.csv
var sampleTable string

// SampleTable returns the embedded demo table used when no literal text is
// configured.
func SampleTable() string {
	return sampleTable
}

type literalSource struct {
	text string
}

func newLiteralSource(text string) *literalSource {
	if strings.TrimSpace(text) == "" {
		text = sampleTable
	}
	return &literalSource{text: text}
}

func (s *literalSource) Name() string { return "literal" }

func (s *literalSource) Remote() bool { return false }

func (s *literalSource) Rows(_ context.Context) ([]Row, error) {
	return readCSV(strings.NewReader(s.text))
}

type pathSource struct {
	path string
}

func newPathSource(path string) *pathSource {
	return &pathSource{path: path}
}

func (s *pathSource) Name() string { return "path:" + s.path }

func (s *pathSource) Remote() bool { return false }

func (s *pathSource) Rows(_ context.Context) ([]Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	return readCSV(f)
}
