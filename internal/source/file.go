package source

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rsilvagit/tutorfind/internal/model"
)

//go:embed sample.yaml
var sampleData []byte

// Sample serves the built-in demo listings.
type Sample struct{}

func NewSample() *Sample {
	return &Sample{}
}

func (s *Sample) Name() string {
	return "sample"
}

func (s *Sample) Fetch(_ context.Context) ([]model.Listing, error) {
	return decodeListings(sampleData)
}

// File reads listings from a YAML or JSON document on disk.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Name() string {
	return "file"
}

func (f *File) Fetch(ctx context.Context) ([]model.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("file: reading %s: %w", f.path, err)
	}
	listings, err := decodeListings(data)
	if err != nil {
		return nil, fmt.Errorf("file: %s: %w", f.path, err)
	}
	return listings, nil
}

// decodeListings accepts a YAML sequence; JSON arrays parse as YAML too.
func decodeListings(data []byte) ([]model.Listing, error) {
	var listings []model.Listing
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty or comment-only document is an empty catalog.
	if err := dec.Decode(&listings); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding listings: %w", err)
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return listings, nil
}
