package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rsilvagit/tutorfind/internal/model"
)

// ResultWriter defines how filtered listings are presented or delivered.
type ResultWriter interface {
	WriteListings(listings []model.Listing) error
}

// ConsolePrinter writes listings as an aligned table.
type ConsolePrinter struct {
	w io.Writer
}

func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	return &ConsolePrinter{w: w}
}

func (cp *ConsolePrinter) WriteListings(listings []model.Listing) error {
	if len(listings) == 0 {
		_, err := fmt.Fprintln(cp.w, "No listings found.")
		return err
	}

	w := tabwriter.NewWriter(cp.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOURSES\tLOCATION\tMETHOD\tRATING\tPRICE\tFLAGS")
	fmt.Fprintln(w, "----\t-------\t--------\t------\t------\t-----\t-----")
	for _, l := range listings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t$%.2f\t%s\n",
			l.Name, strings.Join(l.Courses, ", "), l.Location, l.LearningMethod, l.Rating, l.Price, flags(l))
	}
	return w.Flush()
}

func flags(l model.Listing) string {
	var f []string
	if l.IsTrainingCenter {
		f = append(f, "center")
	}
	if l.Favorite {
		f = append(f, "fav")
	}
	if l.InSearchHistory {
		f = append(f, "seen")
	}
	return strings.Join(f, ",")
}

// JSONWriter writes listings as an indented JSON array.
type JSONWriter struct {
	w io.Writer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

func (jw *JSONWriter) WriteListings(listings []model.Listing) error {
	if listings == nil {
		listings = []model.Listing{}
	}
	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(listings); err != nil {
		return fmt.Errorf("json: encoding listings: %w", err)
	}
	return nil
}
