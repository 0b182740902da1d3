package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shenwei356/xopen"

	"github.com/Altius/stampipes/programs/true_barcodes/internal/consensus"
)

const (
	writerCacheSize = 128
	stdoutName      = "-"
	stagedPrefix    = ".tmp-"
)

// lineWriter writes lines in an async fashion.
// Call Close() when you're done!
type lineWriter struct {
	writer *xopen.Writer
	cache  []string
	lines  chan []string
	errors chan error
}

// newLineWriter opens filename ("-" is stdout, ".gz" is compressed).
// cachesize: How many lines to buffer at a time
func newLineWriter(filename string, cachesize int) (*lineWriter, error) {
	writer, err := xopen.Wopen(filename)
	if err != nil {
		return nil, err
	}

	w := lineWriter{
		writer: writer,
		cache:  make([]string, 0, cachesize),
		lines:  make(chan []string), // unbuffered: the cache is handed over, not copied
		errors: make(chan error, 1),
	}

	go func(w *lineWriter) {
		var werr error
		for lines := range w.lines {
			if werr != nil {
				continue
			}
			for _, line := range lines {
				if _, err := fmt.Fprintln(w.writer, line); err != nil {
					werr = err
					break
				}
			}
		}
		// xopen's Flush and Close drop the bufio error, so flush the
		// buffer directly. Stdout stays open for later writers.
		if err := w.writer.Writer.Flush(); err != nil && werr == nil {
			werr = err
		}
		if filename != stdoutName {
			w.writer.Close()
		}
		w.errors <- werr
		close(w.errors)
	}(&w)
	return &w, nil
}

func (w *lineWriter) Write(line string) {
	w.cache = append(w.cache, line)
	if cap(w.cache) == len(w.cache) {
		w.Flush()
	}
}

func (w *lineWriter) Flush() {
	if len(w.cache) == 0 {
		return
	}
	w.lines <- w.cache
	w.cache = make([]string, 0, cap(w.cache))
}

// Close flushes pending lines and returns the first write error.
func (w *lineWriter) Close() error {
	w.Flush()
	close(w.lines)
	return <-w.errors
}

// writeBarcodes writes one true barcode per line, in result order.
func writeBarcodes(filename string, results []consensus.Result) error {
	w, err := newLineWriter(filename, writerCacheSize)
	if err != nil {
		return err
	}
	for _, r := range results {
		w.Write(r.Barcode)
	}
	return w.Close()
}

// writeReport writes a TSV with the evidence behind every true barcode.
func writeReport(filename string, results []consensus.Result) error {
	w, err := newLineWriter(filename, writerCacheSize)
	if err != nil {
		return err
	}
	w.Write("barcode\tcount\ttotal\tvariants\tconfidence")
	for _, r := range results {
		w.Write(fmt.Sprintf("%s\t%d\t%d\t%d\t%s", r.Barcode, r.Count, r.Total, r.Variants, r.FormatConfidence()))
	}
	return w.Close()
}

// stagedFile is an output written under a temporary name next to its
// destination.
type stagedFile struct {
	final string
	temp  string
}

// outputSet holds the outputs of one run until every one of them has been
// written, so a failed run leaves no artifact behind.
type outputSet struct {
	files  []stagedFile
	stdout []func() error
}

// stage writes filename through write under a temporary name. Stdout
// writes are deferred to commit.
func (o *outputSet) stage(filename string, write func(path string) error) error {
	if filename == stdoutName {
		o.stdout = append(o.stdout, func() error { return write(stdoutName) })
		return nil
	}
	temp := filepath.Join(filepath.Dir(filename), stagedPrefix+filepath.Base(filename))
	if err := write(temp); err != nil {
		os.Remove(temp)
		return fmt.Errorf("write %s: %w", filename, err)
	}
	o.files = append(o.files, stagedFile{final: filename, temp: temp})
	return nil
}

// discard removes every staged file.
func (o *outputSet) discard() {
	for _, f := range o.files {
		os.Remove(f.temp)
	}
	o.files = nil
	o.stdout = nil
}

// commit writes the stdout outputs, then moves staged files into place.
// If a rename fails, files already moved are removed again.
func (o *outputSet) commit() error {
	for _, write := range o.stdout {
		if err := write(); err != nil {
			o.discard()
			return fmt.Errorf("write stdout: %w", err)
		}
	}
	for i, f := range o.files {
		if err := os.Rename(f.temp, f.final); err != nil {
			for _, moved := range o.files[:i] {
				os.Remove(moved.final)
			}
			o.discard()
			return fmt.Errorf("write %s: %w", f.final, err)
		}
	}
	o.files = nil
	o.stdout = nil
	return nil
}
