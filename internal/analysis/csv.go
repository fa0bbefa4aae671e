package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ProfileCSV profiles a CSV/TSV file. The first record is the header.
func ProfileCSV(path string, opt Options) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return profileCSVReader(f, filepath.Base(path), delimiterFor(path, opt), opt)
}

func profileCSVReader(in io.Reader, name string, delim rune, opt Options) (*Profile, error) {
	r := csv.NewReader(in)
	r.ReuseRecord = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Profile{Name: name}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	// ReuseRecord recycles the backing array.
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	p := newProfiler(name, header, opt)
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", p.rep.Rows+1, err)
		}
		p.add(rec)
	}
	return p.finish(), nil
}

func delimiterFor(path string, opt Options) rune {
	if opt.Delimiter != 0 {
		return opt.Delimiter
	}
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
