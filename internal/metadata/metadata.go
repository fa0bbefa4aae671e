// Package metadata persists a sanitized feature schema so later runs can
// reload exactly the same feature lists.
package metadata

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
	"github.com/KaramelBytes/schemalock-cli/internal/utils"
)

// Document is the on-disk metadata file. Fields are declared in key order so
// the encoded JSON is stable.
type Document struct {
	Blocklist     []string      `json:"blocklist"`
	FeatureSchema FeatureSchema `json:"feature_schema"`
	Thresholds    *Thresholds   `json:"thresholds,omitempty"`
}

// FeatureSchema holds the resolved feature lists in request order.
type FeatureSchema struct {
	Categorical []string `json:"categorical"`
	Numerical   []string `json:"numerical"`
}

// Thresholds are optional cut points stored alongside the schema. The
// sanitizer does not interpret them.
type Thresholds struct {
	High float64 `json:"high"`
	Low  float64 `json:"low"`
}

// ParseThresholds converts textual bounds, as given on a command line, into
// Thresholds.
func ParseThresholds(low, high string) (*Thresholds, error) {
	l, err := parseBound("low", low)
	if err != nil {
		return nil, err
	}
	h, err := parseBound("high", high)
	if err != nil {
		return nil, err
	}
	return &Thresholds{Low: l, High: h}, nil
}

func parseBound(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, apperr.InvalidValue("threshold %s %q is not a number", name, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.InvalidValue("threshold %s %q is not finite", name, s)
	}
	return f, nil
}

func (t *Thresholds) validate() error {
	for _, b := range []struct {
		name string
		v    float64
	}{{"low", t.Low}, {"high", t.High}} {
		if math.IsNaN(b.v) || math.IsInf(b.v, 0) {
			return apperr.InvalidValue("threshold %s %v is not finite", b.name, b.v)
		}
	}
	return nil
}

// Build assembles a Document: lists keep their order, the blocklist is
// sorted and deduplicated.
func Build(schema FeatureSchema, blocklist []string, thresholds *Thresholds) (*Document, error) {
	doc := &Document{
		Blocklist: sortedUnique(blocklist),
		FeatureSchema: FeatureSchema{
			Categorical: copyList(schema.Categorical),
			Numerical:   copyList(schema.Numerical),
		},
	}
	if thresholds != nil {
		if err := thresholds.validate(); err != nil {
			return nil, err
		}
		t := *thresholds
		doc.Thresholds = &t
	}
	return doc, nil
}

// Save writes the schema document to path, creating parent directories.
// When enabled is false nothing is written and Save returns (nil, nil), so
// callers can switch persistence off without branching.
func Save(path string, schema FeatureSchema, blocklist []string, thresholds *Thresholds, enabled bool) (*Document, error) {
	if !enabled {
		return nil, nil
	}
	doc, err := Build(schema, blocklist, thresholds)
	if err != nil {
		return nil, err
	}
	data, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("create metadata dir: %w", err)
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	return doc, nil
}

// Encode returns the document as indented JSON. Equal documents encode to
// identical bytes.
func (d *Document) Encode() ([]byte, error) {
	return utils.PrettyJSON(d)
}

// Load reads the document at path. A missing file yields an error matching
// errors.ErrNotFound; absent list keys load as empty lists.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if apperr.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound(fmt.Sprintf("metadata file not found: %s", path), err)
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return Decode(b)
}

// Decode parses a metadata document and back-fills missing keys.
func Decode(b []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	if doc.Blocklist == nil {
		doc.Blocklist = []string{}
	}
	if doc.FeatureSchema.Categorical == nil {
		doc.FeatureSchema.Categorical = []string{}
	}
	if doc.FeatureSchema.Numerical == nil {
		doc.FeatureSchema.Numerical = []string{}
	}
	return &doc, nil
}

// Features returns every feature column, categorical first.
func (d *Document) Features() []string {
	out := make([]string, 0, len(d.FeatureSchema.Categorical)+len(d.FeatureSchema.Numerical))
	out = append(out, d.FeatureSchema.Categorical...)
	return append(out, d.FeatureSchema.Numerical...)
}

func copyList(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func sortedUnique(in []string) []string {
	set := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := set[s]; ok {
			continue
		}
		set[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
