package analysis

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/schemalock-cli/internal/features"
)

var csvRows = []string{
	"Group;Concentration (g/L);Temp (°F);Score;LocaleNumber;Category;Note",
	"A;0,5;70;10,0;1.000,0;alpha;first",
	"A;0,6;71;11,0;1.100,0;alpha;second",
	"A;0,55;69;9,5;0.900,0;beta;third",
	"B;0,7;75;10,5;1.050,0;alpha;fourth",
	"B;0,65;74;9,8;0.980,0;beta;fifth",
	"B;0,68;73;10,2;1.020,0;alpha;sixth",
	"A;0,52;68;8,8;0.880,0;gamma;seventh",
	"B;0,75;76;9,7;0.970,0;beta;eighth",
	"A;3,0;95;50,0;5.000,0;alpha;ninth",
	"B;0,66;72;10,1;1.010,0;gamma;tenth",
}

var (
	processedConcentration = []float64{0.5, 0.6, 0.55, 0.7, 0.65, 0.68, 0.52, 0.75, 3.0}
	processedScore         = []float64{10, 11, 9.5, 10.5, 9.8, 10.2, 8.8, 9.7, 50}
	processedLocale        = []float64{1000, 1100, 900, 1050, 980, 1020, 880, 970, 5000}
)

func localeOptions() Options {
	opt := DefaultOptions()
	opt.SampleRows = 3
	opt.MaxRows = 9
	opt.DecimalSeparator = ','
	opt.ThousandsSeparator = '.'
	return opt
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProfileCSVAndMarkdown(t *testing.T) {
	path := writeFile(t, "metrics.csv", strings.Join(csvRows, "\n"))
	opt := localeOptions()
	opt.Delimiter = ';'

	rep, err := ProfileCSV(path, opt)
	require.NoError(t, err)
	assertProfile(t, rep, "metrics.csv")

	md := rep.Markdown()
	assert.Contains(t, md, "[DATASET SUMMARY]")
	assert.Contains(t, md, "File: metrics.csv")
	assert.Contains(t, md, "Rows: ~10 (processed 9)")
	assert.Contains(t, md, "Columns: 7")
	assert.Contains(t, md, "- Concentration (g/L) [g/L]: numeric")
	assert.Contains(t, md, "- Category: categorical")
	assert.Contains(t, md, "top: alpha(5)")
	assert.Contains(t, md, "[HEAD AND SAMPLE ROWS]")
	assert.Contains(t, md, "| A | 0,5 | 70 | 10,0 | 1.000,0 | alpha | first |")
	assert.Contains(t, md, "[NOTES]")
	assert.Contains(t, md, "processed only 9/10 rows due to MaxRows")
}

func assertProfile(t *testing.T, rep *Profile, expectName string) {
	t.Helper()
	assert.Equal(t, expectName, rep.Name)
	assert.Equal(t, 10, rep.Rows)
	assert.Equal(t, 9, rep.Processed)
	assert.Equal(t, []string{"processed only 9/10 rows due to MaxRows"}, rep.Warnings)
	require.Len(t, rep.Samples, 3)
	assert.Equal(t, []string{"A", "0,5", "70", "10,0", "1.000,0", "alpha", "first"}, rep.Samples[0])

	assert.Equal(t, []string{"Group", "Concentration (g/L)", "Temp (°F)", "Score", "LocaleNumber", "Category", "Note"}, rep.Columns())

	conc := columnByName(t, rep, "Concentration (g/L)")
	assert.Equal(t, "g/L", conc.Unit)
	checkStats(t, conc, processedConcentration)

	temp := columnByName(t, rep, "Temp (°F)")
	assert.Equal(t, "°F", temp.Unit)
	assert.Equal(t, KindNumeric, temp.Kind)

	checkStats(t, columnByName(t, rep, "Score"), processedScore)
	checkStats(t, columnByName(t, rep, "LocaleNumber"), processedLocale)

	cat := columnByName(t, rep, "Category")
	assert.Equal(t, KindCategorical, cat.Kind)
	require.NotEmpty(t, cat.TopValues)
	assert.Equal(t, CategoryCount{Value: "alpha", Count: 5}, cat.TopValues[0])

	assert.Equal(t, features.KindNumeric, rep.Kind("Score"))
	assert.Equal(t, features.KindOther, rep.Kind("Group"))
	assert.Equal(t, features.KindOther, rep.Kind("missing"))
}

func columnByName(t *testing.T, rep *Profile, name string) ColumnProfile {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnProfile{}
}

func checkStats(t *testing.T, c ColumnProfile, values []float64) {
	t.Helper()
	require.Equal(t, KindNumeric, c.Kind, c.Name)
	minV, maxV := math.Inf(1), math.Inf(-1)
	sum := 0.0
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
		sum += v
	}
	mean := sum / float64(len(values))
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	std := math.Sqrt(ss / float64(len(values)-1))

	assert.InDelta(t, minV, c.Min, 1e-9, c.Name)
	assert.InDelta(t, maxV, c.Max, 1e-9, c.Name)
	assert.InDelta(t, mean, c.Mean, 1e-9, c.Name)
	assert.InDelta(t, std, c.Std, 1e-9, c.Name)
	assert.Equal(t, len(values), c.NonNull, c.Name)
}

func TestProfileKinds(t *testing.T) {
	data := strings.Join([]string{
		"id,flag,mixed,when,empty,rate",
		"1,true,10,2024-01-02,,5%",
		"2,FALSE,n/a,2024-01-03,,7%",
		"3,True,12,2024-01-04,,",
	}, "\n")
	rep, err := ProfileCSV(writeFile(t, "kinds.csv", data), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, KindNumeric, columnByName(t, rep, "id").Kind)
	assert.Equal(t, KindBoolean, columnByName(t, rep, "flag").Kind)
	assert.Equal(t, KindCategorical, columnByName(t, rep, "mixed").Kind, "one non-numeric value disqualifies the column")
	assert.Equal(t, KindDatetime, columnByName(t, rep, "when").Kind)
	assert.Equal(t, KindUnknown, columnByName(t, rep, "empty").Kind)

	rate := columnByName(t, rep, "rate")
	assert.Equal(t, KindNumeric, rate.Kind)
	assert.Equal(t, "%", rate.Unit)
	assert.Equal(t, 1, rate.Missing)

	assert.Equal(t, features.KindBoolean, rep.Kind("flag"))
	assert.Equal(t, features.KindOther, rep.Kind("when"))
	assert.Empty(t, rep.Warnings)
}

func TestProfileCSVStripsBOMAndReadsTSV(t *testing.T) {
	rep, err := ProfileCSV(writeFile(t, "bom.csv", "\uFEFFname,price\nx,1\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "price"}, rep.Columns())

	rep, err = ProfileCSV(writeFile(t, "tabs.tsv", "a b\tc\n1\t2\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"a b", "c"}, rep.Columns())
	assert.Equal(t, KindNumeric, columnByName(t, rep, "c").Kind)
}

func TestProfileCSVShortRowsAndEmptyFile(t *testing.T) {
	rep, err := ProfileCSV(writeFile(t, "short.csv", "a,b,c\n1\n2,3\n"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Rows)
	assert.Equal(t, 2, columnByName(t, rep, "c").Missing)
	assert.Equal(t, []string{"1", "", ""}, rep.Samples[0])

	rep, err = ProfileCSV(writeFile(t, "empty.csv", ""), DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, rep.Columns())
	assert.Equal(t, "empty.csv", rep.Name)
}

func TestProfileCSVMissingFile(t *testing.T) {
	_, err := ProfileCSV(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"1,234.5", Options{}, 1234.5, true},
		{"1.234,5", Options{}, 1234.5, true},
		{"0,5", Options{}, 0.5, true},
		{"12%", Options{}, 12, true},
		{"1 000", Options{}, 1000, true},
		{"1.000,0", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1000, true},
		{"NaN", Options{}, 0, false},
		{"Inf", Options{}, 0, false},
		{"abc", Options{}, 0, false},
		{"", Options{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumeric(tt.in, tt.opt)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, tt.in)
		}
	}
}

func TestSplitUnits(t *testing.T) {
	tests := []struct{ in, base, unit string }{
		{"Alpha (%)", "Alpha", "%"},
		{"Mass [mg/L]", "Mass", "mg/L"},
		{"distance_km", "distance", "km"},
		{"price", "price", ""},
	}
	for _, tt := range tests {
		base, unit := splitUnits(tt.in)
		assert.Equal(t, tt.base, base, tt.in)
		assert.Equal(t, tt.unit, unit, tt.in)
	}
}
