package cmd

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
	"github.com/KaramelBytes/schemalock-cli/internal/metadata"
)

const carsCSV = `Part,Brand,Price,Price Tier,Mileage,Repair_To_Price,Is New
P-1,bmw,20000,high,12000,0.1,true
P-2,audi,15000,mid,54000,0.3,false
P-3,fiat,6000,low,130000,0.6,false
`

// resetFlags clears values and Changed state left over from earlier runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with an isolated config file and returns
// stdout and stderr.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	cfgPath := filepath.Join(os.Getenv("HOME"), "config.yaml")
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCLI_SanitizeShowCheck(t *testing.T) {
	home := setupHome(t)
	data := writeDataset(t, home, "cars.csv", carsCSV)
	meta := filepath.Join(home, "out", "meta.json")

	stdout, _, err := runCmd(t, "sanitize", data,
		"-c", "part,BRAND", "-n", "mileage", "-o", meta, "--low", "10.5", "--high", "99.9")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Saved feature metadata to "+meta)

	doc, err := metadata.Load(meta)
	require.NoError(t, err)
	assert.Equal(t, []string{"Part", "Brand"}, doc.FeatureSchema.Categorical)
	assert.Equal(t, []string{"Mileage", "Is New"}, doc.FeatureSchema.Numerical)
	assert.Contains(t, doc.Blocklist, "Repair_To_Price")
	assert.Contains(t, doc.Blocklist, "Price Tier")
	require.NotNil(t, doc.Thresholds)
	assert.Equal(t, 10.5, doc.Thresholds.Low)
	assert.Equal(t, 99.9, doc.Thresholds.High)

	stdout, _, err = runCmd(t, "schema", "show", meta)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Mileage")
	assert.Contains(t, stdout, "Categorical: 2, Numerical: 2")
	assert.Contains(t, stdout, "Thresholds: low=10.5 high=99.9")

	stdout, _, err = runCmd(t, "schema", "check", meta, data)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ All 4 features present in cars.csv")

	renamed := writeDataset(t, home, "renamed.csv", strings.Replace(carsCSV, "Mileage", "mileage", 1))
	stdout, _, err = runCmd(t, "schema", "check", meta, renamed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 feature column(s) missing")
	assert.Contains(t, stdout, "✗ missing")
}

func TestCLI_SanitizeDropPartAndTarget(t *testing.T) {
	home := setupHome(t)
	data := writeDataset(t, home, "cars.csv", carsCSV)

	stdout, _, err := runCmd(t, "sanitize", data, "-c", "part,brand", "--drop-part", "--target", "mileage", "--no-save", "--json")
	require.NoError(t, err)

	doc, err := metadata.Decode([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, []string{"Brand"}, doc.FeatureSchema.Categorical)
	assert.Equal(t, []string{"Price", "Is New"}, doc.FeatureSchema.Numerical, "price is an ordinary column once the target moves")
	assert.Nil(t, doc.Thresholds)

	_, err = os.Stat(filepath.Join(home, "feature_metadata.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCLI_SanitizeWarnsOnUnknownColumns(t *testing.T) {
	home := setupHome(t)
	data := writeDataset(t, home, "cars.csv", carsCSV)

	_, stderr, err := runCmd(t, "sanitize", data, "-c", "colour", "--no-save")
	require.NoError(t, err)
	assert.Contains(t, stderr, `⚠ Warning: column "colour" not found in cars.csv; skipped`)
}

func TestCLI_SanitizeThresholdValidation(t *testing.T) {
	home := setupHome(t)
	data := writeDataset(t, home, "cars.csv", carsCSV)

	_, _, err := runCmd(t, "sanitize", data, "--low", "1", "--no-save")
	assert.True(t, apperr.Is(err, apperr.ErrInvalidValue))

	_, _, err = runCmd(t, "sanitize", data, "--low", "abc", "--high", "2", "--no-save")
	assert.True(t, apperr.Is(err, apperr.ErrInvalidValue))
}

// writeWorkbook stores carsCSV as the single sheet "Cars" of an xlsx file.
func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	var cells strings.Builder
	for r, line := range strings.Split(strings.TrimSpace(carsCSV), "\n") {
		fmt.Fprintf(&cells, `<row r="%d">`, r+1)
		for c, v := range strings.Split(line, ",") {
			fmt.Fprintf(&cells, `<c r="%c%d" t="inlineStr"><is><t>%s</t></is></c>`, 'A'+c, r+1, v)
		}
		cells.WriteString(`</row>`)
	}
	path := filepath.Join(dir, "cars.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"xl/workbook.xml":            `<workbook xmlns:r="r"><sheets><sheet name="Cars" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/worksheets/sheet1.xml":   `<worksheet><sheetData>` + cells.String() + `</sheetData></worksheet>`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestCLI_SanitizeKeepsSchemaOnUnreadableSource(t *testing.T) {
	home := setupHome(t)
	book := writeWorkbook(t, home)
	meta := filepath.Join(home, "meta.json")

	_, _, err := runCmd(t, "sanitize", book, "--sheet-index", "1", "-c", "brand", "-o", meta)
	require.NoError(t, err)
	before, err := os.ReadFile(meta)
	require.NoError(t, err)
	doc, err := metadata.Decode(before)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brand"}, doc.FeatureSchema.Categorical)

	stdout, _, err := runCmd(t, "sanitize", book, "--sheet-index", "9", "-c", "brand", "-o", meta)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	assert.Contains(t, err.Error(), "sheet index 9 not found")
	assert.NotContains(t, stdout, "✓ Saved")

	empty := writeDataset(t, home, "empty.csv", "")
	_, _, err = runCmd(t, "sanitize", empty, "-c", "brand", "-o", meta)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrInvalidValue))

	after, err := os.ReadFile(meta)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestCLI_SanitizeSQLite(t *testing.T) {
	home := setupHome(t)
	dbPath := filepath.Join(home, "cars.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE cars (brand TEXT, price REAL, mileage INTEGER, "Repair_To_Price" REAL, sold BOOLEAN)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	stdout, _, err := runCmd(t, "sanitize", "sqlite:"+dbPath, "--table", "cars", "-c", "Brand", "--json", "--no-save")
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &raw))
	assert.Contains(t, raw, "blocklist")
	assert.Contains(t, raw, "feature_schema")

	doc, err := metadata.Decode([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, []string{"brand"}, doc.FeatureSchema.Categorical)
	assert.Equal(t, []string{"mileage", "sold"}, doc.FeatureSchema.Numerical)

	_, _, err = runCmd(t, "sanitize", "sqlite:"+dbPath, "--no-save")
	assert.True(t, apperr.Is(err, apperr.ErrInvalidValue))
}

func TestCLI_WatchRejectsRemoteSource(t *testing.T) {
	setupHome(t)
	_, _, err := runCmd(t, "watch", "postgres://u@localhost/db", "--table", "cars")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrUnsupported))
	assert.Contains(t, err.Error(), "local dataset files only")
}

func TestCLI_WatchResolvesSchemePath(t *testing.T) {
	home := setupHome(t)
	_, _, err := runCmd(t, "watch", "sqlite:"+filepath.Join(home, "missing.db"), "--table", "cars")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
	assert.NotContains(t, err.Error(), "sqlite:")
}

func TestCLI_SchemaShowMissing(t *testing.T) {
	home := setupHome(t)
	_, _, err := runCmd(t, "schema", "show", filepath.Join(home, "nope.json"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestCLI_Inspect(t *testing.T) {
	home := setupHome(t)
	data := writeDataset(t, home, "cars.csv", carsCSV)

	stdout, _, err := runCmd(t, "inspect", data)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Dataset: cars.csv")
	assert.Contains(t, stdout, "[SCHEMA]")
	assert.Contains(t, stdout, "- Mileage: numeric")

	out := filepath.Join(home, "reports", "cars.md")
	stdout, _, err = runCmd(t, "inspect", data, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Wrote summary to")
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[DATASET SUMMARY]")
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := setupHome(t)

	_, _, err := runCmd(t, "config", "set", "metadata_path", filepath.Join(home, "m.json"))
	require.NoError(t, err)
	_, _, err = runCmd(t, "config", "set", "blocklist", "Brand")
	require.NoError(t, err)

	stdout, _, err := runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "metadata_path: "+filepath.Join(home, "m.json"))
	assert.Contains(t, stdout, "blocklist: Brand")

	// Configured blocklist and metadata path apply to sanitize.
	data := writeDataset(t, home, "cars.csv", carsCSV)
	_, _, err = runCmd(t, "sanitize", data, "-c", "brand,part")
	require.NoError(t, err)
	doc, err := metadata.Load(filepath.Join(home, "m.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Part"}, doc.FeatureSchema.Categorical)
	assert.Contains(t, doc.Blocklist, "Brand")

	_, _, err = runCmd(t, "config", "set", "nope", "x")
	assert.Error(t, err)
}
