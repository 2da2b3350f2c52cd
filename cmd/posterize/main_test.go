package main

import (
	"io/ioutil"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/poster"
)

// parse runs the command line parser over `args` & returns the env main
// would hand to the chosen command.
func parse(t *testing.T, args ...string) *env {
	t.Helper()
	cli.Config = ""
	parser, err := kong.New(&cli, kong.Name("posterize"))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)

	set := map[string]bool{}
	for _, p := range ctx.Path {
		if p.Flag != nil {
			set[p.Flag.Name] = true
		}
	}
	return &env{set: set}
}

func TestParsePair(t *testing.T) {
	w, h, err := parsePair("1000X500.5", strconv.ParseFloat)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, w)
	assert.Equal(t, 500.5, h)

	_, _, err = parsePair("1000", strconv.ParseFloat)
	assert.Error(t, err)
	_, _, err = parsePair("x5", strconv.ParseFloat)
	assert.Error(t, err)
}

func TestSettingsDefaults(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(img, []byte("x"), 0644))

	e := parse(t, "split", img)
	s, err := cli.Split.Settings.settings(e)

	require.NoError(t, err)
	assert.Equal(t, poster.DefaultSettings(), s)
}

func TestSettingsFlags(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(img, []byte("x"), 0644))

	e := parse(t, "split", "--page=A3", "--landscape", "--target=1000x500", "--no-trim-marks", "--format=pdf", "--combine-pdf", img)
	s, err := cli.Split.Settings.settings(e)

	require.NoError(t, err)
	assert.Equal(t, "A3", s.Page)
	assert.Equal(t, poster.Landscape, s.Orientation)
	assert.Equal(t, poster.TargetDimensions{WidthMM: 1000, HeightMM: 500}, s.Sizing)
	assert.False(t, s.TrimMarks)
	assert.True(t, s.Border)
	assert.Equal(t, poster.PDF, s.Format)
	assert.True(t, s.CombinePDF)
}

func TestSettingsConfigWithOverrides(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(img, []byte("x"), 0644))
	conf := filepath.Join(dir, "poster.yaml")
	require.NoError(t, ioutil.WriteFile(conf, []byte("page: Letter\ngrid: {columns: 3, rows: 3}\nlabels: false\nmargin_mm: 4\n"), 0644))

	e := parse(t, "--config", conf, "plan", "--margin=6", img)
	s, err := cli.Plan.Settings.settings(e)

	require.NoError(t, err)
	// from the file
	assert.Equal(t, "Letter", s.Page)
	assert.Equal(t, poster.GridCount{Columns: 3, Rows: 3}, s.Sizing)
	assert.False(t, s.Labels)
	// from the command line
	assert.Equal(t, 6.0, s.MarginMM)
}

func TestSettingsRejectsGridAndTarget(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(img, []byte("x"), 0644))

	e := parse(t, "split", "--grid=2x2", "--target=10x10", img)
	_, err := cli.Split.Settings.settings(e)

	assert.Error(t, err)
}

func TestSettingsBadGrid(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(img, []byte("x"), 0644))

	for _, grid := range []string{"2", "ax2", "0x2"} {
		e := parse(t, "split", "--grid="+grid, img)
		_, err := cli.Split.Settings.settings(e)
		assert.Error(t, err, grid)
	}
}

func TestSettingsRejectsNonFiniteTarget(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "in.png")
	require.NoError(t, ioutil.WriteFile(img, []byte("x"), 0644))

	for _, target := range []string{"infx100", "100xNaN", "-infx5"} {
		e := parse(t, "split", "--target="+target, img)
		_, err := cli.Split.Settings.settings(e)
		assert.Error(t, err, target)
	}
}
