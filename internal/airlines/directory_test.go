package airlines

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/virtualatc/atc-engine/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func TestBuiltinLookup(t *testing.T) {
	d := NewDirectory(testLogger(t))

	a, ok := d.Lookup("EZY")
	require.True(t, ok)
	assert.Equal(t, "Easy", a.Radio)
	assert.Equal(t, "Easyjet", a.Name)

	a, ok = d.Lookup("baw")
	require.True(t, ok)
	assert.Equal(t, "Speedbird", a.Radio)

	_, ok = d.Lookup("ZZZ")
	assert.False(t, ok)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "airlines.csv")
	content := "# code,name,radio\nXYZ,testair virtual,testair\nEZY,easyjet uk,easy\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d := NewDirectory(testLogger(t))
	require.NoError(t, d.LoadFile(path))

	a, ok := d.Lookup("XYZ")
	require.True(t, ok)
	assert.Equal(t, "Testair Virtual", a.Name)
	assert.Equal(t, "Testair", a.Radio)

	// Override replaces the builtin entry.
	a, ok = d.Lookup("EZY")
	require.True(t, ok)
	assert.Equal(t, "Easyjet Uk", a.Name)
}

func TestTitleCasePreservesAcronyms(t *testing.T) {
	assert.Equal(t, "KLM", titleCase("KLM"))
	assert.Equal(t, "Air France", titleCase("air france"))
}
