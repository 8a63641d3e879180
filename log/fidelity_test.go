//go:build unit
// +build unit

package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oqtopus-team/ddbench/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFidelityLogger(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFidelityLogger(core.FidelityLogSetting{Enabled: true, FileDir: dir})
	require.NoError(t, err)
	day := time.Date(2026, 1, 2, 23, 59, 0, 0, time.UTC)
	f.dl.now = func() time.Time { return day }

	f.Log(Record{RunID: "run", Variant: "dd_xx", SweepIndex: 3, SlotsUs: 4, Fidelity: 0.9})
	day = day.Add(2 * time.Minute)
	f.Log(Record{RunID: "run", Variant: "dd_xx", SweepIndex: 4, SlotsUs: 4, Fidelity: 0.8})
	f.Close()

	first, err := os.ReadFile(filepath.Join(dir, "fidelity-2026-01-02.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(first)), "\n")
	require.Len(t, lines, 1)
	rec := map[string]interface{}{}
	require.NoError(t, jsoniter.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "Fidelity", rec["msg"])
	assert.Equal(t, "dd_xx", rec["variant"])
	assert.Equal(t, float64(3), rec["sweep_index"])
	assert.Equal(t, 0.9, rec["fidelity"])

	_, err = os.Stat(filepath.Join(dir, "fidelity-2026-01-03.log"))
	assert.NoError(t, err)
}

func TestFidelityLoggerDisabled(t *testing.T) {
	f, err := NewFidelityLogger(core.FidelityLogSetting{})
	require.NoError(t, err)
	assert.Nil(t, f)
	f.Log(Record{})
	f.Close()
}

func TestFidelityLoggerUnwritableDir(t *testing.T) {
	_, err := NewFidelityLogger(core.FidelityLogSetting{Enabled: true, FileDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
