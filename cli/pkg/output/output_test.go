package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-kpi/cli/pkg/color"
)

func init() {
	color.NoColor = true
}

func TestMessages(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "Created %d items", 5)
	Error(&buf, "Failed on port %d", 8080)
	Info(&buf, "Processing %s", "sources")
	Warn(&buf, "Disk usage is %d%%", 95)

	out := buf.String()
	assert.Contains(t, out, "✓ Created 5 items\n")
	assert.Contains(t, out, "✗ Failed on port 8080\n")
	assert.Contains(t, out, "Processing sources\n")
	assert.Contains(t, out, "⚠ Disk usage is 95%\n")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"authFailure": 121}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 121, got["authFailure"])
	assert.Contains(t, buf.String(), "\n  ")
}

func TestTable_Render(t *testing.T) {
	tbl := NewTable("ID", "NAME")
	tbl.AddRow("default", "Default")
	tbl.AddRow("win", "Windows hosts")

	var buf bytes.Buffer
	tbl.Render(&buf)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID       NAME           ", lines[0])
	assert.Equal(t, "-------  -------------  ", lines[1])
	assert.Equal(t, "default  Default        ", lines[2])
	assert.Equal(t, "win      Windows hosts  ", lines[3])
}

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   string
	}{
		{name: "empty", values: nil, want: ""},
		{name: "all zero", values: []int64{0, 0}, want: "▁▁"},
		{name: "scaled", values: []int64{52, 0, 31, 88}, want: "▄▁▃█"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sparkline(tt.values))
		})
	}
}
