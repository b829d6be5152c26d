package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat_AutoWhenPiped(t *testing.T) {
	// Test binaries write to a pipe, never a terminal
	got, err := ParseFormat("auto")
	require.NoError(t, err)
	assert.Contains(t, []Format{FormatTable, FormatJSON}, got)
}

func newBufferFormatter(format Format) (*Formatter, *bytes.Buffer) {
	var buf bytes.Buffer
	f := NewFormatter(format, false, false)
	f.Writer = &buf
	return f, &buf
}

func TestFormatter_PrintTable(t *testing.T) {
	data := TableData{
		Headers: []string{"ID", "NAME"},
		Rows:    [][]string{{"1", "ann"}, {"2", "bob"}},
	}

	t.Run("table", func(t *testing.T) {
		f, buf := newBufferFormatter(FormatTable)
		f.PrintTable(data)
		out := buf.String()
		assert.Contains(t, out, "NAME")
		assert.Contains(t, out, "ann")
		assert.Contains(t, out, "bob")
	})

	t.Run("json", func(t *testing.T) {
		f, buf := newBufferFormatter(FormatJSON)
		f.PrintTable(data)
		assert.JSONEq(t, `[{"ID":"1","NAME":"ann"},{"ID":"2","NAME":"bob"}]`, buf.String())
	})

	t.Run("yaml", func(t *testing.T) {
		f, buf := newBufferFormatter(FormatYAML)
		f.PrintTable(data)
		assert.Contains(t, buf.String(), "NAME: ann")
	})

	t.Run("no headers", func(t *testing.T) {
		f, buf := newBufferFormatter(FormatTable)
		f.NoHeaders = true
		f.PrintTable(data)
		assert.NotContains(t, buf.String(), "NAME")
	})
}

func TestFormatter_Quiet(t *testing.T) {
	f, buf := newBufferFormatter(FormatJSON)
	f.Quiet = true

	require.NoError(t, f.Print(map[string]int{"a": 1}))
	f.PrintSuccess("done")
	f.PrintKeyValue("k", "v")
	assert.Empty(t, buf.String())
}

func TestFormatter_PrintKeyValue(t *testing.T) {
	f, buf := newBufferFormatter(FormatTable)
	f.PrintKeyValue("server", "http://localhost:8080")
	assert.Equal(t, "server: http://localhost:8080\n", buf.String())
}
