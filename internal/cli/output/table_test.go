package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Email", "Quota")

	assert.Equal(t, []string{"Email", "Quota"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("alice@example.com", "10Gi")
	table.AddRow("bob@example.com", "unlimited")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"alice@example.com", "10Gi"}, rows[0])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Email", "Admin")
	table.AddRow("alice@example.com", "yes")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "ADMIN")
	assert.Contains(t, out, "alice@example.com")
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{
		{"Used", "512Mi"},
		{"Quota", "10Gi"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Used")
	assert.Contains(t, out, "512Mi")
	assert.Contains(t, out, "Quota")
}
