package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Department"},
		Rows: []map[string]string{
			{"Name": "Priya Raman", "Department": "CS"},
			{"Name": "Arun, K", "Department": "ECE"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Name,Department\nPriya Raman,CS\n\"Arun, K\",ECE\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestCSVExporterMissingCellsAreEmpty(t *testing.T) {
	data := Dataset{
		Headers: []string{"Name", "Department"},
		Rows:    []map[string]string{{"Name": "Priya Raman"}},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Name,Department\nPriya Raman,\n", string(out))
}
