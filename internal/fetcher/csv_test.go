package fetcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "brand,city\nAguila, Bogotá \nPoker,Medellín\n"

	rows, err := ReadCSV(strings.NewReader(in), CSVOptions{SkipRows: 1, TrimSpace: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Aguila", "Bogotá"}, rows[0])
	assert.Equal(t, []string{"Poker", "Medellín"}, rows[1])
}

func TestReadCSV_Semicolon(t *testing.T) {
	in := "Aguila;Bogota\nPoker;Cali\n"

	rows, err := ReadCSV(strings.NewReader(in), CSVOptions{Delimiter: ';'})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Poker", "Cali"}, rows[1])
}

func TestReadCSV_VariableFields(t *testing.T) {
	in := "a,b,c\nd,e\n"
	rows, err := ReadCSV(strings.NewReader(in), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 2)
}

func TestReadRows_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(path, []byte("header\nrow1\n"), 0o644))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "row1", rows[0][0])
}

func TestReadRows_UnsupportedExtension(t *testing.T) {
	_, err := ReadRows("placements.pdf")
	assert.Error(t, err)
}
