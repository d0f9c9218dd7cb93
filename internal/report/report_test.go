package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"certsender/internal/types"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func outcome(display, phone string, status types.OutcomeStatus, detail string) types.Outcome {
	return types.Outcome{
		Recipient: types.Recipient{Display: display, Phone: phone},
		Status:    status,
		Detail:    detail,
	}
}

func TestWrite_BothReports(t *testing.T) {
	dir := t.TempDir()

	sent := []types.Outcome{outcome("Ana Lopez", "51987654321", types.StatusSent, "")}
	notSent := []types.Outcome{
		outcome("Jose Perez", "51912345678", types.StatusNoFile, ""),
		outcome("Luis Diaz", "51911111111", types.StatusSendError, "chat open: timeout"),
	}

	written, err := Write(dir, sent, notSent)
	require.NoError(t, err)
	require.Len(t, written, 2)

	sentRows := readRows(t, filepath.Join(dir, SentFile))
	require.Len(t, sentRows, 2)
	assert.Equal(t, []string{"NAME", "PHONE", "STATUS"}, sentRows[0])
	assert.Equal(t, []string{"Ana Lopez", "51987654321", "SENT"}, sentRows[1])

	notSentRows := readRows(t, filepath.Join(dir, NotSentFile))
	require.Len(t, notSentRows, 3)
	assert.Equal(t, []string{"Jose Perez", "51912345678", "NO_FILE"}, notSentRows[1])
	assert.Equal(t, []string{"Luis Diaz", "51911111111", "SEND_ERROR: chat open: timeout"}, notSentRows[2])
}

func TestWrite_EmptySetWritesNoFile(t *testing.T) {
	dir := t.TempDir()

	written, err := Write(dir, nil, []types.Outcome{outcome("Jose", "51912345678", types.StatusNoFile, "")})
	require.NoError(t, err)
	require.Len(t, written, 1)

	_, err = os.Stat(filepath.Join(dir, SentFile))
	assert.True(t, os.IsNotExist(err), "empty sent set must not produce a report")
	_, err = os.Stat(filepath.Join(dir, NotSentFile))
	assert.NoError(t, err)
}

func TestWrite_NothingToWrite(t *testing.T) {
	written, err := Write(t.TempDir(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, written)
}
