package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"certsender/internal/delivery"
	"certsender/internal/types"
)

// fakeSession fails chat opens for the configured phone numbers.
type fakeSession struct {
	timeoutPhones map[string]bool
	opened        []string
	attached      []string
}

func (f *fakeSession) OpenChat(_ context.Context, phone string) error {
	f.opened = append(f.opened, phone)
	if f.timeoutPhones[phone] {
		return fmt.Errorf("composer not ready within 20s")
	}
	return nil
}

func (f *fakeSession) SendText(_ context.Context, _ string) error { return nil }

func (f *fakeSession) SendAttachment(_ context.Context, path string) error {
	f.attached = append(f.attached, path)
	return nil
}

func writeSheet(t *testing.T, dir string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}
	path := filepath.Join(dir, "participantes.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func writePDF(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
}

func testOptions(t *testing.T, session delivery.ChatSession) Options {
	t.Helper()
	sheetDir := t.TempDir()
	certDir := t.TempDir()

	sheetPath := writeSheet(t, sheetDir, [][]string{
		{"Nombres", "Apellidos", "Telefono"},
		{"Ana", "Lopez", "987654321"},
		{"Jose", "Perez", "912345678"},
		{"Luis", "Diaz", "911111111"},
	})
	writePDF(t, certDir, "Ana Lopez.pdf")
	writePDF(t, certDir, "Luis Diaz.pdf")

	return Options{
		SheetPath: sheetPath,
		CertDir:   certDir,
		Delay:     -1,
		Sessions: func(context.Context) (delivery.ChatSession, func(), error) {
			return session, func() {}, nil
		},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	// Ana succeeds, Jose has no certificate, Luis times out on chat open.
	session := &fakeSession{timeoutPhones: map[string]bool{"51911111111": true}}
	opts := testOptions(t, session)

	// Jose is not selected by default (no file); include him explicitly to
	// exercise the NO_FILE outcome in the same run.
	opts.Include = []string{"Ana Lopez", "Jose Perez", "Luis Diaz"}

	summary, err := Run(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, summary.Sent, 1)
	assert.Equal(t, "Ana Lopez", summary.Sent[0].Recipient.Display)

	require.Len(t, summary.NotSent, 2)
	statuses := map[string]types.OutcomeStatus{}
	for _, o := range summary.NotSent {
		statuses[o.Recipient.Display] = o.Status
	}
	assert.Equal(t, types.StatusNoFile, statuses["Jose Perez"])
	assert.Equal(t, types.StatusSendError, statuses["Luis Diaz"])

	assert.NotContains(t, session.opened, "51912345678", "NO_FILE recipient never opens a chat")

	require.Len(t, summary.Reports, 2)
	sentReport := filepath.Join(filepath.Dir(opts.SheetPath), "SENT.xlsx")
	notSentReport := filepath.Join(filepath.Dir(opts.SheetPath), "NOT_SENT.xlsx")
	assert.FileExists(t, sentReport)
	assert.FileExists(t, notSentReport)
}

func TestRun_ReconcileOnly(t *testing.T) {
	session := &fakeSession{}
	opts := testOptions(t, session)
	opts.ReconcileOnly = true

	summary, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, summary.Recipients, 3)
	assert.Empty(t, session.opened, "reconcile-only must not open a session")
	assert.Empty(t, summary.Reports)
}

func TestRun_NoSelection(t *testing.T) {
	session := &fakeSession{}
	opts := testOptions(t, session)
	opts.Exclude = []string{"Ana Lopez", "Luis Diaz"}

	_, err := Run(context.Background(), opts)
	assert.Error(t, err, "nothing selected is an operator error, not a silent no-op")
}

func TestRun_SessionLaunchFailureAborts(t *testing.T) {
	opts := testOptions(t, nil)
	opts.Sessions = func(context.Context) (delivery.ChatSession, func(), error) {
		return nil, nil, fmt.Errorf("chrome not found")
	}

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session launch failed")
}

func TestApplySelection(t *testing.T) {
	recipients := []types.Recipient{
		{Key: "ANA LOPEZ", Found: true, Selected: true},
		{Key: "JOSE PEREZ", Found: true, Selected: true},
	}

	applySelection(recipients, nil, []string{"josé pérez"})
	assert.True(t, recipients[0].Selected)
	assert.False(t, recipients[1].Selected, "exclude filter matches diacritic-insensitively")

	applySelection(recipients, []string{"nobody"}, nil)
	assert.False(t, recipients[0].Selected)
}

func TestSelected(t *testing.T) {
	recipients := []types.Recipient{
		{Display: "a", Selected: true},
		{Display: "b", Selected: false},
	}
	sel := Selected(recipients)
	require.Len(t, sel, 1)
	assert.Equal(t, "a", sel[0].Display)
}
