package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatPageSnapshot = `<html><body>
  <div contenteditable="true" data-tab="10"></div>
  <span data-icon="clip"></span>
  <input type="file" accept="*">
  <div aria-label="Enviar"></div>
</body></html>`

func TestSnapshotMatch_ChainOrder(t *testing.T) {
	// "attach title es" is first in the chain but absent; the clip icon is
	// the first present candidate.
	loc, ok := SnapshotMatch(chatPageSnapshot, AttachLocators())
	require.True(t, ok)
	assert.Equal(t, "attach clip icon", loc.Name)
}

func TestSnapshotMatch_NoCandidate(t *testing.T) {
	_, ok := SnapshotMatch(`<html><body><p>loading...</p></body></html>`, AttachLocators())
	assert.False(t, ok)
}

func TestSnapshotMatch_SendChain(t *testing.T) {
	loc, ok := SnapshotMatch(chatPageSnapshot, AttachmentSendLocators())
	require.True(t, ok)
	assert.Equal(t, "send aria es", loc.Name)
}

func TestSnapshotFilter(t *testing.T) {
	present := SnapshotFilter(chatPageSnapshot, FileInputLocators())
	require.Len(t, present, 2, "both file-input variants match the accept-any input")
	assert.Equal(t, "file input accept any", present[0].Name, "chain order preserved")
}

func TestSnapshotFilter_Composer(t *testing.T) {
	present := SnapshotFilter(chatPageSnapshot, []Locator{ComposerLocator, SearchLocator})
	require.Len(t, present, 1)
	assert.Equal(t, ComposerLocator.Name, present[0].Name)
}
