// Package delivery drives WhatsApp Web to send a greeting and the matched
// certificate to each selected recipient.
package delivery

// Locator is one candidate CSS selector for a UI element. WhatsApp Web's DOM
// shifts between releases, so every element is looked up through an ordered
// chain of locators evaluated first-success-wins.
type Locator struct {
	Name  string
	Query string
}

// ComposerLocator matches the message composer of an open chat.
var ComposerLocator = Locator{Name: "composer", Query: `div[contenteditable="true"][data-tab="10"]`}

// SearchLocator matches the chat-search box visible once a session is logged in.
var SearchLocator = Locator{Name: "chat search", Query: `div[contenteditable="true"][data-tab="3"]`}

// SendButtonLocator matches the text send control next to the composer.
var SendButtonLocator = Locator{Name: "send button", Query: `button[data-tab="11"]`}

// AttachLocators returns the candidate selectors for the attach control.
func AttachLocators() []Locator {
	return []Locator{
		{Name: "attach title es", Query: `div[title="Adjuntar"]`},
		{Name: "attach testid", Query: `button[data-testid="clip"]`},
		{Name: "attach clip icon", Query: `span[data-icon="clip"]`},
		{Name: "attach aria es", Query: `div[aria-label="Adjuntar"]`},
		{Name: "attach aria en", Query: `div[aria-label="Attach"]`},
	}
}

// FileInputLocators returns the candidate selectors for the hidden file input.
func FileInputLocators() []Locator {
	return []Locator{
		{Name: "file input accept any", Query: `input[accept="*"][type="file"]`},
		{Name: "file input", Query: `input[type="file"]`},
	}
}

// AttachmentSendLocators returns the candidate selectors for the send control
// of the attachment preview.
func AttachmentSendLocators() []Locator {
	return []Locator{
		{Name: "send icon", Query: `span[data-icon="send"]`},
		{Name: "send testid", Query: `button[data-testid="send"]`},
		{Name: "send aria es", Query: `div[aria-label="Enviar"]`},
		{Name: "send aria en", Query: `div[aria-label="Send"]`},
	}
}

func queries(locs []Locator) []string {
	qs := make([]string, len(locs))
	for i, l := range locs {
		qs[i] = l.Query
	}
	return qs
}
