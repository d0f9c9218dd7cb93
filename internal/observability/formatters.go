// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"certsender/internal/sheet"
	"certsender/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintMapping outputs which column was assigned to each logical role.
func (p *Printer) PrintMapping(mapping sheet.Mapping, header []string) {
	var sb strings.Builder

	describe := func(role sheet.Role) string {
		col := mapping.Column(role)
		if col == sheet.Unresolved {
			return "NOT DETECTED"
		}
		label := fmt.Sprintf("column %d", col+1)
		if col < len(header) && strings.TrimSpace(header[col]) != "" {
			label += fmt.Sprintf(" (%s)", strings.TrimSpace(header[col]))
		}
		return label
	}

	sb.WriteString(fmt.Sprintf("Name:      %s\n", describe(sheet.RoleName)))
	sb.WriteString(fmt.Sprintf("Last name: %s\n", describe(sheet.RoleLastName)))
	sb.WriteString(fmt.Sprintf("Phone:     %s", describe(sheet.RolePhone)))

	p.printBox("DETECTED COLUMN MAPPING", sb.String())
}

// PrintRecipients outputs the reconciled recipient list with match status.
func (p *Printer) PrintRecipients(recipients []types.Recipient) {
	if len(recipients) == 0 {
		return
	}

	var sb strings.Builder
	found := 0
	for _, r := range recipients {
		if r.Found {
			found++
		}
	}
	sb.WriteString(fmt.Sprintf("Certificates matched: %d / %d\n\n", found, len(recipients)))

	count := min(len(recipients), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := recipients[i]
		mark := "✗"
		if r.Found {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %s", mark, r.Display))
		if r.Phone != "" {
			sb.WriteString(fmt.Sprintf("  %s", r.Phone))
		}
		sb.WriteString("\n")
	}
	if len(recipients) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more", len(recipients)-maxItemsToShow))
	}

	p.printBox("RECIPIENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintOutcomes outputs the final delivery counts with the failed recipients.
func (p *Printer) PrintOutcomes(sent, notSent []types.Outcome) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sent:     %d\n", len(sent)))
	sb.WriteString(fmt.Sprintf("Not sent: %d\n", len(notSent)))

	if len(notSent) > 0 {
		sb.WriteString("\n")
		count := min(len(notSent), maxItemsToShow)
		for i := 0; i < count; i++ {
			o := notSent[i]
			sb.WriteString(fmt.Sprintf("✗ %s  %s\n", o.Recipient.Display, o.StatusTag()))
		}
		if len(notSent) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("... and %d more\n", len(notSent)-maxItemsToShow))
		}
	}

	p.printBox("DELIVERY RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}
