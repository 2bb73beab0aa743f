package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Kauxtubh/pinecone/pkg/client"
)

// Run starts the live stats dashboard against the given gateway
func Run(c *client.Client) error {
	model := NewModel(ModelConfig{Client: c})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}

	// Ensure cleanup
	if m, ok := finalModel.(Model); ok && m.stream != nil {
		m.stream.Close()
	}

	return nil
}
