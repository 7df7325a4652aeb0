package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/steveyegge/claude-sync/internal/api"
)

// PickOrganization prompts for one of orgs and returns its UUID. The caller
// gates on Interactive; this assumes a usable terminal. Ctrl+C surfaces as
// huh.ErrUserAborted.
func PickOrganization(orgs []api.Organization) (string, error) {
	options := make([]huh.Option[string], len(orgs))
	for i, org := range orgs {
		options[i] = huh.NewOption(fmt.Sprintf("%s (%s)", org.Name, org.UUID), org.UUID)
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select an organization").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}
