package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit       key.Binding
	Back       key.Binding
	Help       key.Binding
	Home       key.Binding
	Lookup     key.Binding
	Dashboard  key.Binding
	Vehicles   key.Binding
	Approvals  key.Binding
	NewVehicle key.Binding
	Inspection key.Binding
	Workshops  key.Binding
	Login      key.Binding
	SignOut    key.Binding
}

var Keys = KeyMap{
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Home:       key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "home")),
	Lookup:     key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "lookup")),
	Dashboard:  key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "dashboard")),
	Vehicles:   key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "vehicles")),
	Approvals:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "approvals")),
	NewVehicle: key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "new vehicle")),
	Inspection: key.NewBinding(key.WithKeys("I"), key.WithHelp("I", "inspection")),
	Workshops:  key.NewBinding(key.WithKeys("W"), key.WithHelp("W", "workshops")),
	Login:      key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "sign in")),
	SignOut:    key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "sign out")),
}

// globalHelp is the key list shown in the help line.
func globalHelp(authenticated bool) []key.Binding {
	b := []key.Binding{Keys.Home, Keys.Lookup, Keys.Dashboard, Keys.Vehicles, Keys.Approvals,
		Keys.NewVehicle, Keys.Inspection, Keys.Workshops}
	if authenticated {
		b = append(b, Keys.SignOut)
	} else {
		b = append(b, Keys.Login)
	}
	return append(b, Keys.Back, Keys.Quit)
}
