package service

import (
	"sort"
	"strings"

	"tg-warden/internal/storage"
)

// CommandRegistry is the explicit list of disableable command names,
// built once during composition and passed to whoever needs it.
type CommandRegistry struct {
	names map[string]bool
}

// NewCommandRegistry builds the registry from the given command names.
func NewCommandRegistry(names ...string) *CommandRegistry {
	r := &CommandRegistry{names: make(map[string]bool, len(names))}
	for _, name := range names {
		r.names[strings.ToLower(name)] = true
	}
	return r
}

// IsDisableable reports whether the command may be toggled per chat.
func (r *CommandRegistry) IsDisableable(command string) bool {
	return r.names[strings.ToLower(strings.TrimPrefix(command, "/"))]
}

// List returns all disableable command names, sorted.
func (r *CommandRegistry) List() []string {
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DisableService toggles commands on and off per chat.
type DisableService struct {
	settings *storage.SettingsRepository
	registry *CommandRegistry
}

// NewDisableService creates a new DisableService
func NewDisableService(settings *storage.SettingsRepository, registry *CommandRegistry) *DisableService {
	return &DisableService{settings: settings, registry: registry}
}

// Registry returns the disableable-command registry.
func (s *DisableService) Registry() *CommandRegistry {
	return s.registry
}

// Disable turns a command off in a chat. Returns false when the
// command is not disableable.
func (s *DisableService) Disable(chatID int64, command string) (bool, error) {
	command = strings.TrimPrefix(command, "/")
	if !s.registry.IsDisableable(command) {
		return false, nil
	}
	if err := s.settings.DisableCommand(chatID, command); err != nil {
		return false, err
	}
	return true, nil
}

// Enable turns a command back on. Returns false when it was not
// disabled.
func (s *DisableService) Enable(chatID int64, command string) (bool, error) {
	return s.settings.EnableCommand(chatID, strings.TrimPrefix(command, "/"))
}

// IsDisabled reports whether a command is currently disabled in a
// chat. Commands outside the registry are never disabled.
func (s *DisableService) IsDisabled(chatID int64, command string) (bool, error) {
	command = strings.TrimPrefix(command, "/")
	if !s.registry.IsDisableable(command) {
		return false, nil
	}
	return s.settings.IsCommandDisabled(chatID, command)
}

// Disabled lists the chat's currently disabled commands.
func (s *DisableService) Disabled(chatID int64) ([]string, error) {
	return s.settings.DisabledCommands(chatID)
}
