package catalog

// InstallChecker reports whether the host currently has an entry installed.
// The install state is owned by the host, not by this module.
type InstallChecker interface {
	IsInstalled(id string) bool
}

// StaticInstallChecker is an InstallChecker backed by a fixed set of ids
type StaticInstallChecker map[string]struct{}

// NewStaticInstallChecker canonicalizes ids and returns a checker over them
func NewStaticInstallChecker(ids []string) StaticInstallChecker {
	set := make(StaticInstallChecker, len(ids))
	for _, id := range ids {
		set[Canonicalize(id)] = struct{}{}
	}
	return set
}

// IsInstalled implements InstallChecker
func (s StaticInstallChecker) IsInstalled(id string) bool {
	_, ok := s[Canonicalize(id)]
	return ok
}

// ActionLabel is the label the presentation layer shows on an entry's button
type ActionLabel string

const (
	// ActionInstall offers to install the entry
	ActionInstall ActionLabel = "install"

	// ActionUninstall offers to remove the entry
	ActionUninstall ActionLabel = "uninstall"
)

const (
	brokenInstallWarning  = "Installing broken extensions may crash your client or cause unexpected behavior."
	warningInstallWarning = "This extension may not work as expected."
)

// Action describes what pressing an entry's primary button would do
type Action struct {
	Label ActionLabel `json:"label"`

	// Confirm is set when the host should ask before proceeding
	Confirm bool `json:"confirm"`

	// Warning is the default confirmation text
	Warning string `json:"warning,omitempty"`

	// Detail is the publisher's own warning message, shown as extra content
	Detail string `json:"detail,omitempty"`
}

// ActionFor decides the install/uninstall policy for an entry. Installing an
// extension marked broken or warning requires confirmation; removals never do.
func ActionFor(entry Entry, installed bool) Action {
	if installed {
		return Action{Label: ActionUninstall}
	}

	action := Action{Label: ActionInstall}
	ext, ok := entry.(*Extension)
	if !ok {
		return action
	}

	switch ext.Status {
	case StatusBroken:
		action.Confirm = true
		action.Warning = brokenInstallWarning
	case StatusWarning:
		action.Confirm = true
		action.Warning = warningInstallWarning
	default:
		return action
	}
	action.Detail = ext.WarningMessage
	return action
}
