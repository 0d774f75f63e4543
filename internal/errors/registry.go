package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reconciliation and registry (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryDOM,
		Message:  "DOM node not found",
		Detail:   "No live DOM node exists at the locator computed from the node's path. The branch is skipped and retried on the next render.",
		DocURL:   "https://trellis.dev/docs/errors/E001",
	},
	"E002": {
		Category: CategoryRegistry,
		Message:  "Component not registered",
		Detail:   "No component instance is registered at this path. Instances are created when a render first reaches their path.",
		DocURL:   "https://trellis.dev/docs/errors/E002",
	},
	"E003": {
		Category: CategoryContract,
		Message:  "Props type mismatch",
		Detail:   "A component reference carried props of a type the component does not accept.",
		DocURL:   "https://trellis.dev/docs/errors/E003",
	},
	"E004": {
		Category: CategoryContract,
		Message:  "Message type mismatch",
		Detail:   "A message delivered to a component is not of the component's declared message type.",
		DocURL:   "https://trellis.dev/docs/errors/E004",
	},
	"E005": {
		Category: CategoryRegistry,
		Message:  "Component poisoned",
		Detail:   "A previous View or Update call on this instance panicked while holding its lock.",
		DocURL:   "https://trellis.dev/docs/errors/E005",
	},
	"E006": {
		Category: CategoryRuntime,
		Message:  "Event queue full",
		Detail:   "The render loop is not draining messages fast enough; the message was dropped.",
		DocURL:   "https://trellis.dev/docs/errors/E006",
	},
	"E007": {
		Category: CategoryRuntime,
		Message:  "App closed",
		Detail:   "The render loop has stopped and no longer accepts messages.",
		DocURL:   "https://trellis.dev/docs/errors/E007",
	},
	"E008": {
		Category: CategoryDOM,
		Message:  "Invalid locator",
		Detail:   "Locators must be a root prefix followed by positional steps of the form /*[n].",
		DocURL:   "https://trellis.dev/docs/errors/E008",
	},

	// ============================================
	// Configuration (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		DocURL:   "https://trellis.dev/docs/errors/E020",
	},
	"E021": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		DocURL:   "https://trellis.dev/docs/errors/E021",
	},

	// ============================================
	// Protocol (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryProtocol,
		Message:  "Bridge protocol error",
		Detail:   "A frame received from the remote DOM could not be decoded.",
		DocURL:   "https://trellis.dev/docs/errors/E040",
	},
	"E041": {
		Category: CategoryProtocol,
		Message:  "Bridge connection closed",
		DocURL:   "https://trellis.dev/docs/errors/E041",
	},

	// ============================================
	// CLI (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryCLI,
		Message:  "Unknown example",
		DocURL:   "https://trellis.dev/docs/errors/E060",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
