package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Scope Errors (R001-R003)
	// ============================================

	"R001": {
		Category:   CategoryScope,
		Message:    "Lifecycle hook called outside component setup",
		Suggestion: "Register OnMount, OnCleanup, Effect, Provide and OnError from the setup function, not from render or event handlers.",
	},
	"R002": {
		Category:   CategoryScope,
		Message:    "State created during render",
		Suggestion: "Create state once in the setup function and read it from the render function.",
	},
	"R003": {
		Category:   CategoryScope,
		Message:    "No parent context",
		Suggestion: "Provide the context from an ancestor component before injecting it.",
	},

	// ============================================
	// Render Errors (R004)
	// ============================================

	"R004": {
		Category:   CategoryRender,
		Message:    "Component render failed",
		Suggestion: "Register an error handler with OnError on an ancestor component to render a fallback.",
	},

	// ============================================
	// Lifecycle Errors (R005-R006)
	// ============================================

	"R005": {
		Category: CategoryLifecycle,
		Message:  "Cleanup failed",
	},
	"R006": {
		Category: CategoryScheduler,
		Message:  "Scheduled task failed",
	},

	// ============================================
	// Structure Errors (R007-R009)
	// ============================================

	"R007": {
		Category: CategoryStructure,
		Message:  "Node is not mounted",
	},
	"R008": {
		Category: CategoryStructure,
		Message:  "Incompatible patch",
	},
	"R009": {
		Category: CategoryStructure,
		Message:  "Root already unmounted",
	},

	// ============================================
	// Config Errors (R010)
	// ============================================

	"R010": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
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
