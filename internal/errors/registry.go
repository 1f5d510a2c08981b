package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Render Errors (V001-V099)
	// ============================================

	"V001": {
		Category: CategoryRender,
		Message:  "Render failed",
		Detail:   "The render pass stopped at a host error. Mutations applied before the failure remain; the container keeps its previous tree.",
	},
	"V002": {
		Category:   CategoryRender,
		Message:    "Missing container",
		Detail:     "Render was called without a container handle.",
		Suggestion: "Create a container with Tree.NewRoot before rendering",
	},
	"V003": {
		Category: CategoryRender,
		Message:  "Invalid node type",
		Detail:   "A node must be created from a tag name or the text type marker.",
	},
	"V004": {
		Category: CategoryRender,
		Message:  "Invalid children",
		Detail:   "Children must be nodes, strings, numbers, or slices of those.",
	},
	"V005": {
		Category:   CategoryRender,
		Message:    "Invalid key",
		Detail:     "Keys are compared with ==, so they must be comparable values.",
		Suggestion: "Use a string or integer key",
	},
	"V006": {
		Category: CategoryRender,
		Message:  "Host rejected a mutation",
		Detail:   "The host refused an operation, usually because a handle is stale or a node is in the wrong place.",
	},

	// ============================================
	// Markup Errors (M001-M099)
	// ============================================

	"M001": {
		Category: CategoryMarkup,
		Message:  "Markup parse failed",
		Detail:   "The input could not be read or parsed as HTML.",
	},
	"M002": {
		Category:   CategoryMarkup,
		Message:    "Empty markup",
		Detail:     "The input contains no elements.",
		Suggestion: "Wrap the content in a single root element",
	},
	"M003": {
		Category:   CategoryMarkup,
		Message:    "Multiple root elements",
		Detail:     "A rendered view has exactly one root element.",
		Suggestion: "Wrap the elements in a <div> or another container element",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category:   CategoryConfig,
		Message:    "Configuration not found",
		Detail:     "No vtree.json, vtree.yaml or vtree.yml was found.",
		Suggestion: "Create vtree.yaml in the project root or pass --config",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be read or parsed.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid server address",
		Detail:   "server.address must be host:port with a port between 0 and 65535.",
	},
	"C004": {
		Category:   CategoryConfig,
		Message:    "Invalid log level",
		Suggestion: "Use one of: debug, info, warn, error",
	},
	"C005": {
		Category:   CategoryConfig,
		Message:    "Invalid log format",
		Suggestion: "Use one of: text, json",
	},
	"C006": {
		Category:   CategoryConfig,
		Message:    "Invalid snapshot backend",
		Suggestion: "Use one of: disk, s3",
	},
	"C007": {
		Category:   CategoryConfig,
		Message:    "Missing snapshot location",
		Detail:     "The disk backend needs snapshot.dir and the s3 backend needs snapshot.bucket.",
	},
	"C008": {
		Category: CategoryConfig,
		Message:  "Invalid limit",
		Detail:   "Limits and timeouts must not be negative.",
	},
	"C009": {
		Category:   CategoryConfig,
		Message:    "Unsupported configuration format",
		Suggestion: "Use a .json, .yaml or .yml file",
	},

	// ============================================
	// Snapshot and Server Errors (S001-S099)
	// ============================================

	"S001": {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
	},
	"S002": {
		Category:   CategorySnapshot,
		Message:    "Snapshot too large",
		Suggestion: "Raise snapshot.maxSize or enable minification",
	},
	"S003": {
		Category:   CategorySnapshot,
		Message:    "Invalid snapshot name",
		Detail:     "Names use letters, digits, '.', '_' and '-', and do not start with a dot.",
	},
	"S004": {
		Category: CategorySnapshot,
		Message:  "Snapshot store failed",
	},
	"S010": {
		Category: CategoryServer,
		Message:  "Server failed",
	},

	// ============================================
	// CLI Errors (X001-X099)
	// ============================================

	"X001": {
		Category: CategoryCLI,
		Message:  "Missing input",
		Detail:   "The command needs at least one markup file.",
	},
	"X002": {
		Category: CategoryCLI,
		Message:  "Cannot read input file",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
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
