package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration errors (E100-E199)

	"E100": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration contains a value that cannot be used.",
	},
	"E101": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
		Detail:   "The configuration file exists but could not be read or parsed.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "An OPINIONS_* environment variable could not be parsed.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Unknown store backend",
		Detail:   "The store must be one of memory, sqlite or s3.",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Incomplete S3 settings",
		Detail:   "The s3 store needs a bucket, a key and a region.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn or error.",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The server address must be host:port.",
	},

	// Store errors (E200-E299)

	"E200": {
		Category: CategoryStore,
		Message:  "Store unavailable",
		Detail:   "The storage backend could not be opened.",
	},
	"E201": {
		Category: CategoryStore,
		Message:  "Opinion not found",
		Detail:   "No opinion has the given ID.",
	},
	"E202": {
		Category: CategoryStore,
		Message:  "Email already registered",
		Detail:   "An account with this email address already exists.",
	},

	// Remote errors (E300-E399)

	"E300": {
		Category: CategoryRemote,
		Message:  "Server unreachable",
		Detail:   "The opinions server did not answer.",
	},
	"E301": {
		Category: CategoryRemote,
		Message:  "Request rejected",
		Detail:   "The opinions server refused the request.",
	},

	// Validation errors (E400-E499)

	"E400": {
		Category: CategoryValidation,
		Message:  "Invalid input",
		Detail:   "Fix the problems below and try again.",
	},

	// CLI errors (E500-E599)

	"E500": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
	},
	"E501": {
		Category: CategoryCLI,
		Message:  "No server configured",
		Detail:   "This command talks to a running server.",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for a code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a code. Call it during initialization only.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
