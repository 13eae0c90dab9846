package tools

import (
	"github.com/FreePeak/mcp-host-bridge/internal/domain"
)

// requireString returns args[name] or an InvalidArguments error when it is
// absent or not a string.
func requireString(args map[string]interface{}, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", domain.NewInvalidArgumentsError("missing required argument: %s", name)
	}
	value, ok := raw.(string)
	if !ok {
		return "", domain.NewInvalidArgumentsError("argument %q must be a string", name)
	}
	return value, nil
}

// optionalString returns args[name], or fallback when the key is absent.
func optionalString(args map[string]interface{}, name, fallback string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", domain.NewInvalidArgumentsError("argument %q must be a string", name)
	}
	return value, nil
}
