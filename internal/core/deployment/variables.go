package deployment

import (
	"fmt"

	"github.com/artpar/launchpad/internal/core/domain"
)

// =============================================================================
// Variable Substitution Functions
// =============================================================================

// Substitutions holds the resolved value of each substitution key for one launch.
type Substitutions map[domain.SubstitutionKey]string

// Lookup resolves a template value.
//
// Behavior:
//   - "${KEY}" - replaced with s[KEY]; a missing or unknown key is an
//     UnresolvedPlaceholder error for field
//   - anything else - returned unchanged, including text that merely contains "${"
//
// Examples:
//
//	Substitutions{domain.KeyRAM: "4G"}.Lookup("MEMORY", "${RAM}")
//	// Returns: "4G", nil
//
//	Substitutions{}.Lookup("EULA", "TRUE")
//	// Returns: "TRUE", nil
func (s Substitutions) Lookup(field, value string) (string, error) {
	key, ok := domain.ParsePlaceholder(value)
	if !ok {
		return value, nil
	}
	v, found := s[key]
	if !found || !key.IsValid() {
		return "", NewConfigError(UnresolvedPlaceholder, field, fmt.Sprintf("no value for %s", value))
	}
	return v, nil
}
