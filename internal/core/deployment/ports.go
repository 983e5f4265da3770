package deployment

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Port Functions
// =============================================================================

// PortKey formats a container port the way the runtime keys its port maps.
// Default protocol is "tcp" if empty.
//
// Example:
//
//	PortKey(25565, "") // returns "25565/tcp"
func PortKey(port int, protocol string) string {
	if protocol == "" {
		protocol = "tcp"
	}
	return fmt.Sprintf("%d/%s", port, protocol)
}

// ParsePort parses a TCP/UDP port number in 1..65535.
func ParsePort(value string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("%d is outside 1-65535", p)
	}
	return p, nil
}
