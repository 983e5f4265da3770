// Package portforward opens external TCP ports on a UPnP internet gateway.
//
// Forwarding is best-effort: residential gateways are often missing or
// unreliable, so every failure degrades to an informational outcome and the
// caller carries on.
package portforward

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultDiscoveryTimeout bounds gateway discovery and the mapping request
	// when none is configured.
	DefaultDiscoveryTimeout = 10 * time.Second
	// MaxDiscoveryTimeout is the ceiling applied to any configured timeout.
	MaxDiscoveryTimeout = 60 * time.Second
)

// Gateway is a device that accepts port mapping requests.
type Gateway interface {
	// AddPortMapping requests a permanent TCP mapping.
	AddPortMapping(ctx context.Context, externalPort, internalPort uint16, description string) error
	// Name identifies the gateway in outcome messages.
	Name() string
}

// Discoverer finds gateways on the local network.
type Discoverer interface {
	Discover(ctx context.Context) ([]Gateway, error)
}

// Agent forwards ports through the first discovered gateway.
type Agent struct {
	discoverer Discoverer
	timeout    time.Duration
	logger     *slog.Logger
}

// NewAgent creates an agent. A zero timeout uses DefaultDiscoveryTimeout and
// larger values are capped at MaxDiscoveryTimeout.
func NewAgent(discoverer Discoverer, timeout time.Duration, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultDiscoveryTimeout
	}
	if timeout > MaxDiscoveryTimeout {
		timeout = MaxDiscoveryTimeout
	}
	return &Agent{
		discoverer: discoverer,
		timeout:    timeout,
		logger:     logger.With("component", "portforward"),
	}
}

// Forward maps hostPort on the gateway to internalPort. It never returns an
// error; ok reports whether the gateway acknowledged the mapping.
func (a *Agent) Forward(ctx context.Context, hostPort, internalPort int, description string) (ok bool, message string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("port forwarding panicked", "host_port", hostPort, "panic", r)
			ok, message = false, fmt.Sprintf("port forwarding failed: %v", r)
		}
	}()

	if !validPort(hostPort) || !validPort(internalPort) {
		return false, fmt.Sprintf("invalid port mapping %d -> %d", hostPort, internalPort)
	}

	a.logger.Info("forwarding port", "host_port", hostPort, "internal_port", internalPort)

	dctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	gateways, err := a.discoverer.Discover(dctx)
	if len(gateways) == 0 {
		if err != nil {
			a.logger.Warn("gateway discovery failed", "error", err)
			return false, fmt.Sprintf("gateway discovery failed: %v", err)
		}
		a.logger.Info("no compatible gateway found")
		return false, "no compatible gateway found"
	}
	if err != nil {
		a.logger.Debug("some gateways could not be queried", "error", err)
	}

	// The gateway's SOAP client has no timeout of its own.
	mctx, mcancel := context.WithTimeout(ctx, a.timeout)
	defer mcancel()

	gw := gateways[0]
	if err := gw.AddPortMapping(mctx, uint16(hostPort), uint16(internalPort), description); err != nil {
		a.logger.Warn("port mapping rejected", "gateway", gw.Name(), "host_port", hostPort, "error", err)
		return false, fmt.Sprintf("failed to map port %d on %s: %v", hostPort, gw.Name(), err)
	}

	a.logger.Info("port forwarded", "gateway", gw.Name(), "host_port", hostPort)
	return true, fmt.Sprintf("port %d forwarded via %s", hostPort, gw.Name())
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}
