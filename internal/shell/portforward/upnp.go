package portforward

import (
	"context"
	"errors"
	"net"

	"github.com/huin/goupnp/dcps/internetgateway2"
)

// mappingClient is the subset of the generated WAN connection clients used here.
// WANIPConnection1, WANIPConnection2 and WANPPPConnection1 all satisfy it.
type mappingClient interface {
	AddPortMappingCtx(
		ctx context.Context,
		remoteHost string,
		externalPort uint16,
		protocol string,
		internalPort uint16,
		internalClient string,
		enabled bool,
		description string,
		leaseDuration uint32,
	) error
	LocalAddr() net.IP
}

type upnpGateway struct {
	client mappingClient
	name   string
}

func (g *upnpGateway) Name() string {
	return g.name
}

// AddPortMapping maps the port to this host's address on the gateway's LAN,
// for any remote host, with no lease expiry.
func (g *upnpGateway) AddPortMapping(ctx context.Context, externalPort, internalPort uint16, description string) error {
	local := g.client.LocalAddr()
	if local == nil {
		return errors.New("local address unknown")
	}
	return g.client.AddPortMappingCtx(ctx, "", externalPort, "TCP", internalPort, local.String(), true, description, 0)
}

// UPnPDiscoverer discovers WAN connection services over SSDP.
type UPnPDiscoverer struct{}

// Discover returns gateways ordered WANIPConnection2, WANIPConnection1, then
// WANPPPConnection1. Per-device failures are joined into the returned error
// alongside whatever gateways were found.
func (UPnPDiscoverer) Discover(ctx context.Context) ([]Gateway, error) {
	var (
		gateways []Gateway
		errs     []error
	)

	ip2, ip2Errs, err := internetgateway2.NewWANIPConnection2ClientsCtx(ctx)
	errs = append(append(errs, err), ip2Errs...)
	for _, c := range ip2 {
		gateways = append(gateways, &upnpGateway{client: c, name: "WANIPConnection2 " + c.Location.Host})
	}

	ip1, ip1Errs, err := internetgateway2.NewWANIPConnection1ClientsCtx(ctx)
	errs = append(append(errs, err), ip1Errs...)
	for _, c := range ip1 {
		gateways = append(gateways, &upnpGateway{client: c, name: "WANIPConnection1 " + c.Location.Host})
	}

	ppp, pppErrs, err := internetgateway2.NewWANPPPConnection1ClientsCtx(ctx)
	errs = append(append(errs, err), pppErrs...)
	for _, c := range ppp {
		gateways = append(gateways, &upnpGateway{client: c, name: "WANPPPConnection1 " + c.Location.Host})
	}

	return gateways, errors.Join(errs...)
}
