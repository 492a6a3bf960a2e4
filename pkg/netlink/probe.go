package netlink

import (
	"net"
	"time"
)

// ProbeRadio adapts a plain TCP reachability probe to the Radio interface,
// for hosts where association is handled by the OS and the supervisor only
// needs to know whether the network is usable. Activate and Associate are
// no-ops; IsAssociated dials the probe address.
type ProbeRadio struct {
	// Address is the TCP address proven reachable, e.g. "192.168.1.1:53".
	Address string

	// Timeout bounds each probe dial (default: 2 seconds).
	Timeout time.Duration
}

// NewProbeRadio creates a probe radio for the given address.
func NewProbeRadio(address string) *ProbeRadio {
	return &ProbeRadio{
		Address: address,
		Timeout: 2 * time.Second,
	}
}

func (p *ProbeRadio) Activate() error             { return nil }
func (p *ProbeRadio) Associate(Credentials) error { return nil }

// IsAssociated dials the probe address and reports reachability.
func (p *ProbeRadio) IsAssociated() bool {
	conn, err := net.DialTimeout("tcp", p.Address, p.Timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
