/*
Package netlink drives network association with a bounded retry loop.

The connector polls the radio's association status once per interval up to
a fixed attempt budget (default 10 polls, 3 seconds apart). Success turns
the indicator on; an exhausted budget hard-restarts the whole process.
That escalation is deliberately terminal at this layer: connectivity
failure at boot is treated like a crash, because a device without a
network cannot do its job or receive remote fixes.

The Radio interface matches the hardware handle (activate, associate,
poll); ProbeRadio adapts a TCP reachability probe for hosts where the OS
owns the association.
*/
package netlink
