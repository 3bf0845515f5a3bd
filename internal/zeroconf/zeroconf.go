// Package zeroconf advertises a footswitch device over mDNS/DNS-SD and lets
// the editor find devices on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD service type of a footswitch device.
	ServiceType = "_footswitch._tcp"
	domain      = "local."
)

// Service manages mDNS service registration.
type Service struct {
	name string // instance name, e.g. "footswitch"
	port int
	txt  []string
}

// New creates a new zeroconf Service that will advertise on the given port.
// txt carries key=value records such as "buttons=8".
func New(name string, port int, txt ...string) *Service {
	return &Service{
		name: name,
		port: port,
		txt:  append([]string{"model=footswitch"}, txt...),
	}
}

// TXT returns the records the service advertises.
func (s *Service) TXT() []string {
	return append([]string(nil), s.txt...)
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(
		s.name,      // instance name
		ServiceType, // service type
		domain,      // domain
		s.port,      // port
		s.txt,       // TXT records
		nil,         // ifaces, nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", s.txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}

// Device is a footswitch found on the network.
type Device struct {
	Instance string
	Host     string
	Addr     net.IP
	Port     int
	TXT      map[string]string
}

// URL returns the base URL of the device's HTTP API.
func (d Device) URL() string {
	host := d.Host
	if d.Addr != nil {
		host = d.Addr.String()
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(d.Port))
}

// Discover browses for devices for the given duration, or until ctx ends.
// Results are sorted by instance name.
func Discover(ctx context.Context, wait time.Duration) ([]Device, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("zeroconf resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(map[string]Device)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				d := deviceFromEntry(e)
				if _, seen := found[d.Instance]; !seen {
					slog.Debug("zeroconf: found device", "instance", d.Instance, "url", d.URL())
				}
				found[d.Instance] = d
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, domain, entries); err != nil {
		return nil, fmt.Errorf("zeroconf browse: %w", err)
	}
	<-done

	out := make([]Device, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out, nil
}

func deviceFromEntry(e *zeroconf.ServiceEntry) Device {
	d := Device{
		Instance: e.Instance,
		Host:     strings.TrimSuffix(e.HostName, "."),
		Port:     e.Port,
		TXT:      make(map[string]string, len(e.Text)),
	}
	switch {
	case len(e.AddrIPv4) > 0:
		d.Addr = e.AddrIPv4[0]
	case len(e.AddrIPv6) > 0:
		d.Addr = e.AddrIPv6[0]
	}
	for _, rec := range e.Text {
		k, v, _ := strings.Cut(rec, "=")
		d.TXT[k] = v
	}
	return d
}
