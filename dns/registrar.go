package dns

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"braces.dev/errtrace"

	"github.com/ghettovoice/doorphone/internal/errorutil"
)

// ErrNoRegistrar is returned when a registrar host resolves to no address.
const ErrNoRegistrar errorutil.Error = "registrar has no usable address"

// DefaultSIPPort is used for targets without an explicit or SRV-provided port.
const DefaultSIPPort = 5060

// Target is one resolved registrar endpoint.
type Target struct {
	// Transport is "udp", "tcp" or "tls".
	Transport string   `json:"transport"`
	Host      string   `json:"host"`
	Port      uint16   `json:"port"`
	IPs       []net.IP `json:"ips"`
}

// LogValue implements [slog.LogValuer].
func (t Target) LogValue() slog.Value {
	ips := make([]string, len(t.IPs))
	for i, ip := range t.IPs {
		ips[i] = ip.String()
	}
	return slog.GroupValue(
		slog.String("transport", t.Transport),
		slog.String("host", t.Host),
		slog.Int("port", int(t.Port)),
		slog.String("ips", strings.Join(ips, ",")),
	)
}

var naptrTransports = map[string]string{
	"SIP+D2U":  "udp",
	"SIP+D2T":  "tcp",
	"SIPS+D2T": "tls",
}

var srvPrefixes = []struct {
	prefix, transport string
}{
	{"_sip._udp.", "udp"},
	{"_sip._tcp.", "tcp"},
	{"_sips._tcp.", "tls"},
}

// ResolveRegistrar locates the registrar for host the way a SIP client does (RFC 3263):
// NAPTR records select transports and SRV names, SRV records give targets and ports,
// address records give the IPs. Each step falls back to the next when it yields nothing.
// A host with an explicit port or an IP literal skips NAPTR and SRV.
func (r *Resolver) ResolveRegistrar(ctx context.Context, host string) ([]Target, error) {
	if host == "" {
		return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("empty registrar host"))
	}

	if h, p, err := net.SplitHostPort(host); err == nil {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, errtrace.Wrap(errorutil.NewInvalidArgumentError("invalid registrar port %q", p))
		}
		return errtrace.Wrap2(r.addressTargets(ctx, h, uint16(port)))
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return errtrace.Wrap2(r.addressTargets(ctx, host, DefaultSIPPort))
	}

	targets, err := r.naptrTargets(ctx, host)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(targets) > 0 {
		return targets, nil
	}

	targets, err = r.srvTargets(ctx, host)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if len(targets) > 0 {
		return targets, nil
	}

	return errtrace.Wrap2(r.addressTargets(ctx, host, DefaultSIPPort))
}

// CheckRegistrar reports an error unless host resolves to at least one address.
func (r *Resolver) CheckRegistrar(ctx context.Context, host string) error {
	_, err := r.ResolveRegistrar(ctx, host)
	return errtrace.Wrap(err)
}

func (r *Resolver) naptrTargets(ctx context.Context, host string) ([]Target, error) {
	recs, err := r.LookupNAPTR(ctx, host)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, errtrace.Wrap(err)
	}

	var targets []Target
	for _, rec := range recs {
		transport, ok := naptrTransports[rec.Service]
		if !ok || rec.Flags != "s" {
			continue
		}
		srvs, err := r.LookupSRV(ctx, rec.Replacement)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, errtrace.Wrap(err)
		}
		ts, err := r.resolveSRV(ctx, transport, srvs)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		targets = append(targets, ts...)
	}
	return targets, nil
}

func (r *Resolver) srvTargets(ctx context.Context, host string) ([]Target, error) {
	var targets []Target
	for _, p := range srvPrefixes {
		srvs, err := r.LookupSRV(ctx, p.prefix+host)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, errtrace.Wrap(err)
		}
		ts, err := r.resolveSRV(ctx, p.transport, srvs)
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		targets = append(targets, ts...)
	}
	return targets, nil
}

func (r *Resolver) resolveSRV(ctx context.Context, transport string, srvs []SRV) ([]Target, error) {
	targets := make([]Target, 0, len(srvs))
	for _, srv := range srvs {
		// "." means the service is not available at this domain
		if srv.Target == "." {
			continue
		}
		ips, err := r.LookupIP(ctx, srv.Target)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, errtrace.Wrap(err)
		}
		if len(ips) == 0 {
			continue
		}
		targets = append(targets, Target{
			Transport: transport,
			Host:      strings.TrimSuffix(srv.Target, "."),
			Port:      srv.Port,
			IPs:       ips,
		})
	}
	return targets, nil
}

func (r *Resolver) addressTargets(ctx context.Context, host string, port uint16) ([]Target, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []Target{{Transport: "udp", Host: host, Port: port, IPs: []net.IP{net.IP(addr.AsSlice())}}}, nil
	}

	ips, err := r.LookupIP(ctx, host)
	if err != nil {
		if isNotFound(err) {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNoRegistrar, err))
		}
		return nil, errtrace.Wrap(err)
	}
	if len(ips) == 0 {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrNoRegistrar, "host %q", host))
	}
	return []Target{{Transport: "udp", Host: host, Port: port, IPs: ips}}, nil
}

func isNotFound(err error) bool {
	var de *net.DNSError
	return errors.As(err, &de) && de.IsNotFound
}
