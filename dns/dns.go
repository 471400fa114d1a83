// Package dns resolves SIP registrar hosts.
//
// Lookups go straight to a name server with [github.com/miekg/dns], so NAPTR records,
// which the standard resolver does not support, are available next to SRV and address records.
package dns

//go:generate errtrace -w .

import (
	"cmp"
	"context"
	"errors"
	"net"
	"slices"
	"strings"
	"time"

	"braces.dev/errtrace"
	"github.com/miekg/dns"
)

// DefaultTimeout is the query timeout used when [Resolver.Timeout] is zero.
const DefaultTimeout = 5 * time.Second

// Resolver queries a single name server.
type Resolver struct {
	// NameServer is the server address, e.g. "192.0.2.53:53". A missing port means 53.
	// If empty, the first server of /etc/resolv.conf is used.
	NameServer string
	// Timeout defaults to [DefaultTimeout].
	Timeout time.Duration
	// Net is the transport: "udp" (default) or "tcp".
	Net string
}

// NAPTR is a naming authority pointer record (RFC 3403).
type NAPTR struct {
	Order      uint16
	Preference uint16
	// Flags is "s" when Replacement names an SRV record, "a" for an address record.
	Flags string
	// Service is e.g. "SIP+D2U" (UDP), "SIP+D2T" (TCP) or "SIPS+D2T" (TLS).
	Service     string
	Regexp      string
	Replacement string
}

// SRV is a service location record.
type SRV struct {
	Target   string
	Port     uint16
	Priority uint16
	Weight   uint16
}

// LookupNAPTR returns the NAPTR records of host sorted by order, then by preference.
func (r *Resolver) LookupNAPTR(ctx context.Context, host string) ([]NAPTR, error) {
	rrs, err := r.exchange(ctx, host, dns.TypeNAPTR)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	recs := make([]NAPTR, 0, len(rrs))
	for _, rr := range rrs {
		if rr, ok := rr.(*dns.NAPTR); ok {
			recs = append(recs, NAPTR{
				Order:       rr.Order,
				Preference:  rr.Preference,
				Flags:       strings.ToLower(rr.Flags),
				Service:     strings.ToUpper(rr.Service),
				Regexp:      rr.Regexp,
				Replacement: rr.Replacement,
			})
		}
	}
	slices.SortStableFunc(recs, func(a, b NAPTR) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.Preference, b.Preference)
	})
	return recs, nil
}

// LookupSRV returns the SRV records of name sorted by priority, then by descending weight.
func (r *Resolver) LookupSRV(ctx context.Context, name string) ([]SRV, error) {
	rrs, err := r.exchange(ctx, name, dns.TypeSRV)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	recs := make([]SRV, 0, len(rrs))
	for _, rr := range rrs {
		if rr, ok := rr.(*dns.SRV); ok {
			recs = append(recs, SRV{
				Target:   rr.Target,
				Port:     rr.Port,
				Priority: rr.Priority,
				Weight:   rr.Weight,
			})
		}
	}
	slices.SortStableFunc(recs, func(a, b SRV) int {
		if c := cmp.Compare(a.Priority, b.Priority); c != 0 {
			return c
		}
		return cmp.Compare(b.Weight, a.Weight)
	})
	return recs, nil
}

// LookupIP returns the IPv4 and IPv6 addresses of host, IPv4 first.
// A host that has only one address family is not an error.
func (r *Resolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	var ips []net.IP
	var errs []error
	for _, qtype := range [...]uint16{dns.TypeA, dns.TypeAAAA} {
		rrs, err := r.exchange(ctx, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, rr := range rrs {
			switch rr := rr.(type) {
			case *dns.A:
				ips = append(ips, rr.A.To4())
			case *dns.AAAA:
				ips = append(ips, rr.AAAA)
			}
		}
	}
	if len(ips) == 0 && len(errs) > 0 {
		return nil, errtrace.Wrap(errs[0])
	}
	return ips, nil
}

func (r *Resolver) exchange(ctx context.Context, name string, qtype uint16) ([]dns.RR, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	nameserver, err := r.nameserver()
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	client := &dns.Client{Net: r.Net, Timeout: r.timeout()}
	resp, _, err := client.ExchangeContext(ctx, m, nameserver)
	if err != nil {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:       err.Error(),
			Name:      name,
			Server:    nameserver,
			IsTimeout: isTimeout(err),
		})
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, errtrace.Wrap(&net.DNSError{
			Err:        dns.RcodeToString[resp.Rcode],
			Name:       name,
			Server:     nameserver,
			IsNotFound: resp.Rcode == dns.RcodeNameError,
		})
	}
	return resp.Answer, nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

func (r *Resolver) nameserver() (string, error) {
	if r.NameServer != "" {
		if _, _, err := net.SplitHostPort(r.NameServer); err != nil {
			return net.JoinHostPort(r.NameServer, "53"), nil //nolint:nilerr
		}
		return r.NameServer, nil
	}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if len(conf.Servers) == 0 {
		return "", errtrace.Wrap(&net.DNSError{
			Err:  "no DNS servers configured",
			Name: "resolv.conf",
		})
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}
