package dns_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	mdns "github.com/miekg/dns"

	"github.com/ghettovoice/doorphone/dns"
	"github.com/ghettovoice/doorphone/internal/errorutil"
)

var zone = []string{
	`example.org. 300 IN NAPTR 20 10 "s" "SIP+D2T" "" _sip._tcp.example.org.`,
	`example.org. 300 IN NAPTR 10 10 "s" "SIP+D2U" "" _sip._udp.example.org.`,
	`example.org. 300 IN NAPTR 5 10 "u" "E2U+sip" "!^.*$!sip:info@example.org!" .`,
	`_sip._udp.example.org. 300 IN SRV 20 0 5060 sip2.example.org.`,
	`_sip._udp.example.org. 300 IN SRV 10 5 5062 sip1.example.org.`,
	`_sip._tcp.example.org. 300 IN SRV 10 0 5060 sip2.example.org.`,
	`sip1.example.org. 300 IN A 192.0.2.1`,
	`sip1.example.org. 300 IN AAAA 2001:db8::1`,
	`sip2.example.org. 300 IN A 192.0.2.2`,

	`srvonly.example.com. 300 IN TXT "v=sip"`,
	`_sip._udp.srvonly.example.com. 300 IN SRV 0 0 5070 sip1.example.org.`,

	`plain.example.net. 300 IN A 198.51.100.7`,
}

// startServer serves zone from a local UDP name server; unknown names get NXDOMAIN.
func startServer(t *testing.T) string {
	t.Helper()

	records := make(map[string]map[uint16][]mdns.RR)
	for _, s := range zone {
		rr, err := mdns.NewRR(s)
		if err != nil {
			t.Fatalf("dns.NewRR(%q) error = %v, want nil", s, err)
		}
		name := strings.ToLower(rr.Header().Name)
		if records[name] == nil {
			records[name] = make(map[uint16][]mdns.RR)
		}
		records[name][rr.Header().Rrtype] = append(records[name][rr.Header().Rrtype], rr)
	}

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.ListenPacket() error = %v, want nil", err)
	}

	started := make(chan struct{})
	srv := &mdns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: mdns.HandlerFunc(func(w mdns.ResponseWriter, req *mdns.Msg) {
			m := new(mdns.Msg)
			m.SetReply(req)
			q := req.Question[0]
			if byType, ok := records[strings.ToLower(q.Name)]; ok {
				m.Answer = byType[q.Qtype]
			} else {
				m.Rcode = mdns.RcodeNameError
			}
			w.WriteMsg(m) //nolint:errcheck
		}),
	}
	go srv.ActivateAndServe() //nolint:errcheck
	<-started
	t.Cleanup(func() { srv.Shutdown() }) //nolint:errcheck

	return pc.LocalAddr().String()
}

var ipComparer = cmp.Comparer(func(a, b net.IP) bool { return a.Equal(b) })

func TestResolver_LookupNAPTR(t *testing.T) {
	t.Parallel()

	r := &dns.Resolver{NameServer: startServer(t), Timeout: time.Second}
	got, err := r.LookupNAPTR(context.Background(), "example.org")
	if err != nil {
		t.Fatalf("resolver.LookupNAPTR() error = %v, want nil", err)
	}
	want := []dns.NAPTR{
		{Order: 5, Preference: 10, Flags: "u", Service: "E2U+SIP", Regexp: "!^.*$!sip:info@example.org!", Replacement: "."},
		{Order: 10, Preference: 10, Flags: "s", Service: "SIP+D2U", Replacement: "_sip._udp.example.org."},
		{Order: 20, Preference: 10, Flags: "s", Service: "SIP+D2T", Replacement: "_sip._tcp.example.org."},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("resolver.LookupNAPTR() mismatch\ndiff (-got +want):\n%v", diff)
	}
}

func TestResolver_LookupSRV(t *testing.T) {
	t.Parallel()

	r := &dns.Resolver{NameServer: startServer(t), Timeout: time.Second}
	got, err := r.LookupSRV(context.Background(), "_sip._udp.example.org")
	if err != nil {
		t.Fatalf("resolver.LookupSRV() error = %v, want nil", err)
	}
	want := []dns.SRV{
		{Target: "sip1.example.org.", Port: 5062, Priority: 10, Weight: 5},
		{Target: "sip2.example.org.", Port: 5060, Priority: 20, Weight: 0},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("resolver.LookupSRV() mismatch\ndiff (-got +want):\n%v", diff)
	}

	if _, err := r.LookupSRV(context.Background(), "_sip._tcp.missing.example.org"); err == nil {
		t.Error("resolver.LookupSRV() error = nil for a missing name, want error")
	}
}

func TestResolver_ResolveRegistrar(t *testing.T) {
	t.Parallel()

	r := &dns.Resolver{NameServer: startServer(t), Timeout: time.Second}

	cases := []struct {
		host    string
		want    []dns.Target
		wantErr error
	}{
		{
			host: "example.org",
			want: []dns.Target{
				{Transport: "udp", Host: "sip1.example.org", Port: 5062, IPs: []net.IP{net.ParseIP("192.0.2.1"), net.ParseIP("2001:db8::1")}},
				{Transport: "udp", Host: "sip2.example.org", Port: 5060, IPs: []net.IP{net.ParseIP("192.0.2.2")}},
				{Transport: "tcp", Host: "sip2.example.org", Port: 5060, IPs: []net.IP{net.ParseIP("192.0.2.2")}},
			},
		},
		{
			host: "srvonly.example.com",
			want: []dns.Target{
				{Transport: "udp", Host: "sip1.example.org", Port: 5070, IPs: []net.IP{net.ParseIP("192.0.2.1"), net.ParseIP("2001:db8::1")}},
			},
		},
		{
			host: "plain.example.net",
			want: []dns.Target{{Transport: "udp", Host: "plain.example.net", Port: 5060, IPs: []net.IP{net.ParseIP("198.51.100.7")}}},
		},
		{
			host: "plain.example.net:5080",
			want: []dns.Target{{Transport: "udp", Host: "plain.example.net", Port: 5080, IPs: []net.IP{net.ParseIP("198.51.100.7")}}},
		},
		{
			host: "192.0.2.10",
			want: []dns.Target{{Transport: "udp", Host: "192.0.2.10", Port: 5060, IPs: []net.IP{net.ParseIP("192.0.2.10")}}},
		},
		{host: "missing.example.org", wantErr: dns.ErrNoRegistrar},
		{host: "", wantErr: errorutil.ErrInvalidArgument},
		{host: "plain.example.net:sip", wantErr: errorutil.ErrInvalidArgument},
	}
	for _, c := range cases {
		got, err := r.ResolveRegistrar(context.Background(), c.host)
		if !errors.Is(err, c.wantErr) {
			t.Errorf("resolver.ResolveRegistrar(%q) error = %v, want %v", c.host, err, c.wantErr)
			continue
		}
		if diff := cmp.Diff(got, c.want, ipComparer); diff != "" {
			t.Errorf("resolver.ResolveRegistrar(%q) mismatch\ndiff (-got +want):\n%v", c.host, diff)
		}
	}
}

func TestResolver_CheckRegistrar(t *testing.T) {
	t.Parallel()

	r := &dns.Resolver{NameServer: startServer(t), Timeout: time.Second}
	if err := r.CheckRegistrar(context.Background(), "example.org"); err != nil {
		t.Errorf("resolver.CheckRegistrar() error = %v, want nil", err)
	}
	if err := r.CheckRegistrar(context.Background(), "missing.example.org"); !errors.Is(err, dns.ErrNoRegistrar) {
		t.Errorf("resolver.CheckRegistrar() error = %v, want %v", err, dns.ErrNoRegistrar)
	}
}

func TestResolver_Unreachable(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.ListenPacket() error = %v, want nil", err)
	}
	defer pc.Close()

	// the socket never answers
	r := &dns.Resolver{NameServer: pc.LocalAddr().String(), Timeout: 50 * time.Millisecond}
	_, err = r.ResolveRegistrar(context.Background(), "example.org")
	var de *net.DNSError
	if !errors.As(err, &de) || !de.IsTimeout {
		t.Errorf("resolver.ResolveRegistrar() error = %v, want DNS timeout error", err)
	}
}
