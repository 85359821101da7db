// Package gate decides whether an inbound message is worth running through
// the extraction pipeline at all.
package gate

import (
	"strings"

	"github.com/jonathan/placement-tracker/internal/types"
)

// Decision is the routing outcome for one message.
type Decision string

// Routing outcomes. Rejections are expected, terminal and non-fatal; they
// are recorded as skipped with the decision as reason code.
const (
	Admit          Decision = "admit"
	RejectSender   Decision = "reject_sender"
	RejectNoSignal Decision = "reject_no_signal"
)

// previewBytes bounds how much of the body the gate inspects, keeping
// evaluation constant-time relative to body size.
const previewBytes = 4096

// DefaultKeywords is the placement vocabulary used when none is configured.
// Senders outside the allowlist are still admitted when one of these shows
// up in the subject or body preview, so legitimate coordinators mailing
// from nonstandard addresses are not silently dropped.
var DefaultKeywords = []string{
	"placement",
	"campus drive",
	"campus recruitment",
	"recruitment drive",
	"hiring",
	"internship",
	"off-campus",
	"off campus",
	"ppo",
	"job opportunity",
}

// Gate evaluates message admissibility against a sender allowlist and a
// keyword vocabulary.
type Gate struct {
	addresses map[string]struct{}
	domains   map[string]struct{}
	keywords  []string
}

// New builds a Gate. Allowed entries containing '@' are exact addresses,
// anything else is treated as a domain. An empty keyword list falls back to
// DefaultKeywords.
func New(allowed []string, keywords []string) *Gate {
	g := &Gate{
		addresses: make(map[string]struct{}),
		domains:   make(map[string]struct{}),
		keywords:  keywords,
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if strings.Contains(a, "@") {
			g.addresses[a] = struct{}{}
		} else {
			g.domains[a] = struct{}{}
		}
	}
	if len(g.keywords) == 0 {
		g.keywords = DefaultKeywords
	}
	return g
}

// Evaluate routes a message. Admission requires the sender to match the
// allowlist or the subject/body-prefix to contain a recognized keyword.
func (g *Gate) Evaluate(msg types.RawMessage) Decision {
	if g.senderAllowed(msg.Sender) {
		return Admit
	}

	preview := msg.RawBody
	if len(preview) > previewBytes {
		preview = preview[:previewBytes]
	}
	haystack := strings.ToLower(msg.Subject + "\n" + preview)
	for _, kw := range g.keywords {
		if strings.Contains(haystack, kw) {
			return Admit
		}
	}

	if len(g.addresses) > 0 || len(g.domains) > 0 {
		return RejectSender
	}
	return RejectNoSignal
}

// senderAllowed matches the address inside a "Name <addr>" header value
// against the exact-address and domain allowlists.
func (g *Gate) senderAllowed(sender string) bool {
	addr := strings.ToLower(strings.TrimSpace(sender))
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.Trim(addr[i+1:], "<> ")
	}
	if addr == "" {
		return false
	}
	if _, ok := g.addresses[addr]; ok {
		return true
	}
	if at := strings.LastIndex(addr, "@"); at >= 0 {
		domain := addr[at+1:]
		if _, ok := g.domains[domain]; ok {
			return true
		}
	}
	return false
}
