// Package policy contains the business-rule tables the resolution flow runs on:
// offer ladders, the intent-to-ladder table, the guarantee window, SLA thresholds
// and case id prefixes. A Policy is compiled once at startup and only read afterwards.
package policy

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LadderType identifies one of the offer ladders.
type LadderType string

const (
	LadderRefund       LadderType = "refund"
	LadderShipping     LadderType = "shipping"
	LadderSubscription LadderType = "subscription"
)

// Valid reports whether t names a known ladder.
func (t LadderType) Valid() bool {
	switch t {
	case LadderRefund, LadderShipping, LadderSubscription:
		return true
	}
	return false
}

// Rung is one offer on a ladder.
type Rung struct {
	Percentage     int  `yaml:"percentage" json:"percentage"`
	IncludesReship bool `yaml:"includes_reship,omitempty" json:"includesReship"`
}

// Ladder is an ordered, immutable sequence of rungs.
type Ladder struct {
	Type  LadderType
	rungs []Rung
}

// Len returns the number of rungs.
func (l Ladder) Len() int {
	return len(l.rungs)
}

// Rung returns the rung at step. ok is false when step is out of range.
func (l Ladder) Rung(step int) (Rung, bool) {
	if step < 0 || step >= len(l.rungs) {
		return Rung{}, false
	}
	return l.rungs[step], true
}

// IsLastStep reports whether step is the final rung.
func (l Ladder) IsLastStep(step int) bool {
	return step == len(l.rungs)-1
}

// Rungs returns a copy of the rungs.
func (l Ladder) Rungs() []Rung {
	out := make([]Rung, len(l.rungs))
	copy(out, l.rungs)
	return out
}

// IntentOption is an issue category offered to the customer.
type IntentOption struct {
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Ladder LadderType `json:"ladder"`
}

// SLA holds the hub's response-time thresholds for open cases.
type SLA struct {
	Warning time.Duration
	Breach  time.Duration
}

// Policy is the compiled, read-only rule table.
type Policy struct {
	ladders         map[LadderType]Ladder
	intents         map[string]IntentOption
	intentOrder     []string
	defaultLadder   LadderType
	guaranteeWindow time.Duration
	sla             SLA
	casePrefixes    map[string]string
}

// Ladder returns the ladder for t.
func (p *Policy) Ladder(t LadderType) (Ladder, bool) {
	l, ok := p.ladders[t]
	return l, ok
}

// LadderFor maps an intent to its ladder. Unknown intents fall back to the
// default (refund) ladder.
func (p *Policy) LadderFor(intent string) LadderType {
	if opt, ok := p.intents[NormalizeIntent(intent)]; ok {
		return opt.Ladder
	}
	return p.defaultLadder
}

// Intents lists the configured intent options in display order.
func (p *Policy) Intents() []IntentOption {
	out := make([]IntentOption, 0, len(p.intentOrder))
	for _, key := range p.intentOrder {
		out = append(out, p.intents[key])
	}
	return out
}

// GuaranteeWindow is how long after purchase the ladder may be offered.
func (p *Policy) GuaranteeWindow() time.Duration {
	return p.guaranteeWindow
}

// GuaranteeDays is GuaranteeWindow in whole days.
func (p *Policy) GuaranteeDays() int {
	return int(p.guaranteeWindow / (24 * time.Hour))
}

// SLA returns the hub SLA thresholds.
func (p *Policy) SLA() SLA {
	return p.sla
}

// CasePrefix returns the case id prefix for a case type. Unknown types get
// the prefix configured for "manual".
func (p *Policy) CasePrefix(caseType string) string {
	if prefix, ok := p.casePrefixes[caseType]; ok {
		return prefix
	}
	return p.casePrefixes["manual"]
}

// NormalizeIntent lowercases an intent and joins words with underscores so
// "Wrong item", "wrong-item" and "wrong_item" are the same key.
func NormalizeIntent(intent string) string {
	s := strings.ToLower(strings.TrimSpace(intent))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), "_")
}

// Compile validates a Document and builds the immutable Policy.
func Compile(doc Document) (*Policy, error) {
	p := &Policy{
		ladders:      make(map[LadderType]Ladder, len(doc.Ladders)),
		intents:      make(map[string]IntentOption, len(doc.Intents)),
		casePrefixes: make(map[string]string, len(doc.CasePrefixes)),
	}

	for name, rungs := range doc.Ladders {
		t := LadderType(name)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown ladder %q", name)
		}
		if len(rungs) == 0 {
			return nil, fmt.Errorf("ladder %q has no rungs", name)
		}
		for i, r := range rungs {
			if r.Percentage < 0 || r.Percentage > 100 {
				return nil, fmt.Errorf("ladder %q rung %d: percentage %d out of range 0-100", name, i, r.Percentage)
			}
		}
		copied := make([]Rung, len(rungs))
		copy(copied, rungs)
		p.ladders[t] = Ladder{Type: t, rungs: copied}
	}
	for _, t := range []LadderType{LadderRefund, LadderShipping, LadderSubscription} {
		if _, ok := p.ladders[t]; !ok {
			return nil, fmt.Errorf("ladder %q is not configured", t)
		}
	}

	p.defaultLadder = LadderType(doc.DefaultLadder)
	if p.defaultLadder == "" {
		p.defaultLadder = LadderRefund
	}
	if !p.defaultLadder.Valid() {
		return nil, fmt.Errorf("unknown default ladder %q", doc.DefaultLadder)
	}

	for _, in := range doc.Intents {
		key := NormalizeIntent(in.Key)
		if key == "" {
			return nil, fmt.Errorf("intent with empty key")
		}
		lt := LadderType(in.Ladder)
		if !lt.Valid() {
			return nil, fmt.Errorf("intent %q: unknown ladder %q", in.Key, in.Ladder)
		}
		if _, dup := p.intents[key]; dup {
			return nil, fmt.Errorf("intent %q defined twice", key)
		}
		label := in.Label
		if label == "" {
			label = key
		}
		p.intents[key] = IntentOption{Key: key, Label: label, Ladder: lt}
		p.intentOrder = append(p.intentOrder, key)
		for _, alias := range in.Aliases {
			a := NormalizeIntent(alias)
			if _, dup := p.intents[a]; dup {
				return nil, fmt.Errorf("intent alias %q defined twice", a)
			}
			p.intents[a] = IntentOption{Key: key, Label: label, Ladder: lt}
		}
	}

	if doc.GuaranteeDays <= 0 {
		return nil, fmt.Errorf("guarantee_days must be positive, got %d", doc.GuaranteeDays)
	}
	p.guaranteeWindow = time.Duration(doc.GuaranteeDays) * 24 * time.Hour

	warning, err := time.ParseDuration(doc.SLA.Warning)
	if err != nil {
		return nil, fmt.Errorf("sla.warning: %w", err)
	}
	breach, err := time.ParseDuration(doc.SLA.Breach)
	if err != nil {
		return nil, fmt.Errorf("sla.breach: %w", err)
	}
	if warning <= 0 || breach < warning {
		return nil, fmt.Errorf("sla thresholds must satisfy 0 < warning <= breach (got %s, %s)", warning, breach)
	}
	p.sla = SLA{Warning: warning, Breach: breach}

	for caseType, prefix := range doc.CasePrefixes {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix == "" || strings.Contains(prefix, "-") {
			return nil, fmt.Errorf("case prefix for %q must be non-empty and contain no '-'", caseType)
		}
		p.casePrefixes[caseType] = prefix
	}
	if _, ok := p.casePrefixes["manual"]; !ok {
		return nil, fmt.Errorf("case prefix for \"manual\" is required")
	}

	return p, nil
}

// LadderTypes returns the configured ladder types sorted by name.
func (p *Policy) LadderTypes() []LadderType {
	out := make([]LadderType, 0, len(p.ladders))
	for t := range p.ladders {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
