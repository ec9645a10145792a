package policy

// Document is the serialisable form of a Policy, as found under the
// "policy" key of the service config.
type Document struct {
	Ladders       map[string][]Rung `yaml:"ladders"`
	DefaultLadder string            `yaml:"default_ladder,omitempty"`
	Intents       []IntentDocument  `yaml:"intents"`
	GuaranteeDays int               `yaml:"guarantee_days"`
	SLA           SLADocument       `yaml:"sla"`
	CasePrefixes  map[string]string `yaml:"case_prefixes"`
}

// IntentDocument declares one issue category.
type IntentDocument struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label,omitempty"`
	Ladder  string   `yaml:"ladder"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// SLADocument holds durations in time.ParseDuration syntax.
type SLADocument struct {
	Warning string `yaml:"warning"`
	Breach  string `yaml:"breach"`
}

// DefaultDocument returns the standard rule table.
func DefaultDocument() Document {
	return Document{
		Ladders: map[string][]Rung{
			string(LadderRefund): {
				{Percentage: 20}, {Percentage: 30}, {Percentage: 40}, {Percentage: 50},
			},
			string(LadderShipping): {
				{Percentage: 10, IncludesReship: true}, {Percentage: 20, IncludesReship: true},
			},
			string(LadderSubscription): {
				{Percentage: 10}, {Percentage: 15}, {Percentage: 20},
			},
		},
		DefaultLadder: string(LadderRefund),
		Intents: []IntentDocument{
			{Key: "not_working", Label: "Product isn't working", Ladder: string(LadderRefund)},
			{Key: "quality_issue", Label: "Quality isn't what I expected", Ladder: string(LadderRefund)},
			{Key: "changed_mind", Label: "I changed my mind", Ladder: string(LadderRefund)},
			{Key: "wrong_item", Label: "I received the wrong item", Ladder: string(LadderShipping)},
			{Key: "damaged", Label: "My item arrived damaged", Ladder: string(LadderShipping)},
			{Key: "missing_item", Label: "Something is missing from my order", Ladder: string(LadderShipping), Aliases: []string{"missing"}},
			{Key: "subscription_change", Label: "I want to change my subscription", Ladder: string(LadderSubscription)},
			{Key: "subscription_cancel", Label: "I want to cancel my subscription", Ladder: string(LadderSubscription)},
			{Key: "other", Label: "Something else", Ladder: string(LadderRefund)},
		},
		GuaranteeDays: 90,
		SLA:           SLADocument{Warning: "24h", Breach: "48h"},
		CasePrefixes: map[string]string{
			"refund":       "REF",
			"shipping":     "SHP",
			"subscription": "SUB",
			"return":       "RET",
			"manual":       "CAS",
			"help":         "HLP",
		},
	}
}

// Default compiles DefaultDocument. It panics only if the built-in table is invalid.
func Default() *Policy {
	p, err := Compile(DefaultDocument())
	if err != nil {
		panic("policy: invalid default document: " + err.Error())
	}
	return p
}
