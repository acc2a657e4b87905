// Package failure defines the error taxonomy shared by every component of the resilience layer.
package failure

// Kind identifies a failure category. Kinds form a tree rooted at Root and every Kind
// satisfies the error interface, so a Kind can be used as a sentinel with errors.Is.
type Kind int

const (
	Root Kind = iota
	Configuration
	Validation
	DataSource
	DataFetch
	DataParse
	API
	APITimeout
	APIRateLimit
	Model
	ModelResponse
	ModelParse
	Agent
	AgentTimeout
	Tool
	ToolNotFound
	Market
	InvalidMarket
	InvalidSymbol
	SignalParse
	FactorParse
)

type kindInfo struct {
	name   string
	parent Kind
}

var kinds = [...]kindInfo{
	Root:          {"root", Root},
	Configuration: {"configuration", Root},
	Validation:    {"validation", Root},
	DataSource:    {"data_source", Root},
	DataFetch:     {"data_fetch", DataSource},
	DataParse:     {"data_parse", DataSource},
	API:           {"api", Root},
	APITimeout:    {"api_timeout", API},
	APIRateLimit:  {"api_rate_limit", API},
	Model:         {"model", Root},
	ModelResponse: {"model_response", Model},
	ModelParse:    {"model_parse", Model},
	Agent:         {"agent", Root},
	AgentTimeout:  {"agent_timeout", Agent},
	Tool:          {"tool", Root},
	ToolNotFound:  {"tool_not_found", Tool},
	Market:        {"market", Root},
	InvalidMarket: {"invalid_market", Market},
	InvalidSymbol: {"invalid_symbol", Market},
	SignalParse:   {"signal_parse", Root},
	FactorParse:   {"factor_parse", Root},
}

// Kinds returns every defined kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	for i := range kinds {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kinds)
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if !k.valid() {
		return "unknown"
	}
	return kinds[k].name
}

// Error makes Kind usable as a sentinel error.
func (k Kind) Error() string {
	return k.String()
}

// Is lets a bare Kind returned as an error match its ancestors.
func (k Kind) Is(target error) bool {
	t, ok := target.(Kind)
	return ok && k.IsA(t)
}

// Parent returns the direct ancestor. Root is its own parent.
func (k Kind) Parent() Kind {
	if !k.valid() {
		return Root
	}
	return kinds[k].parent
}

// IsA reports whether k equals ancestor or descends from it.
func (k Kind) IsA(ancestor Kind) bool {
	if !k.valid() || !ancestor.valid() {
		return false
	}
	for {
		if k == ancestor {
			return true
		}
		if k == Root {
			return false
		}
		k = kinds[k].parent
	}
}

// ParseKind resolves a kind from its name.
func ParseKind(name string) (Kind, bool) {
	for i, info := range kinds {
		if info.name == name {
			return Kind(i), true
		}
	}
	return Root, false
}
