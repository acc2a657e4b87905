package failure

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_EveryKindDescendsFromRoot(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.IsA(Root), "%s should descend from root", k)
	}
}

func TestKind_IsA(t *testing.T) {
	tests := []struct {
		kind     Kind
		ancestor Kind
		want     bool
	}{
		{APITimeout, API, true},
		{APIRateLimit, API, true},
		{API, API, true},
		{API, APITimeout, false},
		{DataFetch, DataSource, true},
		{DataParse, API, false},
		{ModelParse, Model, true},
		{InvalidSymbol, Market, true},
		{ToolNotFound, Tool, true},
		{AgentTimeout, Agent, true},
		{AgentTimeout, APITimeout, false},
		{SignalParse, Root, true},
		{Kind(99), Root, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.kind, tt.ancestor), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.IsA(tt.ancestor))
		})
	}
}

func TestKind_ParseRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		require.True(t, ok)
		assert.Equal(t, k, got)
	}

	_, ok := ParseKind("nope")
	assert.False(t, ok)
}

func TestError_IsMatchesAncestors(t *testing.T) {
	err := New(APITimeout, "upstream took %ds", 30)

	assert.ErrorIs(t, err, APITimeout)
	assert.ErrorIs(t, err, API)
	assert.ErrorIs(t, err, Root)
	assert.NotErrorIs(t, err, APIRateLimit)
	assert.NotErrorIs(t, err, DataSource)
	assert.Equal(t, "upstream took 30s", err.Error())
}

func TestError_WrapKeepsCauseButNotInMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(DataFetch, cause, "fetch quotes")

	assert.Equal(t, "fetch quotes", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, DataSource)
}

func TestError_WrappedByFmt(t *testing.T) {
	inner := New(APIRateLimit, "slow down").WithRetryAfter(2 * time.Second)
	err := fmt.Errorf("call quotes: %w", inner)

	k, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, APIRateLimit, k)
	assert.Equal(t, 2*time.Second, RetryAfter(err))
	assert.ErrorIs(t, err, API)
}

func TestKind_AsBareSentinel(t *testing.T) {
	var err error = APITimeout

	assert.ErrorIs(t, err, API)
	k, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, APITimeout, k)
	assert.Equal(t, "api_timeout", Label(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, "unclassified", Label(errors.New("plain")))
	assert.Zero(t, RetryAfter(errors.New("plain")))
}

func TestSet_Match(t *testing.T) {
	plain := errors.New("plain")

	tests := []struct {
		name string
		set  Set
		err  error
		want bool
	}{
		{"any matches plain", Any(), plain, true},
		{"any matches classified", Any(), New(Validation, "bad"), true},
		{"any rejects nil", Any(), nil, false},
		{"of matches descendant", Of(API), New(APITimeout, "t"), true},
		{"of matches exact", Of(DataFetch), New(DataFetch, "f"), true},
		{"of rejects sibling", Of(APITimeout), New(APIRateLimit, "r"), false},
		{"of rejects plain", Of(API), plain, false},
		{"of matches second entry", Of(Model, DataSource), New(DataParse, "p"), true},
		{"empty matches nothing", Of(), New(API, "a"), false},
		{"zero value matches nothing", Set{}, plain, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Match(tt.err))
		})
	}
}

func TestSet_String(t *testing.T) {
	assert.Equal(t, "any", Any().String())
	assert.Equal(t, "[api,data_fetch]", Of(API, DataFetch).String())
	assert.True(t, Any().IsAny())
	assert.Equal(t, []Kind{API}, Of(API).Kinds())
}
