package query

import (
	"testing"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDoc mirrors a small service config:
//
//	name = "svc"
//	tags = ["a", "b", "c", "d"]
//	[[servers]] host = "one", port = 80
//	[[servers]] host = "two", port = 81
//	[db] port = 5432
func testDoc() *tree.Mapping {
	servers := tree.NewSequence()
	for _, s := range []struct {
		host string
		port int64
	}{{"one", 80}, {"two", 81}} {
		m := tree.NewMapping()
		m.Set("host", tree.NewString(s.host))
		m.Set("port", tree.NewInt(s.port))
		servers.Append(m)
	}
	db := tree.NewMapping()
	db.Set("port", tree.NewInt(5432))

	doc := tree.NewMapping()
	doc.Set("name", tree.NewString("svc"))
	doc.Set("tags", tree.NewSequence(
		tree.NewString("a"), tree.NewString("b"), tree.NewString("c"), tree.NewString("d")))
	doc.Set("servers", servers)
	doc.Set("db", db)
	return doc
}

func locStrings(locs []tree.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.String()
	}
	return out
}

func textValues(t *testing.T, nodes []tree.Node) []string {
	t.Helper()
	out := make([]string, len(nodes))
	for i, n := range nodes {
		s, ok := n.(*tree.Scalar)
		require.True(t, ok, "match %d is not a scalar", i)
		out[i] = s.Text()
	}
	return out
}

func TestJSONPath_Locations(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"$.name", []string{"$.name"}},
		{"$['name']", []string{"$.name"}},
		{"$.tags[1]", []string{"$.tags[1]"}},
		{"$.tags[-1]", []string{"$.tags[3]"}},
		{"$.tags[1:3]", []string{"$.tags[1]", "$.tags[2]"}},
		{"$.tags[0,3]", []string{"$.tags[0]", "$.tags[3]"}},
		{"$.servers[*].port", []string{"$.servers[0].port", "$.servers[1].port"}},
		{"$..port", []string{"$.servers[0].port", "$.servers[1].port", "$.db.port"}},
		{"$.servers[?(@.port > 80)].host", []string{"$.servers[1].host"}},
		{"$['name','db']", []string{"$.name", "$.db"}},
		{"$.missing", nil},
		{"$.name.deeper", nil},
		{"$.tags[9]", nil},
	}
	eval := NewJSONPath()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			locs, err := eval.Locations(testDoc(), tt.expr)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, locs)
				return
			}
			assert.Equal(t, tt.want, locStrings(locs))
		})
	}
}

func TestJSONPath_ValuesMatchLocations(t *testing.T) {
	doc := testDoc()
	eval := NewJSONPath()
	for _, expr := range []string{"$..port", "$.tags[*]", "$.servers[0]", "$"} {
		values, err := eval.Values(doc, expr)
		require.NoError(t, err)
		locs, err := eval.Locations(doc, expr)
		require.NoError(t, err)
		require.Len(t, locs, len(values), expr)
		for i, loc := range locs {
			n, err := tree.Lookup(doc, loc)
			require.NoError(t, err)
			assert.Same(t, values[i], n, expr)
		}
	}
}

func TestJSONPath_Root(t *testing.T) {
	doc := testDoc()
	locs, err := NewJSONPath().Locations(doc, "$")
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.True(t, locs[0].IsRoot())
}

func TestJSONPath_Values(t *testing.T) {
	values, err := NewJSONPath().Values(testDoc(), "$.servers[*].host")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, textValues(t, values))
}

func TestJSONPath_InvalidExpr(t *testing.T) {
	_, err := NewJSONPath().Values(testDoc(), "$[1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidExpr)

	var ee *ExprError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "jsonpath", ee.Syntax)
	assert.Equal(t, "$[1", ee.Expr)
}

func TestJSONPath_Pure(t *testing.T) {
	doc := testDoc()
	before := tree.Clone(doc)
	eval := NewJSONPath()

	first, err := eval.Locations(doc, "$..port")
	require.NoError(t, err)
	second, err := eval.Locations(doc, "$..port")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, tree.Equal(before, doc))
}

func TestJQ_Locations(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{".name", []string{"$.name"}},
		{".tags[1]", []string{"$.tags[1]"}},
		{".tags[-1]", []string{"$.tags[3]"}},
		{".servers[].port", []string{"$.servers[0].port", "$.servers[1].port"}},
		{".servers[] | select(.host == \"two\") | .port", []string{"$.servers[1].port"}},
		{".missing", nil},
		{"empty", nil},
	}
	eval := NewJQ()
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			locs, err := eval.Locations(testDoc(), tt.expr)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, locs)
				return
			}
			assert.Equal(t, tt.want, locStrings(locs))
		})
	}
}

func TestJQ_Values(t *testing.T) {
	values, err := NewJQ().Values(testDoc(), ".servers[].host")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, textValues(t, values))
}

func TestJQ_Errors(t *testing.T) {
	_, err := NewJQ().Locations(testDoc(), ".[")
	assert.ErrorIs(t, err, ErrInvalidExpr)

	_, err = NewJQ().Locations(testDoc(), ".name.x")
	assert.ErrorIs(t, err, ErrInvalidExpr, "indexing a string fails at run time")
}

func TestForName(t *testing.T) {
	for name, want := range map[string]string{"": "jsonpath", "jsonpath": "jsonpath", "jq": "jq"} {
		eval, err := ForName(name)
		require.NoError(t, err)
		assert.Equal(t, want, eval.Name())
	}
	_, err := ForName("xpath")
	assert.Error(t, err)
}
