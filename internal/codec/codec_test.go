package codec

import (
	"math"
	"testing"

	"github.com/agentic-research/confedit/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlDoc = `title = "x"

[owner]
name = "Tom"
dob = 1979-05-27T07:32:00-08:00

[database]
ports = [8000, 8001]
enabled = true
ratio = 0.5

[[products]]
name = "Hammer"
sku = 738594937

[[products]]
color = "gray"
name = "Nail"
`

func mapping(t *testing.T, n tree.Node) *tree.Mapping {
	t.Helper()
	m, ok := n.(*tree.Mapping)
	require.True(t, ok, "want mapping, got %T", n)
	return m
}

func get(t *testing.T, n tree.Node, loc ...tree.Segment) tree.Node {
	t.Helper()
	v, err := tree.Lookup(n, tree.Location(loc))
	require.NoError(t, err)
	return v
}

func TestTOML_DecodeKeepsOrder(t *testing.T) {
	doc, err := TOML{}.Decode([]byte(tomlDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "owner", "database", "products"}, mapping(t, doc).Keys())
	assert.Equal(t, []string{"ports", "enabled", "ratio"}, mapping(t, get(t, doc, tree.Key("database"))).Keys())
	assert.Equal(t, []string{"name", "sku"}, mapping(t, get(t, doc, tree.Key("products"), tree.Index(0))).Keys())
	assert.Equal(t, []string{"color", "name"}, mapping(t, get(t, doc, tree.Key("products"), tree.Index(1))).Keys())

	dob := get(t, doc, tree.Key("owner"), tree.Key("dob")).(*tree.Scalar)
	assert.Equal(t, tree.DateTime, dob.ScalarKind())
	assert.Equal(t, tree.OffsetDateTime, dob.TimeKind())

	sku := get(t, doc, tree.Key("products"), tree.Index(0), tree.Key("sku")).(*tree.Scalar)
	assert.Equal(t, tree.Integer, sku.ScalarKind())
}

func TestTOML_RoundTrip(t *testing.T) {
	doc, err := TOML{}.Decode([]byte(tomlDoc))
	require.NoError(t, err)

	out, err := TOML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, tomlDoc, string(out))

	again, err := TOML{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again))
}

func TestTOML_LocalDateTimes(t *testing.T) {
	src := "d = 1979-05-27\nt = 07:32:00\nldt = 1979-05-27T07:32:00\n"
	doc, err := TOML{}.Decode([]byte(src))
	require.NoError(t, err)

	kinds := map[string]tree.TimeKind{"d": tree.LocalDate, "t": tree.LocalTime, "ldt": tree.LocalDateTime}
	for key, want := range kinds {
		s := get(t, doc, tree.Key(key)).(*tree.Scalar)
		assert.Equal(t, want, s.TimeKind(), key)
	}

	out, err := TOML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestTOML_NestedTablesAndQuotedKeys(t *testing.T) {
	src := "[a.b]\nc = 1\n\n[\"x y\"]\n\"k.1\" = \"v\\n\"\n"
	doc, err := TOML{}.Decode([]byte(src))
	require.NoError(t, err)

	out, err := TOML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestTOML_ReordersPlainKeysBeforeTables(t *testing.T) {
	table := tree.NewMapping()
	table.Set("port", tree.NewInt(80))
	doc := tree.NewMapping()
	doc.Set("server", table)
	doc.Set("name", tree.NewString("svc"))

	out, err := TOML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, "name = \"svc\"\n\n[server]\nport = 80\n", string(out))

	again, err := TOML{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equivalent(doc, again))
}

func TestTOML_DottedKeysMoveAfterPlainKeys(t *testing.T) {
	doc, err := TOML{}.Decode([]byte("b = 1\na.c = 2\na.b = 3\nd = 4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "d"}, mapping(t, doc).Keys())

	out, err := TOML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, "b = 1\nd = 4\n\n[a]\nc = 2\nb = 3\n", string(out))

	again, err := TOML{}.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d", "a"}, mapping(t, again).Keys())
	assert.False(t, tree.Equal(doc, again))
	assert.True(t, tree.Equivalent(doc, again))
}

func TestTOML_Floats(t *testing.T) {
	doc := tree.NewMapping()
	doc.Set("whole", tree.NewFloat(2))
	doc.Set("pi", tree.NewFloat(3.14))
	doc.Set("nan", tree.NewFloat(math.NaN()))
	doc.Set("neg", tree.NewFloat(math.Inf(-1)))

	out, err := TOML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, "whole = 2.0\npi = 3.14\nnan = nan\nneg = -inf\n", string(out))

	again, err := TOML{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again))
}

func TestTOML_NullIsUnencodable(t *testing.T) {
	inner := tree.NewMapping()
	inner.Set("k", tree.NewNull())
	doc := tree.NewMapping()
	doc.Set("t", inner)

	_, err := TOML{}.Encode(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)

	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "$.t.k", ee.Location.String())
}

func TestTOML_ParseError(t *testing.T) {
	_, err := TOML{}.Decode([]byte("a = [1,"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "toml", pe.Format)
}

func TestTOML_Empty(t *testing.T) {
	doc, err := TOML{}.Decode(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, mapping(t, doc).Len())
}

func TestJSON_DecodeKeepsOrder(t *testing.T) {
	doc, err := JSON{}.Decode([]byte(`{"b": 1, "a": [true, null, 1.5, "s", 2.0], "c": {"z": 1, "y": 2}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, mapping(t, doc).Keys())
	assert.Equal(t, []string{"z", "y"}, mapping(t, get(t, doc, tree.Key("c"))).Keys())

	kinds := []tree.ScalarKind{tree.Bool, tree.Null, tree.Float, tree.String, tree.Float}
	for i, want := range kinds {
		s := get(t, doc, tree.Key("a"), tree.Index(i)).(*tree.Scalar)
		assert.Equal(t, want, s.ScalarKind(), "index %d", i)
	}
	assert.Equal(t, tree.Integer, get(t, doc, tree.Key("b")).(*tree.Scalar).ScalarKind())
}

func TestJSON_Encode(t *testing.T) {
	doc := tree.NewMapping()
	doc.Set("b", tree.NewInt(1))
	doc.Set("a", tree.NewString("x\"y"))

	out, err := JSON{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": \"x\\\"y\"\n}\n", string(out))
}

func TestJSON_RoundTrip(t *testing.T) {
	src := `{"name": "svc", "list": [1, 2.5, {"k": null}], "ok": false, "f": 3.0, "u": "é"}`
	doc, err := JSON{}.Decode([]byte(src))
	require.NoError(t, err)

	out, err := JSON{}.Encode(doc)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))

	again, err := JSON{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again))
}

func TestJSON_Errors(t *testing.T) {
	_, err := JSON{}.Decode([]byte(`{"a": `))
	assert.ErrorIs(t, err, ErrParse)

	doc := tree.NewMapping()
	doc.Set("x", tree.NewFloat(math.Inf(1)))
	_, err = JSON{}.Encode(doc)
	assert.ErrorIs(t, err, ErrEncode)
}

func TestMarshalCompact(t *testing.T) {
	doc := tree.NewMapping()
	doc.Set("v", tree.NewFloat(2))
	doc.Set("s", tree.NewSequence(tree.NewBool(true), tree.NewNull()))
	got, err := MarshalCompact(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2.0,"s":[true,null]}`, got)
}

func TestYAML_RoundTrip(t *testing.T) {
	src := "name: svc\nreplicas: 3\nratio: 0.5\nenabled: true\nnothing: null\nimage:\n  tag: \"1.0\"\n  repo: app\nwhen: 2001-12-14\n"
	doc, err := YAML{}.Decode([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "replicas", "ratio", "enabled", "nothing", "image", "when"}, mapping(t, doc).Keys())
	tag := get(t, doc, tree.Key("image"), tree.Key("tag")).(*tree.Scalar)
	assert.Equal(t, tree.String, tag.ScalarKind(), "quoted numbers stay strings")
	when := get(t, doc, tree.Key("when")).(*tree.Scalar)
	assert.Equal(t, tree.LocalDate, when.TimeKind())

	out, err := YAML{}.Encode(doc)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))

	again, err := YAML{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again))
}

func TestYAML_SequencesAndAliases(t *testing.T) {
	src := "base: &b\n  port: 80\ncopy: *b\nlist:\n  - a\n  - 2\n"
	doc, err := YAML{}.Decode([]byte(src))
	require.NoError(t, err)

	port := get(t, doc, tree.Key("copy"), tree.Key("port")).(*tree.Scalar)
	assert.Equal(t, int64(80), port.AsInt())

	out, err := YAML{}.Encode(doc)
	require.NoError(t, err)
	again, err := YAML{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again))
}

func TestYAML_EmptyAndInvalid(t *testing.T) {
	doc, err := YAML{}.Decode([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, mapping(t, doc).Len())

	_, err = YAML{}.Decode([]byte("a: [1, 2"))
	assert.ErrorIs(t, err, ErrParse)
}

func TestForName(t *testing.T) {
	for _, name := range []string{"toml", "TOML", "json", "yaml", "yml", "hcl"} {
		c, err := ForName(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, c.Name())
	}
	_, err := ForName("ini")
	assert.Error(t, err)
}

func TestForPath(t *testing.T) {
	tests := map[string]string{
		"Cargo.toml":        "toml",
		"package.json":      "json",
		"deploy.YAML":       "yaml",
		"ci/workflow.yml":   "yaml",
		"pyproject":         "toml",
		"settings.conf.txt": "toml",
		"prod.tfvars":       "hcl",
	}
	for path, want := range tests {
		assert.Equal(t, want, ForPath(path).Name(), path)
	}
}

const hclDoc = `region   = "us-east-1"
replicas = 3
ratio    = 0.5
offset   = -2
enabled  = true
nothing  = null
tags     = ["a", "b"]
labels = {
  team = "core"
  "cost center" = 42
}
`

func TestHCL_RoundTrip(t *testing.T) {
	doc, err := HCL{}.Decode([]byte(hclDoc))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"region", "replicas", "ratio", "offset", "enabled", "nothing", "tags", "labels"},
		mapping(t, doc).Keys())
	assert.Equal(t, []string{"team", "cost center"}, mapping(t, get(t, doc, tree.Key("labels"))).Keys())

	kinds := map[string]tree.ScalarKind{
		"region": tree.String, "replicas": tree.Integer, "ratio": tree.Float,
		"offset": tree.Integer, "enabled": tree.Bool, "nothing": tree.Null,
	}
	for key, want := range kinds {
		assert.Equal(t, want, get(t, doc, tree.Key(key)).(*tree.Scalar).ScalarKind(), key)
	}
	assert.Equal(t, int64(-2), get(t, doc, tree.Key("offset")).(*tree.Scalar).AsInt())

	out, err := HCL{}.Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `region   = "us-east-1"`)

	again, err := HCL{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again), "round trip:\n%s", out)
}

func TestHCL_WholeFloatStaysFloat(t *testing.T) {
	doc := tree.NewMapping()
	doc.Set("version", tree.NewFloat(2))
	doc.Set("delta", tree.NewFloat(-0.25))

	out, err := HCL{}.Encode(doc)
	require.NoError(t, err)
	again, err := HCL{}.Decode(out)
	require.NoError(t, err)
	assert.True(t, tree.Equal(doc, again), "round trip:\n%s", out)
}

func TestHCL_Unsupported(t *testing.T) {
	_, err := HCL{}.Decode([]byte("resource \"a\" \"b\" {\n}\n"))
	assert.ErrorIs(t, err, ErrParse, "blocks")

	_, err = HCL{}.Decode([]byte("x = var.region\n"))
	assert.ErrorIs(t, err, ErrParse, "references need an evaluation context")

	_, err = HCL{}.Decode([]byte("x = [1,\n"))
	assert.ErrorIs(t, err, ErrParse)

	doc := tree.NewMapping()
	doc.Set("not an identifier", tree.NewInt(1))
	_, err = HCL{}.Encode(doc)
	assert.ErrorIs(t, err, ErrEncode)

	doc = tree.NewMapping()
	doc.Set("x", tree.NewFloat(math.NaN()))
	_, err = HCL{}.Encode(doc)
	assert.ErrorIs(t, err, ErrEncode)
}
