package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tabclean/internal/table"
)

func TestImpute_MedianProperty(t *testing.T) {
	in := table.MustNew(table.NewFloat("x", 4.0, nil, 1.0, nil, 10.0, 2.0))
	out, err := Impute(in, ImputeOptions{})
	require.NoError(t, err)

	x, _ := out.Column("x")
	assert.Zero(t, x.MissingCount())
	assert.Equal(t, 3.0, x.Values[1])
	assert.Equal(t, 3.0, x.Values[3])

	orig, _ := in.Column("x")
	assert.Equal(t, 2, orig.MissingCount(), "copy variant leaves input alone")
}

func TestImpute_IntRounding(t *testing.T) {
	tb := table.MustNew(
		table.NewInt("median", 1, 2, nil),
		table.NewInt("mean", 1, 2, 2, nil),
		table.NewInt("neg", -1, -2, nil),
	)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Columns: []string{"median", "neg"}}))
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Columns: []string{"mean"}, Numeric: Mean{}}))

	m, _ := tb.Column("median")
	assert.Equal(t, int64(2), m.Values[2], "1.5 rounds away from zero")
	n, _ := tb.Column("neg")
	assert.Equal(t, int64(-2), n.Values[2])
	mean, _ := tb.Column("mean")
	assert.Equal(t, int64(2), mean.Values[3])
}

func TestImpute_NumericConstantAndAllMissing(t *testing.T) {
	tb := table.MustNew(
		table.NewFloat("empty", nil, nil),
		table.NewFloat("c", nil, 1.0),
	)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Columns: []string{"empty"}}))
	e, _ := tb.Column("empty")
	assert.Equal(t, 2, e.MissingCount(), "median of nothing is a no-op")

	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Numeric: NumericConstant{Value: -1}}))
	e, _ = tb.Column("empty")
	assert.Equal(t, []any{-1.0, -1.0}, e.Values)
	c, _ := tb.Column("c")
	assert.Equal(t, []any{-1.0, 1.0}, c.Values)
}

func TestImpute_TextMode(t *testing.T) {
	tb := table.MustNew(table.NewText("s", "b", "a", nil, "a", "b"))
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{}))
	s, _ := tb.Column("s")
	assert.Equal(t, "b", s.Values[2], "tie goes to the first value seen")
}

func TestImpute_CategoricalModeUsesLevelOrder(t *testing.T) {
	c := table.NewCategorical("size", "L", "S", nil, "S", "L")
	c.SetLevels([]string{"S", "M", "L"}, true)
	tb := table.MustNew(c)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{}))
	assert.Equal(t, "S", c.Values[2])
}

func TestImpute_NewLevel(t *testing.T) {
	tb := table.MustNew(
		table.NewCategorical("cat", "x", nil),
		table.NewText("txt", "y", nil),
	)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Categorical: NewLevel{Label: "NA"}}))

	cat, _ := tb.Column("cat")
	assert.Equal(t, []string{"x", "NA"}, cat.Levels)
	assert.Equal(t, []any{"x", "NA"}, cat.Values)

	txt, _ := tb.Column("txt")
	assert.Equal(t, []any{"y", "NA"}, txt.Values)
	assert.Nil(t, txt.Levels)
}

func TestImpute_TextConstantOnCategorical(t *testing.T) {
	tb := table.MustNew(table.NewCategorical("cat", "x", nil))
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Categorical: TextConstant{Value: "x"}}))
	cat, _ := tb.Column("cat")
	assert.Equal(t, []string{"x"}, cat.Levels)
	assert.Equal(t, []any{"x", "x"}, cat.Values)
}

func TestImpute_Majority(t *testing.T) {
	tb := table.MustNew(
		table.NewBool("tie", true, false, nil),
		table.NewBool("f", false, false, true, nil),
		table.NewBool("none", nil, nil, nil, nil),
	)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{}))

	tie, _ := tb.Column("tie")
	assert.Equal(t, true, tie.Values[2])
	f, _ := tb.Column("f")
	assert.Equal(t, false, f.Values[3])
	none, _ := tb.Column("none")
	assert.Equal(t, 4, none.MissingCount())
}

func TestImpute_SelectionAndExclude(t *testing.T) {
	tb := table.MustNew(
		table.NewFloat("a", nil, 1.0),
		table.NewFloat("b", nil, 1.0),
	)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Columns: []string{"a", "b", "a"}, Exclude: []string{"b"}}))
	a, _ := tb.Column("a")
	b, _ := tb.Column("b")
	assert.Zero(t, a.MissingCount())
	assert.Equal(t, 1, b.MissingCount())

	err := ImputeInPlace(tb, ImputeOptions{Columns: []string{"zzz"}})
	var nf *ColumnNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zzz", nf.Column)
}

func TestImpute_VerboseLogsInColumnOrder(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tb := table.MustNew(
		table.NewFloat("a", nil, 2.0),
		table.NewText("b", "x", nil),
		table.NewFloat("full", 1.0, 2.0),
	)
	require.NoError(t, ImputeInPlace(tb, ImputeOptions{Verbose: true, Logger: zap.New(core)}))

	info := logs.FilterMessage("imputed column").All()
	require.Len(t, info, 2)
	assert.Equal(t, "a", info[0].ContextMap()["column"])
	assert.Equal(t, "median", info[0].ContextMap()["method"])
	assert.Equal(t, int64(1), info[0].ContextMap()["missing_before"])
	assert.Equal(t, int64(0), info[0].ContextMap()["missing_after"])
	assert.Equal(t, "b", info[1].ContextMap()["column"])

	assert.Equal(t, 1, logs.FilterMessage("impute: column type not handled").Len())
}
