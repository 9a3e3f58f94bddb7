package stats

import (
	"fmt"
	"strings"
	"testing"

	"file2ddl/internal/detect"
	"file2ddl/internal/lattice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustDetector(t testing.TB, opt detect.Options) *detect.Detector {
	t.Helper()
	d, err := detect.New(opt)
	require.NoError(t, err)
	return d
}

func TestAggregator_IntegerPromotion(t *testing.T) {
	t.Parallel()

	d := mustDetector(t, detect.Options{TrueLiteral: "true", FalseLiteral: "false"})
	var seen []Promotion
	agg := NewAggregator([]string{"n"}, d, func(_ string, p Promotion) { seen = append(seen, p) })

	require.NoError(t, agg.Observe(1, []string{"1"}, nil))
	assert.Equal(t, lattice.Of(lattice.SmallInt), agg.cols[0].Type())
	require.NoError(t, agg.Observe(2, []string{"2"}, nil))
	assert.Equal(t, lattice.Of(lattice.SmallInt), agg.cols[0].Type())
	require.NoError(t, agg.Observe(3, []string{"40000"}, nil))

	snap := agg.Snapshot()[0]
	assert.Equal(t, lattice.Of(lattice.Integer), snap.Type)
	assert.Equal(t, lattice.Of(lattice.SmallInt), snap.InitialType)
	assert.EqualValues(t, 1, snap.InitialRow)
	require.Len(t, snap.Promotions, 1)
	assert.Equal(t, Promotion{Row: 3, From: lattice.Of(lattice.SmallInt), To: lattice.Of(lattice.Integer)}, snap.Promotions[0])
	assert.Equal(t, snap.Promotions, seen)
}

func TestAggregator_BooleanLiteralsStay(t *testing.T) {
	t.Parallel()

	d := mustDetector(t, detect.Options{TrueLiteral: "true", FalseLiteral: "false"})
	agg := NewAggregator([]string{"flag"}, d, nil)
	require.NoError(t, agg.Observe(1, []string{"true"}, nil))
	require.NoError(t, agg.Observe(2, []string{"false"}, nil))

	snap := agg.Snapshot()[0]
	assert.Equal(t, lattice.Of(lattice.Boolean), snap.Type)
	assert.Empty(t, snap.Promotions)
}

func TestAggregator_NullsCountedNotTyped(t *testing.T) {
	t.Parallel()

	agg := NewAggregator([]string{"id", "name"}, mustDetector(t, detect.Options{}), nil)
	require.NoError(t, agg.Observe(1, []string{"1", "Alice"}, []bool{false, false}))
	require.NoError(t, agg.Observe(2, []string{"2", ""}, []bool{false, true}))

	name := agg.Snapshot()[1]
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, lattice.VarcharOf(5), name.Type)
	assert.EqualValues(t, 1, name.NullCount)
	assert.EqualValues(t, 2, name.Total)
	assert.True(t, name.Nullable())
	assert.InDelta(t, 50.0, name.NullPercent(), 0.001)
	assert.EqualValues(t, 1, name.FirstRow)
	assert.EqualValues(t, 2, name.LastRow)
}

func TestAggregator_AllNullColumn(t *testing.T) {
	t.Parallel()

	agg := NewAggregator([]string{"x"}, mustDetector(t, detect.Options{}), nil)
	require.NoError(t, agg.Observe(1, []string{""}, []bool{true}))

	snap := agg.Snapshot()[0]
	assert.Equal(t, lattice.VarcharOf(1), snap.Type)
	assert.True(t, snap.Nullable())
}

func TestAggregator_EmptyStreamIsNullable(t *testing.T) {
	t.Parallel()

	agg := NewAggregator([]string{"x"}, mustDetector(t, detect.Options{}), nil)
	snap := agg.Snapshot()[0]
	assert.True(t, snap.Nullable())
	assert.Zero(t, snap.NullPercent())
}

func TestAggregator_WidthMismatch(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(SyntheticNames(2), mustDetector(t, detect.Options{}), nil)
	err := agg.Observe(7, []string{"a"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 7")
}

func TestAggregator_TemporalToVarcharUsesMaxLength(t *testing.T) {
	t.Parallel()

	agg := NewAggregator([]string{"d"}, mustDetector(t, detect.Options{}), nil)
	require.NoError(t, agg.Observe(1, []string{"2024-01-31"}, nil))
	require.NoError(t, agg.Observe(2, []string{"5"}, nil))

	snap := agg.Snapshot()[0]
	assert.Equal(t, lattice.VarcharOf(10), snap.Type)
	require.Len(t, snap.Promotions, 1)
	assert.Equal(t, lattice.Date, snap.Promotions[0].From.Kind)
}

func TestColumnState_SamplesBounded(t *testing.T) {
	t.Parallel()

	c := NewColumnState("c")
	for i := 0; i < MaxDistinct+500; i++ {
		v := fmt.Sprintf("v%d", i)
		c.Observe(int64(i+1), v, lattice.VarcharOf(len(v)))
	}
	c.Observe(99999, "v0", lattice.VarcharOf(2))

	snap := c.Snapshot()
	assert.Len(t, snap.Samples, MaxSamples)
	assert.Equal(t, "v0", snap.Samples[0])
	assert.Equal(t, MaxDistinct, snap.Distinct)
}

func TestColumnState_MinMax(t *testing.T) {
	t.Parallel()

	c := NewColumnState("c")
	c.ObserveNull(1)
	for i, v := range []string{"pear", "apple", "Zebra", "pear", "banana"} {
		c.Observe(int64(i+2), v, lattice.VarcharOf(len(v)))
	}
	snap := c.Snapshot()
	assert.Equal(t, "Zebra", snap.Min, "ordering is bytewise")
	assert.Equal(t, "pear", snap.Max)

	nulls := NewColumnState("n")
	nulls.ObserveNull(1)
	assert.Empty(t, nulls.Snapshot().Min)
	assert.Empty(t, nulls.Snapshot().Max)

	empty := NewColumnState("e")
	empty.Observe(1, "b", lattice.VarcharOf(1))
	empty.Observe(2, "", lattice.VarcharOf(0))
	assert.Equal(t, "", empty.Snapshot().Min)
	assert.Equal(t, "b", empty.Snapshot().Max)
}

func TestColumnState_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	c := NewColumnState("c")
	c.Observe(1, "a", lattice.VarcharOf(1))
	snap := c.Snapshot()
	snap.Samples[0] = "mutated"
	assert.Equal(t, "a", c.Snapshot().Samples[0])
}

func TestSyntheticNames(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"F1", "F2", "F3"}, SyntheticNames(3))
}

// fixedClassifier returns a preassigned type per value.
type fixedClassifier map[string]lattice.Type

func (f fixedClassifier) Detect(v string) lattice.Type { return f[v] }

func genObservation() *rapid.Generator[lattice.Type] {
	return rapid.Custom(func(t *rapid.T) lattice.Type {
		k := rapid.SampledFrom(lattice.Kinds()).Draw(t, "kind")
		if k == lattice.Varchar {
			return lattice.VarcharOf(rapid.IntRange(1, 40).Draw(t, "len"))
		}
		return lattice.Of(k)
	})
}

// valueFor produces a distinct value whose byte length matches Varchar
// observations, so max length stays consistent with the classification.
func valueFor(i int, t lattice.Type) string {
	if t.Kind == lattice.Varchar {
		return fmt.Sprintf("%d:%s", i, strings.Repeat("x", t.Length))
	}
	return fmt.Sprintf("%d", i)
}

func TestColumnState_OrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obs := rapid.SliceOfN(genObservation(), 1, 30).Draw(t, "obs")
		perm := rapid.Permutation(obs).Draw(t, "perm")

		run := func(in []lattice.Type) lattice.Type {
			cls := fixedClassifier{}
			vals := make([]string, len(in))
			for i, o := range in {
				vals[i] = valueFor(i, o)
				cls[vals[i]] = o
			}
			agg := NewAggregator([]string{"c"}, cls, nil)
			for i, v := range vals {
				_ = agg.Observe(int64(i+1), []string{v}, nil)
			}
			return agg.Snapshot()[0].Type
		}

		a, b := run(obs), run(perm)
		if a.Kind != b.Kind {
			t.Fatalf("kind depends on order: %v vs %v", a, b)
		}
	})
}

func TestColumnState_PromotionsMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		obs := rapid.SliceOfN(genObservation(), 1, 50).Draw(t, "obs")
		c := NewColumnState("c")
		for i, o := range obs {
			c.Observe(int64(i+1), valueFor(i, o), o)
		}
		prev := c.Snapshot().InitialType.Kind.Rank()
		for _, p := range c.Snapshot().Promotions {
			if p.To.Kind.Rank() < p.From.Kind.Rank() || p.To.Kind.Rank() < prev {
				t.Fatalf("promotion lowered rank: %+v", p)
			}
			prev = p.To.Kind.Rank()
		}
	})
}

var benchmarkSink []Snapshot

func BenchmarkAggregator_Observe(b *testing.B) {
	d := mustDetector(b, detect.Options{})
	agg := NewAggregator([]string{"id", "amount", "when", "note"}, d, nil)
	row := []string{"12345", "19.99", "2024-01-31", "some free text"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = agg.Observe(int64(i+1), row, nil)
	}
	benchmarkSink = agg.Snapshot()
}
