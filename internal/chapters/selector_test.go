package chapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(recs []Record) []int {
	out := []int{}
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestResolveRangeReportsMissing(t *testing.T) {
	resolved, missing, err := Resolve(catalogOf(1, 2, 3, 5), Range(1, 5))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 5}, ids(resolved))
	assert.Equal(t, []int{4}, missing)
}

func TestResolveSingleMissing(t *testing.T) {
	resolved, missing, err := Resolve(catalogOf(1, 2, 3), Single(9))
	require.NoError(t, err)

	assert.Empty(t, resolved)
	assert.Equal(t, []int{9}, missing)
}

func TestResolveSingle(t *testing.T) {
	resolved, missing, err := Resolve(catalogOf(1, 2, 3), Single(2))
	require.NoError(t, err)

	require.Len(t, resolved, 1)
	assert.Equal(t, 12, resolved[0].Pages)
	assert.Empty(t, missing)
}

func TestResolveAllKeepsCatalogOrder(t *testing.T) {
	resolved, missing, err := Resolve(catalogOf(3, 1, 2), All())
	require.NoError(t, err)

	assert.Equal(t, []int{3, 1, 2}, ids(resolved))
	assert.Empty(t, missing)
}

func TestResolveRangeClampedToCatalog(t *testing.T) {
	c := catalogOf(3, 4, 6)

	resolved, missing, err := Resolve(c, Range(1, 2000000000))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 6}, ids(resolved))
	assert.Equal(t, []int{5}, missing)
	assert.Equal(t, 2+(2000000000-6), OutOfBounds(c, Range(1, 2000000000)))

	resolved, missing, err = Resolve(c, Range(8, 10))
	require.NoError(t, err)
	assert.Empty(t, resolved)
	assert.Empty(t, missing)
	assert.Equal(t, 3, OutOfBounds(c, Range(8, 10)))

	assert.Equal(t, 0, OutOfBounds(c, Range(3, 6)))
	assert.Equal(t, 0, OutOfBounds(c, Single(9)))
}

func TestResolveEmptyCatalog(t *testing.T) {
	_, _, err := Resolve(NewCatalog(), All())
	assert.ErrorIs(t, err, ErrCatalogEmpty)

	_, _, err = Resolve(nil, Range(1, 2))
	assert.ErrorIs(t, err, ErrCatalogEmpty)
}

func TestParseSelector(t *testing.T) {
	sel, err := ParseSelector(nil)
	require.NoError(t, err)
	assert.Equal(t, All(), sel)

	sel, err = ParseSelector([]string{"10"})
	require.NoError(t, err)
	assert.Equal(t, Single(10), sel)

	sel, err = ParseSelector([]string{"10", " 20"})
	require.NoError(t, err)
	assert.Equal(t, Range(10, 20), sel)
	assert.Equal(t, "chapters 10-20", sel.String())
}

func TestParseSelectorMalformed(t *testing.T) {
	for _, args := range [][]string{
		{"ten"},
		{"1", "x"},
		{"-3"},
		{"20", "10"},
		{"1", "2", "3"},
	} {
		_, err := ParseSelector(args)
		assert.ErrorIs(t, err, ErrMalformedInput, "%v", args)
	}
}
