package vote

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	for _, in := range []string{"approve", "like", " LIKE ", "yes"} {
		v, err := ParseValue(in)
		require.NoError(t, err, in)
		require.Equal(t, Approve, v)
	}
	for _, in := range []string{"reject", "dislike", "no"} {
		v, err := ParseValue(in)
		require.NoError(t, err, in)
		require.Equal(t, Reject, v)
	}
	_, err := ParseValue("maybe")
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestTable_SetOverwrites(t *testing.T) {
	tbl := Table{}
	tbl.Set("u1", "A", Approve)
	tbl.Set("u1", "A", Approve)
	v, ok := tbl.Get("u1", "A")
	require.True(t, ok)
	require.Equal(t, Approve, v)

	tbl.Set("u1", "A", Reject)
	v, _ = tbl.Get("u1", "A")
	require.Equal(t, Reject, v)
	require.Len(t, tbl["u1"], 1)

	_, ok = tbl.Get("u2", "A")
	require.False(t, ok)
}

func TestTable_CloneIsDeep(t *testing.T) {
	tbl := Table{}
	tbl.Set("u1", "A", Approve)
	cp := tbl.Clone()
	cp.Set("u1", "A", Reject)
	cp.Set("u2", "B", Approve)

	v, _ := tbl.Get("u1", "A")
	require.Equal(t, Approve, v)
	require.Equal(t, []string{"u1"}, tbl.Voters())
}
