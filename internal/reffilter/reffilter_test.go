package reffilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transition-pathways/climate-ingest/internal/tabular"
)

func TestFilter(t *testing.T) {
	parent := tabular.NewTable("company_name", "version")
	parent.Append("Acme", "5.0")
	parent.Append("Globex", "5.0")

	child := tabular.NewTable("company_name", "version", "response")
	child.Append("Acme", "5.0", "Yes")
	child.Append("Initech", "5.0", "No")
	child.Append("Globex", "4.0", "Yes")

	keys := NewKeySet(parent, "company_name", "version")
	assert.Equal(t, 2, keys.Len())

	valid, rejected := Filter(child, []string{"company_name", "version"}, keys)
	require.Equal(t, 1, valid.Len())
	assert.Equal(t, "Acme", valid.Value(0, "company_name"))
	require.Equal(t, 2, rejected.Len())
	assert.Equal(t, "Initech", rejected.Value(0, "company_name"))
}

func TestFilter_SingleColumn(t *testing.T) {
	parent := tabular.NewTable("trend_id")
	parent.Append("T1")

	child := tabular.NewTable("trend_id", "year", "value")
	child.Append("T1", 2021, 1.5)
	child.Append("T2", 2021, 2.5)

	valid, rejected := Filter(child, []string{"trend_id"}, NewKeySet(parent, "trend_id"))
	assert.Equal(t, 1, valid.Len())
	assert.Equal(t, 1, rejected.Len())
}

func TestFilter_EmptyChild(t *testing.T) {
	parent := tabular.NewTable("iso")
	parent.Append("FRA")

	child := tabular.NewTable("iso", "value")
	valid, rejected := Filter(child, []string{"iso"}, NewKeySet(parent, "iso"))
	assert.Equal(t, 0, valid.Len())
	assert.Equal(t, 0, rejected.Len())
}
