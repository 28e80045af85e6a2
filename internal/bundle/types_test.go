package bundle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleReference(t *testing.T) {
	b := Bundle{
		References: []Item{
			{ID: "a1", Type: TypeClusterProperty, Name: "timeout"},
			{ID: "p1", Type: TypePolicy, Name: "audit-sink"},
		},
	}

	ref := b.Reference("p1")
	require.NotNil(t, ref)
	assert.Equal(t, "audit-sink", ref.Name)

	assert.Nil(t, b.Reference("missing"))
}

func TestMappingOutcomeExclusivity(t *testing.T) {
	m := Mapping{Type: TypePolicy, SrcID: "p1", Action: ActionNewOrExisting}
	assert.False(t, m.Resolved())

	m.SetOutcome(TakenCreatedNew, "p1")
	assert.True(t, m.Resolved())
	assert.Equal(t, TakenCreatedNew, m.ActionTaken)
	assert.Equal(t, "p1", m.TargetID)
	assert.Empty(t, m.ErrorType)
}

func TestMappingSetError(t *testing.T) {
	m := Mapping{Type: TypePolicy, SrcID: "p1", Action: ActionNewOrUpdate}

	m.SetError(ErrorTargetReadOnly, "policy p1 is read-only")

	assert.True(t, m.Resolved())
	assert.Equal(t, ErrorTargetReadOnly, m.ErrorType)
	assert.Equal(t, "policy p1 is read-only", m.Properties.ErrorMessage())
	assert.Empty(t, m.ActionTaken)
}

func TestMappingJSONRoundTrip(t *testing.T) {
	in := Mapping{
		Type:       TypePolicyAlias,
		SrcID:      "al1",
		SrcURI:     "/1.0/policyAliases/al1",
		Action:     ActionNewOrExisting,
		Properties: Properties{PropMapBy: MapByName, PropMapTo: "alias-name"},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Mapping
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestPropertiesDefaults(t *testing.T) {
	var p Properties // nil map

	assert.Equal(t, MapByID, p.MapBy())
	assert.Empty(t, p.MapTo())
	assert.False(t, p.FailOnNew())
	assert.Empty(t, p.ErrorMessage())
	assert.Nil(t, p.Clone())
}

func TestPropertiesAccessors(t *testing.T) {
	p := Properties{
		PropMapBy:     MapByName,
		PropMapTo:     "gateway.timeout",
		PropFailOnNew: "true",
	}

	assert.Equal(t, MapByName, p.MapBy())
	assert.Equal(t, "gateway.timeout", p.MapTo())
	assert.True(t, p.FailOnNew())

	clone := p.Clone()
	clone[PropMapTo] = "changed"
	assert.Equal(t, "gateway.timeout", p.MapTo())
}

func TestSubstitutions(t *testing.T) {
	subs := NewSubstitutions()

	_, ok := subs.Resolve("a1")
	assert.False(t, ok)

	subs.Register("a1", "b9")
	subs.Register("a2", "a2") // identity mapping is still recorded

	got, ok := subs.Resolve("a1")
	assert.True(t, ok)
	assert.Equal(t, "b9", got)

	got, ok = subs.Resolve("a2")
	assert.True(t, ok)
	assert.Equal(t, "a2", got)
}

func TestWellKnownID(t *testing.T) {
	assert.True(t, WellKnownID(RootFolderID))
	assert.True(t, WellKnownID(InternalIDProviderID))
	assert.False(t, WellKnownID("0000000000000000000000000000abcd"))
}

func TestNormalizeName(t *testing.T) {
	// U+00E9 (precomposed) vs U+0065 U+0301 (decomposed) must compare equal
	// after normalization.
	precomposed := "café"
	decomposed := "café"

	assert.NotEqual(t, precomposed, decomposed)
	assert.Equal(t, NormalizeName(precomposed), NormalizeName(decomposed))
}
