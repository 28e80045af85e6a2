package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaykit/portage/internal/bundle"
)

func TestLoadBundleValid(t *testing.T) {
	result, errs := LoadBundle(filepath.Join("testdata", "bundle-valid.yaml"), LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, result)
	require.NotNil(t, result.Bundle)

	assert.Len(t, result.Bundle.References, 2)
	require.Len(t, result.Bundle.Mappings, 2)
	assert.Equal(t, bundle.ActionNewOrExisting, result.Bundle.Mappings[0].Action)
	assert.Equal(t, bundle.TypePolicy, result.Bundle.Mappings[1].Type)
}

func TestLoadBundleJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.json")
	doc := `{
		"references": [
			{"id": "aaaa0001aaaa0001aaaa0001aaaa0001", "type": "FOLDER", "name": "transit"}
		],
		"mappings": [
			{"type": "FOLDER", "srcId": "aaaa0001aaaa0001aaaa0001aaaa0001", "action": "NewOrExisting"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	result, errs := LoadBundle(path, LoadModeCollectAll)
	require.Empty(t, errs)
	require.Len(t, result.Bundle.Mappings, 1)
	assert.Equal(t, "aaaa0001aaaa0001aaaa0001aaaa0001", result.Bundle.Mappings[0].SrcID)
}

func TestLoadBundleNotFound(t *testing.T) {
	_, errs := LoadBundle("/nonexistent/bundle.yaml", LoadModeCollectAll)
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadBundleUnparseable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mappings: [}"), 0o644))

	_, errs := LoadBundle(path, LoadModeCollectAll)
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeParseFailed, loadErr.Code)
}

func TestParseBundleRejectsUnknownAction(t *testing.T) {
	doc := `
mappings:
  - type: POLICY
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: Upsert
`
	_, errs := ParseBundle([]byte(doc), LoadModeCollectAll)
	require.NotEmpty(t, errs)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSchema, loadErr.Code)
}

func TestParseBundleRejectsResolvedDocument(t *testing.T) {
	// A document that already carries outcomes is an export of a previous
	// import report, not an importable bundle.
	doc := `
mappings:
  - type: POLICY
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: NewOrExisting
    actionTaken: CreatedNew
`
	_, errs := ParseBundle([]byte(doc), LoadModeCollectAll)
	require.NotEmpty(t, errs)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeSchema, loadErr.Code)
}

func TestParseBundleCollectsSemanticErrors(t *testing.T) {
	// Duplicate srcId and a reference without a type pass the schema but
	// fail semantic validation; both are reported.
	doc := `
references:
  - id: aaaa0001aaaa0001aaaa0001aaaa0001
    type: FOLDER
    name: transit
mappings:
  - type: FOLDER
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: NewOrExisting
  - type: FOLDER
    srcId: aaaa0001aaaa0001aaaa0001aaaa0001
    action: NewOrExisting
`
	result, errs := ParseBundle([]byte(doc), LoadModeCollectAll)
	require.NotNil(t, result)
	require.NotEmpty(t, errs)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalid, loadErr.Code)
}

func TestParseBundleFailFastStopsEarly(t *testing.T) {
	doc := `
mappings:
  - type: ""
    srcId: ""
    action: NewOrExisting
`
	_, errs := ParseBundle([]byte(doc), LoadModeFailFast)
	require.Len(t, errs, 1)
}

func TestParseBundleEmptyDocument(t *testing.T) {
	_, errs := ParseBundle([]byte(""), LoadModeCollectAll)
	require.Len(t, errs, 1)

	loadErr, ok := errs[0].(*LoadError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeParseFailed, loadErr.Code)
}
