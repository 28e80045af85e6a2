package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleValidation(t *testing.T) {
	tests := []struct {
		name     string
		bundle   Bundle
		wantErrs int
		errField string // Expected field in first error (for specific checks)
	}{
		{
			name: "valid minimal bundle",
			bundle: Bundle{
				References: []Item{
					{ID: "a1", Type: TypeClusterProperty, Name: "timeout"},
				},
				Mappings: []Mapping{
					{Type: TypeClusterProperty, SrcID: "a1", Action: ActionNewOrExisting},
				},
			},
			wantErrs: 0,
		},
		{
			name: "valid delete with no reference item",
			bundle: Bundle{
				Mappings: []Mapping{
					{Type: TypePolicy, SrcID: "p1", Action: ActionDelete},
				},
			},
			wantErrs: 0,
		},
		{
			name: "missing type",
			bundle: Bundle{
				Mappings: []Mapping{
					{SrcID: "a1", Action: ActionIgnore},
				},
			},
			wantErrs: 1,
			errField: "mappings[0].type",
		},
		{
			name: "missing srcId",
			bundle: Bundle{
				Mappings: []Mapping{
					{Type: TypePolicy, Action: ActionIgnore},
				},
			},
			wantErrs: 1,
			errField: "mappings[0].srcId",
		},
		{
			name: "unknown action",
			bundle: Bundle{
				Mappings: []Mapping{
					{Type: TypePolicy, SrcID: "p1", Action: "Upsert"},
				},
			},
			wantErrs: 1,
			errField: "mappings[0].action",
		},
		{
			name: "unknown MapBy",
			bundle: Bundle{
				Mappings: []Mapping{
					{
						Type: TypePolicy, SrcID: "p1", Action: ActionNewOrExisting,
						Properties: Properties{PropMapBy: "uri"},
					},
				},
			},
			wantErrs: 1,
			errField: "mappings[0].properties.MapBy",
		},
		{
			name: "duplicate srcId",
			bundle: Bundle{
				Mappings: []Mapping{
					{Type: TypePolicy, SrcID: "p1", Action: ActionNewOrExisting},
					{Type: TypePolicy, SrcID: "p1", Action: ActionNewOrUpdate},
				},
			},
			wantErrs: 1,
			errField: "mappings[1].srcId",
		},
		{
			name: "pre-resolved mapping rejected",
			bundle: Bundle{
				Mappings: []Mapping{
					{Type: TypePolicy, SrcID: "p1", Action: ActionNewOrExisting, ActionTaken: TakenCreatedNew},
				},
			},
			wantErrs: 1,
			errField: "mappings[0]",
		},
		{
			name: "reference without id and type",
			bundle: Bundle{
				References: []Item{{Name: "orphan"}},
			},
			wantErrs: 2,
			errField: "references[0].id",
		},
		{
			name: "multiple errors collected",
			bundle: Bundle{
				Mappings: []Mapping{
					{Action: "Bogus"},
				},
			},
			wantErrs: 3, // missing type, missing srcId, unknown action
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.bundle.Validate()
			assert.Len(t, errs, tt.wantErrs)
			if tt.errField != "" {
				require.NotEmpty(t, errs)
				assert.Equal(t, tt.errField, errs[0].Field)
			}
		})
	}
}

func TestValidationErrorString(t *testing.T) {
	err := ValidationError{Field: "mappings[3].srcId", Message: "source id is required"}
	assert.Equal(t, "mappings[3].srcId: source id is required", err.Error())
}
