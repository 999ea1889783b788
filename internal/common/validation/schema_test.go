package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["name", "email"],
	"properties": {
		"name":  {"type": "string", "minLength": 1},
		"email": {"type": "string"},
		"count": {"type": "integer", "minimum": 0}
	}
}`

func TestSchema_Validate(t *testing.T) {
	s := MustCompile(testSchema)

	tests := []struct {
		name      string
		doc       map[string]interface{}
		valid     bool
		badFields []string
	}{
		{
			name:  "valid",
			doc:   map[string]interface{}{"name": "Asha", "email": "asha@example.com"},
			valid: true,
		},
		{
			name:      "missing email",
			doc:       map[string]interface{}{"name": "Asha"},
			badFields: []string{"email"},
		},
		{
			name:      "empty name and negative count",
			doc:       map[string]interface{}{"name": "", "email": "x", "count": -1},
			badFields: []string{"name", "count"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			for _, f := range tt.badFields {
				assert.True(t, res.HasErrors(f), "expected error on %s, got %v", f, res.GetErrorMessages())
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}

func TestFormatHelpers(t *testing.T) {
	assert.True(t, ValidateEmail("export@savita.example"))
	assert.False(t, ValidateEmail("not-an-email"))
	assert.True(t, ValidatePhone("+91 9506943134"))
	assert.False(t, ValidatePhone("123"))
}
