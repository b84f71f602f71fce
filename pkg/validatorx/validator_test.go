package validatorx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleRecord struct {
	Name  string `validate:"required,min=3,max=10"`
	Email string `validate:"omitempty,email"`
}

func TestValidate_ValidRecord(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(sampleRecord{Name: "alice", Email: "alice@example.com"}))
	require.NoError(t, v.Validate(sampleRecord{Name: "bob"}), "optional email may be empty")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	v := New()

	err := v.Validate(sampleRecord{Name: "", Email: "not-an-email"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 2, "both violations should be reported together")

	msg := ve.Error()
	require.Contains(t, msg, "Name")
	require.Contains(t, msg, "Email")
}

func TestValidate_LengthBounds(t *testing.T) {
	v := New()

	err := v.Validate(sampleRecord{Name: "ab"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "min", ve.Violations[0].Tag)

	err = v.Validate(sampleRecord{Name: "waytoolongname"})
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "max", ve.Violations[0].Tag)
}
