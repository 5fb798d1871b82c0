package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoagenda/internal/scheduling"
)

func TestGetIntArg(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]interface{}
		want    int
		wantErr bool
	}{
		{name: "missing uses default", args: map[string]interface{}{}, want: 60},
		{name: "nil uses default", args: map[string]interface{}{"n": nil}, want: 60},
		{name: "json number", args: map[string]interface{}{"n": float64(90)}, want: 90},
		{name: "int", args: map[string]interface{}{"n": 30}, want: 30},
		{name: "numeric string", args: map[string]interface{}{"n": " 45 "}, want: 45},
		{name: "empty string uses default", args: map[string]interface{}{"n": ""}, want: 60},
		{name: "fraction", args: map[string]interface{}{"n": 1.5}, wantErr: true},
		{name: "word", args: map[string]interface{}{"n": "ninety"}, wantErr: true},
		{name: "bool", args: map[string]interface{}{"n": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetIntArg(tt.args, "n", 60)
			if tt.wantErr {
				assert.ErrorIs(t, err, scheduling.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringArgs(t *testing.T) {
	args := map[string]interface{}{
		"name":  "  Maria ",
		"blank": "   ",
		"num":   42.0,
	}

	assert.Equal(t, "Maria", GetStringArg(args, "name"))
	assert.Equal(t, "", GetStringArg(args, "num"), "non-strings are ignored")
	assert.Equal(t, "", GetStringArg(args, "missing"))

	v, err := RequireStringArg(args, "name")
	require.NoError(t, err)
	assert.Equal(t, "Maria", v)

	_, err = RequireStringArg(args, "blank")
	assert.ErrorIs(t, err, scheduling.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "blank is required")
}
