package models

import (
	"database/sql/driver"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSlice_Value(t *testing.T) {
	tests := []struct {
		name    string
		s       StringSlice
		wantVal driver.Value
	}{
		{name: "nil slice", s: nil, wantVal: "[]"},
		{name: "empty slice", s: StringSlice{}, wantVal: "[]"},
		{name: "options", s: StringSlice{"Blue", "Red", "Green", "Yellow"}, wantVal: `["Blue","Red","Green","Yellow"]`},
		{name: "quotes and separators", s: StringSlice{`say "hi"`, "a|||b"}, wantVal: `["say \"hi\"","a|||b"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.s.Value()
			require.NoError(t, err)
			assert.Equal(t, tt.wantVal, got)
		})
	}
}

func TestStringSlice_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    StringSlice
		wantErr bool
	}{
		{name: "nil", value: nil, want: StringSlice{}},
		{name: "empty string", value: "", want: StringSlice{}},
		{name: "json null", value: "null", want: StringSlice{}},
		{name: "string", value: `["Blue","Red"]`, want: StringSlice{"Blue", "Red"}},
		{name: "bytes", value: []byte(`["Blue"]`), want: StringSlice{"Blue"}},
		{name: "unsupported type", value: 42, wantErr: true},
		{name: "invalid json", value: "Blue|||Red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s StringSlice
			err := s.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}
