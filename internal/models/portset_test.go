package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNewPortSet(t *testing.T) {
	s := NewPortSet(443, 22, 80, 22, -1, 70000, 0)

	assert.Equal(t, []int{0, 22, 80, 443}, s.Ports())
	assert.True(t, s.Contains(80))
	assert.False(t, s.Contains(8080))
	assert.True(t, s.ContainsAny(1, 443))
	assert.Equal(t, "0, 22, 80, 443", s.String())
}

func TestPortSetEmpty(t *testing.T) {
	var s PortSet
	assert.True(t, s.IsEmpty())
	assert.Equal(t, "None", s.String())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestPortRange(t *testing.T) {
	s := PortRange(1, 1024)
	assert.Equal(t, 1024, s.Len())
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(1024))
	assert.False(t, s.Contains(0))
	assert.True(t, PortRange(5, 1).IsEmpty())
}

func TestPortSetPortsIsCopy(t *testing.T) {
	s := NewPortSet(22, 80)
	p := s.Ports()
	p[0] = 9999
	assert.Equal(t, []int{22, 80}, s.Ports())
}

func TestPortSetUnmarshalNormalises(t *testing.T) {
	var s PortSet
	require.NoError(t, json.Unmarshal([]byte(`[443, 22, 22, 80]`), &s))
	assert.Equal(t, []int{22, 80, 443}, s.Ports())

	var y PortSet
	require.NoError(t, yaml.Unmarshal([]byte("[8080, 21]"), &y))
	assert.Equal(t, []int{21, 8080}, y.Ports())
}
