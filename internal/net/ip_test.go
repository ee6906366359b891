package net

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstIPv4IsAlwaysV4(t *testing.T) {
	ip := firstIPv4()
	require.NotNil(t, ip)
	assert.NotNil(t, ip.To4())
}

func TestGetOutgoingIPParses(t *testing.T) {
	s, err := GetOutgoingIP()
	require.NoError(t, err)
	assert.NotNil(t, net.ParseIP(s), s)
}
