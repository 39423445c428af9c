package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/httphelper/internal/endpoint"
	"github.com/handiism/httphelper/internal/helper"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want *endpoint.Endpoint
	}{
		{"1", Request1},
		{"2", Request2},
		{"getRequest3", Request3},
		{"GETREQUEST4", Request4},
	}
	for _, tt := range tests {
		got, err := Lookup(tt.name)
		require.NoError(t, err, tt.name)
		assert.Same(t, tt.want, got)
	}

	_, err := Lookup("5")
	assert.Error(t, err)
}

func TestDownloadIgnoresRegistry(t *testing.T) {
	h := helper.New()
	require.NoError(t, h.SetBaseURL(BaiduBaseURL))

	r := endpoint.Resolver{Domains: h.Domains()}
	plan := r.Resolve(Download)
	require.NotNil(t, plan.Origin)
	assert.Equal(t, DownloadOrigin, plan.Origin.String())
	assert.Equal(t, ResponseProgress1, plan.ResponseKey)
}
