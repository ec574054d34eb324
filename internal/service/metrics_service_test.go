package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetricsServiceDelegates(t *testing.T) {
	authorities := newFakeAuthorityRepo()
	svc := NewMetricsService(authorities, zap.NewNop())

	require.NoError(t, svc.OnAssigned(context.Background(), "auth-1"))
	require.NoError(t, svc.OnAssigned(context.Background(), "auth-1"))
	require.NoError(t, svc.OnResolved(context.Background(), "auth-1"))
	require.NoError(t, svc.Rebuild(context.Background(), "auth-1"))

	assert.Equal(t, 2, authorities.assigned["auth-1"])
	assert.Equal(t, 1, authorities.resolved["auth-1"])
	assert.Equal(t, 1, authorities.rebuilt["auth-1"])
}

func TestResolutionMinutes(t *testing.T) {
	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(30 * time.Minute)
	resolved := created.Add(2 * time.Hour)

	assert.Equal(t, int64(90), resolutionMinutes(created, &started, resolved))
	assert.Equal(t, int64(120), resolutionMinutes(created, nil, resolved))

	// resolution timestamps never go negative even with clock skew
	assert.Equal(t, int64(0), resolutionMinutes(created, &started, created))
}
