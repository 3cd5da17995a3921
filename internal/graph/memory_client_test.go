package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_RecordsWritesAndSummaries(t *testing.T) {
	mem := NewMemoryClient()
	mem.PushSummary(Summary{NodesCreated: 2, PropertiesSet: 6})

	params := map[string]any{"binId": "b_101"}
	s, err := mem.ExecuteWrite(context.Background(), "MERGE (b:Bin {id: $binId})", params)
	require.NoError(t, err)
	assert.Equal(t, 2, s.NodesCreated)

	params["binId"] = "mutated"
	writes := mem.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "b_101", writes[0].Params["binId"], "params are copied on write")

	s, err = mem.ExecuteWrite(context.Background(), "RETURN 1", nil)
	require.NoError(t, err)
	assert.Zero(t, s)
}

func TestMemoryClient_Errors(t *testing.T) {
	boom := errors.New("unavailable")
	mem := NewMemoryClient().WithError(boom).WithConnectivityError(boom)

	_, err := mem.ExecuteWrite(context.Background(), "RETURN 1", nil)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, mem.Writes())
	assert.ErrorIs(t, mem.VerifyConnectivity(context.Background()), boom)

	require.NoError(t, mem.Close(context.Background()))
	assert.True(t, mem.Closed())
}

func TestNewNeo4jClient_RequiresURI(t *testing.T) {
	_, err := NewNeo4jClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingURI)
}
