package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectMongoRejectsEmptyURI(t *testing.T) {
	_, err := ConnectMongo(context.Background(), "", time.Second)
	require.Error(t, err)
}

func TestConnectMongoRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := ConnectMongoRetry(ctx, "mongodb://127.0.0.1:1", 200*time.Millisecond, 3)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}
