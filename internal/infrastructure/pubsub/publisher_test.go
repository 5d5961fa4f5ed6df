package pubsub_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jhoicas/Farmacia-api/internal/domain/event"
	infrapubsub "github.com/jhoicas/Farmacia-api/internal/infrastructure/pubsub"
	"github.com/jhoicas/Farmacia-api/pkg/config"
)

func newTestPublisher(t *testing.T) (*infrapubsub.Publisher, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := infrapubsub.NewClient(ctx, config.PubSubConfig{ProjectID: "test-project"},
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	require.NoError(t, err)

	_, err = client.CreateTopic(ctx, "pharmacy-events")
	require.NoError(t, err)

	pub, err := infrapubsub.New(client, "pharmacy-events")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })
	return pub, srv
}

func TestPublisher_EnviaSobreConAtributoEvento(t *testing.T) {
	pub, srv := newTestPublisher(t)
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	err := pub.Publish(context.Background(), event.OrderCompleted{
		OrderID:       "ord-1",
		OrderNumber:   "INS-20250601100000-ABC123",
		CustomerID:    "cust-1",
		BranchID:      "branch-norte",
		Total:         decimal.RequireFromString("36.00"),
		LoyaltyPoints: 3,
		At:            at,
	})
	require.NoError(t, err)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, event.NameOrderCompleted, msgs[0].Attributes["event"])

	var env infrapubsub.Envelope
	require.NoError(t, json.Unmarshal(msgs[0].Data, &env))
	assert.Equal(t, event.NameOrderCompleted, env.Event)

	var payload event.OrderCompleted
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "ord-1", payload.OrderID)
	assert.Equal(t, int64(3), payload.LoyaltyPoints)
	assert.True(t, payload.Total.Equal(decimal.NewFromInt(36)), "total = %s", payload.Total)
}

func TestPublisher_VariosEventos(t *testing.T) {
	pub, srv := newTestPublisher(t)
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, event.TransferApproved{TransferID: "t-1", TransferNumber: "TRF-1"}))
	require.NoError(t, pub.Publish(ctx, event.LowStockReached{LocationID: "wh-a", ProductID: "prod-1"}))

	msgs := srv.Messages()
	require.Len(t, msgs, 2)
	names := []string{msgs[0].Attributes["event"], msgs[1].Attributes["event"]}
	assert.ElementsMatch(t, []string{event.NameTransferApproved, event.NameLowStockReached}, names)
}

func TestNew_ValidaArgumentos(t *testing.T) {
	_, err := infrapubsub.New(nil, "x")
	assert.Error(t, err)
	_, err = infrapubsub.NewWithTopic((*pubsub.Topic)(nil))
	assert.Error(t, err)
	_, err = infrapubsub.NewClient(context.Background(), config.PubSubConfig{})
	assert.Error(t, err, "sin project id no se abre cliente")
}
