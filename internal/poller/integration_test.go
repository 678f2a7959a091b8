package poller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/esdaly/storefront/internal/domain"
	"github.com/esdaly/storefront/internal/persistence"
	"github.com/esdaly/storefront/internal/publisher"
	"github.com/esdaly/storefront/internal/storage"
	"github.com/esdaly/storefront/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testTopic = "storefront.storage-changes"

func setupKafka(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr string) {
	t.Helper()
	conn, err := kafka.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{Topic: testTopic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

// process is one storefront instance with its own in-memory favorites.
func process(t *testing.T, st storage.Storage, opts ...persistence.Option) (*store.FavoritesStore, *persistence.Synchronizer) {
	t.Helper()
	favs := store.NewFavoritesStore()
	syncer := persistence.New(st, opts...)
	require.NoError(t, persistence.Bind[domain.FavoriteEntry](syncer, favs))
	syncer.Hydrate(context.Background())
	syncer.Start()
	t.Cleanup(syncer.Close)
	return favs, syncer
}

func TestChangeFeed_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	broker := setupKafka(t)
	createTopic(t, broker)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	shared := storage.NewRedisStorage(client, "shopper-1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := publisher.New(publisher.NewKafkaWriter(testTopic, broker), "shopper-1", "origin-a", nil)
	go pub.Run(ctx)
	t.Cleanup(func() { _ = pub.Close(context.Background()) })

	favsA, _ := process(t, shared, persistence.WithWriteListener(pub.Notify))
	favsB, syncB := process(t, shared)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     "storefront-origin-b",
		StartOffset: kafka.FirstOffset,
	})
	p := New(reader, syncB, "shopper-1", "origin-b", nil)
	go p.Run(ctx)
	t.Cleanup(p.Close)

	require.NoError(t, favsA.Add(domain.CatalogItem{ID: "p2", Name: "Vase", Price: decimal.NewFromInt(40)}))

	require.Eventually(t, func() bool {
		return favsB.Contains("p2")
	}, 60*time.Second, 200*time.Millisecond)
}
