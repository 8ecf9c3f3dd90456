package retention

import (
	"context"
	"testing"
	"time"

	"worldmonitor/pkg/config"
	"worldmonitor/pkg/store"
)

func TestStartDisabled(t *testing.T) {
	cancel, err := Start(context.Background(), config.RetentionConfig{Enabled: false})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	cancel()
}

func TestStartRejectsInvalidCron(t *testing.T) {
	_, err := Start(context.Background(), config.RetentionConfig{Enabled: true, Cron: "not a cron"})
	if err == nil {
		t.Fatal("invalid cron accepted")
	}
}

func TestStartDefaultCron(t *testing.T) {
	cancel, err := Start(context.Background(), config.RetentionConfig{Enabled: true})
	if err != nil {
		t.Fatalf("start with default cron: %v", err)
	}
	cancel()
}

func TestRunOnceSweepsExpired(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.SaveResponse("stale", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveResponse("fresh", []byte("y"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	RunOnce(config.RetentionConfig{BatchSize: 10})

	if _, ok, _ := store.GetResponse("stale"); ok {
		t.Fatal("expired entry survived the sweep")
	}
	if _, ok, _ := store.GetResponse("fresh"); !ok {
		t.Fatal("fresh entry removed by the sweep")
	}
}

func TestRunOnceWithoutStoreIsNoop(t *testing.T) {
	// must not panic or error when the cache never opened
	RunOnce(config.RetentionConfig{})
}
