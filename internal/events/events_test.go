package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestBuildMessages(t *testing.T) {
	now := time.Unix(1704067200, 0)
	msgs, err := buildMessages("edge_sideshift", []string{"edge_sideshift:a", "edge_sideshift:b"}, now)
	if err != nil {
		t.Fatalf("buildMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}

	if string(msgs[1].Key) != "edge_sideshift:b" {
		t.Errorf("Key = %q, want %q", msgs[1].Key, "edge_sideshift:b")
	}
	var ev Ingested
	if err := json.Unmarshal(msgs[0].Value, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := Ingested{StorageKey: "edge_sideshift:a", Namespace: "edge_sideshift", IngestedAt: 1704067200}
	if ev != want {
		t.Errorf("event = %+v, want %+v", ev, want)
	}
	if !msgs[0].Time.Equal(now) {
		t.Errorf("Time = %v, want %v", msgs[0].Time, now)
	}
}

func TestKafkaPublisher_NoKeys(t *testing.T) {
	p := NewKafkaPublisher(KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "t"})
	defer p.Close()

	if err := p.PublishIngested(context.Background(), "ns", nil); err != nil {
		t.Errorf("PublishIngested(nil) = %v, want nil", err)
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.PublishIngested(context.Background(), "ns", []string{"ns:a"}); err != nil {
		t.Errorf("PublishIngested() = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
