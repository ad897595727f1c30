//go:build integration

package mqtt

import (
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegrationRetainedActiveRevision(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "rza-int-pub"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	topic := client.Topics().ActiveRevision(4242)
	if err := client.PublishRetained(topic, []byte(`{"revision_id":1}`)); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	// A subscriber joining later still receives the retained value.
	opts := pahomqtt.NewClientOptions().AddBroker("tcp://127.0.0.1:1883").SetClientID("rza-int-sub")
	sub := pahomqtt.NewClient(opts)
	if token := sub.Connect(); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("subscriber connect: %v", token.Error())
	}
	defer sub.Disconnect(100)

	received := make(chan []byte, 1)
	sub.Subscribe(topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		received <- m.Payload()
	})

	select {
	case payload := <-received:
		if string(payload) != `{"revision_id":1}` {
			t.Errorf("payload = %s", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained message not received")
	}

	// Clear the retained message.
	if err := client.PublishRetained(topic, nil); err != nil {
		t.Errorf("clearing retained: %v", err)
	}
}

func TestIntegrationHealthCheck(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "rza-int-health"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}
