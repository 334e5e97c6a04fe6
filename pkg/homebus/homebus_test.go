package homebus

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"automatron/pkg/config"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

type fakeMQTTClient struct {
	mqtt.Client

	connectErr   error
	published    []string
	topics       []string
	disconnected bool
}

func (c *fakeMQTTClient) Connect() mqtt.Token {
	return &fakeToken{err: c.connectErr}
}

func (c *fakeMQTTClient) Publish(topic string, _ byte, _ bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.published = append(c.published, payload.(string))
	return &fakeToken{}
}

func (c *fakeMQTTClient) Disconnect(uint) {
	c.disconnected = true
}

func newTestClient(t *testing.T, fake *fakeMQTTClient) *Client {
	t.Helper()

	client, err := NewClient(config.HomeConfig{BrokerURL: "mqtt://broker.local:1883", Topic: "home"}, slog.Default())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	client.newClient = func(*mqtt.ClientOptions) mqtt.Client { return fake }

	return client
}

func TestSendPublishesSequenceInOrder(t *testing.T) {
	fake := &fakeMQTTClient{}
	client := newTestClient(t, fake)

	commands := []string{"plugs on", "lights on", "ac on"}
	if err := client.Send(context.Background(), commands...); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	if !reflect.DeepEqual(fake.published, commands) {
		t.Fatalf("published = %v, want %v", fake.published, commands)
	}
	for _, topic := range fake.topics {
		if topic != "home" {
			t.Fatalf("published to topic %q, want %q", topic, "home")
		}
	}
	if !fake.disconnected {
		t.Fatal("expected graceful disconnect after publish")
	}
}

func TestSendConnectFailure(t *testing.T) {
	fake := &fakeMQTTClient{connectErr: errors.New("connection refused")}
	client := newTestClient(t, fake)

	err := client.Send(context.Background(), "ac on")
	if err == nil {
		t.Fatal("expected connect error")
	}
	if len(fake.published) != 0 {
		t.Fatalf("published %v after failed connect, want none", fake.published)
	}
}

func TestSendRequiresCommands(t *testing.T) {
	client := newTestClient(t, &fakeMQTTClient{})

	if err := client.Send(context.Background()); err == nil {
		t.Fatal("expected error for empty command list")
	}
}
