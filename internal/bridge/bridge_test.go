package bridge

import (
	"strings"
	"testing"

	"articulate/internal/provider"
)

func TestDecodeEncode(t *testing.T) {
	msg := Message{
		Type: MsgInitUserConfig,
		Config: &provider.Credentials{
			Provider: provider.ProviderOpenAI, Model: "gpt-4o-mini", APIKey: "k",
		},
	}
	data, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != MsgInitUserConfig || got.Config == nil || got.Config.Model != "gpt-4o-mini" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestDecodeConfigOmittedWhenAbsent(t *testing.T) {
	data, err := Message{Type: MsgForceReinject}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "config") {
		t.Errorf("frame carries config field: %s", data)
	}
}

func TestDecodeMissingType(t *testing.T) {
	if _, err := Decode([]byte(`{"config":null}`)); err == nil {
		t.Fatal("frame without type accepted")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("malformed frame accepted")
	}
}

func TestDecodeUnknownTypeTolerated(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"FUTURE_KIND"}`))
	if err != nil {
		t.Fatalf("unknown type rejected: %v", err)
	}
	if msg.Type != "FUTURE_KIND" {
		t.Errorf("Type = %q", msg.Type)
	}
}

func TestCellSnapshotIsolation(t *testing.T) {
	var cell Cell
	if cell.Snapshot() != nil {
		t.Fatal("unset cell must snapshot nil")
	}

	cell.Set(&provider.Credentials{Provider: provider.ProviderOpenAI, Model: "m1", APIKey: "k"})
	snap := cell.Snapshot()
	if snap == nil || snap.Model != "m1" {
		t.Fatalf("snapshot = %+v", snap)
	}

	// A later update must not mutate an already-taken snapshot.
	cell.Set(&provider.Credentials{Provider: provider.ProviderGemini, Model: "m2", APIKey: "k2"})
	if snap.Model != "m1" {
		t.Error("snapshot mutated by later Set")
	}
	if cur := cell.Snapshot(); cur.Model != "m2" {
		t.Errorf("current = %+v", cur)
	}
}

func TestClientHandleConfigFrames(t *testing.T) {
	var cell Cell
	var configCalls, reinjectCalls int
	c := NewClient("ws://unused", &cell, func() { configCalls++ }, func() { reinjectCalls++ })

	c.Handle(Message{Type: MsgInitUserConfig, Config: &provider.Credentials{Provider: "openai", Model: "m", APIKey: "k"}})
	if cell.Snapshot() == nil || configCalls != 1 {
		t.Fatalf("init frame not applied: calls=%d", configCalls)
	}

	c.Handle(Message{Type: MsgUserConfigUpdated, Config: &provider.Credentials{Provider: "gemini", Model: "m2", APIKey: "k"}})
	if got := cell.Snapshot(); got.Provider != "gemini" || configCalls != 2 {
		t.Fatalf("update frame not applied: %+v calls=%d", got, configCalls)
	}

	c.Handle(Message{Type: MsgForceReinject})
	if reinjectCalls != 1 {
		t.Errorf("reinject calls = %d", reinjectCalls)
	}
}

func TestClientHandleNilConfigIgnored(t *testing.T) {
	var cell Cell
	cell.Set(&provider.Credentials{Provider: "openai", Model: "m", APIKey: "k"})

	var configCalls int
	c := NewClient("ws://unused", &cell, func() { configCalls++ }, nil)

	c.Handle(Message{Type: MsgUserConfigUpdated})
	if configCalls != 0 {
		t.Error("callback fired for config-less frame")
	}
	if cell.Snapshot() == nil {
		t.Error("existing configuration clobbered")
	}
}

func TestClientHandleUnknownIgnored(t *testing.T) {
	var cell Cell
	c := NewClient("ws://unused", &cell, nil, nil)
	c.Handle(Message{Type: "FUTURE_KIND"})
	c.Handle(Message{Type: MsgContentScriptLoaded})
	if cell.Snapshot() != nil {
		t.Error("cell changed by ignored frames")
	}
}
