package main

import (
	"testing"
	"time"

	"github.com/kr/pretty"

	"smppc/session"
)

var configSample = []byte(`
addr: smsc.example.net:2775
bind:
  bindType: transceiver
  systemId: ESME
  password: secret
  systemType: SMPP
enquireDuration: 30s
requestTimeout: 5s
reconnectDelay: 15s
submitRate: 20
source: "48100200300"
`)

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig(configSample)
	if err != nil {
		t.Fatal(err)
	}
	t.Log(pretty.Sprint(config))

	if config.Addr != "smsc.example.net:2775" {
		t.Fatalf("addr = %q", config.Addr)
	}
	if config.Bind.Type != session.BindTRX || config.Bind.SystemID != "ESME" {
		t.Fatalf("bind = %+v", config.Bind)
	}
	if config.MaxError != maxErrors {
		t.Fatalf("maxError default = %d", config.MaxError)
	}

	settings := config.Settings()
	if settings.EnquireLinkTimer != 30*time.Second {
		t.Fatalf("enquire link timer = %s", settings.EnquireLinkTimer)
	}
	if settings.TransactionTimer != 5*time.Second {
		t.Fatalf("transaction timer = %s", settings.TransactionTimer)
	}
	if settings.SubmitRate != 20 {
		t.Fatalf("submit rate = %v", settings.SubmitRate)
	}
}

func TestParseConfigRejectsBadBindType(t *testing.T) {
	if _, err := ParseConfig([]byte("bind:\n  bindType: broadcast\n")); err == nil {
		t.Fatal("bad bind type accepted")
	}
}
