package lib

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFingerprintIdempotent(t *testing.T) {
	a := NormalizeRoster(sampleClients)
	b := NormalizeRoster(sampleClients)
	if Fingerprint(a.Records) != Fingerprint(b.Records) {
		t.Fatalf("same output must give the same fingerprint")
	}

	changed := NormalizeRoster(sampleClients + "extra.example 1 0 6 6 1 0\n")
	if Fingerprint(changed.Records) == Fingerprint(a.Records) {
		t.Fatalf("new client must change the fingerprint")
	}
}

func TestFingerprintIgnoresIntervalLimit(t *testing.T) {
	a, _ := ParseClientLine("10.0.0.5 5 0 64 64 3 1")
	b, _ := ParseClientLine("10.0.0.5 5 0 64 10 3 1")
	if Fingerprint([]ClientRecord{a}) != Fingerprint([]ClientRecord{b}) {
		t.Fatalf("IntL must not affect the fingerprint")
	}
	c, _ := ParseClientLine("10.0.0.5 5 1 64 64 3 1")
	if Fingerprint([]ClientRecord{a}) == Fingerprint([]ClientRecord{c}) {
		t.Fatalf("Drop must affect the fingerprint")
	}
}

func TestNewFeed(t *testing.T) {
	now := time.Date(2025, 3, 7, 9, 5, 2, 0, time.Local)
	feed := NewFeed(Roster{Error: "Error: boom"}, now)
	if feed.LocalTime != "03/07/2025, 09:05:02" {
		t.Fatalf("local time = %q", feed.LocalTime)
	}
	body, err := json.Marshal(feed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if list, ok := decoded["clients_parsed"].([]any); !ok || len(list) != 0 {
		t.Fatalf("clients_parsed must be an empty array: %s", body)
	}
	if decoded["error"] != "Error: boom" {
		t.Fatalf("error missing: %s", body)
	}

	ok := NewFeed(NormalizeRoster(sampleClients), now)
	body, _ = json.Marshal(ok)
	decoded = map[string]any{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, present := decoded["error"]; present {
		t.Fatalf("error must be omitted on success: %s", body)
	}
}

func TestClientRecordUnmarshalDerives(t *testing.T) {
	var rec ClientRecord
	if err := json.Unmarshal([]byte(`{"addr":"2001:db8::5","NTP":"7","Drop":"11","Last":"4m"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.Family != FamilyIPv6 || rec.Drop.Value != 11 || !rec.Last.Valid || rec.Last.Seconds != 240 {
		t.Fatalf("derived fields not set: %+v", rec)
	}
	if rec.CmdPackets != "" {
		t.Fatalf("missing fields must stay empty")
	}
}
