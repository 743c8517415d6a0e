package common

import "testing"

func TestLogger_Msg(t *testing.T) {
	log := NewLog()
	log.Msg("test message %d", 1)

	if len(log.Entries) != 1 {
		t.Error("Expected 1 entry")
	}
	if log.Entries[0].Msg != "test message 1" {
		t.Errorf("Wrong message: %s", log.Entries[0].Msg)
	}
	if log.Entries[0].IsError {
		t.Error("Expected not error")
	}
}

func TestLogger_Err(t *testing.T) {
	log := NewLog()
	log.Err("broken %s", "thing")
	log.Dbg("debug output is not recorded")

	entries := log.Snapshot()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if !entries[0].IsError || entries[0].Msg != "broken thing" {
		t.Errorf("Unexpected entry %+v", entries[0])
	}
}

func TestBoundedLog(t *testing.T) {
	log := NewLog()
	log.SetLimit(3)
	for i := 0; i < 5; i++ {
		log.Msg("msg %d", i)
	}
	entries := log.Snapshot()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Msg != "msg 2" || entries[2].Msg != "msg 4" {
		t.Errorf("Expected oldest entries dropped, got %s..%s", entries[0].Msg, entries[2].Msg)
	}
}

func TestLogger_SetLimit(t *testing.T) {
	log := NewLog()
	for i := 0; i < 4; i++ {
		log.Msg("msg %d", i)
	}
	log.SetLimit(2)
	entries := log.Snapshot()
	if len(entries) != 2 || entries[0].Msg != "msg 2" {
		t.Errorf("Expected the 2 newest entries, got %d", len(entries))
	}
}
