package main

import "testing"

func TestRejoinKeyRoundTrip(t *testing.T) {
	rejoin := NewRejoinJWT("test-secret")
	key, err := rejoin.GenerateRejoinKey("ABC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rejoin.RoomIDFromRejoinKey(key); got != "ABC123" {
		t.Errorf("wrong room id expected: %v got: %v", "ABC123", got)
	}
}

func TestRejoinKeyRejectsGarbage(t *testing.T) {
	rejoin := NewRejoinJWT("test-secret")
	if got := rejoin.RoomIDFromRejoinKey("not-a-token"); got != "" {
		t.Errorf("expected empty room id got: %v", got)
	}
	if got := rejoin.RoomIDFromRejoinKey(""); got != "" {
		t.Errorf("expected empty room id got: %v", got)
	}
}

func TestRejoinKeyRejectsForeignSecret(t *testing.T) {
	other := NewRejoinJWT("other-secret")
	key, err := other.GenerateRejoinKey("ABC123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rejoin := NewRejoinJWT("test-secret")
	if got := rejoin.RoomIDFromRejoinKey(key); got != "" {
		t.Errorf("expected empty room id got: %v", got)
	}
}
