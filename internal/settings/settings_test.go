package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_RoundTripsAndNotifies(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	var changes []Change
	unsubscribe := store.Subscribe(func(c Change) {
		changes = append(changes, c)
	})

	if _, err := store.Get(context.Background(), KeyDefaultTranslator); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Put(context.Background(), KeyDefaultTranslator, json.RawMessage(`"bing"`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := store.Get(context.Background(), KeyDefaultTranslator)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != `"bing"` {
		t.Fatalf("unexpected stored value: %s", value)
	}
	if len(changes) != 1 || changes[0].Key != KeyDefaultTranslator {
		t.Fatalf("unexpected notifications: %+v", changes)
	}

	unsubscribe()
	if err := store.Put(context.Background(), KeyMutualTranslate, json.RawMessage(`true`)); err != nil {
		t.Fatalf("put after unsubscribe: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("unsubscribed callback still invoked: %+v", changes)
	}
}

func TestMemoryStore_RejectsInvalidPayloads(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	cases := []struct {
		key   string
		value string
	}{
		{KeyDefaultTranslator, `""`},
		{KeyDefaultTranslator, `42`},
		{KeyLanguageSetting, `{"from":"en"}`},
		{KeyMutualTranslate, `"yes"`},
		{"unknown_key", `true`},
		{KeyHybridSelections, `{"selections":{}}`},
		{KeyHybridSelections, `{"selections":{"bogusField":"bing"}}`},
		{KeyHybridSelections, `{"engines":["bing"]}`},
	}
	for _, tc := range cases {
		if err := store.Put(context.Background(), tc.key, json.RawMessage(tc.value)); err == nil {
			t.Fatalf("key %q value %s: expected rejection", tc.key, tc.value)
		}
	}
}

func TestUnseenChanges_SkipsRowsAtTheirWatermark(t *testing.T) {
	t.Parallel()

	stored := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	seen := map[string]time.Time{KeyDefaultTranslator: stored}

	// A sweep that finds the row exactly at its watermark is quiet, even when
	// the watermark differs from the clock that produced the local write.
	rows := []Setting{{Key: KeyDefaultTranslator, Value: `"google"`, UpdatedAt: stored}}
	if changes := unseenChanges(seen, rows); len(changes) != 0 {
		t.Fatalf("row at watermark replayed: %+v", changes)
	}

	// A genuinely newer row is surfaced and advances the watermark.
	newer := stored.Add(time.Second)
	rows[0].UpdatedAt = newer
	changes := unseenChanges(seen, rows)
	if len(changes) != 1 || changes[0].Key != KeyDefaultTranslator || string(changes[0].Value) != `"google"` {
		t.Fatalf("unexpected changes: %+v", changes)
	}
	if got := seen[KeyDefaultTranslator]; !got.Equal(newer) {
		t.Fatalf("watermark not advanced: got %v, want %v", got, newer)
	}

	// A second sweep of the same state is quiet again.
	if changes := unseenChanges(seen, rows); len(changes) != 0 {
		t.Fatalf("already-seen row replayed: %+v", changes)
	}
}

func TestUnseenChanges_RecordsUnknownRows(t *testing.T) {
	t.Parallel()

	seen := map[string]time.Time{}
	rows := []Setting{{Key: KeyMutualTranslate, Value: `true`, UpdatedAt: time.Now().UTC()}}
	if changes := unseenChanges(seen, rows); len(changes) != 1 {
		t.Fatalf("unknown row not surfaced: %+v", changes)
	}
	if _, ok := seen[KeyMutualTranslate]; !ok {
		t.Fatal("unknown row not recorded in watermarks")
	}
}

func TestValidateSelectionsPayload(t *testing.T) {
	t.Parallel()

	valid := `{
		"selections": {
			"mainMeaning": "google",
			"detailedMeanings": "bing"
		},
		"engines": ["google", "bing"]
	}`
	if err := ValidateSelectionsPayload(json.RawMessage(valid)); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}

	invalid := []string{
		``,
		`not json`,
		`{"selections":{"mainMeaning":""}}`,
		`{"selections":{"mainMeaning":"google"},"extra":true}`,
		`{"selections":{"mainMeaning":"google"}} trailing`,
	}
	for _, payload := range invalid {
		if err := ValidateSelectionsPayload(json.RawMessage(payload)); err == nil {
			t.Fatalf("payload %q: expected rejection", payload)
		}
	}
}
