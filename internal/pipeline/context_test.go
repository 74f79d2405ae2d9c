package pipeline

import (
	"encoding/json"
	"testing"

	"prodlens/internal/stage"
)

func testResult(raw string) *stage.Result {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		panic(err)
	}
	return &stage.Result{Raw: json.RawMessage(raw), Fields: fields}
}

func TestContextPutGet(t *testing.T) {
	c := NewContext()

	if _, ok := c.Get("extracted_attributes"); ok {
		t.Error("Get on empty context reported a hit")
	}

	r := testResult(`{"attributes": {}}`)
	if err := c.Put("extracted_attributes", r); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, ok := c.Get("extracted_attributes")
	if !ok || got != r {
		t.Error("Get did not return the stored result")
	}
}

func TestContextPutIsWriteOnce(t *testing.T) {
	c := NewContext()
	if err := c.Put("k", testResult(`{}`)); err != nil {
		t.Fatalf("first Put failed: %v", err)
	}
	if err := c.Put("k", testResult(`{"other": 1}`)); err == nil {
		t.Fatal("second Put for the same key must fail")
	}
}

func TestContextKeysFollowInsertionOrder(t *testing.T) {
	c := NewContext()
	for _, k := range []string{"b", "a", "c"} {
		if err := c.Put(k, testResult(`{}`)); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
	}
	keys := c.Keys()
	want := []string{"b", "a", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}
