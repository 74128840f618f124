package telemetry

import (
	"encoding/json"
	"testing"
)

func TestParseIdentifier(t *testing.T) {
	id, err := ParseIdentifier("spacecraft:fuel")
	if err != nil {
		t.Fatalf("ParseIdentifier failed: %v", err)
	}
	if id.Namespace != "spacecraft" || id.Key != "fuel" {
		t.Errorf("Expected spacecraft:fuel, got %s", id)
	}

	// Keys may themselves contain the separator
	id, err = ParseIdentifier("sc:imagery:raw")
	if err != nil {
		t.Fatalf("ParseIdentifier failed: %v", err)
	}
	if id.Key != "imagery:raw" {
		t.Errorf("Expected key imagery:raw, got %q", id.Key)
	}
}

func TestParseIdentifier_Malformed(t *testing.T) {
	for _, s := range []string{"", "nokey", ":key", "ns:"} {
		if _, err := ParseIdentifier(s); err == nil {
			t.Errorf("Expected error for %q, got nil", s)
		}
	}
}

func TestValue_JSONRoundTrip(t *testing.T) {
	cases := []struct {
		value Value
		want  string
	}{
		{Float64(42.5), "42.5"},
		{String("NOMINAL"), `"NOMINAL"`},
		{Boolean(true), "true"},
	}

	for _, tc := range cases {
		data, err := json.Marshal(tc.value)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != tc.want {
			t.Errorf("Expected %s, got %s", tc.want, data)
		}

		var got Value
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if !got.Equal(tc.value) {
			t.Errorf("Round trip mismatch: %+v != %+v", got, tc.value)
		}
	}
}

func TestValue_UnmarshalRejectsCompound(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"nested":1}`), &v); err == nil {
		t.Error("Expected error for object value, got nil")
	}
	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Error("Expected error for array value, got nil")
	}
}
