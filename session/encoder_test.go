package session

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeEnvelopeShape(t *testing.T) {
	u := testUser()
	tok := "tok"
	data, err := Encode(Record{User: &u, Token: &tok, IsAuthenticated: true})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["version"]) != "1" {
		t.Fatalf("version = %s", raw["version"])
	}
	var st map[string]json.RawMessage
	if err := json.Unmarshal(raw["state"], &st); err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, k := range []string{"user", "token", "isAuthenticated"} {
		if _, ok := st[k]; !ok {
			t.Fatalf("state missing %q: %s", k, raw["state"])
		}
	}
	if len(st) != 3 {
		t.Fatalf("state must hold exactly three keys: %s", raw["state"])
	}
}

func TestEncodeAnonymous(t *testing.T) {
	data, err := Encode(State{}.record())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"state":{"user":null,"token":null,"isAuthenticated":false},"version":1}`
	if string(data) != want {
		t.Fatalf("got %s\nwant %s", data, want)
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"malformed":         `{"state":`,
		"unknown version":   `{"state":{"user":null,"token":null,"isAuthenticated":false},"version":2}`,
		"missing version":   `{"state":{"user":null,"token":null,"isAuthenticated":false}}`,
		"user without flag": `{"state":{"user":{"id":"1","username":"a"},"token":null,"isAuthenticated":false},"version":1}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(in)); !errors.Is(err, ErrRecordCorrupt) {
				t.Fatalf("expected ErrRecordCorrupt, got %v", err)
			}
		})
	}
}

func FuzzDecode(f *testing.F) {
	u := testUser()
	tok := "t"
	seed, _ := Encode(Record{User: &u, Token: &tok, IsAuthenticated: true})
	f.Add(seed)
	f.Add([]byte(`{"state":{"user":null,"token":null,"isAuthenticated":false},"version":1}`))
	f.Add([]byte(`null`))

	f.Fuzz(func(t *testing.T, data []byte) {
		rec, err := Decode(data)
		if err != nil {
			if !errors.Is(err, ErrRecordCorrupt) {
				t.Fatalf("unexpected error class: %v", err)
			}
			return
		}
		if rec.IsAuthenticated != (rec.User != nil) {
			t.Fatal("decoded record violates authenticated invariant")
		}
		again, err := Encode(rec)
		if err != nil {
			t.Fatalf("re-encode: %v", err)
		}
		if _, err := Decode(again); err != nil {
			t.Fatalf("re-decode: %v", err)
		}
	})
}
