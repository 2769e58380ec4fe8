package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RecordName is the storage name of the persisted session record.
const RecordName = "auth-storage"

const recordVersionCurrent = 1

// ErrRecordCorrupt is returned when a persisted record cannot be decoded.
var ErrRecordCorrupt = errors.New("session: record corrupt")

// Record is the persisted subset of the session. The loading flag is
// transient and never persisted.
type Record struct {
	User            *User   `json:"user"`
	Token           *string `json:"token"`
	IsAuthenticated bool    `json:"isAuthenticated"`
}

type envelope struct {
	State   Record `json:"state"`
	Version int    `json:"version"`
}

// Encode serializes r into the versioned envelope
// {"state":{"user":...,"token":...,"isAuthenticated":...},"version":1}.
func Encode(r Record) ([]byte, error) {
	return json.Marshal(envelope{State: r, Version: recordVersionCurrent})
}

// Decode parses a record produced by [Encode]. Unknown versions, malformed
// JSON, and records whose isAuthenticated flag disagrees with the presence of a
// user are reported as [ErrRecordCorrupt].
func Decode(data []byte) (Record, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if env.Version != recordVersionCurrent {
		return Record{}, fmt.Errorf("%w: unsupported version %d", ErrRecordCorrupt, env.Version)
	}
	r := env.State
	if r.IsAuthenticated != (r.User != nil) {
		return Record{}, fmt.Errorf("%w: isAuthenticated=%t with user present=%t", ErrRecordCorrupt, r.IsAuthenticated, r.User != nil)
	}
	return r, nil
}

func stateFromRecord(r Record) State {
	if r.User == nil {
		return State{}
	}
	u := cloneUser(*r.User)
	token := ""
	if r.Token != nil {
		token = *r.Token
	}
	return State{s: newState(&u, token)}
}
