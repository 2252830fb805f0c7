/*
Package server implements msgpack IPC for vocabulary sieving services.

The server reads a stream of msgpack encoded requests from stdin and writes
one msgpack encoded response per request to stdout. Logs go to stderr.

# IPC

Each request names an action and carries an ID. Requests without an ID get
a ULID assigned, echoed back in the response so clients can still match
answers when they pipeline.

Adding text and reading the sieved vocabulary:

	{"id": "r1", "action": "add", "text": "The cats were running."}
	{"id": "r2", "action": "list", "segment": "target"}

Segments are all (default), target, common, new, acquainted, mine and top.
The list response carries entries in discovery order:

	{"id": "r2", "status": "ok", "e": [{"w": "cat", "q": 1, "src": [...], "d": ["cats"]}], "c": 1, "t": 312}

Prefix lookups search stems and every derived form, ranked by frequency:

	{"id": "r3", "action": "lookup", "p": "run", "l": 10}

Marking words as known, or forgetting them again:

	{"id": "r4", "action": "acquaint", "words": ["cat", "run"]}
	{"id": "r5", "action": "revoke", "word": "run"}

"reset" drops all added text, "stats" reports sizes and "health" answers
with a plain ok. "config" changes lookup limits at runtime, as in:

	{"id": "r6", "action": "config", "max_limit": 32}

Timings ("t") are in microseconds.

msgpack keeps messages smaller than JSON and needs no line framing, so
texts may contain any character.
*/
package server

import "github.com/bastiangx/wordsieve/pkg/sieve"

// Request is any client message. Only the fields of its action are read.
type Request struct {
	ID      string   `msgpack:"id"`
	Action  string   `msgpack:"action"`
	Text    string   `msgpack:"text,omitempty"`
	Segment string   `msgpack:"segment,omitempty"` // see sieve.ParseSegment
	Prefix  string   `msgpack:"p,omitempty"`
	Limit   int      `msgpack:"l,omitempty"`
	Words   []string `msgpack:"words,omitempty"`
	Word    string   `msgpack:"word,omitempty"`

	MaxLimit     *int  `msgpack:"max_limit,omitempty"`
	MinPrefix    *int  `msgpack:"min_prefix,omitempty"`
	MaxPrefix    *int  `msgpack:"max_prefix,omitempty"`
	EnableFilter *bool `msgpack:"enable_filter,omitempty"`
}

// StatusResponse answers actions that return no data.
type StatusResponse struct {
	ID     string `msgpack:"id,omitempty"`
	Status string `msgpack:"status"`
	Count  int    `msgpack:"c,omitempty"`
}

// ListResponse carries sieved entries.
type ListResponse struct {
	ID        string        `msgpack:"id"`
	Status    string        `msgpack:"status"`
	Entries   []sieve.Entry `msgpack:"e"`
	Count     int           `msgpack:"c"`
	TimeTaken int64         `msgpack:"t"`
}

// LookupSuggestion is one prefix match.
type LookupSuggestion struct {
	Word      string `msgpack:"w"`
	Rank      uint16 `msgpack:"r"`
	Frequency int    `msgpack:"f"`
	Phase     string `msgpack:"ph"`
}

// LookupResponse answers a prefix lookup.
type LookupResponse struct {
	ID          string             `msgpack:"id"`
	Status      string             `msgpack:"status"`
	Suggestions []LookupSuggestion `msgpack:"s"`
	Count       int                `msgpack:"c"`
	TimeTaken   int64              `msgpack:"t"`
}

// StatsResponse reports session sizes.
type StatsResponse struct {
	ID        string `msgpack:"id"`
	Status    string `msgpack:"status"`
	User      string `msgpack:"user"`
	Texts     int    `msgpack:"texts"`
	Words     int    `msgpack:"words"`
	Entries   int    `msgpack:"entries"`
	Target    int    `msgpack:"target"`
	Common    int    `msgpack:"common"`
	Nodes     int    `msgpack:"nodes"`
	Labels    int    `msgpack:"labels"`
	Builds    int    `msgpack:"builds"`
	BuildTime int64  `msgpack:"build_t"`
}

// ConfigResponse reports the limits in effect after a config action.
type ConfigResponse struct {
	ID           string `msgpack:"id"`
	Status       string `msgpack:"status"`
	MaxLimit     int    `msgpack:"max_limit"`
	MinPrefix    int    `msgpack:"min_prefix"`
	MaxPrefix    int    `msgpack:"max_prefix"`
	EnableFilter bool   `msgpack:"enable_filter"`
}

// ErrorResponse holds basic error information for any request
type ErrorResponse struct {
	ID    string `msgpack:"id,omitempty"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}
