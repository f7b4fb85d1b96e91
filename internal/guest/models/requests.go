package models

import (
	"bytes"
	"encoding/json"
)

// RegisterRequest is the body of POST /add-guest. Leader is the leader's ID as
// sent by the form, empty for leaders.
type RegisterRequest struct {
	Name     string    `json:"name"`
	Lastname string    `json:"lastname"`
	Role     string    `json:"role"`
	Email    string    `json:"email"`
	Leader   LeaderRef `json:"leader"`
	Menu     string    `json:"menu"`
}

// LeaderRef is a leader ID that forms send either as a JSON number or a
// string. null decodes to "".
type LeaderRef string

func (l *LeaderRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LeaderRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = LeaderRef(n.String())
	return nil
}

// GroupRequest is the body of POST /get-group.
type GroupRequest struct {
	Email string `json:"email"`
}

// EditRequest is the body of POST /update-guest. ID accepts a number or a
// numeric string. A nil Menu leaves the menu unchanged.
type EditRequest struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Lastname string      `json:"lastname"`
	Menu     *string     `json:"menu"`
}

// DeleteRequest is the body of POST /delete-guest.
type DeleteRequest struct {
	ID json.Number `json:"id"`
}

// StatisticEntry is one row of GET /get-statistics.
type StatisticEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
