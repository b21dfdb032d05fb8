package domain

import "github.com/samber/lo"

type Vote struct {
	ClientID ConnID  `json:"clientId"`
	Value    float64 `json:"value"`
}

// Votes holds at most one entry per client. New clients are appended,
// known clients are updated in place.
type Votes []Vote

// Upsert returns the list with the client's value set.
func (v Votes) Upsert(client ConnID, value float64) Votes {
	out := v.Clone()
	for i := range out {
		if out[i].ClientID == client {
			out[i].Value = value
			return out
		}
	}
	return append(out, Vote{ClientID: client, Value: value})
}

// Without returns the list minus the client's entry and whether one was dropped.
func (v Votes) Without(client ConnID) (Votes, bool) {
	out := Votes(lo.Reject([]Vote(v), func(item Vote, _ int) bool { return item.ClientID == client }))
	return out, len(out) != len(v)
}

func (v Votes) Clone() Votes {
	out := make(Votes, len(v))
	copy(out, v)
	return out
}
