package models

import "time"

// DeferredAction is a persisted "run handler at time T" record.
// Records are immutable once stored: they are only ever created, fired or canceled.
type DeferredAction struct {
	ID             int64     `bson:"_id" json:"id"`
	HandlerName    string    `bson:"handler" json:"handler"`
	RunAt          time.Time `bson:"runAt" json:"runAt"`
	GuildID        string    `bson:"guildId" json:"guildId"`
	DisplayCommand string    `bson:"command" json:"command"`
	Args           []string  `bson:"args" json:"args"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// NewDeferredAction describes an action that has not been stored yet (no ID, no CreatedAt).
type NewDeferredAction struct {
	HandlerName    string
	RunAt          time.Time
	GuildID        string
	DisplayCommand string
	Args           []string
}

// Remaining returns how long until the action is due, never negative.
func (a *DeferredAction) Remaining(now time.Time) time.Duration {
	d := a.RunAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
