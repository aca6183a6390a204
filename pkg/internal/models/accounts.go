package models

import "gorm.io/datatypes"

// Account is a locally registered user. Name lookups are case-sensitive.
// VotedPolls holds the ids of every poll the account already voted on;
// PollsVoted always equals its length.
type Account struct {
	BaseModel

	Name         string                    `json:"name" gorm:"uniqueIndex"`
	PasswordHash string                    `json:"-"`
	PollsVoted   int                       `json:"polls_voted"`
	VotedPolls   datatypes.JSONSlice[uint] `json:"voted_polls"`
}
