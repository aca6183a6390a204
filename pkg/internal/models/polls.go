package models

import "gorm.io/datatypes"

type Poll struct {
	BaseModel

	Question  string                          `json:"question"`
	Options   datatypes.JSONSlice[PollOption] `json:"options"`
	AccountID uint                            `json:"account_id"`
}

type PollOption struct {
	Label string `json:"label"`
	Votes int64  `json:"votes"`
}

// TotalVotes sums every option counter; handy for templates.
func (v Poll) TotalVotes() int64 {
	var total int64
	for _, option := range v.Options {
		total += option.Votes
	}
	return total
}
