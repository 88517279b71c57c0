package models

import "time"

// SquadSize is the required roster length for a registered team.
const SquadSize = 23

type Position string

const (
	PositionGK Position = "GK"
	PositionDF Position = "DF"
	PositionMD Position = "MD"
	PositionAT Position = "AT"
)

type PlayerRatings struct {
	GK int `json:"GK"`
	DF int `json:"DF"`
	MD int `json:"MD"`
	AT int `json:"AT"`
}

// ForPosition returns the rating matching pos, defaulting to 70 for an
// unknown position label.
func (r PlayerRatings) ForPosition(pos Position) int {
	switch pos {
	case PositionGK:
		return r.GK
	case PositionDF:
		return r.DF
	case PositionMD:
		return r.MD
	case PositionAT:
		return r.AT
	}
	return 70
}

// Best returns the highest of the four positional ratings.
func (r PlayerRatings) Best() int {
	best := r.GK
	for _, v := range []int{r.DF, r.MD, r.AT} {
		if v > best {
			best = v
		}
	}
	return best
}

type Player struct {
	Name            string        `json:"name"`
	NaturalPosition Position      `json:"naturalPosition"`
	IsCaptain       bool          `json:"isCaptain"`
	Ratings         PlayerRatings `json:"ratings"`
}

type Team struct {
	ID            string     `json:"id"`
	Federation    string     `json:"federation"`
	Country       string     `json:"country"`
	Manager       string     `json:"manager"`
	Rating        int        `json:"rating"`
	Players       []Player   `json:"players"`
	IsActive      bool       `json:"isActive"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// TeamDetails is the reduced view embedded in bracket responses.
type TeamDetails struct {
	Country    string `json:"country"`
	Federation string `json:"federation"`
	Manager    string `json:"manager"`
	Rating     int    `json:"rating"`
}
