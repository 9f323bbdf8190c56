package domain

import "time"

// MinItems is the number of approved images a pack needs to be persisted.
const MinItems = 3

type Pack struct {
	Id          string     `json:"id" bson:"_id"`
	Title       string     `json:"title" bson:"title"`
	Creator     string     `json:"creator" bson:"creator"`
	CreatorLink string     `json:"creatorLink,omitempty" bson:"creatorLink,omitempty"`
	Thumbnail   string     `json:"thumbnail" bson:"thumbnail"`
	Images      []string   `json:"emoticons" bson:"images"`
	Validation  Validation `json:"validationInfo" bson:"validation"`
	CreatedAt   time.Time  `json:"createdAt" bson:"createdAt"`
}

type Validation struct {
	TotalSubmitted int            `json:"totalSubmitted" bson:"totalSubmitted"`
	Approved       int            `json:"approved" bson:"approved"`
	Rejected       int            `json:"rejected" bson:"rejected"`
	RejectedItems  []RejectedItem `json:"rejectedItems" bson:"rejectedItems"`
}

type RejectedItem struct {
	FileName string `json:"fileName" bson:"fileName"`
	Reason   string `json:"reason" bson:"reason"`
}

func (v *Validation) Approve() {
	v.Approved++
}

func (v *Validation) Reject(fileName, reason string) {
	v.Rejected++
	v.RejectedItems = append(v.RejectedItems, RejectedItem{FileName: fileName, Reason: reason})
}
