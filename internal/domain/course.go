package domain

import "time"

// Course is a purchasable certification course.
type Course struct {
	ID               string    `json:"id" bson:"_id"`
	Title            string    `json:"title" bson:"title"`
	Price            float64   `json:"price" bson:"price"`
	TotalEnrollments int64     `json:"totalEnrollments" bson:"totalEnrollments"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}
