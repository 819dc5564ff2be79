package domain

import "time"

// EnrollmentStatus enumerates payment outcomes of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusSuccess EnrollmentStatus = "SUCCESS"
	EnrollmentStatusPending EnrollmentStatus = "PENDING"
	EnrollmentStatusFailed  EnrollmentStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusSuccess, EnrollmentStatusPending, EnrollmentStatusFailed:
		return true
	}
	return false
}

// PaymentMethodOffline marks payments recorded by an administrator.
const PaymentMethodOffline = "offline"

// PaymentDetails is embedded in an enrollment.
type PaymentDetails struct {
	PaymentID            string    `json:"paymentId" bson:"paymentId"`
	PaymentDate          time.Time `json:"paymentDate" bson:"paymentDate"`
	PaymentMethod        string    `json:"paymentMethod" bson:"paymentMethod"`
	TransactionReference string    `json:"transactionReference,omitempty" bson:"transactionReference,omitempty"`
	AmountPaid           float64   `json:"amountPaid" bson:"amountPaid"`
}

// Enrollment links a user to a course. ID and EnrollmentID hold the same value.
type Enrollment struct {
	ID             string           `json:"id" bson:"_id"`
	EnrollmentID   string           `json:"enrollmentId" bson:"enrollmentId"`
	UserID         string           `json:"userId" bson:"userId"`
	CourseID       string           `json:"courseId" bson:"courseId"`
	CourseTitle    string           `json:"courseTitle" bson:"courseTitle"`
	CoursePrice    float64          `json:"coursePrice" bson:"coursePrice"`
	Status         EnrollmentStatus `json:"status" bson:"status"`
	AmountPaid     float64          `json:"amountPaid" bson:"amountPaid"`
	PaymentDetails PaymentDetails   `json:"paymentDetails" bson:"paymentDetails"`
	EnrolledAt     time.Time        `json:"enrolledAt" bson:"enrolledAt"`
	EnrolledBy     string           `json:"enrolledBy" bson:"enrolledBy"`
	CreatedAt      time.Time        `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt" bson:"updatedAt"`
}

// ImmutableEnrollmentFields lists document keys an update must never touch.
var ImmutableEnrollmentFields = []string{"id", "_id", "enrollmentId", "userId", "courseId", "enrolledAt", "createdAt"}
