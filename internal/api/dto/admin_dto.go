package dto

import (
	"time"

	"github.com/certhub/admin-gateway/internal/domain"
)

// ToggleUserRequest payload for POST /admin/toggleUser.
type ToggleUserRequest struct {
	UID    string `json:"uid" validate:"required"`
	Action string `json:"action" validate:"required,oneof=enable disable"`
}

// CreateUserRequest payload for POST /admin/createUser.
type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
}

// PaymentDataRequest carries optional payment data for an enrollment.
type PaymentDataRequest struct {
	PaymentID            string     `json:"paymentId"`
	PaymentDate          *time.Time `json:"paymentDate"`
	PaymentMethod        string     `json:"paymentMethod"`
	TransactionReference string     `json:"transactionReference"`
	AmountPaid           *float64   `json:"amountPaid" validate:"omitempty,gte=0"`
}

// CreateEnrollmentRequest payload for POST /admin/createEnrollment.
type CreateEnrollmentRequest struct {
	UserID      string              `json:"userId" validate:"required"`
	CourseID    string              `json:"courseId" validate:"required"`
	CourseTitle string              `json:"courseTitle"`
	CoursePrice float64             `json:"coursePrice" validate:"gte=0"`
	PaymentData *PaymentDataRequest `json:"paymentData"`
	EnrolledBy  string              `json:"enrolledBy"`
}

// UpdateEnrollmentRequest lists the enrollment fields an admin may change.
// Keys outside this set, including identity and foreign-key fields, are ignored.
type UpdateEnrollmentRequest struct {
	Status         *domain.EnrollmentStatus `json:"status" validate:"omitempty,oneof=SUCCESS PENDING FAILED"`
	CourseTitle    *string                  `json:"courseTitle"`
	CoursePrice    *float64                 `json:"coursePrice" validate:"omitempty,gte=0"`
	AmountPaid     *float64                 `json:"amountPaid" validate:"omitempty,gte=0"`
	PaymentDetails *domain.PaymentDetails   `json:"paymentDetails"`
	EnrolledBy     *string                  `json:"enrolledBy"`
}

// Fields returns the provided fields keyed by document field name.
func (r UpdateEnrollmentRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if r.CourseTitle != nil {
		fields["courseTitle"] = *r.CourseTitle
	}
	if r.CoursePrice != nil {
		fields["coursePrice"] = *r.CoursePrice
	}
	if r.AmountPaid != nil {
		fields["amountPaid"] = *r.AmountPaid
	}
	if r.PaymentDetails != nil {
		fields["paymentDetails"] = *r.PaymentDetails
	}
	if r.EnrolledBy != nil {
		fields["enrolledBy"] = *r.EnrolledBy
	}
	return fields
}

// ListEnrollmentsQuery query for GET /admin/enrollments/:userId.
type ListEnrollmentsQuery struct {
	Status string `query:"status" validate:"omitempty,oneof=SUCCESS PENDING FAILED"`
}

// ListUsersQuery query for GET /admin/users.
type ListUsersQuery struct {
	Limit  int `query:"limit" validate:"gte=0"`
	Offset int `query:"offset" validate:"gte=0"`
}
