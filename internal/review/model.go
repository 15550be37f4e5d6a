package review

import "time"

type Review struct {
	ID         int       `db:"id" json:"id"`
	BookingID  int       `db:"booking_id" json:"booking_id"`
	ProviderID int       `db:"provider_id" json:"provider_id"`
	CustomerID int       `db:"customer_id" json:"customer_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"max=2000"`
}
