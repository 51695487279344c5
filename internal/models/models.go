package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryEvent        Category = "event"
	CategoryConstruction Category = "construction"
	CategoryTools        Category = "tools"
	CategoryTransport    Category = "transport"
)

var Categories = []Category{CategoryEvent, CategoryConstruction, CategoryTools, CategoryTransport}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// CartItem is a line of the renter's local selection. Price is the daily
// price of the product at the time it was added.
type CartItem struct {
	Id       string          `json:"id" validate:"required"`
	Title    string          `json:"title" validate:"required"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
}

type Product struct {
	Id          string          `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Category    Category        `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Images      []string        `json:"images" db:"-"`
	Description string          `json:"description" db:"description"`
	Location    *string         `json:"location,omitempty" db:"location"`
	Latitude    *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64        `json:"longitude,omitempty" db:"longitude"`
	UserId      string          `json:"user_id" db:"user_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (p Product) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type Booking struct {
	Id         string          `json:"id" db:"id"`
	ProductId  string          `json:"product_id" db:"product_id"`
	RenterId   string          `json:"renter_id" db:"renter_id"`
	OwnerId    string          `json:"owner_id" db:"owner_id"`
	StartDate  string          `json:"start_date" db:"start_date"`
	EndDate    string          `json:"end_date" db:"end_date"`
	Status     BookingStatus   `json:"status" db:"status"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	Product    *Product        `json:"product,omitempty" db:"-"`
}

// DateRange is a booked (start, end) pair, both inclusive, formatted 2006-01-02.
type DateRange struct {
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
}

type Review struct {
	Id        string    `json:"id" db:"id"`
	ProductId string    `json:"product_id" db:"product_id"`
	UserId    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   *string   `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type User struct {
	Id           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"full_name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Session struct {
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Object is a stored blob, such as a listing photo.
type Object struct {
	Bucket  string `db:"bucket"`
	Path    string `db:"path"`
	Data    []byte `db:"data"`
	Mime    string `db:"mime"`
	OwnerId string `db:"owner_id"`
}
