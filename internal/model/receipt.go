package model

import (
	"errors"
	"time"
)

// ReceiptStatus is the lifecycle state of an uploaded receipt.
type ReceiptStatus string

const (
	ReceiptStatusPending   ReceiptStatus = "pending"
	ReceiptStatusProcessed ReceiptStatus = "processed"
	ReceiptStatusError     ReceiptStatus = "error"
)

type Receipt struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"user_id"`
	Image     []byte        `json:"-"`
	MimeType  string        `json:"mime_type"`
	Status    ReceiptStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`

	// set by the analyzer after a successful run
	ExtractedText *string `json:"extracted_text,omitempty"`
	ErrorMessage  *string `json:"error_message,omitempty"`

	// issuer fields extracted from the receipt, coordinates resolved by
	// the geocoder when an address was present
	IssuerName       *string  `json:"issuer_name,omitempty"`
	IssuerStreet     *string  `json:"issuer_street,omitempty"`
	IssuerCity       *string  `json:"issuer_city,omitempty"`
	IssuerPostalCode *string  `json:"issuer_postal_code,omitempty"`
	IssuerCountry    *string  `json:"issuer_country,omitempty"`
	IssuerLatitude   *float64 `json:"issuer_latitude,omitempty"`
	IssuerLongitude  *float64 `json:"issuer_longitude,omitempty"`
}

// IssuerFields is the post-analysis issuer update applied to a receipt.
type IssuerFields struct {
	Name       *string
	Street     *string
	City       *string
	PostalCode *string
	Country    *string
	Latitude   *float64
	Longitude  *float64
}

// ReceiptUploadRequest is the input for storing a new receipt.
type ReceiptUploadRequest struct {
	UserID   int64
	Image    []byte
	MimeType string
}

func (p ReceiptUploadRequest) Validate() error {
	if p.UserID == 0 {
		return errors.New("user_id is required")
	}
	return nil
}

// ReceiptFilter controls List queries.
type ReceiptFilter struct {
	UserID   *int64
	Statuses []ReceiptStatus
	From     *time.Time
	To       *time.Time
	Limit    int  // default 50
	Offset   int  // for pagination
	Desc     bool // order by created_at
}
