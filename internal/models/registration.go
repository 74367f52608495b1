package models

import (
	"fmt"
	"strings"
	"time"
)

// PaymentStatus is what the payer asserts. Uploading proof moves it
// straight to verified so the submission is acknowledged immediately; the
// staff decision lives in PaymentVerification and Status.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Status is a staff-controlled decision.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusRejected
}

// StatusField names one of the two admin-controlled fields.
type StatusField string

const (
	FieldPaymentVerification StatusField = "payment_verification"
	FieldStatus              StatusField = "status"
)

func ParseStatusField(s string) (StatusField, error) {
	switch StatusField(s) {
	case FieldPaymentVerification, FieldStatus:
		return StatusField(s), nil
	}
	return "", fmt.Errorf("unknown status field %q", s)
}

// Applicant holds the free-form fields collected at registration time.
type Applicant struct {
	Institute            string `json:"institute,omitempty"`
	Qualification        string `json:"qualification,omitempty"`
	Referral             string `json:"referral,omitempty"`
	PortfolioPreference1 string `json:"portfolio_preference_1,omitempty"`
	PortfolioPreference2 string `json:"portfolio_preference_2,omitempty"`
	Category             string `json:"category,omitempty"`
}

// PressCategories are the categories offered by category-type MUN committees.
var PressCategories = []string{"Journalism", "Photography"}

// CanonicalCategory matches s case-insensitively against PressCategories.
func CanonicalCategory(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range PressCategories {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

type Registration struct {
	ID                  uint          `json:"id"`
	Payer               Payer         `json:"payer"`
	Event               EventRef      `json:"event"`
	Phone               string        `json:"phone"`
	Applicant           Applicant     `json:"applicant"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentVerification Status        `json:"payment_verification"`
	Status              Status        `json:"status"`
	PaymentProofURL     *string       `json:"payment_proof_url,omitempty"`
	RegisteredAt        time.Time     `json:"registered_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// NewRegistration returns a registration in its initial state.
func NewRegistration(payer Payer, event EventRef, phone string, applicant Applicant) *Registration {
	return &Registration{
		Payer:               payer,
		Event:               event,
		Phone:               phone,
		Applicant:           applicant,
		PaymentStatus:       PaymentPending,
		PaymentVerification: StatusPending,
		Status:              StatusPending,
	}
}

// StatusOf returns the current value of an admin field.
func (r *Registration) StatusOf(field StatusField) Status {
	if field == FieldPaymentVerification {
		return r.PaymentVerification
	}
	return r.Status
}

func (r *Registration) SetStatus(field StatusField, value Status) {
	if field == FieldPaymentVerification {
		r.PaymentVerification = value
		return
	}
	r.Status = value
}

type RegisterSoloRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

type RegisterMUNRequest struct {
	Phone                string `json:"phone" validate:"required,phone"`
	Institute            string `json:"institute" validate:"required,max=200"`
	Qualification        string `json:"qualification" validate:"required,max=200"`
	Referral             string `json:"referral" validate:"max=200"`
	PortfolioPreference1 string `json:"portfolio_preference_1" validate:"max=200"`
	PortfolioPreference2 string `json:"portfolio_preference_2" validate:"max=200"`
	Category             string `json:"category" validate:"max=50"`
}

func (r RegisterMUNRequest) Applicant() Applicant {
	return Applicant{
		Institute:            r.Institute,
		Qualification:        r.Qualification,
		Referral:             r.Referral,
		PortfolioPreference1: r.PortfolioPreference1,
		PortfolioPreference2: r.PortfolioPreference2,
		Category:             r.Category,
	}
}

type SetStatusRequest struct {
	Field  string `json:"field" validate:"required,oneof=payment_verification status"`
	Value  string `json:"value" validate:"required,oneof=pending verified rejected"`
	Notify bool   `json:"notify"`
}

type BulkSetStatusRequest struct {
	IDs    []uint `json:"ids" validate:"required,min=1,max=500"`
	Field  string `json:"field" validate:"required,oneof=payment_verification status"`
	Value  string `json:"value" validate:"required,oneof=pending verified rejected"`
	Notify bool   `json:"notify"`
}

// BulkStatusResult is the per-registration outcome of a bulk update.
type BulkStatusResult struct {
	ID           uint          `json:"id"`
	Registration *Registration `json:"registration,omitempty"`
	Error        string        `json:"error,omitempty"`
	Code         string        `json:"code,omitempty"`
}
