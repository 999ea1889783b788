package models

import "time"

// InquiryStatus is the only mutable field of a stored inquiry.
type InquiryStatus string

const (
	StatusPending  InquiryStatus = "pending"
	StatusResolved InquiryStatus = "resolved"
)

type InquiryKind string

const (
	KindChatLead    InquiryKind = "chat_lead"
	KindContactForm InquiryKind = "contact_form"
)

const (
	SourceChat        = "chat-originated"
	SourceContactForm = "contact-form"
)

// TruncatedAttachmentData replaces attachment bytes when the store is full.
const TruncatedAttachmentData = "DATA_TOO_LARGE_FOR_PREVIEW"

// Inquiry is one element of the persisted lead list. Chat leads carry the
// captured requirement in Message.
type Inquiry struct {
	ID         string        `json:"id"`
	Kind       InquiryKind   `json:"kind"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Company    string        `json:"company,omitempty"`
	Country    string        `json:"country,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Product    string        `json:"product,omitempty"`
	Message    string        `json:"message"`
	Attachment *Attachment   `json:"attachment,omitempty"`
	Status     InquiryStatus `json:"status"`
	Source     string        `json:"source"`
	CreatedAt  time.Time     `json:"createdAt"`
}

type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"` // data URL
}

// FollowUpVariables are the process variables of a lead follow-up instance.
type FollowUpVariables struct {
	LeadID      string `json:"leadId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company,omitempty"`
	Country     string `json:"country,omitempty"`
	Requirement string `json:"requirement"`
	Source      string `json:"source"`
	HighIntent  bool   `json:"highIntent"`
}
