// Package zoho pushes captured leads into Zoho CRM as contacts.
package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	httpclient "export-assistant/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

type CRMClient struct {
	baseURL string
	http    *httpclient.Client
}

type Contact struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Phone       string `json:"Phone,omitempty"`
	Company     string `json:"Account_Name,omitempty"`
	Country     string `json:"Mailing_Country,omitempty"`
	Description string `json:"Description,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
}

type createContactResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string, timeout time.Duration) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		baseURL: baseURL,
		http:    httpclient.NewClient(timeout).WithHeader("Authorization", "Zoho-oauthtoken "+oauthToken),
	}
}

func (c *CRMClient) CreateContact(ctx context.Context, contact *Contact) (string, error) {
	payload := map[string]interface{}{"data": []Contact{*contact}}

	var resp createContactResponse
	if _, err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/Contacts", payload, &resp); err != nil {
		return "", fmt.Errorf("create contact: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("create contact: no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("create contact: %s: %s", resp.Data[0].Code, resp.Data[0].Message)
	}
	return resp.Data[0].Details.ID, nil
}

// SearchContacts finds contacts by exact email. Zoho answers 204 when
// nothing matches.
func (c *CRMClient) SearchContacts(ctx context.Context, email string) ([]Contact, error) {
	endpoint := fmt.Sprintf("%s/Contacts/search?email=%s", c.baseURL, url.QueryEscape(email))

	var result struct {
		Data []Contact `json:"data"`
	}
	if _, err := c.http.DoJSON(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return result.Data, nil
}
