package chat

import "fmt"

// Script holds the fixed texts of the assistant.
type Script struct {
	CompanyName  string
	ContactPhone string
	// Context is appended to the contextual chat system instruction.
	Context string
	// ThinkingBudget is passed on the deep reasoning route.
	ThinkingBudget int
}

func DefaultScript() Script {
	return Script{
		CompanyName:    "Savita Global Group of Industries",
		ContactPhone:   "+91 9506943134",
		Context:        "Savita Global specializes in Machinery, Brass Components, and Precision SS parts for global export.",
		ThinkingBudget: 32768,
	}
}

func (s Script) Welcome() string {
	return fmt.Sprintf("Welcome to %s. I am your Industrial AI Assistant. How can I help you with machinery specifications, pricing, or export inquiries today?", s.CompanyName)
}

func (s Script) AskName() string {
	return "I'd be happy to assist with a quotation. To provide accurate technical and shipping estimates, may I have your full name?"
}

func (s Script) AskEmail(name string) string {
	return fmt.Sprintf("Pleasure to meet you, %s. Please provide your business email address so we can send a formal technical proposal.", name)
}

func (s Script) AskRequirement() string {
	return "Thank you. Finally, please briefly describe your industrial requirement (e.g., machine type, volume, or specific parts)."
}

func (s Script) Logged(email string) string {
	return fmt.Sprintf("Requirement logged. Our export manager will review your details and contact you at %s within 24 hours. Anything else I can assist with?", email)
}

// Fallback replaces any answer the collaborator failed to produce.
func (s Script) Fallback() string {
	return fmt.Sprintf("Technical error connecting to core. Please call our export desk directly at %s.", s.ContactPhone)
}

func (s Script) consultantInstruction() string {
	return "You are a senior industrial consultant for Savita Global. Provide deep, reasoned analysis for complex engineering or business queries."
}

func (s Script) assistantInstruction() string {
	return fmt.Sprintf("You are an AI assistant for %s.\nContext: %s.\nAnswer queries professionally about Industrial Machinery, Tools, and Precision Components.\nAlways be helpful and try to capture leads.", s.CompanyName, s.Context)
}
