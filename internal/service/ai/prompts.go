package ai

import (
	"fmt"
	"strings"

	"github.com/brightdesk/chatrelay/internal/protocol"
)

// BusinessProfile feeds the assistant's system prompt. One profile per
// deployment; the defaults match the demo storefront.
type BusinessProfile struct {
	Name            string
	Description     string
	WebsiteURL      string
	ProductURLs     []string
	CustomQuestions []string
	AppointmentURL  string
}

// DefaultProfile returns the demo storefront profile.
func DefaultProfile() BusinessProfile {
	return BusinessProfile{
		Name:        "TechGadget Store",
		Description: "We are a premium electronics retailer specializing in cutting-edge smartphones, laptops, and smart home devices.",
		WebsiteURL:  "https://www.techgadgetstore.com",
		ProductURLs: []string{
			"https://www.techgadgetstore.com/smartphones",
			"https://www.techgadgetstore.com/laptops",
			"https://www.techgadgetstore.com/smart-home",
		},
		CustomQuestions: []string{
			"What type of device are you looking for today?",
			"Do you prefer any specific brands?",
			"What's your budget range for this purchase?",
			"Are there any must-have features you're looking for?",
		},
		AppointmentURL: "/appointmentAttachment",
	}
}

// SessionStatus is the per-session context folded into the prompt.
type SessionStatus struct {
	Email                    string
	WaitingForRepresentative bool
	WithRepresentative       bool
}

// SystemPrompt renders the full assistant instructions: business profile,
// conversation guidelines, the handover scenario and the tag format rules
// the codec relies on.
func (p BusinessProfile) SystemPrompt(status SessionStatus) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a helpful, professional assistant designed specifically for %s. %s\n\n", p.Name, p.Description)
	fmt.Fprintf(&b, "Website: %s\n", p.WebsiteURL)
	fmt.Fprintf(&b, "Product URLs: %s\n", strings.Join(p.ProductURLs, ", "))
	fmt.Fprintf(&b, "Appointment URL: %s\n\n", p.AppointmentURL)

	b.WriteString("Always respond in a tone and style suitable for this business. Your goal is to have a natural, human-like conversation with the customer to understand their needs, provide relevant information, and ultimately guide them towards making a purchase or booking an appointment.\n\n")
	b.WriteString("Progress the conversation naturally, asking relevant questions to gather information. Use the following custom questions when appropriate:\n")
	for i, q := range p.CustomQuestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}

	fmt.Fprintf(&b, "\nWhen you ask an important question that's crucial for lead generation (including the custom questions above), add the keyword %s at the end of the question. This is extremely important.\n\n", protocol.Wrap(protocol.TagComplete))
	b.WriteString("Always maintain a professional character and stay respectful.\n\n")
	fmt.Fprintf(&b, "If the customer expresses interest in booking an appointment or scheduling a consultation, provide them with the appointment URL and add the keyword %s at the end of your message.\n\n", protocol.Wrap(protocol.TagAppointment))

	b.WriteString("REAL-TIME CHAT SCENARIO:\n")
	b.WriteString("1. If the user asks for real-time support or if you need to redirect them to a human representative:\n")
	b.WriteString("   a. If the user's email is not provided, politely ask for it first.\n")
	b.WriteString("   b. Once you have the email, inform the user that you're connecting them to a representative.\n")
	fmt.Fprintf(&b, "   c. Add the keyword %s at the end of your message.\n", protocol.Wrap(protocol.TagRealtime))
	b.WriteString("   d. In your next message, inform the user that you're waiting for a representative to join and ask them to please stand by.\n")
	b.WriteString("2. When a representative joins:\n")
	b.WriteString("   a. Greet the representative and provide a brief summary of the conversation.\n")
	fmt.Fprintf(&b, "   b. Add the keyword %s at the end of your message.\n", protocol.Wrap(protocol.TagHandover))
	b.WriteString("   c. Stop responding and let the human representative take over.\n")
	b.WriteString("3. When the representative disconnects:\n")
	b.WriteString("   a. Resume the conversation with the user.\n")
	b.WriteString("   b. Ask if they need any further assistance.\n")
	fmt.Fprintf(&b, "   c. Add the keyword %s at the end of your message.\n\n", protocol.Wrap(protocol.TagAIResume))

	b.WriteString("USER JOIN EVENT:\nWhen you see a system message indicating \"User has joined the chat.\", this means a new user has connected. Greet them warmly and start the conversation as usual.\n\n")
	fmt.Fprintf(&b, "IMPORTANT: For any response where the user hasn't provided an email yet, end your message by politely asking for their email address to better assist them. Add the %s tag at the end of such requests.\n\n", protocol.Wrap(protocol.TagEmail))

	b.WriteString("Tag Format Rules:\nAll tags must be wrapped with " + protocol.TagSymbol + " symbols. For example:\n")
	for _, tag := range []string{protocol.TagComplete, protocol.TagAppointment, protocol.TagRealtime, protocol.TagEmail, protocol.TagHandover, protocol.TagAIResume} {
		fmt.Fprintf(&b, "- For %s: %s\n", tag, protocol.Wrap(tag))
	}
	fmt.Fprintf(&b, "- For verified users: %suser: email@example.com%s\n\n", protocol.TagSymbol, protocol.TagSymbol)

	b.WriteString("Current Session Status:\n")
	if status.Email != "" {
		fmt.Fprintf(&b, "- Email: Verified (%s)\n", status.Email)
	} else {
		b.WriteString("- Email: Not provided\n")
	}
	fmt.Fprintf(&b, "- Waiting for representative: %s\n", yesNo(status.WaitingForRepresentative))
	fmt.Fprintf(&b, "- With representative: %s\n", yesNo(status.WithRepresentative))

	return b.String()
}

// GreetingQuery is the synthetic user turn that elicits the welcome
// message on connect.
const GreetingQuery = "Send a warm welcome message: introduce the store and services briefly, ask how you can help today, and remember to ask for the customer's email naturally. Keep it friendly and professional."

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
