package llm

import (
	"fmt"
	"strings"

	"github.com/brieflyhq/briefly/internal/model"
)

const classifySystemPrompt = "You are an executive email analyst. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// Persona defaults used when a profile field is empty.
const (
	defaultRole    = "busy professional"
	defaultStyle   = "professional and concise"
	defaultContext = "general business"
)

// buildClassifyPrompt renders the persona classification prompt for one
// message. Classification is intent-driven: the model judges what the sender
// wants from the user, not which keywords appear.
func buildClassifyPrompt(msg model.Message, profile *model.PersonaProfile, attachmentAnalysis bool) string {
	role := profile.Role
	if role == "" {
		role = defaultRole
	}
	style := profile.CommunicationStyle
	if style == "" {
		style = defaultStyle
	}
	businessContext := profile.BusinessContext
	if businessContext == "" {
		businessContext = defaultContext
	}
	focus := strings.Join(profile.CurrentFocus, ", ")
	if focus == "" {
		focus = "none specified"
	}
	critical := strings.Join(profile.CriticalCategories, ", ")
	if critical == "" {
		critical = "none specified"
	}

	attachmentSection := "[DISABLED] Ignore attachments entirely."
	if attachmentAnalysis {
		attachmentSection = "[ENABLED] If the email references attachments, describe what they likely contain and why they matter in extracted_info.attachments_insights."
	}

	var b strings.Builder
	b.WriteString("Analyze this email for the user described below.\n\n")
	fmt.Fprintf(&b, "USER PROFILE:\n- Role: %s\n- Current focus: %s\n- Critical categories: %s\n- Communication style: %s\n- Business context: %s\n\n",
		role, focus, critical, style, businessContext)
	b.WriteString(`CLASSIFICATION RULES:
1. Judge the sender's INTENT toward the user, not keywords. A newsletter
   mentioning the user's focus area is still a newsletter.
2. matches_user_profile is true only when the email requires this specific
   user's attention given their role and focus.
3. Pick exactly one importance_level:
   - CRITICAL: act now, material consequence if ignored
   - IMPORTANT: review today
   - USEFUL: review later
   - LOW: optional

`)
	fmt.Fprintf(&b, "ATTACHMENT ANALYSIS: %s\n\n", attachmentSection)
	fmt.Fprintf(&b, "EMAIL:\nFrom: %s\nSubject: %s\nDate: %s\nBody:\n%s\n\n",
		msg.Sender, msg.Subject, msg.Date, msg.Body)
	b.WriteString(`Respond with a JSON object with exactly these fields:
{
  "matches_user_profile": boolean,
  "match_reasoning": string,
  "match_score": number from 0 to 100,
  "importance_level": "CRITICAL" | "IMPORTANT" | "USEFUL" | "LOW",
  "importance_score": number from 0 to 10,
  "executive_summary": string, 1-2 sentences,
  "action_required": string,
  "deadlines": string,
  "risks_leverage": string,
  "sender_goals": string,
  "urgency_signals": string,
  "reply_draft": string, empty if no reply is warranted,
  "extracted_info": {
    "money_amounts": [string],
    "important_links": [string],
    "key_contacts": [string],
    "attachments_insights": [string]
  }
}`)

	return b.String()
}

const draftSystemPrompt = "You are an executive email assistant. Respond with ONLY the reply body text. No subject line, no commentary, no markdown."

// buildDraftPrompt renders the reply-drafting prompt.
func buildDraftPrompt(msg model.Message, profile *model.PersonaProfile) string {
	role := profile.Role
	if role == "" {
		role = defaultRole
	}
	style := profile.CommunicationStyle
	if style == "" {
		style = defaultStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Draft a reply on behalf of a %s. Match this communication style: %s.\n\n", role, style)
	fmt.Fprintf(&b, "EMAIL TO ANSWER:\nFrom: %s\nSubject: %s\nBody:\n%s\n", msg.Sender, msg.Subject, msg.Body)
	return b.String()
}
