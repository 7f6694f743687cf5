package models

// GenerateEmailRequest is sent by the mail client macro
// @Description Email generation request payload
type GenerateEmailRequest struct {
	FullBody         string `json:"full_body"`         // Full editor body (HTML), used as context
	SelectedText     string `json:"selected_text"`     // Text the user selected: key points, keywords
	ToRecipients     string `json:"to_recipients"`     // Recipient addresses
	Subject          string `json:"subject"`           // Mail subject
	IsReply          bool   `json:"is_reply"`          // Whether the draft is a reply
	AdditionalPrompt string `json:"additional_prompt"` // Extra user instructions
}
