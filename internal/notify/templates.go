// internal/notify/templates.go
package notify

import (
	"fmt"
	"strings"

	"researchhub/internal/models"
)

// Template holds the static rendering rules for one event type.
type Template struct {
	Subject string
	Text    string
	HTML    string
}

// Templates maps each lifecycle event to its message. Placeholders come
// from the notification context.
func Templates() map[models.EventType]Template {
	return map[models.EventType]Template{
		models.EventApplicationReceived: {
			Subject: "Application received: {{projectTitle}}",
			Text:    "Hi {{recipientName}}, your application to \"{{projectTitle}}\" has been received. You will hear back once the professor reviews it.",
			HTML:    "<p>Hi {{recipientName}},</p><p>Your application to <strong>{{projectTitle}}</strong> has been received. You will hear back once the professor reviews it.</p>",
		},
		models.EventApplicationAlert: {
			Subject: "New application for {{projectTitle}}",
			Text:    "{{studentName}} has applied to your project \"{{projectTitle}}\".",
			HTML:    "<p><strong>{{studentName}}</strong> has applied to your project <strong>{{projectTitle}}</strong>.</p>",
		},
		models.EventStatusChanged: {
			Subject: "Application status updated: {{projectTitle}}",
			Text:    "Hi {{recipientName}}, the status of your application to \"{{projectTitle}}\" changed to {{status}}.",
			HTML:    "<p>Hi {{recipientName}},</p><p>The status of your application to <strong>{{projectTitle}}</strong> changed to <strong>{{status}}</strong>.</p>",
		},
		models.EventProjectClosed: {
			Subject: "Project closed: {{projectTitle}}",
			Text:    "Hi {{recipientName}}, the project \"{{projectTitle}}\" is no longer accepting applications and your application has been closed.",
			HTML:    "<p>Hi {{recipientName}},</p><p>The project <strong>{{projectTitle}}</strong> is no longer accepting applications and your application has been closed.</p>",
		},
	}
}

// Render substitutes {{placeholder}} tokens from data; unmatched tokens
// collapse to empty strings.
func Render(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}
	return result
}

// RenderMessage builds the outbound message for a notification, or an error
// when the event type has no template.
func RenderMessage(templates map[models.EventType]Template, n *models.Notification) (*Message, error) {
	tmpl, ok := templates[n.Type]
	if !ok {
		return nil, fmt.Errorf("template not found for type: %s", n.Type)
	}
	data := map[string]string{"recipientName": n.RecipientName}
	for k, v := range n.Context {
		data[k] = v
	}
	return &Message{
		To:      n.RecipientEmail,
		Subject: Render(tmpl.Subject, data),
		Text:    Render(tmpl.Text, data),
		HTML:    Render(tmpl.HTML, data),
	}, nil
}
