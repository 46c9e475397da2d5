package steps

import (
	"fmt"
	"strings"

	types "github.com/yungbote/summit-backend/internal/domain/tutor"
	"github.com/yungbote/summit-backend/internal/platform/openai"
)

const tutorSystemPrompt = `You are a patient tutor guiding one student through an activity.
Work through the numbered items in order. Ask one question at a time, wait for the
student's answer, and give short feedback before moving on. Never reveal an answer
before the student has tried. Answer in the student's language unless the activity
says otherwise.`

const completionPrompt = `You review a tutoring conversation and decide which activity items
the student has now finished.

Items (number, state, content):
%s

Conversation:
%s

For every incomplete item the student has now finished, output <complete>N</complete>.
For every item currently being worked on, output <in-progress>N</in-progress>.
If nothing changed, output <none></none>. Use only the item numbers listed above.
Output tags only, one per line.`

const mediaPrompt = `You rewrite the tutor's last message so that media which the tutor
could only describe is shown to the student instead.

Available media (external number: description):
%s

Conversation:
%s

Latest tutor message:
%s

If the latest message refers to one of the available media, rewrite it as a sequence of
<text>...</text>, <image>N</image> and <video>N</video> tags in reading order, removing
any sentence that only describes the media being shown. Use only the numbers listed.
If no media should be shown, output <no-media></no-media>.`

const flagPrompt = `You review a conversation between a student and a tutor. Decide whether
the tutor's last message acknowledges a problem with the tutoring process itself: a request
to flag the conversation, a mistake by the tutor such as a wrong fact, a question that was
not part of the assignment, or garbled or unusual characters in an earlier reply.

Students often get confused about the content or the instructions. That is normal and must
not be flagged. Only the last message matters; ignore flags mentioned earlier.

Example: "Sorry, you're right that it was 1863, not 1862. I'll flag this conversation."
Response: <flag-reason>The tutor gave the wrong date for the Battle of Gettysburg.</flag-reason>

Example: "It sounds like you're confused about the quadratic formula. Let's go over it again."
Response: <no-flags></no-flags>

BEGIN CONVERSATION

%s

END CONVERSATION

If the last message calls for a new flag, output exactly one
<flag-reason>description of the original issue</flag-reason>. Otherwise output <no-flags></no-flags>.`

const judgePrompt = `A tutor message was rewritten to show media directly. Decide whether
the rewrite removed the text that merely described the media now shown.

Original message:
%s

Rewritten message:
%s

Reply REMOVAL_OK if the redundant descriptions were removed, otherwise REMOVAL_NOT_OK.`

const introGreeting = "Hi! I'm your tutor for %q. Let's work through it together. Ready when you are."

func roleFor(r types.SenderRole) openai.Role {
	switch r {
	case types.SenderSystem:
		return openai.RoleSystem
	case types.SenderUser:
		return openai.RoleUser
	default:
		return openai.RoleAssistant
	}
}

func toChat(msgs []*types.Message) []openai.ChatMessage {
	out := make([]openai.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		out = append(out, openai.ChatMessage{Role: roleFor(m.SenderRole), Content: m.Content})
	}
	return out
}

// renderTranscript flattens messages for single-shot analyzer prompts.
func renderTranscript(msgs []*types.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ToUpper(string(m.SenderRole)))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// renderMarkedTranscript is renderTranscript with the final message
// prefixed by a "(BEGIN LAST MESSAGE)" marker.
func renderMarkedTranscript(msgs []*types.Message) string {
	var b strings.Builder
	last := -1
	for i, m := range msgs {
		if m != nil {
			last = i
		}
	}
	for i, m := range msgs {
		if m == nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		if i == last {
			b.WriteString("(BEGIN LAST MESSAGE)\n")
		}
		b.WriteString(strings.ToUpper(string(m.SenderRole)))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func singleShot(model, prompt string) openai.ChatRequest {
	return openai.ChatRequest{
		Model:    model,
		Messages: []openai.ChatMessage{{Role: openai.RoleUser, Content: prompt}},
	}
}

func itemState(done bool) string {
	if done {
		return "complete"
	}
	return "incomplete"
}

func renderItems(items []*types.Item, completed map[string]bool) string {
	var b strings.Builder
	for i, it := range items {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, itemState(completed[it.ID.String()]), it.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
