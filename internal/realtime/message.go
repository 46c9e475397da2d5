package realtime

type SSEEvent string

const (
	SSEEventMessagesUpserted    SSEEvent = "MessagesUpserted"
	SSEEventMessageDelta        SSEEvent = "MessageDelta"
	SSEEventDescendantsDeleted  SSEEvent = "DescendantsDeleted"
	SSEEventCompletionsUpserted SSEEvent = "CompletionsUpserted"
	SSEEventViewPiecesUpserted  SSEEvent = "ViewPiecesUpserted"
	SSEEventFlagsUpserted       SSEEvent = "FlagsUpserted"
	SSEEventThreadsUpserted     SSEEvent = "ThreadsUpserted"
	SSEEventThreadWrap          SSEEvent = "ThreadWrap"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}
