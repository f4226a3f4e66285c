package prompt

const (
	// OffTopicResponse is returned when the input gate blocks a message.
	OffTopicResponse = "I'm a travel planning assistant, so I can only help with travel-related questions! Ask me about destinations, packing, attractions, or anything trip-related."

	// SanitizedResponse replaces an answer the output review rejected.
	SanitizedResponse = "I'm here to help with travel planning! Ask me about destinations, packing tips, local attractions, or anything trip-related."

	// FallbackResponse is the last resort when generation and its retry both fail.
	FallbackResponse = "I ran into a temporary issue generating my response. Could you try rephrasing your question? I'm here to help with your travel plans!"
)
