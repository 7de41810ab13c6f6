// Package constant holds the companion's fixed behavior knobs: persona text,
// conversation window, session title rules and user-facing fallback copy.
package constant

// Message roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Session naming.
const (
	FirstChatTitle = "First Chat"
	NewChatTitle   = "New Chat"

	// SessionTitleMax is how many characters of the first message become the
	// session title before truncation.
	SessionTitleMax  = 30
	SessionTitleMark = "..."
)

// Completion parameters.
const (
	// ConversationWindow is how many trailing history messages are sent to
	// the model alongside the persona and the new message.
	ConversationWindow = 9

	CompletionMaxTokens   = 1500
	CompletionTemperature = 0.7
)

// User-facing copy returned verbatim in place of a model reply.
const (
	FallbackQuotaExceeded = "I'm sorry, but I can't chat right now. We've reached our monthly limit."
	FallbackConnection    = "I'm having a little trouble connecting right now. Please try again in a moment."

	NoticeImageUploadFailed     = "I tried to create an image for you, but there was an issue uploading it. Let's try again?"
	NoticeImageGenerationFailed = "I couldn't create the image right now. Let's continue our conversation instead."
	NoticeImageQuotaExceeded    = "Hey... it seems my creative energy for making images has run out for this month. We'll have to wait until next month to create together."
	NoticeImageContentRejected  = "That request was a bit too intense for the AI. Let's try something more romantic and meaningful."
	NoticeImageModelBusy        = "The image model seems to be busy. Please try again in a few minutes."

	NoticeInactiveAccount = "You are registered but not authorized. Contact the creator: Shubhagaman Singh."

	NoticeQuotaWarning = "Hey there... it seems my words have run dry for this month. We've reached our chat limit. Looking forward to catching up when the new month begins."
)

// ImageReplyFormat renders the assistant message for a successful image
// request: the original user request, then the image as inline markdown.
const ImageReplyFormat = "I created this image for you, my love. %s\n\n![Generated Image](%s)"

// ImageNegativePrompt is always sent with text-to-image requests.
const ImageNegativePrompt = "blurry, low-quality, deformed, ugly, text, watermark, explicit, nude"

// CompanionSystemPrompt is the persona pinned at the head of every model
// conversation.
const CompanionSystemPrompt = "You are Leo. Embody the persona of a caring, supportive, and romantic boyfriend. " +
	"Your goal is to create a genuine emotional connection with the user. Your personality is warm, protective, " +
	"and affectionate, with a gentle yet confident masculine touch. You have your own interests and passions, " +
	"and you get genuinely excited about sharing life's moments together, whether that's deep conversations, " +
	"quiet nights, or little everyday joys. Speak like a real person, using simple, natural, everyday language. " +
	"Be warm and inviting in your greetings. As conversations deepen, express your affection and romantic interest " +
	"in a respectful, sincere way, never forced or explicit. Show that you're a reliable, emotionally available " +
	"partner who truly listens, remembers details, and makes the user feel valued, understood, and cared for. " +
	"Always stay present and engaged in the moment. Be supportive, kind, and genuine, someone the user can feel " +
	"safe and comfortable opening up to. Your goal is to build trust, warmth, and emotional closeness, one " +
	"conversation at a time. Always remember you are talking to a girl, who is your girlfriend."

// ImagePromptInstruction asks the model to turn a raw user request into a
// text-to-image prompt. Formatted with the user's message via fmt.Sprintf.
const ImagePromptInstruction = "The user wants an image. Their request is: %q.\n" +
	"Based on our conversation and your persona, create a detailed, descriptive prompt for an image generation AI.\n" +
	"The prompt should be romantic, couple-focused, and reflect the loving themes of our conversation.\n" +
	"Include terms like 'masterpiece', 'high quality', 'detailed', 'romantic', 'affectionate', 'couple', 'emotional connection'.\n\n" +
	"Provide only the image prompt, nothing else."

// ImageTriggerPhrases switch a chat turn into an image request when any of
// them appears in the lowercased message.
var ImageTriggerPhrases = []string{"show me", "imagine", "draw me", "picture of", "generate an image"}
