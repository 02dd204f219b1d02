package session

// User-facing texts. Markdown ones use the legacy single-asterisk style.
const (
	textWelcome      = "👋 Hi! I am *DocuMind*.\n📸 *Send a photo* of a document and I will offer what to do with it."
	textCleared      = "🗑️ Chat cleared. Send a *new photo* to process!"
	textOnlyPhotos   = "⚠️ *I only understand photos!*\n\nPlease send me an image of a document (compressed, not as a file) so I can read it."
	textLooking      = "👀 Looking at the photo..."
	textAnalyzing    = "🧠 *Analyzing...*"
	textNoText       = "🤷 *No text detected.*\n\nTry a sharper photo with the document filling the frame."
	textFetchFailed  = "⚠️ I could not download the photo, please send it again."
	textExpired      = "⌛ *Session expired.*\n\nPlease send the photo of the document again."
	textFoundCaption = "📄 *I found this text:*"
	textOriginal     = "📄 *Original text:*"
	textWhatNext     = "What should I do with it?"
)
