package domain

// Endpoint identifies the request surface a client is calling. It is resolved
// by HTTP routing before the normalization pipeline runs and never changes
// during a request.
type Endpoint string

const (
	EndpointChatCompletions  Endpoint = "chat.completions"
	EndpointResponses        Endpoint = "responses"
	EndpointMessages         Endpoint = "messages"
	EndpointEmbeddings       Endpoint = "embeddings"
	EndpointModerations      Endpoint = "moderations"
	EndpointImageGenerations Endpoint = "images.generations"
	EndpointAudioSpeech      Endpoint = "audio.speech"
	EndpointVideoGeneration  Endpoint = "video.generation"
	EndpointOCR              Endpoint = "ocr"
	EndpointMusicGenerate    Endpoint = "music.generate"
)

// Family groups endpoints that share a request shape.
type Family string

const (
	FamilyText  Family = "text"
	FamilyMedia Family = "media"
)

// Family returns the endpoint family. Only the text family carries a
// parameter registry; media endpoints pass all fields through to their own
// decoders.
func (e Endpoint) Family() Family {
	switch e {
	case EndpointChatCompletions, EndpointResponses, EndpointMessages:
		return FamilyText
	default:
		return FamilyMedia
	}
}

// IsText reports whether the endpoint belongs to the text-generation family.
func (e Endpoint) IsText() bool {
	return e.Family() == FamilyText
}
