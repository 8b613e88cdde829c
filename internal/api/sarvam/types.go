// Package sarvam provides an HTTP client for the Sarvam translation and
// text-to-speech APIs, plus the table of supported Indian languages.
package sarvam

// Translation modes accepted by /translate.
const (
	ModeFormal            = "formal"
	ModeModernColloquial  = "modern-colloquial"
	ModeClassicColloquial = "classic-colloquial"
	ModeCodeMixed         = "code-mixed"
)

// TranslateRequest is the body of POST /translate.
type TranslateRequest struct {
	Input               string `json:"input"`
	SourceLanguageCode  string `json:"source_language_code"`
	TargetLanguageCode  string `json:"target_language_code"`
	SpeakerGender       string `json:"speaker_gender,omitempty"`
	Mode                string `json:"mode,omitempty"`
	Model               string `json:"model,omitempty"`
	EnablePreprocessing *bool  `json:"enable_preprocessing,omitempty"`
}

// TranslateResponse is the reply of POST /translate.
type TranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// TTSRequest is the body of POST /text-to-speech.
type TTSRequest struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pitch               *float64 `json:"pitch,omitempty"`
	Pace                float64  `json:"pace,omitempty"`
	Loudness            float64  `json:"loudness,omitempty"`
	SpeechSampleRate    int      `json:"speech_sample_rate,omitempty"`
	EnablePreprocessing *bool    `json:"enable_preprocessing,omitempty"`
	Model               string   `json:"model,omitempty"`
}

// TTSResponse carries base64-encoded audio, one entry per input.
type TTSResponse struct {
	Audios []string `json:"audios"`
}

// ErrorResponse is the Sarvam error envelope.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError contains error details.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}
