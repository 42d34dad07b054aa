package domain

// OutcomeKind is the shape of a search result.
type OutcomeKind string

const (
	OutcomeSuccess         OutcomeKind = "success"
	OutcomeCaptchaRequired OutcomeKind = "captcha_required"
	OutcomeFailure         OutcomeKind = "failure"
)

// Outcome is what a search hands back to its caller. Callers never see raw faults.
type Outcome struct {
	Kind    OutcomeKind       `json:"kind"`
	Record  *CaseRecord       `json:"record,omitempty"`
	Captcha *CaptchaChallenge `json:"captcha,omitempty"`
	Message string            `json:"message"`

	// Mock is set when the record is placeholder data rather than a live result.
	Mock bool `json:"mock"`

	markup string
}

// Succeeded wraps a record parsed from markup.
func Succeeded(record *CaseRecord, markup, message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Record: record, Message: message, markup: markup}
}

// MockSucceeded wraps a placeholder record.
func MockSucceeded(record *CaseRecord, message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Record: record, Message: message, Mock: true}
}

// CaptchaNeeded wraps a CAPTCHA challenge.
func CaptchaNeeded(ch *CaptchaChallenge) Outcome {
	return Outcome{Kind: OutcomeCaptchaRequired, Captcha: ch, Message: "CAPTCHA verification required"}
}

// Failed reports a user-facing failure such as "no case found".
func Failed(message string) Outcome {
	return Outcome{Kind: OutcomeFailure, Message: message}
}

// Markup is the page markup a live record was parsed from, empty otherwise.
func (o Outcome) Markup() string {
	return o.markup
}

func (o Outcome) IsSuccess() bool         { return o.Kind == OutcomeSuccess }
func (o Outcome) IsCaptchaRequired() bool { return o.Kind == OutcomeCaptchaRequired }
