package chat

import "regexp"

type Route string

const (
	RouteLeadCapture    Route = "lead_capture"
	RouteDeepReasoning  Route = "deep_reasoning"
	RouteSearchGrounded Route = "search_grounded"
	RouteContextualChat Route = "contextual_chat"
)

// complexLength is the message length above which a question is sent to
// the reasoning model regardless of keywords.
const complexLength = 50

var (
	inquiryPattern   = regexp.MustCompile(`(?i)price|quote|buy|order|export|catalog|interest|shipping|cost|available`)
	technicalPattern = regexp.MustCompile(`(?i)technical|parameter|tolerance|efficiency`)
	marketPattern    = regexp.MustCompile(`(?i)market|latest|current|global|trend`)
)

// Classify picks the route for a message received outside the capture
// sequence. Lead capture wins over every other route but only from Idle.
func Classify(text string, st Stage) Route {
	if _, idle := st.(Idle); idle && inquiryPattern.MatchString(text) {
		return RouteLeadCapture
	}
	if len([]rune(text)) > complexLength || technicalPattern.MatchString(text) {
		return RouteDeepReasoning
	}
	if marketPattern.MatchString(text) {
		return RouteSearchGrounded
	}
	return RouteContextualChat
}
