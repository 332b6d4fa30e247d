package experience

import "strings"

// ResponseKind tags the payload shape stored for a step.
type ResponseKind string

const (
	ResponseUnanswered ResponseKind = "unanswered"
	ResponseBool       ResponseKind = "bool"
	ResponseScalar     ResponseKind = "scalar"
	ResponseText       ResponseKind = "text"
	ResponseOptions    ResponseKind = "options"
	ResponseMedia      ResponseKind = "media"
)

// MediaRef points at an uploaded capture asset.
type MediaRef struct {
	AssetID string `json:"asset_id"`
	URL     string `json:"url"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// Response is the guest-entered or guest-captured payload for one step. The
// zero value is the explicit unanswered sentinel.
type Response struct {
	Kind    ResponseKind `json:"kind"`
	Bool    bool         `json:"bool,omitempty"`
	Scalar  float64      `json:"scalar,omitempty"`
	Text    string       `json:"text,omitempty"`
	Options []string     `json:"options,omitempty"`
	Media   []MediaRef   `json:"media,omitempty"`
}

// Answered reports whether the response carries a payload at all.
func (r Response) Answered() bool {
	return r.Kind != "" && r.Kind != ResponseUnanswered
}

// BoolResponse records a yes/no answer.
func BoolResponse(v bool) Response { return Response{Kind: ResponseBool, Bool: v} }

// ScalarResponse records a numeric scale answer.
func ScalarResponse(v float64) Response { return Response{Kind: ResponseScalar, Scalar: v} }

// TextResponse records a free-text answer.
func TextResponse(v string) Response { return Response{Kind: ResponseText, Text: v} }

// OptionsResponse records a multi-select answer.
func OptionsResponse(v []string) Response { return Response{Kind: ResponseOptions, Options: v} }

// MediaResponse records uploaded capture assets.
func MediaResponse(refs ...MediaRef) Response { return Response{Kind: ResponseMedia, Media: refs} }

func (r Response) hasText() bool { return strings.TrimSpace(r.Text) != "" }

func (r Response) hasOptions() bool { return len(r.Options) > 0 }

func (r Response) hasMedia() bool {
	for _, ref := range r.Media {
		if strings.TrimSpace(ref.AssetID) != "" || strings.TrimSpace(ref.URL) != "" {
			return true
		}
	}
	return false
}
