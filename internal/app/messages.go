package app

import (
	"net/http"

	"golang.org/x/text/language"
)

// Messages are the user-facing texts of error envelopes.
type Messages struct {
	MissingURL       string
	Processing       string
	Unknown          string
	RateLimited      string
	NotFound         string
	MethodNotAllowed string
}

var (
	supportedLocales = []language.Tag{language.Thai, language.English}
	localeMatcher    = language.NewMatcher(supportedLocales)

	catalog = map[language.Tag]Messages{
		language.Thai: {
			MissingURL:       "ไม่พบ URL ของวิดีโอ",
			Processing:       "เกิดข้อผิดพลาดในการประมวลผลวิดีโอ: ",
			Unknown:          "เกิดข้อผิดพลาดที่ไม่รู้จัก",
			RateLimited:      "มีคำขอมากเกินไป กรุณาลองใหม่ภายหลัง",
			NotFound:         "ไม่พบหน้าที่ร้องขอ",
			MethodNotAllowed: "ไม่รองรับเมธอดนี้",
		},
		language.English: {
			MissingURL:       "Video URL not found",
			Processing:       "Error processing video: ",
			Unknown:          "Unknown error",
			RateLimited:      "Too many requests, please try again later",
			NotFound:         "Not found",
			MethodNotAllowed: "Method not allowed",
		},
	}
)

// MessagesFor returns the catalog entry for a locale such as "th" or "en",
// falling back to Thai.
func MessagesFor(locale string) Messages {
	tag, err := language.Parse(locale)
	if err != nil {
		return catalog[language.Thai]
	}
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return catalog[language.Thai]
	}
	return catalog[supportedLocales[index]]
}

// negotiateMessages picks messages from the Accept-Language header, using
// fallback when the header is absent or matches nothing supported.
func negotiateMessages(r *http.Request, fallback string) Messages {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return MessagesFor(fallback)
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return MessagesFor(fallback)
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return MessagesFor(fallback)
	}
	return catalog[supportedLocales[index]]
}
