package validation

import (
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. English text doubles as the key.
const (
	msgRequired      = "%s is required"
	msgMin           = "%s must be at least %s characters"
	msgMax           = "%s must be at most %s characters"
	msgUsernameChars = "%s may only contain letters, digits and the symbols %s"
	msgPassword      = "%s must be at least %d characters and contain a letter, a digit and one of %s"
	msgMismatch      = "%s does not match password"
	msgTimestamp     = "%s must be an RFC 3339 timestamp"
	msgInvalid       = "%s is invalid"
	msgBody          = "request body must be valid JSON"
)

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

var cat = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	ja := map[string]string{
		msgRequired:      "%sは必須です",
		msgMin:           "%sは%s文字以上で入力してください",
		msgMax:           "%sは%s文字以内で入力してください",
		msgUsernameChars: "%sには英数字と記号%sのみ使用できます",
		msgPassword:      "%sは%d文字以上で、英字・数字・記号(%s)をそれぞれ1文字以上含めてください",
		msgMismatch:      "%sがパスワードと一致しません",
		msgTimestamp:     "%sはRFC 3339形式の日時で指定してください",
		msgInvalid:       "%sが不正です",
		msgBody:          "リクエストボディが正しいJSONではありません",
	}
	for key, text := range ja {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Japanese, key, text)
	}
	return b
}()

// Locale picks the response language from Accept-Language. English is the
// fallback.
func Locale(r *http.Request) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

func printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}
