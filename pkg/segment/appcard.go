package segment

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Known app-card providers whose detail payload follows the
// prompt/meta.detail_1 shape with a share description and URL.
const (
	appProviderBilibili = "哔哩哔哩"
	appProviderTencDocs = "腾讯文档"
)

// AppCardText extracts a readable summary from an app-share card payload.
// The payload shape varies per provider; extraction is best effort and any
// failure falls back to the raw opaque content.
func AppCardText(a App) string {
	if !gjson.Valid(a.Content) {
		return a.Content
	}

	var sb strings.Builder
	if prompt := gjson.Get(a.Content, "prompt"); prompt.Type == gjson.String {
		sb.WriteString(prompt.String())
		sb.WriteByte('\n')
	}

	if detail := gjson.Get(a.Content, "meta.detail_1"); detail.Exists() {
		switch detail.Get("title").String() {
		case appProviderBilibili, appProviderTencDocs:
			desc := detail.Get("desc")
			url := detail.Get("qqdocurl")
			if !desc.Exists() || !url.Exists() {
				return a.Content
			}
			sb.WriteString(desc.String())
			sb.WriteByte('\n')
			sb.WriteString(url.String())
			sb.WriteByte('\n')
			if host := detail.Get("host"); host.Exists() {
				sb.WriteString(fmt.Sprintf("shared by: %s (%s)\n",
					host.Get("nick").String(), host.Get("uin").String()))
			}
			return sb.String()
		default:
			return a.Content
		}
	}

	// Article-share cards carry their link under meta.news instead.
	news := gjson.Get(a.Content, "meta.news")
	if !news.Exists() {
		return a.Content
	}
	uin := news.Get("uin")
	url := news.Get("jumpUrl")
	if !uin.Exists() || !url.Exists() {
		return a.Content
	}
	sb.WriteString(fmt.Sprintf("uin: %s\n", uin.String()))
	sb.WriteString(url.String())
	sb.WriteByte('\n')
	return sb.String()
}
