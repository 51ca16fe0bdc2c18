package segment

import (
	"testing"
)

func TestAppCardTextInvalidJSON(t *testing.T) {
	raw := "not a json payload"
	if got := AppCardText(App{Content: raw}); got != raw {
		t.Errorf("AppCardText() = %q, want raw content back", got)
	}
}

func TestAppCardTextDetailProvider(t *testing.T) {
	content := `{
		"prompt": "[QQ小程序]哔哩哔哩",
		"meta": {
			"detail_1": {
				"title": "哔哩哔哩",
				"desc": "some video title",
				"qqdocurl": "https://b23.tv/abc",
				"host": {"nick": "alice", "uin": 12345}
			}
		}
	}`
	want := "[QQ小程序]哔哩哔哩\nsome video title\nhttps://b23.tv/abc\nshared by: alice (12345)\n"
	if got := AppCardText(App{Content: content}); got != want {
		t.Errorf("AppCardText() = %q, want %q", got, want)
	}
}

func TestAppCardTextDetailMissingURL(t *testing.T) {
	// A known provider with an incomplete payload degrades to raw content.
	content := `{"prompt":"p","meta":{"detail_1":{"title":"哔哩哔哩","desc":"d"}}}`
	if got := AppCardText(App{Content: content}); got != content {
		t.Errorf("AppCardText() = %q, want raw content back", got)
	}
}

func TestAppCardTextUnknownProvider(t *testing.T) {
	content := `{"prompt":"p","meta":{"detail_1":{"title":"somewhere","desc":"d","qqdocurl":"u"}}}`
	if got := AppCardText(App{Content: content}); got != content {
		t.Errorf("AppCardText() = %q, want raw content back", got)
	}
}

func TestAppCardTextNews(t *testing.T) {
	content := `{"prompt":"[shared article]","meta":{"news":{"uin":67890,"jumpUrl":"https://example.com/a"}}}`
	want := "[shared article]\nuin: 67890\nhttps://example.com/a\n"
	if got := AppCardText(App{Content: content}); got != want {
		t.Errorf("AppCardText() = %q, want %q", got, want)
	}
}

func TestAppCardTextNoMeta(t *testing.T) {
	content := `{"prompt":"p"}`
	if got := AppCardText(App{Content: content}); got != content {
		t.Errorf("AppCardText() = %q, want raw content back", got)
	}
}
