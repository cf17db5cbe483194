package security

import (
	"testing"
	"time"
)

func TestValidateURL_AllowsPublicURLs(t *testing.T) {
	guard := NewSSRFGuard()

	urls := []string{
		"https://example.com/feed.xml",
		"http://feeds.example.org/podcast.rss",
		"https://198.51.100.7/status-json.xsl",
	}

	for _, u := range urls {
		if err := guard.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestValidateURL_BlocksDangerousURLs(t *testing.T) {
	guard := NewSSRFGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"空URL", ""},
		{"スキームなし", "example.com/feed.xml"},
		{"ftpスキーム", "ftp://example.com/feed.xml"},
		{"fileスキーム", "file:///etc/passwd"},
		{"javascriptスキーム", "javascript:alert(1)"},
		{"localhost", "http://localhost/feed.xml"},
		{"localhost大文字", "http://LOCALHOST/feed.xml"},
		{"ループバックIP", "http://127.0.0.1/feed.xml"},
		{"プライベートIP 10系", "http://10.0.0.5/feed.xml"},
		{"プライベートIP 172系", "http://172.16.0.1/feed.xml"},
		{"プライベートIP 192系", "http://192.168.1.1/feed.xml"},
		{"クラウドメタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"カレントネットワーク", "http://0.0.0.0/feed.xml"},
		{"IPv6ループバック", "http://[::1]/feed.xml"},
		{"IPv6リンクローカル", "http://[fe80::1]/feed.xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.url)
			}
		})
	}
}

func TestNewSafeClient(t *testing.T) {
	guard := NewSSRFGuard()

	client := guard.NewSafeClient(10*time.Second, 1<<20)
	if client == nil {
		t.Fatal("NewSafeClient() = nil")
	}
	if client.Transport == nil {
		t.Error("SSRF防止用のTransportが設定されていない")
	}
}
