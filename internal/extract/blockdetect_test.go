package extract

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{"cloudflare header 403", 403, http.Header{"Cf-Ray": {"abc"}}, "denied", BlockCloudflare},
		{"cloudflare server 503", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"challenge body", 200, nil, "<p>Checking your browser before accessing</p>", BlockCloudflare},
		{"captcha body", 200, nil, "<div>Please solve the reCAPTCHA</div>", BlockCaptcha},
		{"js shell", 200, nil, `<noscript>Enable JavaScript to run this app</noscript>`, BlockJSShell},
		{"meta refresh", 200, nil, `<meta http-equiv="refresh" content="0;url=/app">`, BlockJSShell},
		{"large noscript page is content", 200, nil, `<noscript>javascript</noscript>` + strings.Repeat("<p>menu</p>", 300), BlockNone},
		{"clean", 200, nil, "<html><body>Monal Restaurant</body></html>", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Header: tt.header}
			if resp.Header == nil {
				resp.Header = http.Header{}
			}
			assert.Equal(t, tt.want, DetectBlock(resp, []byte(tt.body)))
		})
	}
}

func TestDetectBlock_NilResponse(t *testing.T) {
	assert.Equal(t, BlockNone, DetectBlock(nil, []byte("captcha")))
}
