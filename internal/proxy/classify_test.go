package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cls := newClassifier(cfg)

	tests := []struct {
		path string
		want Class
	}{
		{path: "/", want: ClassAppShell},
		{path: "/index.html", want: ClassAppShell},
		{path: "/app.js", want: ClassAppShell},
		{path: "/manifest.json", want: ClassAppShell},
		{path: "/v1/stories", want: ClassAPI},
		{path: "/v1/stories/abc", want: ClassAPI},
		{path: "/static/leaflet/leaflet.js", want: ClassThirdPartyStatic},
		{path: "/photos/story-1.jpg", want: ClassImageFont},
		{path: "/fonts/inter.woff2", want: ClassImageFont},
		{path: "/about", want: ClassPassthrough},
		{path: "/report.pdf", want: ClassPassthrough},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, cls.Classify(tc.path), "path %s", tc.path)
		})
	}
}

func TestClassify_ShellBeatsExtension(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	cls := newClassifier(cfg)

	// favicon.png is in the shell list even though it has an image
	// extension.
	assert.Equal(t, ClassAppShell, cls.Classify("/favicon.png"))
}

func TestIsImage(t *testing.T) {
	assert.True(t, isImage("/a/b.PNG"))
	assert.True(t, isImage("/photo.webp"))
	assert.False(t, isImage("/fonts/inter.woff2"))
}
