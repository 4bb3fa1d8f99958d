package proxy

import (
	"path"
	"strings"
)

// Class is the request category that picks the caching strategy.
type Class int

const (
	// ClassAppShell is the fixed set of documents the application needs
	// to start at all.
	ClassAppShell Class = iota
	// ClassAPI is story API traffic.
	ClassAPI
	// ClassImageFont covers images and web fonts by file extension.
	ClassImageFont
	// ClassThirdPartyStatic is CDN-served assets.
	ClassThirdPartyStatic
	// ClassPassthrough is everything else; forwarded, never cached.
	ClassPassthrough
)

func (c Class) String() string {
	switch c {
	case ClassAppShell:
		return "app-shell"
	case ClassAPI:
		return "api"
	case ClassImageFont:
		return "image-font"
	case ClassThirdPartyStatic:
		return "third-party-static"
	default:
		return "passthrough"
	}
}

// mediaExtensions are the suffixes treated as cache-first media.
var mediaExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".svg": {},
	".ico": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {},
}

// classifier decides the Class of a request path.
type classifier struct {
	shellPaths map[string]struct{}
	apiPrefix  string
	cdnPrefix  string
}

func newClassifier(cfg *Config) *classifier {
	shell := make(map[string]struct{}, len(cfg.ShellPaths))
	for _, p := range cfg.ShellPaths {
		shell[p] = struct{}{}
	}
	return &classifier{
		shellPaths: shell,
		apiPrefix:  cfg.APIPrefix,
		cdnPrefix:  cfg.CDNPrefix,
	}
}

// Classify maps a request path to its strategy class. Precedence follows
// specificity: the shell list, then the API prefix, then the CDN prefix,
// then media extensions.
func (c *classifier) Classify(reqPath string) Class {
	if _, ok := c.shellPaths[reqPath]; ok {
		return ClassAppShell
	}
	if strings.HasPrefix(reqPath, c.apiPrefix) {
		return ClassAPI
	}
	if strings.HasPrefix(reqPath, c.cdnPrefix) {
		return ClassThirdPartyStatic
	}
	if _, ok := mediaExtensions[strings.ToLower(path.Ext(reqPath))]; ok {
		return ClassImageFont
	}
	return ClassPassthrough
}

// isImage reports whether the path looks like an image (as opposed to a
// font), which decides whether a total failure gets the SVG placeholder.
func isImage(reqPath string) bool {
	switch strings.ToLower(path.Ext(reqPath)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico":
		return true
	}
	return false
}
