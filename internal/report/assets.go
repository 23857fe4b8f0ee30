package report

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed assets/*
var assetsFS embed.FS

// Asset file names, both embedded and in an override directory.
const (
	TemplateFile = "template.html"
	CSSFile      = "webtreemap.css"
	JSFile       = "webtreemap.js"
)

// Assets is the static bundle embedded into every report.
type Assets struct {
	Template string
	CSS      string
	JS       string
}

// LoadAssets reads the bundle from dir, or the embedded copy when dir is
// empty. Files missing from dir fall back to the embedded versions.
func LoadAssets(dir string) (*Assets, error) {
	read := func(name string) (string, error) {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err == nil {
				return string(data), nil
			}
			if !os.IsNotExist(err) {
				return "", fmt.Errorf("failed to read asset %s: %w", name, err)
			}
		}
		data, err := assetsFS.ReadFile("assets/" + name)
		if err != nil {
			return "", fmt.Errorf("failed to read embedded asset %s: %w", name, err)
		}
		return string(data), nil
	}

	var a Assets
	var err error
	if a.Template, err = read(TemplateFile); err != nil {
		return nil, err
	}
	if a.CSS, err = read(CSSFile); err != nil {
		return nil, err
	}
	if a.JS, err = read(JSFile); err != nil {
		return nil, err
	}
	return &a, nil
}
