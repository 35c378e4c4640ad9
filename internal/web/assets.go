package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed assets/*
var embeddedAssets embed.FS

// stylesheet is the logical name of the viewer's only stylesheet.
const stylesheet = "viewer.css"

// viewerAssets holds the static files and the URLs pages link to.
type viewerAssets struct {
	files    fs.FS
	styleURL string
}

// loadAssets reads the embedded manifest and resolves asset URLs. When
// baseURL is set, pages link to externally hosted copies of the files.
func loadAssets(baseURL string) (viewerAssets, error) {
	files, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return viewerAssets{}, fmt.Errorf("web: open embedded assets: %w", err)
	}
	manifest, err := readManifest(files)
	if err != nil {
		return viewerAssets{}, err
	}
	styleURL, err := assetURL(manifest, strings.TrimRight(baseURL, "/"), stylesheet)
	if err != nil {
		return viewerAssets{}, err
	}
	return viewerAssets{files: files, styleURL: styleURL}, nil
}

// readManifest maps logical asset names to file names.
func readManifest(files fs.FS) (map[string]string, error) {
	file, err := files.Open("manifest.json")
	if err != nil {
		return nil, fmt.Errorf("web: read manifest: %w", err)
	}
	defer file.Close()
	var manifest map[string]string
	if err := json.NewDecoder(file).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("web: parse manifest: %w", err)
	}
	return manifest, nil
}

func assetURL(manifest map[string]string, baseURL, logicalName string) (string, error) {
	filename, ok := manifest[logicalName]
	if !ok || filename == "" {
		return "", fmt.Errorf("web: asset not found: %s", logicalName)
	}
	if baseURL == "" {
		return "/assets/" + filename, nil
	}
	return baseURL + "/" + filename, nil
}

// handler serves the embedded files under /assets/.
func (a viewerAssets) handler() http.Handler {
	return getOnly(http.StripPrefix("/assets/", http.FileServerFS(a.files)))
}
