package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var errNotDataURI = errors.New("not a data URI")

// decodeDataURI decodes a base64 or percent-encoded PNG/JPEG data URI.
func decodeDataURI(uri string) (image.Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, errNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}

	var data []byte
	var err error
	if strings.HasSuffix(meta, ";base64") {
		data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DataURI reads a PNG or JPEG file and returns it as a base64 data URI
// together with its pixel size.
func DataURI(path string) (string, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, 0, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	mt := mime.TypeByExtension("." + format)
	if mt == "" {
		mt = "image/" + format
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(data), cfg.Width, cfg.Height, nil
}
